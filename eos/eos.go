// Package eos defines the contract between a thermodynamic state and the
// equation-of-state evaluator that resolves it. Requests and results are
// always expressed in canonical SI units (K, Pa, m**3/kg, J/kg, J/(kg*K)).
package eos

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-thermo/registry"
)

var (
	// ErrUnsupportedSubstance indicates the backend has no model for the substance.
	ErrUnsupportedSubstance = errors.New("eos: unsupported substance")
	// ErrUnsupportedPair indicates the backend cannot invert the given pair.
	ErrUnsupportedPair = errors.New("eos: unsupported property pair")
	// ErrOutOfRange indicates inputs outside the model's validity range.
	ErrOutOfRange = errors.New("eos: input out of range")
	// ErrNotIndependent indicates a pair that does not fix a state for this
	// substance, e.g. quality for a substance without a two-phase model.
	ErrNotIndependent = errors.New("eos: properties are not independent")
	// ErrNoConvergence indicates an iterative inversion did not converge.
	ErrNoConvergence = errors.New("eos: iteration did not converge")
)

// Phase names the phase region of a resolved state.
type Phase string

const (
	PhaseLiquid              Phase = "liquid"
	PhaseGas                 Phase = "gas"
	PhaseTwoPhase            Phase = "twophase"
	PhaseSupercritical       Phase = "supercritical"
	PhaseSupercriticalGas    Phase = "supercritical_gas"
	PhaseSupercriticalLiquid Phase = "supercritical_liquid"
)

// Valid reports whether p is one of the known phase names.
func (p Phase) Valid() bool {
	switch p {
	case PhaseLiquid, PhaseGas, PhaseTwoPhase, PhaseSupercritical,
		PhaseSupercriticalGas, PhaseSupercriticalLiquid:
		return true
	}
	return false
}

// Request asks a backend to fix a state from two canonical inputs. First and
// Second are in canonical order.
type Request struct {
	Substance   string
	First       registry.Symbol
	FirstValue  float64
	Second      registry.Symbol
	SecondValue float64
}

// Pair returns the request's canonical pair.
func (r Request) Pair() registry.Pair {
	return registry.NewPair(r.First, r.Second)
}

// Value returns the input value for sym and whether sym is one of the inputs.
func (r Request) Value(sym registry.Symbol) (float64, bool) {
	switch sym {
	case r.First:
		return r.FirstValue, true
	case r.Second:
		return r.SecondValue, true
	}
	return 0, false
}

// String renders the request for error messages.
func (r Request) String() string {
	return fmt.Sprintf("%s %s=%g %s=%g", r.Substance, r.First, r.FirstValue, r.Second, r.SecondValue)
}

// Result carries every resolved property in canonical units. Values holds
// T, p, v, u, h, s, cp and cv; x is present only in the two-phase region.
type Result struct {
	Values map[registry.Symbol]float64
	Phase  Phase
}

// Backend resolves a state from a request. Implementations must be safe for
// concurrent use.
type Backend interface {
	Resolve(ctx context.Context, req Request) (Result, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, req Request) (Result, error)

// Resolve implements Backend.
func (fn BackendFunc) Resolve(ctx context.Context, req Request) (Result, error) {
	if fn == nil {
		return Result{}, fmt.Errorf("%w: nil backend", ErrUnsupportedSubstance)
	}
	return fn(ctx, req)
}

// RequiredSymbols lists the values every successful Result must carry.
func RequiredSymbols() []registry.Symbol {
	return []registry.Symbol{
		registry.T, registry.P, registry.U, registry.H, registry.S,
		registry.V, registry.Cp, registry.Cv,
	}
}
