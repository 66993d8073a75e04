// Package idealgas resolves states of permanent gases modelled as ideal
// gases with temperature-dependent heat capacity. Enthalpy and entropy are
// measured from TRef and PRef.
package idealgas

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/goliatone/go-thermo/eos"
	"github.com/goliatone/go-thermo/registry"
	"gonum.org/v1/gonum/integrate/quad"
)

// Reference state where h and s are zero.
const (
	TRef = 298.15
	PRef = 101325.0
)

const (
	quadraturePoints = 24
	tTol             = 1e-10
)

// Backend resolves states for a set of gases keyed by name.
type Backend struct {
	gases map[string]*Gas
}

// New returns a backend for gases, or for every bundled gas when none are
// given.
func New(gases ...*Gas) *Backend {
	if len(gases) == 0 {
		gases = []*Gas{Air, Nitrogen, Oxygen, CarbonDioxide}
	}
	b := &Backend{gases: make(map[string]*Gas, len(gases))}
	for _, g := range gases {
		if g != nil {
			b.gases[strings.ToLower(g.Name)] = g
		}
	}
	return b
}

var _ eos.Backend = (*Backend)(nil)

// Names lists the substances the backend answers for.
func (b *Backend) Names() []string {
	out := make([]string, 0, len(b.gases))
	for name := range b.gases {
		out = append(out, name)
	}
	return out
}

// Resolve implements eos.Backend.
func (b *Backend) Resolve(ctx context.Context, req eos.Request) (eos.Result, error) {
	if err := ctx.Err(); err != nil {
		return eos.Result{}, err
	}
	gas, ok := b.gases[strings.ToLower(req.Substance)]
	if !ok {
		return eos.Result{}, fmt.Errorf("%w: no ideal-gas model for %q", eos.ErrUnsupportedSubstance, req.Substance)
	}
	for _, v := range []float64{req.FirstValue, req.SecondValue} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eos.Result{}, fmt.Errorf("%w: non-finite input in %s", eos.ErrOutOfRange, req)
		}
	}
	m := model{gas: gas, r: gas.GasConstant()}
	t, p, err := m.fix(req)
	if err != nil {
		return eos.Result{}, err
	}
	return m.result(t, p)
}

type model struct {
	gas *Gas
	r   float64
}

func (m model) fix(req eos.Request) (float64, float64, error) {
	in := func(sym registry.Symbol) float64 {
		v, _ := req.Value(sym)
		return v
	}
	switch req.Pair() {
	case registry.NewPair(registry.T, registry.P):
		return in(registry.T), in(registry.P), nil
	case registry.NewPair(registry.T, registry.V):
		t := in(registry.T)
		return t, m.r * t / in(registry.V), nil
	case registry.NewPair(registry.T, registry.S):
		t := in(registry.T)
		p, err := m.pressureFromEntropy(t, in(registry.S))
		return t, p, err
	case registry.NewPair(registry.P, registry.V):
		p := in(registry.P)
		return p * in(registry.V) / m.r, p, nil
	case registry.NewPair(registry.P, registry.H):
		t, err := m.solveT(m.enthalpy, in(registry.H))
		return t, in(registry.P), err
	case registry.NewPair(registry.P, registry.U):
		t, err := m.solveT(m.internalEnergy, in(registry.U))
		return t, in(registry.P), err
	case registry.NewPair(registry.P, registry.S):
		p := in(registry.P)
		target := in(registry.S) + m.r*math.Log(p/PRef)
		t, err := m.solveT(m.standardEntropy, target)
		return t, p, err
	case registry.NewPair(registry.U, registry.V):
		v := in(registry.V)
		t, err := m.solveT(m.internalEnergy, in(registry.U))
		return t, m.r * t / v, err
	case registry.NewPair(registry.S, registry.V):
		v := in(registry.V)
		entropy := func(t float64) (float64, error) {
			s0, err := m.standardEntropy(t)
			return s0 - m.r*math.Log(m.r*t/(v*PRef)), err
		}
		t, err := m.solveT(entropy, in(registry.S))
		return t, m.r * t / v, err
	case registry.NewPair(registry.H, registry.S):
		t, err := m.solveT(m.enthalpy, in(registry.H))
		if err != nil {
			return 0, 0, err
		}
		p, err := m.pressureFromEntropy(t, in(registry.S))
		return t, p, err
	case registry.NewPair(registry.H, registry.V):
		t, err := m.solveT(m.enthalpy, in(registry.H))
		return t, m.r * t / in(registry.V), err
	case registry.NewPair(registry.T, registry.X), registry.NewPair(registry.P, registry.X):
		return 0, 0, fmt.Errorf("%w: %s has no two-phase region in the ideal-gas model", eos.ErrNotIndependent, m.gas.Name)
	}
	return 0, 0, fmt.Errorf("%w: idealgas cannot invert %s", eos.ErrUnsupportedPair, req.Pair())
}

func (m model) result(t, p float64) (eos.Result, error) {
	if err := m.checkRange(t, p); err != nil {
		return eos.Result{}, err
	}
	cp, err := m.gas.Cp(t)
	if err != nil {
		return eos.Result{}, err
	}
	h, err := m.enthalpy(t)
	if err != nil {
		return eos.Result{}, err
	}
	s0, err := m.standardEntropy(t)
	if err != nil {
		return eos.Result{}, err
	}
	return eos.Result{
		Values: map[registry.Symbol]float64{
			registry.T:  t,
			registry.P:  p,
			registry.V:  m.r * t / p,
			registry.U:  h - m.r*t,
			registry.H:  h,
			registry.S:  s0 - m.r*math.Log(p/PRef),
			registry.Cp: cp,
			registry.Cv: cp - m.r,
		},
		Phase: m.phase(t, p),
	}, nil
}

func (m model) checkRange(t, p float64) error {
	if t < m.gas.TMin || t > m.gas.TMax {
		return fmt.Errorf("%w: T=%g K outside %g..%g K for %s", eos.ErrOutOfRange, t, m.gas.TMin, m.gas.TMax, m.gas.Name)
	}
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Errorf("%w: p=%g Pa must be positive", eos.ErrOutOfRange, p)
	}
	return nil
}

func (m model) phase(t, p float64) eos.Phase {
	above := t > m.gas.CriticalTemperature
	over := p > m.gas.CriticalPressure
	switch {
	case above && over:
		return eos.PhaseSupercritical
	case above:
		return eos.PhaseSupercriticalGas
	case over:
		return eos.PhaseSupercriticalLiquid
	}
	return eos.PhaseGas
}

func (m model) enthalpy(t float64) (float64, error) {
	return integrate(m.gas.Cp, TRef, t)
}

func (m model) internalEnergy(t float64) (float64, error) {
	h, err := m.enthalpy(t)
	return h - m.r*t, err
}

// standardEntropy is s at PRef.
func (m model) standardEntropy(t float64) (float64, error) {
	return integrate(func(x float64) (float64, error) {
		cp, err := m.gas.Cp(x)
		return cp / x, err
	}, TRef, t)
}

func (m model) pressureFromEntropy(t, s float64) (float64, error) {
	s0, err := m.standardEntropy(t)
	if err != nil {
		return 0, err
	}
	return PRef * math.Exp((s0-s)/m.r), nil
}

func (m model) solveT(f func(float64) (float64, error), target float64) (float64, error) {
	t, err := eos.Bisect(f, target, m.gas.TMin, m.gas.TMax, tTol)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", m.gas.Name, err)
	}
	return t, nil
}

// integrate runs fixed Gauss-Legendre quadrature of f over [a, b]. The
// correlations are smooth polynomials in T, so a fixed rule is exact for cp
// and well within tTol for cp/T. The first error from f wins.
func integrate(f func(float64) (float64, error), a, b float64) (float64, error) {
	if a == b {
		return 0, nil
	}
	sign := 1.0
	if a > b {
		a, b, sign = b, a, -1
	}
	var firstErr error
	value := quad.Fixed(func(x float64) float64 {
		fx, err := f(x)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return fx
	}, a, b, quadraturePoints, nil, 1)
	if firstErr != nil {
		return 0, firstErr
	}
	return sign * value, nil
}
