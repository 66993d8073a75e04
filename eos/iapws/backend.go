// Package iapws resolves states of water from the IAPWS-IF97 industrial
// formulation. Regions 1 (compressed liquid), 2 (vapour) and 4 (saturation)
// are implemented; states in region 3 or region 5 are reported as out of
// range.
package iapws

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/goliatone/go-thermo/eos"
	"github.com/goliatone/go-thermo/registry"
)

// Substance is the only substance name this backend answers for.
const Substance = "water"

const (
	samples = 48
	tTol    = 1e-10
	lnPTol  = 1e-13
	// satTol is the relative distance from the saturation pressure within
	// which a (T, p) input is taken to lie on the saturation line.
	satTol = 1e-6
)

// Backend is the IF97 water backend. The zero value is ready to use.
type Backend struct{}

// New returns a water backend.
func New() *Backend {
	return &Backend{}
}

var _ eos.Backend = (*Backend)(nil)

type state struct {
	props    properties
	phase    eos.Phase
	x        float64
	twoPhase bool
}

func (st state) get(sym registry.Symbol) float64 {
	if sym == registry.X {
		if !st.twoPhase {
			return math.NaN()
		}
		return st.x
	}
	return st.props.get(sym)
}

func (st state) result() eos.Result {
	values := st.props.values()
	if st.twoPhase {
		values[registry.X] = st.x
	}
	return eos.Result{Values: values, Phase: st.phase}
}

// Resolve implements eos.Backend.
func (b *Backend) Resolve(ctx context.Context, req eos.Request) (eos.Result, error) {
	if err := ctx.Err(); err != nil {
		return eos.Result{}, err
	}
	if !strings.EqualFold(req.Substance, Substance) {
		return eos.Result{}, fmt.Errorf("%w: iapws models water, got %q", eos.ErrUnsupportedSubstance, req.Substance)
	}
	for _, v := range []float64{req.FirstValue, req.SecondValue} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eos.Result{}, fmt.Errorf("%w: non-finite input in %s", eos.ErrOutOfRange, req)
		}
	}
	st, err := resolve(req)
	if err != nil {
		return eos.Result{}, err
	}
	return st.result(), nil
}

func resolve(req eos.Request) (state, error) {
	in := func(sym registry.Symbol) float64 {
		v, _ := req.Value(sym)
		return v
	}
	switch req.Pair() {
	case registry.NewPair(registry.T, registry.P):
		return fromTP(in(registry.T), in(registry.P))
	case registry.NewPair(registry.T, registry.X):
		return fromTX(in(registry.T), in(registry.X))
	case registry.NewPair(registry.P, registry.X):
		return fromPX(in(registry.P), in(registry.X))
	case registry.NewPair(registry.T, registry.S):
		return fromT(in(registry.T), registry.S, in(registry.S))
	case registry.NewPair(registry.T, registry.V):
		return fromT(in(registry.T), registry.V, in(registry.V))
	case registry.NewPair(registry.P, registry.U):
		return fromP(in(registry.P), registry.U, in(registry.U))
	case registry.NewPair(registry.P, registry.H):
		return fromP(in(registry.P), registry.H, in(registry.H))
	case registry.NewPair(registry.P, registry.S):
		return fromP(in(registry.P), registry.S, in(registry.S))
	case registry.NewPair(registry.P, registry.V):
		return fromP(in(registry.P), registry.V, in(registry.V))
	case registry.NewPair(registry.U, registry.V):
		return fromV(in(registry.V), registry.U, in(registry.U))
	case registry.NewPair(registry.S, registry.V):
		return fromV(in(registry.V), registry.S, in(registry.S))
	case registry.NewPair(registry.H, registry.S):
		return fromH(in(registry.H), registry.S, in(registry.S))
	case registry.NewPair(registry.H, registry.V):
		return fromH(in(registry.H), registry.V, in(registry.V))
	}
	return state{}, fmt.Errorf("%w: iapws cannot invert %s", eos.ErrUnsupportedPair, req.Pair())
}

// fromTP rejects inputs on the saturation line, where T and p do not fix
// the quality.
func fromTP(t, p float64) (state, error) {
	if t >= TMin && t <= T13 {
		if psat := SaturationPressure(t); math.Abs(p-psat) <= satTol*psat {
			return state{}, fmt.Errorf("%w: T=%g K and p=%g Pa lie on the saturation line (psat %g Pa), fix the state with quality",
				eos.ErrNotIndependent, t, p, psat)
		}
	}
	return singleState(t, p)
}

func singleState(t, p float64) (state, error) {
	props, phase, err := singlePhase(t, p)
	if err != nil {
		return state{}, err
	}
	return state{props: props, phase: phase}, nil
}

func checkQuality(x float64) error {
	if x < 0 || x > 1 {
		return fmt.Errorf("%w: quality %g outside 0..1", eos.ErrOutOfRange, x)
	}
	return nil
}

func fromTX(t, x float64) (state, error) {
	if err := checkQuality(x); err != nil {
		return state{}, err
	}
	f, g, err := saturated(t)
	if err != nil {
		return state{}, err
	}
	return twoPhase(f, g, x), nil
}

func fromPX(p, x float64) (state, error) {
	if err := checkQuality(x); err != nil {
		return state{}, err
	}
	if p < PTriple || p > PSat13 {
		return state{}, fmt.Errorf("%w: saturation pressure %g Pa outside %g..%g Pa",
			eos.ErrOutOfRange, p, PTriple, PSat13)
	}
	t := SaturationTemperature(p)
	return twoPhase(region1(t, p), region2(t, p), x), nil
}

func twoPhase(f, g properties, x float64) state {
	return state{props: mix(f, g, x), phase: eos.PhaseTwoPhase, x: x, twoPhase: true}
}

// dome returns the quality for value of sym between saturated liquid f and
// vapour g, and whether value lies inside the dome.
func dome(f, g properties, sym registry.Symbol, value float64) (float64, bool) {
	lo, hi := f.get(sym), g.get(sym)
	if value < lo || value > hi {
		return 0, false
	}
	return (value - lo) / (hi - lo), true
}

// fromT fixes the state from temperature and s or v. Both decrease with
// pressure along an isotherm, so the inversion runs over log pressure.
func fromT(t float64, sym registry.Symbol, value float64) (state, error) {
	if t < TMin || t > TMax {
		return state{}, fmt.Errorf("%w: T=%g K outside %g..%g K", eos.ErrOutOfRange, t, TMin, TMax)
	}
	if t <= T13 {
		f, g, err := saturated(t)
		if err != nil {
			return state{}, err
		}
		if x, ok := dome(f, g, sym, value); ok {
			return twoPhase(f, g, x), nil
		}
	}
	eval := func(lnp float64) (float64, error) {
		props, _, err := singlePhase(t, math.Exp(lnp))
		if err != nil {
			return 0, err
		}
		return props.get(sym), nil
	}
	lnp, err := solve(eval, value, math.Log(PMin), math.Log(PMax), lnPTol)
	if err != nil {
		return state{}, fmt.Errorf("T=%g K %s=%g: %w", t, sym, value, err)
	}
	return singleState(t, math.Exp(lnp))
}

// fromP fixes the state from pressure and one of u, h, s or v, all of which
// increase with temperature along an isobar.
func fromP(p float64, sym registry.Symbol, value float64) (state, error) {
	if p < PMin || p > PMax {
		return state{}, fmt.Errorf("%w: p=%g Pa outside %g..%g Pa", eos.ErrOutOfRange, p, PMin, PMax)
	}
	if p >= PTriple && p <= PSat13 {
		t := SaturationTemperature(p)
		f, g := region1(t, p), region2(t, p)
		if x, ok := dome(f, g, sym, value); ok {
			return twoPhase(f, g, x), nil
		}
	}
	eval := func(t float64) (float64, error) {
		props, _, err := singlePhase(t, p)
		if err != nil {
			return 0, err
		}
		return props.get(sym), nil
	}
	t, err := solve(eval, value, TMin, TMax, tTol)
	if err != nil {
		return state{}, fmt.Errorf("p=%g Pa %s=%g: %w", p, sym, value, err)
	}
	return singleState(t, p)
}

// fromV fixes the state from specific volume and u or s. Along an isochore
// both increase with temperature.
func fromV(v float64, sym registry.Symbol, value float64) (state, error) {
	if v <= 0 {
		return state{}, fmt.Errorf("%w: specific volume %g must be positive", eos.ErrOutOfRange, v)
	}
	eval := func(t float64) (float64, error) {
		st, err := fromT(t, registry.V, v)
		if err != nil {
			return 0, err
		}
		return st.get(sym), nil
	}
	t, err := solve(eval, value, TMin, TMax, tTol)
	if err != nil {
		return state{}, fmt.Errorf("v=%g m**3/kg %s=%g: %w", v, sym, value, err)
	}
	return fromT(t, registry.V, v)
}

// fromH fixes the state from enthalpy and s or v. Along an isenthalp both
// decrease with pressure.
func fromH(h float64, sym registry.Symbol, value float64) (state, error) {
	eval := func(lnp float64) (float64, error) {
		st, err := fromP(math.Exp(lnp), registry.H, h)
		if err != nil {
			return 0, err
		}
		return st.get(sym), nil
	}
	lnp, err := solve(eval, value, math.Log(PMin), math.Log(PMax), lnPTol)
	if err != nil {
		return state{}, fmt.Errorf("h=%g J/kg %s=%g: %w", h, sym, value, err)
	}
	return fromP(math.Exp(lnp), registry.H, h)
}

// solve samples eval across [lo, hi], skipping points outside the model,
// and bisects the first bracket around target. Monotonic functions with
// jumps at a phase boundary are handled because the dome has already been
// ruled out by the caller.
func solve(eval func(float64) (float64, error), target, lo, hi, xtol float64) (float64, error) {
	var (
		prevX, prevG float64
		havePrev     bool
		lastErr      error
	)
	step := (hi - lo) / samples
	for i := 0; i <= samples; i++ {
		x := lo + float64(i)*step
		if i == samples {
			x = hi
		}
		y, err := eval(x)
		if err != nil {
			if !errors.Is(err, eos.ErrOutOfRange) {
				return 0, err
			}
			havePrev, lastErr = false, err
			continue
		}
		g := y - target
		if g == 0 {
			return x, nil
		}
		if havePrev && math.Signbit(g) != math.Signbit(prevG) {
			return eos.Bisect(eval, target, prevX, x, xtol)
		}
		prevX, prevG, havePrev = x, g, true
	}
	if lastErr != nil {
		return 0, fmt.Errorf("%w: no modelled state reaches %g (%v)", eos.ErrOutOfRange, target, lastErr)
	}
	return 0, fmt.Errorf("%w: no modelled state reaches %g", eos.ErrOutOfRange, target)
}
