package iapws

import (
	"fmt"
	"math"

	"github.com/goliatone/go-thermo/eos"
	"github.com/goliatone/go-thermo/registry"
)

// R is the specific gas constant of water in J/(kg*K).
const R = 461.526

// Validity range of the bundled regions.
const (
	TMin = 273.15
	TMax = 1073.15
	PMin = 1.0
	PMax = 100e6

	// T13 bounds region 1 and the two-phase model from above.
	T13 = 623.15

	CriticalTemperature = 647.096
	CriticalPressure    = 22.064e6
)

// PSat13 is the saturation pressure at T13; above it the two-phase dome
// enters region 3.
var PSat13 = SaturationPressure(T13)

// PTriple is the saturation pressure at TMin.
var PTriple = SaturationPressure(TMin)

type properties struct {
	t, p, v, u, h, s, cp, cv float64
}

func (pr properties) get(sym registry.Symbol) float64 {
	switch sym {
	case registry.T:
		return pr.t
	case registry.P:
		return pr.p
	case registry.V:
		return pr.v
	case registry.U:
		return pr.u
	case registry.H:
		return pr.h
	case registry.S:
		return pr.s
	case registry.Cp:
		return pr.cp
	case registry.Cv:
		return pr.cv
	}
	return math.NaN()
}

func (pr properties) values() map[registry.Symbol]float64 {
	return map[registry.Symbol]float64{
		registry.T:  pr.t,
		registry.P:  pr.p,
		registry.V:  pr.v,
		registry.U:  pr.u,
		registry.H:  pr.h,
		registry.S:  pr.s,
		registry.Cp: pr.cp,
		registry.Cv: pr.cv,
	}
}

// mix returns the quality-weighted mixture of saturated liquid f and vapour g.
// Heat capacities are mixed the same way; they are reported for completeness
// and are not meaningful inside the dome.
func mix(f, g properties, x float64) properties {
	lerp := func(a, b float64) float64 { return a + x*(b-a) }
	return properties{
		t:  f.t,
		p:  f.p,
		v:  lerp(f.v, g.v),
		u:  lerp(f.u, g.u),
		h:  lerp(f.h, g.h),
		s:  lerp(f.s, g.s),
		cp: lerp(f.cp, g.cp),
		cv: lerp(f.cv, g.cv),
	}
}

// singlePhase evaluates the single-phase region containing (t, p).
func singlePhase(t, p float64) (properties, eos.Phase, error) {
	if math.IsNaN(t) || math.IsNaN(p) || t < TMin || t > TMax || p < PMin || p > PMax {
		return properties{}, "", fmt.Errorf("%w: T=%g K p=%g Pa outside %g..%g K, %g..%g Pa",
			eos.ErrOutOfRange, t, p, TMin, TMax, PMin, PMax)
	}
	if t <= T13 {
		if p >= SaturationPressure(t) {
			return region1(t, p), classify(t, p, eos.PhaseLiquid), nil
		}
		return region2(t, p), classify(t, p, eos.PhaseGas), nil
	}
	if p > b23Pressure(t) {
		return properties{}, "", fmt.Errorf("%w: T=%g K p=%g Pa lies in region 3, which has no bundled model",
			eos.ErrOutOfRange, t, p)
	}
	return region2(t, p), classify(t, p, eos.PhaseGas), nil
}

func classify(t, p float64, sub eos.Phase) eos.Phase {
	above := t > CriticalTemperature
	over := p > CriticalPressure
	switch {
	case above && over:
		return eos.PhaseSupercritical
	case above:
		return eos.PhaseSupercriticalGas
	case over:
		return eos.PhaseSupercriticalLiquid
	}
	return sub
}

// saturated returns the saturated liquid and vapour states at t (K).
func saturated(t float64) (properties, properties, error) {
	if t < TMin || t > T13 {
		return properties{}, properties{}, fmt.Errorf("%w: saturation temperature %g K outside %g..%g K",
			eos.ErrOutOfRange, t, TMin, T13)
	}
	p := SaturationPressure(t)
	return region1(t, p), region2(t, p), nil
}

func ipow(x float64, n int) float64 {
	if n < 0 {
		return 1 / ipow(x, -n)
	}
	out := 1.0
	for n > 0 {
		if n&1 == 1 {
			out *= x
		}
		x *= x
		n >>= 1
	}
	return out
}
