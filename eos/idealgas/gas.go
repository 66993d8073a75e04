package idealgas

import (
	"fmt"
	"sync"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// UniversalGasConstant in J/(kmol*K).
const UniversalGasConstant = 8314.462618

// CubicHeatCapacity is the molar cp(T) correlation in kJ/(kmol*K), converted
// to J/(kg*K) through the molar mass M.
const CubicHeatCapacity = "(a + b*T + c*T^2 + d*T^3) * 1000 / M"

// Gas describes an ideal gas with a temperature-dependent heat capacity.
type Gas struct {
	Name string
	// MolarMass in kg/kmol.
	MolarMass float64
	// A, B, C, D are the coefficients of CubicHeatCapacity.
	A, B, C, D float64
	// TMin and TMax bound the correlation in K.
	TMin, TMax float64
	// CriticalTemperature (K) and CriticalPressure (Pa) classify the phase.
	CriticalTemperature float64
	CriticalPressure    float64
	// HeatCapacity overrides CubicHeatCapacity. The expression sees T, a, b,
	// c, d and M and must yield cp in J/(kg*K).
	HeatCapacity string

	once    sync.Once
	program *exprvm.Program
	err     error
}

type cpEnv struct {
	T float64 `expr:"T"`
	A float64 `expr:"a"`
	B float64 `expr:"b"`
	C float64 `expr:"c"`
	D float64 `expr:"d"`
	M float64 `expr:"M"`
}

// GasConstant returns the specific gas constant in J/(kg*K).
func (g *Gas) GasConstant() float64 {
	return UniversalGasConstant / g.MolarMass
}

func (g *Gas) compile() (*exprvm.Program, error) {
	g.once.Do(func() {
		src := g.HeatCapacity
		if src == "" {
			src = CubicHeatCapacity
		}
		g.program, g.err = exprlang.Compile(src, exprlang.Env(cpEnv{}), exprlang.AsFloat64())
		if g.err != nil {
			g.err = fmt.Errorf("idealgas: %s heat capacity %q: %w", g.Name, src, g.err)
		}
	})
	return g.program, g.err
}

// Cp evaluates the heat capacity correlation at t (K) in J/(kg*K).
func (g *Gas) Cp(t float64) (float64, error) {
	program, err := g.compile()
	if err != nil {
		return 0, err
	}
	out, err := exprlang.Run(program, cpEnv{T: t, A: g.A, B: g.B, C: g.C, D: g.D, M: g.MolarMass})
	if err != nil {
		return 0, fmt.Errorf("idealgas: %s heat capacity at T=%g: %w", g.Name, t, err)
	}
	cp, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("idealgas: %s heat capacity returned %T", g.Name, out)
	}
	return cp, nil
}

// Coefficients from the cubic cp(T) fits for 273-1800 K in Cengel & Boles,
// table A-2c.
var (
	Air = &Gas{
		Name: "air", MolarMass: 28.97,
		A: 28.11, B: 0.1967e-2, C: 0.4802e-5, D: -1.966e-9,
		TMin: 273.15, TMax: 1800,
		CriticalTemperature: 132.5, CriticalPressure: 3.77e6,
	}
	Nitrogen = &Gas{
		Name: "nitrogen", MolarMass: 28.013,
		A: 28.90, B: -0.1571e-2, C: 0.8081e-5, D: -2.873e-9,
		TMin: 273.15, TMax: 1800,
		CriticalTemperature: 126.2, CriticalPressure: 3.39e6,
	}
	Oxygen = &Gas{
		Name: "oxygen", MolarMass: 31.999,
		A: 25.48, B: 1.520e-2, C: -0.7155e-5, D: 1.312e-9,
		TMin: 273.15, TMax: 1800,
		CriticalTemperature: 154.6, CriticalPressure: 5.08e6,
	}
	CarbonDioxide = &Gas{
		Name: "carbondioxide", MolarMass: 44.01,
		A: 22.26, B: 5.981e-2, C: -3.501e-5, D: 7.469e-9,
		TMin: 273.15, TMax: 1800,
		CriticalTemperature: 304.2, CriticalPressure: 7.39e6,
	}
)
