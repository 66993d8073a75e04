package idealgas

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/goliatone/go-thermo/eos"
	"github.com/goliatone/go-thermo/registry"
)

func closeTo(a, b, rel float64) bool {
	return math.Abs(a-b) <= rel*math.Max(math.Abs(a), math.Abs(b))
}

func TestAirHeatCapacitiesAtRoomTemperature(t *testing.T) {
	res, err := New().Resolve(context.Background(), eos.Request{
		Substance: "Air", First: registry.T, FirstValue: 300, Second: registry.P, SecondValue: 1e5,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	cp, cv := res.Values[registry.Cp], res.Values[registry.Cv]
	if !closeTo(cp, 1003.8, 1e-3) {
		t.Fatalf("expected cp near 1003.8 J/(kg*K), got %g", cp)
	}
	if !closeTo(cv, 716.8, 1e-3) {
		t.Fatalf("expected cv near 716.8 J/(kg*K), got %g", cv)
	}
	if ratio := cp / cv; ratio <= 1 || !closeTo(ratio, 1.40, 5e-3) {
		t.Fatalf("expected cp/cv near 1.40, got %g", ratio)
	}
	if v := res.Values[registry.V]; !closeTo(v, 287.0*300/1e5, 1e-3) {
		t.Fatalf("unexpected specific volume %g", v)
	}
	if res.Phase != eos.PhaseSupercriticalGas {
		t.Fatalf("expected supercritical_gas above the critical temperature, got %s", res.Phase)
	}
	if _, ok := res.Values[registry.X]; ok {
		t.Fatalf("ideal gas never carries quality")
	}
}

func TestReferenceStateIsZero(t *testing.T) {
	res, err := New().Resolve(context.Background(), eos.Request{
		Substance: "nitrogen", First: registry.T, FirstValue: TRef, Second: registry.P, SecondValue: PRef,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Values[registry.H] != 0 || res.Values[registry.S] != 0 {
		t.Fatalf("expected h=s=0 at the reference state, got h=%g s=%g", res.Values[registry.H], res.Values[registry.S])
	}
}

func TestPairInversionsRoundTrip(t *testing.T) {
	backend := New()
	for _, gas := range []string{"air", "oxygen", "carbondioxide"} {
		ref, err := backend.Resolve(context.Background(), eos.Request{
			Substance: gas, First: registry.T, FirstValue: 650, Second: registry.P, SecondValue: 8e5,
		})
		if err != nil {
			t.Fatalf("%s reference: %v", gas, err)
		}
		for _, pair := range registry.Default().SupportedPairs() {
			if pair[0] == registry.X || pair[1] == registry.X {
				continue
			}
			t.Run(gas+"/"+pair.String(), func(t *testing.T) {
				got, err := backend.Resolve(context.Background(), eos.Request{
					Substance:   gas,
					First:       pair[0],
					FirstValue:  ref.Values[pair[0]],
					Second:      pair[1],
					SecondValue: ref.Values[pair[1]],
				})
				if err != nil {
					t.Fatalf("resolve: %v", err)
				}
				for _, sym := range eos.RequiredSymbols() {
					if !closeTo(got.Values[sym], ref.Values[sym], 1e-7) {
						t.Fatalf("%s: expected %.10g, got %.10g", sym, ref.Values[sym], got.Values[sym])
					}
				}
			})
		}
	}
}

func TestResolveErrors(t *testing.T) {
	cases := []struct {
		name string
		req  eos.Request
		want error
	}{
		{"quality", eos.Request{Substance: "air", First: registry.T, FirstValue: 300, Second: registry.X, SecondValue: 0.5}, eos.ErrNotIndependent},
		{"quality with pressure", eos.Request{Substance: "air", First: registry.P, FirstValue: 1e5, Second: registry.X, SecondValue: 0.5}, eos.ErrNotIndependent},
		{"water", eos.Request{Substance: "water", First: registry.T, FirstValue: 300, Second: registry.P, SecondValue: 1e5}, eos.ErrUnsupportedSubstance},
		{"below correlation", eos.Request{Substance: "air", First: registry.T, FirstValue: 100, Second: registry.P, SecondValue: 1e5}, eos.ErrOutOfRange},
		{"negative pressure", eos.Request{Substance: "air", First: registry.T, FirstValue: 300, Second: registry.P, SecondValue: -1}, eos.ErrOutOfRange},
		{"unreachable enthalpy", eos.Request{Substance: "air", First: registry.P, FirstValue: 1e5, Second: registry.H, SecondValue: 1e9}, eos.ErrOutOfRange},
		{"excluded pair", eos.Request{Substance: "air", First: registry.T, FirstValue: 300, Second: registry.U, SecondValue: 1e5}, eos.ErrUnsupportedPair},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Resolve(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCustomHeatCapacityExpression(t *testing.T) {
	constant := &Gas{
		Name: "argon", MolarMass: 39.948,
		TMin: 100, TMax: 3000,
		CriticalTemperature: 150.7, CriticalPressure: 4.86e6,
		HeatCapacity: "2.5 * 8314.462618 / M",
	}
	backend := New(constant)
	res, err := backend.Resolve(context.Background(), eos.Request{
		Substance: "argon", First: registry.T, FirstValue: 500, Second: registry.P, SecondValue: 1e5,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ratio := res.Values[registry.Cp] / res.Values[registry.Cv]; !closeTo(ratio, 5.0/3.0, 1e-12) {
		t.Fatalf("expected monatomic ratio 5/3, got %g", ratio)
	}
	if h := res.Values[registry.H]; !closeTo(h, res.Values[registry.Cp]*(500-TRef), 1e-12) {
		t.Fatalf("expected linear enthalpy, got %g", h)
	}

	broken := &Gas{Name: "broken", MolarMass: 1, TMin: 1, TMax: 10, HeatCapacity: "T +"}
	if _, err := broken.Cp(5); err == nil {
		t.Fatalf("expected compile error for malformed expression")
	}
}

func TestIntegrateMatchesClosedForms(t *testing.T) {
	cubic := func(x float64) (float64, error) { return 1 + 2*x + 3*x*x + 4*x*x*x, nil }
	antiderivative := func(x float64) float64 { return x + x*x + x*x*x + x*x*x*x }
	got, err := integrate(cubic, 300, 1200)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if want := antiderivative(1200) - antiderivative(300); !closeTo(got, want, 1e-12) {
		t.Fatalf("expected %g, got %g", want, got)
	}

	inverse := func(x float64) (float64, error) { return 1 / x, nil }
	got, err = integrate(inverse, 1000, TRef)
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if want := math.Log(TRef / 1000); !closeTo(got, want, 1e-10) {
		t.Fatalf("expected reversed limits to give %g, got %g", want, got)
	}

	if got, err := integrate(inverse, TRef, TRef); err != nil || got != 0 {
		t.Fatalf("expected empty interval to give 0, got %g err=%v", got, err)
	}

	boom := errors.New("boom")
	failing := func(x float64) (float64, error) { return 0, boom }
	if _, err := integrate(failing, 300, 400); !errors.Is(err, boom) {
		t.Fatalf("expected integrand error, got %v", err)
	}
}
