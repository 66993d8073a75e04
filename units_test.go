package thermo

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/goliatone/go-thermo/eos/eostest"
	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
)

func TestParseUnitSystem(t *testing.T) {
	cases := []struct {
		selector string
		want     UnitSystem
		err      bool
	}{
		{selector: "SI", want: UnitsSI},
		{selector: "si", want: UnitsSI},
		{selector: " ee ", want: UnitsEE},
		{selector: "", want: UnitsNone},
		{selector: "metric", err: true},
		{selector: "S I", err: true},
	}
	for _, tc := range cases {
		got, err := ParseUnitSystem(tc.selector)
		if tc.err {
			if !errors.Is(err, ErrInvalidUnitSystem) {
				t.Fatalf("%q: expected ErrInvalidUnitSystem, got %v", tc.selector, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: expected %q, got %q (%v)", tc.selector, tc.want, got, err)
		}
	}
}

func TestUnitSystemsConvertOnRead(t *testing.T) {
	cases := []struct {
		units string
		sym   registry.Symbol
		unit  string
		want  float64
	}{
		{units: "SI", sym: registry.T, unit: "degC", want: 126.85},
		{units: "SI", sym: registry.P, unit: "bar", want: 1.01325},
		{units: "SI", sym: registry.H, unit: "kJ/kg", want: 1004.5 * 400 / 1000},
		{units: "SI", sym: registry.Cp, unit: "kJ/(kg*K)", want: 1.0045},
		{units: "EE", sym: registry.T, unit: "degF", want: 260.33},
		{units: "EE", sym: registry.P, unit: "psi", want: 14.69595},
		{units: "EE", sym: registry.V, unit: "ft**3/lb", want: 287 * 400 / 101325.0 * 16.01846},
		{units: "", sym: registry.T, unit: "K", want: 400},
	}
	for _, tc := range cases {
		t.Run(tc.units+"_"+string(tc.sym), func(t *testing.T) {
			st := stubState(t, 400, WithUnits(tc.units))
			q, ok, err := st.Get(tc.sym)
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if q.Unit().String() != tc.unit {
				t.Fatalf("expected unit %q got %q", tc.unit, q.Unit())
			}
			if !closeTo(q.Magnitude(), tc.want, 1e-5) {
				t.Fatalf("expected %v got %v", tc.want, q.Magnitude())
			}
		})
	}
}

func TestSettingsApplyToExistingStates(t *testing.T) {
	settings := NewSettings()
	st := stubState(t, 400, WithSettings(settings))
	other := stubState(t, 400)

	if got := st.T().Unit().String(); got != "K" {
		t.Fatalf("expected canonical unit before settings change, got %q", got)
	}
	canonical, _ := st.Canonical(registry.T)

	if err := settings.SetUnits("EE"); err != nil {
		t.Fatalf("set units: %v", err)
	}
	if got := st.T().Unit().String(); got != "degF" {
		t.Fatalf("expected settings change to reach existing state, got %q", got)
	}
	if st.ActiveUnits() != UnitsEE || st.Units() != UnitsNone {
		t.Fatalf("unexpected units active=%q instance=%q", st.ActiveUnits(), st.Units())
	}
	if after, _ := st.Canonical(registry.T); after != canonical {
		t.Fatalf("canonical value changed from %v to %v", canonical, after)
	}
	if !st.Equal(other) {
		t.Fatalf("display settings must not affect equality")
	}

	if err := settings.SetUnits("bogus"); !errors.Is(err, ErrInvalidUnitSystem) {
		t.Fatalf("expected invalid selector error, got %v", err)
	}
	if settings.Units() != UnitsEE {
		t.Fatalf("a rejected selector must leave the settings unchanged")
	}
}

func TestInstanceOverrideBeatsSettings(t *testing.T) {
	settings := NewSettings()
	if err := settings.SetUnits("SI"); err != nil {
		t.Fatalf("set units: %v", err)
	}
	st := stubState(t, 400, WithSettings(settings))

	if err := st.SetUnits("ee"); err != nil {
		t.Fatalf("set instance units: %v", err)
	}
	if got := st.P().Unit().String(); got != "psi" {
		t.Fatalf("expected instance override, got %q", got)
	}
	if err := st.SetUnits("kelvin"); !errors.Is(err, ErrInvalidUnitSystem) {
		t.Fatalf("expected invalid selector, got %v", err)
	}
	var stateErr *StateError
	if err := st.SetUnits("kelvin"); !errors.As(err, &stateErr) || stateErr.Substance != Air {
		t.Fatalf("expected substance on the error, got %v", err)
	}
	if st.Units() != UnitsEE {
		t.Fatalf("a rejected selector must leave the override unchanged")
	}

	if err := st.SetUnits(""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := st.P().Unit().String(); got != "bar" {
		t.Fatalf("expected settings to apply again after clearing, got %q", got)
	}
}

func TestSetDefaultUnits(t *testing.T) {
	previous := DefaultSettings().Units()
	t.Cleanup(func() {
		_ = SetDefaultUnits(string(previous))
	})

	st, err := New(context.Background(), Air,
		With(registry.T, quantity.Must(400, "K")),
		With(registry.P, quantity.Must(101325, "Pa")),
		WithBackend(&eostest.Backend{}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := SetDefaultUnits("SI"); err != nil {
		t.Fatalf("set default units: %v", err)
	}
	if got := st.T().Unit().String(); got != "degC" {
		t.Fatalf("expected default settings to apply, got %q", got)
	}
	if err := SetDefaultUnits("imperial"); !errors.Is(err, ErrInvalidUnitSystem) {
		t.Fatalf("expected invalid selector, got %v", err)
	}
}

func TestDisplayPinsAndTrace(t *testing.T) {
	settings := NewSettings()
	if err := settings.SetUnits("SI"); err != nil {
		t.Fatalf("set units: %v", err)
	}
	if err := settings.SetDisplayUnit(registry.H, "BTU/lb"); err != nil {
		t.Fatalf("settings pin: %v", err)
	}
	st := stubState(t, 400, WithSettings(settings), WithDisplayUnit(registry.P, "kPa"))

	if got := st.P(); got.Unit().String() != "kPa" || !closeTo(got.Magnitude(), 101.325, 1e-12) {
		t.Fatalf("expected instance pin, got %s", got)
	}
	if got := st.H().Unit().String(); got != "BTU/lb" {
		t.Fatalf("expected settings pin, got %q", got)
	}

	cases := []struct {
		sym      registry.Symbol
		layer    string
		priority int
		unit     string
	}{
		{sym: registry.P, layer: LayerInstanceSymbol, priority: 40, unit: "kPa"},
		{sym: registry.H, layer: LayerSettingsSymbol, priority: 20, unit: "BTU/lb"},
		{sym: registry.T, layer: LayerSettingsUnits, priority: 10, unit: "degC"},
	}
	for _, tc := range cases {
		trace, err := st.Trace(tc.sym)
		if err != nil {
			t.Fatalf("trace %s: %v", tc.sym, err)
		}
		if len(trace.Layers) != 5 {
			t.Fatalf("expected every layer to be reported, got %+v", trace.Layers)
		}
		effective, ok := trace.Effective()
		if !ok || effective.Layer != tc.layer || effective.Priority != tc.priority || effective.Unit != tc.unit {
			t.Fatalf("%s: unexpected effective layer %+v", tc.sym, effective)
		}
		if trace.Unit != tc.unit {
			t.Fatalf("%s: expected trace unit %q got %q", tc.sym, tc.unit, trace.Unit)
		}
	}

	if err := st.SetUnits("EE"); err != nil {
		t.Fatalf("set units: %v", err)
	}
	trace, _ := st.Trace(registry.H)
	effective, _ := trace.Effective()
	if effective.Layer != LayerInstanceUnits || effective.System != "EE" {
		t.Fatalf("expected instance units to outrank the settings pin, got %+v", effective)
	}

	if err := st.SetDisplayUnit(registry.P, ""); err != nil {
		t.Fatalf("remove pin: %v", err)
	}
	if got := st.P().Unit().String(); got != "psi" {
		t.Fatalf("expected pin removal to fall through to EE, got %q", got)
	}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if !reflect.DeepEqual(decoded, trace) {
		t.Fatalf("trace changed across JSON:\n%+v\n%+v", trace, decoded)
	}
}

func TestDisplayPinValidation(t *testing.T) {
	st := stubState(t, 400)
	cases := []struct {
		name string
		sym  registry.Symbol
		unit string
		want error
	}{
		{name: "wrong_dimension", sym: registry.T, unit: "bar", want: ErrDimensionality},
		{name: "phase", sym: registry.Phase, unit: "K", want: ErrUnknownProperty},
		{name: "unknown_symbol", sym: "rho", unit: "kg/m**3", want: ErrUnknownProperty},
		{name: "unknown_unit", sym: registry.P, unit: "furlong", want: quantity.ErrUnknownUnit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := st.SetDisplayUnit(tc.sym, tc.unit); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if err := NewSettings().SetDisplayUnit(tc.sym, tc.unit); !errors.Is(err, tc.want) {
				t.Fatalf("settings: expected %v, got %v", tc.want, err)
			}
		})
	}
	if got := st.T().Unit().String(); got != "K" {
		t.Fatalf("rejected pins must not change the display, got %q", got)
	}
}

func TestQualityDisplayIsDimensionless(t *testing.T) {
	res := eostest.Fixed()
	res.Phase = "twophase"
	st := mustState(t, Water, &eostest.Backend{Result: res},
		With(registry.T, quantity.Must(100, "degC")),
		With(registry.X, quantity.Must(0.25, "dimensionless")),
		WithUnits("EE"),
	)
	x, ok := st.X()
	if !ok || x.Magnitude() != 0.25 || !x.Dimension().IsDimensionless() {
		t.Fatalf("unexpected quality %v ok=%v", x, ok)
	}
	if got := st.T().Magnitude(); math.Abs(got-212) > 1e-9 {
		t.Fatalf("expected 212 degF, got %v", got)
	}
}
