package thermo

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
)

// UnitSystem selects the preferred display unit of every symbol. The zero
// value means no system: values are shown in canonical units.
type UnitSystem string

const (
	UnitsNone UnitSystem = ""
	UnitsSI   UnitSystem = "SI"
	UnitsEE   UnitSystem = "EE"
)

// ParseUnitSystem accepts "SI", "EE" or the empty selector, ignoring case and
// surrounding whitespace.
func ParseUnitSystem(selector string) (UnitSystem, error) {
	switch strings.ToUpper(strings.TrimSpace(selector)) {
	case "":
		return UnitsNone, nil
	case string(UnitsSI):
		return UnitsSI, nil
	case string(UnitsEE):
		return UnitsEE, nil
	}
	return "", &StateError{
		Op:     "units",
		Detail: `recognised selectors are "SI", "EE" or empty`,
		Err:    fmt.Errorf("%w %q", ErrInvalidUnitSystem, selector),
	}
}

var systemUnits = map[UnitSystem]map[registry.Symbol]quantity.Unit{
	UnitsSI: {
		registry.T:  quantity.MustParseUnit("degC"),
		registry.P:  quantity.MustParseUnit("bar"),
		registry.V:  quantity.MustParseUnit("m**3/kg"),
		registry.U:  quantity.MustParseUnit("kJ/kg"),
		registry.H:  quantity.MustParseUnit("kJ/kg"),
		registry.S:  quantity.MustParseUnit("kJ/(kg*K)"),
		registry.Cp: quantity.MustParseUnit("kJ/(kg*K)"),
		registry.Cv: quantity.MustParseUnit("kJ/(kg*K)"),
		registry.X:  quantity.MustParseUnit("dimensionless"),
	},
	UnitsEE: {
		registry.T:  quantity.MustParseUnit("degF"),
		registry.P:  quantity.MustParseUnit("psi"),
		registry.V:  quantity.MustParseUnit("ft**3/lb"),
		registry.U:  quantity.MustParseUnit("BTU/lb"),
		registry.H:  quantity.MustParseUnit("BTU/lb"),
		registry.S:  quantity.MustParseUnit("BTU/(lb*degR)"),
		registry.Cp: quantity.MustParseUnit("BTU/(lb*degR)"),
		registry.Cv: quantity.MustParseUnit("BTU/(lb*degR)"),
		registry.X:  quantity.MustParseUnit("dimensionless"),
	},
}

// Unit returns the preferred unit of sym in the system. The empty system
// reports false.
func (u UnitSystem) Unit(sym registry.Symbol) (quantity.Unit, bool) {
	unit, ok := systemUnits[u][sym]
	return unit, ok
}

// Settings holds display preferences shared by many states. A State reads
// its settings on every access, so changes apply to existing states.
type Settings struct {
	mu          sync.RWMutex
	units       UnitSystem
	symbolUnits map[registry.Symbol]quantity.Unit
}

// NewSettings returns settings with no unit system.
func NewSettings() *Settings {
	return &Settings{}
}

var defaultSettings = NewSettings()

// DefaultSettings returns the process-wide settings used by states built
// without WithSettings.
func DefaultSettings() *Settings {
	return defaultSettings
}

// SetDefaultUnits sets the unit system of DefaultSettings. The empty
// selector clears it.
func SetDefaultUnits(selector string) error {
	return defaultSettings.SetUnits(selector)
}

// SetUnits sets the unit system. The empty selector clears it.
func (s *Settings) SetUnits(selector string) error {
	units, err := ParseUnitSystem(selector)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.units = units
	s.mu.Unlock()
	return nil
}

// Units returns the current unit system.
func (s *Settings) Units() UnitSystem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units
}

// SetDisplayUnit pins the display unit of sym for every state using these
// settings. An empty unit removes the pin.
func (s *Settings) SetDisplayUnit(sym registry.Symbol, unit string) error {
	if strings.TrimSpace(unit) == "" {
		s.mu.Lock()
		delete(s.symbolUnits, sym)
		s.mu.Unlock()
		return nil
	}
	parsed, err := parseDisplayUnit("settings", sym, unit)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.symbolUnits == nil {
		s.symbolUnits = make(map[registry.Symbol]quantity.Unit)
	}
	s.symbolUnits[sym] = parsed
	return nil
}

// DisplayUnit returns the unit pinned for sym, if any.
func (s *Settings) DisplayUnit(sym registry.Symbol) (quantity.Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unit, ok := s.symbolUnits[sym]
	return unit, ok
}

// parseDisplayUnit parses unit and checks it against the dimension of sym.
func parseDisplayUnit(op string, sym registry.Symbol, unit string) (quantity.Unit, error) {
	if sym == registry.Phase {
		return quantity.Unit{}, stateError(op, sym, ErrUnknownProperty, "phase is not a quantity")
	}
	want, err := registry.ExpectedDimension(sym)
	if err != nil {
		return quantity.Unit{}, stateError(op, sym, err, "")
	}
	parsed, err := quantity.ParseUnit(unit)
	if err != nil {
		return quantity.Unit{}, stateError(op, sym, err, "")
	}
	if !parsed.Dimension().Equal(want) {
		return quantity.Unit{}, stateError(op, sym, ErrDimensionality,
			"display unit %q has dimension %s, %s requires %s", unit, parsed.Dimension(), sym, want)
	}
	return parsed, nil
}
