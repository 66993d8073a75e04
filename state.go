// Package thermo fixes thermodynamic states of pure substances from two
// independent intensive properties. A State validates its inputs against the
// registry before it calls the equation-of-state backend once, stores every
// property in canonical SI units, and converts on read according to the
// active unit system.
package thermo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-thermo/eos"
	"github.com/goliatone/go-thermo/pkg/activity"
	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
	"github.com/google/uuid"
)

// DefaultEqualTolerance is the relative tolerance Equal applies to
// canonical values.
const DefaultEqualTolerance = 1e-6

// PropertyPair is the validated, canonically ordered pair that fixed a
// state. Values are in canonical units.
type PropertyPair struct {
	First  Property
	Second Property
}

// Pair returns the symbol pair.
func (p PropertyPair) Pair() registry.Pair {
	return registry.Pair{p.First.Symbol, p.Second.Symbol}
}

// String renders the pair as e.g. "T=400 K, p=101325 Pa".
func (p PropertyPair) String() string {
	return fmt.Sprintf("%s=%s, %s=%s", p.First.Symbol, p.First.Value, p.Second.Symbol, p.Second.Value)
}

// NewPropertyPair validates two inputs against reg and returns them in
// canonical order and canonical units. Symbols and the pair are checked
// before dimensions.
func NewPropertyPair(reg *registry.Registry, a, b Property) (PropertyPair, error) {
	if reg == nil {
		reg = registry.Default()
	}
	for _, p := range []Property{a, b} {
		if !p.Symbol.Valid() {
			return PropertyPair{}, stateError("pair", p.Symbol, ErrUnknownProperty,
				"known symbols: %s", symbolList())
		}
	}
	if err := reg.Check(a.Symbol, b.Symbol); err != nil {
		return PropertyPair{}, stateError("pair", "", err, "")
	}

	converted := make(map[registry.Symbol]quantity.Quantity, 2)
	for _, p := range []Property{a, b} {
		want, _ := registry.ExpectedDimension(p.Symbol)
		if got := p.Value.Dimension(); !got.Equal(want) {
			return PropertyPair{}, stateError("pair", p.Symbol, ErrDimensionality,
				"%s requires %s, got %s from %q", p.Symbol.Label(), want, got, p.Value.String())
		}
		canonical, _ := registry.CanonicalUnit(p.Symbol)
		q, err := p.Value.ToUnit(canonical)
		if err != nil {
			return PropertyPair{}, stateError("pair", p.Symbol, err, "")
		}
		converted[p.Symbol] = q
	}

	first, second := registry.CanonicalOrder(a.Symbol, b.Symbol)
	return PropertyPair{
		First:  Property{Symbol: first, Value: converted[first]},
		Second: Property{Symbol: second, Value: converted[second]},
	}, nil
}

func symbolList() string {
	names := make([]string, 0, len(registry.Symbols()))
	for _, sym := range registry.Symbols() {
		names = append(names, string(sym))
	}
	return strings.Join(names, ", ")
}

// State is a fully fixed thermodynamic state. Canonical values never change
// after construction; only the display preferences do.
type State struct {
	id        uuid.UUID
	substance Substance
	label     string
	pair      PropertyPair
	values    map[registry.Symbol]float64
	phase     eos.Phase

	settings  *Settings
	tolerance float64
	evaluator Evaluator
	logger    Logger
	hooks     activity.Hooks

	mu          sync.RWMutex
	units       UnitSystem
	symbolUnits map[registry.Symbol]quantity.Unit
}

// New fixes a state of substance from exactly two properties supplied with
// With. Construction is atomic: on error no State is returned. Every input
// check runs before the backend is called, and the backend is called once.
func New(ctx context.Context, substance Substance, opts ...Option) (*State, error) {
	cfg := applyOptions(opts)
	logger := cfg.loggerOrNoop()
	start := time.Now()

	st, err := build(ctx, substance, cfg)
	event := LogEvent{Op: "new", Substance: substance, Duration: time.Since(start), Err: err}
	if st != nil {
		event.Substance = st.substance
		event.Pair = st.pair.Pair().String()
		event.Label = st.label
	}
	logger.Log(event)
	if err != nil {
		return nil, err
	}

	st.emit(ctx, activity.BuildStateFixedEvent(activity.StateEventInput{
		ObjectID:  st.id.String(),
		Substance: string(st.substance),
		Label:     st.label,
		Pair:      st.pair.Pair().String(),
		Phase:     string(st.phase),
	}))
	return st, nil
}

func build(ctx context.Context, name Substance, cfg stateConfig) (*State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	substance, err := ParseSubstance(string(name))
	if err != nil {
		return nil, restamp(err, "new", "")
	}

	if n := len(cfg.inputs); n != 2 {
		return nil, &StateError{
			Op:        "new",
			Substance: substance,
			Detail:    fmt.Sprintf("got %d: %s", n, describeInputs(cfg.inputs)),
			Err:       ErrPairArity,
		}
	}

	pair, err := NewPropertyPair(cfg.registryOrDefault(), cfg.inputs[0], cfg.inputs[1])
	if err != nil {
		return nil, restamp(err, "new", substance)
	}

	var units UnitSystem
	if cfg.unitsSet {
		units, err = ParseUnitSystem(cfg.unitsRaw)
		if err != nil {
			return nil, restamp(err, "new", substance)
		}
	}

	symbolUnits := make(map[registry.Symbol]quantity.Unit, len(cfg.displayUnits))
	for sym, unit := range cfg.displayUnits {
		parsed, err := parseDisplayUnit("new", sym, unit)
		if err != nil {
			return nil, withSubstance(err, substance)
		}
		symbolUnits[sym] = parsed
	}

	req := eos.Request{
		Substance:   string(substance),
		First:       pair.First.Symbol,
		FirstValue:  pair.First.Value.Magnitude(),
		Second:      pair.Second.Symbol,
		SecondValue: pair.Second.Value.Magnitude(),
	}
	res, err := cfg.backendOrDefault().Resolve(ctx, req)
	if err != nil {
		return nil, &StateError{
			Op:        "new",
			Substance: substance,
			Detail:    pair.String(),
			Err:       fmt.Errorf("%w: %w", ErrBackendResolution, err),
		}
	}
	values, err := checkResult(res, pair)
	if err != nil {
		return nil, &StateError{Op: "new", Substance: substance, Detail: pair.String(), Err: err}
	}

	return &State{
		id:          uuid.New(),
		substance:   substance,
		label:       cfg.label,
		pair:        pair,
		values:      values,
		phase:       res.Phase,
		settings:    cfg.settingsOrDefault(),
		tolerance:   cfg.toleranceOrDefault(),
		evaluator:   cfg.resolveEvaluator(),
		logger:      cfg.loggerOrNoop(),
		hooks:       cloneActivityHooks(cfg.activityHooks),
		units:       units,
		symbolUnits: symbolUnits,
	}, nil
}

// checkResult copies the backend values, rejecting incomplete results, and
// writes the exact inputs over the backend's echo of them.
func checkResult(res eos.Result, pair PropertyPair) (map[registry.Symbol]float64, error) {
	values := make(map[registry.Symbol]float64, len(res.Values)+1)
	for _, sym := range eos.RequiredSymbols() {
		v, ok := res.Values[sym]
		if !ok {
			return nil, fmt.Errorf("%w: result is missing %s", ErrBackendResolution, sym)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: result has non-finite %s=%v", ErrBackendResolution, sym, v)
		}
		values[sym] = v
	}
	if x, ok := res.Values[registry.X]; ok {
		if math.IsNaN(x) || x < 0 || x > 1 {
			return nil, fmt.Errorf("%w: result has quality %v outside 0..1", ErrBackendResolution, x)
		}
		values[registry.X] = x
	}
	if !res.Phase.Valid() {
		return nil, fmt.Errorf("%w: result has unknown phase %q", ErrBackendResolution, res.Phase)
	}
	for _, p := range []Property{pair.First, pair.Second} {
		values[p.Symbol] = p.Value.Magnitude()
	}
	return values, nil
}

func restamp(err error, op string, substance Substance) error {
	var stateErr *StateError
	if errors.As(err, &stateErr) {
		stateErr.Op = op
		if stateErr.Substance == "" {
			stateErr.Substance = substance
		}
	}
	return err
}

func describeInputs(inputs []Property) string {
	if len(inputs) == 0 {
		return "none"
	}
	parts := make([]string, len(inputs))
	for i, p := range inputs {
		parts[i] = fmt.Sprintf("%s=%s", p.Symbol, p.Value)
	}
	return strings.Join(parts, ", ")
}

// ID returns the identifier used for activity events.
func (s *State) ID() uuid.UUID {
	return s.id
}

// Substance returns the substance the state belongs to.
func (s *State) Substance() Substance {
	return s.substance
}

// Label returns the free-form label given at construction.
func (s *State) Label() string {
	return s.label
}

// Pair returns the canonical pair and inputs that fixed the state.
func (s *State) Pair() PropertyPair {
	return s.pair
}

// Phase returns the phase region reported by the backend.
func (s *State) Phase() eos.Phase {
	return s.phase
}

// Canonical returns the stored value of sym in canonical units. Quality
// outside the two-phase region and non-quantity symbols report false.
func (s *State) Canonical(sym registry.Symbol) (float64, bool) {
	v, ok := s.values[sym]
	return v, ok
}

// Get returns sym in its display unit. ok is false for quality outside the
// two-phase region. err is set for symbols that are not quantities and when
// the resolved display unit cannot hold sym.
func (s *State) Get(sym registry.Symbol) (q quantity.Quantity, ok bool, err error) {
	if !sym.Valid() {
		return quantity.Quantity{}, false, &StateError{Op: "get", Substance: s.substance, Symbol: sym, Err: ErrUnknownProperty}
	}
	if sym == registry.Phase {
		return quantity.Quantity{}, false, &StateError{
			Op: "get", Substance: s.substance, Symbol: sym, Err: ErrUnknownProperty,
			Detail: "phase is not a quantity, use Phase",
		}
	}
	v, ok := s.values[sym]
	if !ok {
		return quantity.Quantity{}, false, nil
	}
	q, err := s.display(sym, v)
	if err != nil {
		return quantity.Quantity{}, false, err
	}
	return q, true, nil
}

func (s *State) display(sym registry.Symbol, v float64) (quantity.Quantity, error) {
	canonical, _ := registry.CanonicalUnit(sym)
	unit, trace := resolveDisplay(s.view(), s.settings, sym)
	q, err := canonical.Of(v).ToUnit(unit)
	if err != nil {
		layer := "canonical"
		if effective, ok := trace.Effective(); ok {
			layer = effective.Layer
		}
		return quantity.Quantity{}, &StateError{
			Op: "display", Substance: s.substance, Symbol: sym, Err: err,
			Detail: fmt.Sprintf("unit %q from layer %s", unit, layer),
		}
	}
	return q, nil
}

// lookup is Get for the typed accessors. Display pins are checked when they
// are set, so a conversion failure here is a broken invariant and panics.
func (s *State) lookup(sym registry.Symbol) (quantity.Quantity, bool) {
	q, ok, err := s.Get(sym)
	if err != nil {
		panic(err)
	}
	return q, ok
}

func (s *State) must(sym registry.Symbol) quantity.Quantity {
	q, _ := s.lookup(sym)
	return q
}

// T returns the temperature.
func (s *State) T() quantity.Quantity { return s.must(registry.T) }

// P returns the pressure.
func (s *State) P() quantity.Quantity { return s.must(registry.P) }

// V returns the specific volume.
func (s *State) V() quantity.Quantity { return s.must(registry.V) }

// U returns the specific internal energy.
func (s *State) U() quantity.Quantity { return s.must(registry.U) }

// H returns the specific enthalpy.
func (s *State) H() quantity.Quantity { return s.must(registry.H) }

// S returns the specific entropy.
func (s *State) S() quantity.Quantity { return s.must(registry.S) }

// Cp returns the specific heat at constant pressure.
func (s *State) Cp() quantity.Quantity { return s.must(registry.Cp) }

// Cv returns the specific heat at constant volume.
func (s *State) Cv() quantity.Quantity { return s.must(registry.Cv) }

// X returns the quality. ok is false outside the two-phase region, where
// quality is undefined rather than zero.
func (s *State) X() (quantity.Quantity, bool) {
	return s.lookup(registry.X)
}

// Units returns the instance unit-system override, UnitsNone when unset.
func (s *State) Units() UnitSystem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units
}

// ActiveUnits returns the unit system reads currently use: the instance
// override when set, else the settings' system.
func (s *State) ActiveUnits() UnitSystem {
	if units := s.Units(); units != UnitsNone {
		return units
	}
	return s.settings.Units()
}

// SetUnits sets the instance override. The empty selector clears it so the
// settings apply again. No backend data is fetched.
func (s *State) SetUnits(selector string) error {
	units, err := ParseUnitSystem(selector)
	if err != nil {
		return withSubstance(err, s.substance)
	}
	s.mu.Lock()
	old := s.units
	s.units = units
	s.mu.Unlock()

	if old != units {
		s.emit(context.Background(), activity.BuildStateUnitsChangedEvent(activity.StateEventInput{
			ObjectID:  s.id.String(),
			Substance: string(s.substance),
			Label:     s.label,
			OldUnits:  string(old),
			NewUnits:  string(units),
		}))
	}
	return nil
}

// SetDisplayUnit pins sym to unit on this state only. An empty unit removes
// the pin.
func (s *State) SetDisplayUnit(sym registry.Symbol, unit string) error {
	if strings.TrimSpace(unit) == "" {
		s.mu.Lock()
		delete(s.symbolUnits, sym)
		s.mu.Unlock()
		return nil
	}
	parsed, err := parseDisplayUnit("display", sym, unit)
	if err != nil {
		return withSubstance(err, s.substance)
	}
	s.mu.Lock()
	if s.symbolUnits == nil {
		s.symbolUnits = make(map[registry.Symbol]quantity.Unit)
	}
	s.symbolUnits[sym] = parsed
	s.mu.Unlock()
	return nil
}

// Trace reports how the display unit of sym was chosen.
func (s *State) Trace(sym registry.Symbol) (Trace, error) {
	if !sym.Valid() || sym == registry.Phase {
		return Trace{}, &StateError{Op: "trace", Substance: s.substance, Symbol: sym, Err: ErrUnknownProperty}
	}
	_, trace := resolveDisplay(s.view(), s.settings, sym)
	return trace, nil
}

func (s *State) view() displayView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := displayView{units: s.units, unitsSet: s.units != UnitsNone}
	if len(s.symbolUnits) > 0 {
		view.symbolUnits = make(map[registry.Symbol]quantity.Unit, len(s.symbolUnits))
		for sym, unit := range s.symbolUnits {
			view.symbolUnits[sym] = unit
		}
	}
	return view
}

// Equal reports whether both states describe the same physical point of the
// same substance. Display settings and the defining pair are ignored.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.substance != other.substance {
		return false
	}
	tol := math.Max(s.tolerance, other.tolerance)
	for _, sym := range eos.RequiredSymbols() {
		if !quantity.Close(s.values[sym], other.values[sym], tol) {
			return false
		}
	}
	x1, ok1 := s.values[registry.X]
	x2, ok2 := other.values[registry.X]
	if ok1 != ok2 {
		return false
	}
	return !ok1 || quantity.Close(x1, x2, tol)
}

// Snapshot returns every defined property as a display-unit magnitude keyed
// by symbol, plus phase, substance, label and units. Quality is nil outside
// the two-phase region.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(registry.Symbols())+3)
	for _, sym := range registry.QuantitySymbols() {
		q, ok := s.lookup(sym)
		if !ok {
			out[string(sym)] = nil
			continue
		}
		out[string(sym)] = q.Magnitude()
	}
	out[string(registry.Phase)] = string(s.phase)
	out["substance"] = string(s.substance)
	out["label"] = s.label
	out["units"] = string(s.ActiveUnits())
	return out
}

// String renders the defining pair and every defined property in display
// units.
func (s *State) String() string {
	var b strings.Builder
	name := string(s.substance)
	if s.label != "" {
		name = s.label + " " + name
	}
	fmt.Fprintf(&b, "%s [%s] %s:", name, s.pair.Pair(), s.phase)
	for _, sym := range registry.QuantitySymbols() {
		q, ok := s.lookup(sym)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, " %s=%s", sym, q)
	}
	return b.String()
}
