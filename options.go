package thermo

import (
	"github.com/goliatone/go-thermo/eos"
	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
)

// With supplies one defining property. Exactly two are required.
func With(sym registry.Symbol, q quantity.Quantity) Option {
	return func(cfg *stateConfig) {
		cfg.inputs = append(cfg.inputs, Property{Symbol: sym, Value: q})
	}
}

// WithUnits sets the instance unit-system override. The selector is
// validated during construction.
func WithUnits(selector string) Option {
	return func(cfg *stateConfig) {
		cfg.unitsSet = true
		cfg.unitsRaw = selector
	}
}

// WithDisplayUnit shows sym in unit regardless of the active unit system.
// The unit must carry the symbol's dimension.
func WithDisplayUnit(sym registry.Symbol, unit string) Option {
	return func(cfg *stateConfig) {
		if cfg.displayUnits == nil {
			cfg.displayUnits = make(map[registry.Symbol]string)
		}
		cfg.displayUnits[sym] = unit
	}
}

// WithLabel attaches a free-form label, e.g. the point number in a cycle.
func WithLabel(label string) Option {
	return func(cfg *stateConfig) {
		cfg.label = label
	}
}

// WithBackend replaces DefaultBackend for this state.
func WithBackend(backend eos.Backend) Option {
	return func(cfg *stateConfig) {
		cfg.backend = backend
	}
}

// WithRegistry replaces the default pair registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(cfg *stateConfig) {
		cfg.registry = reg
	}
}

// WithSettings binds the state to settings instead of DefaultSettings.
func WithSettings(settings *Settings) Option {
	return func(cfg *stateConfig) {
		cfg.settings = settings
	}
}

// WithEqualTolerance sets the relative tolerance Equal uses.
func WithEqualTolerance(rel float64) Option {
	return func(cfg *stateConfig) {
		cfg.tolerance = rel
	}
}

// WithEvaluator configures the evaluator used by Evaluate.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *stateConfig) {
		cfg.evaluator = e
	}
}
