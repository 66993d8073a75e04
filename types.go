package thermo

import (
	"time"

	"github.com/goliatone/go-thermo/eos"
	"github.com/goliatone/go-thermo/pkg/activity"
	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
)

// Property is one keyword-style input: a symbol and the quantity supplied
// for it.
type Property struct {
	Symbol registry.Symbol
	Value  quantity.Quantity
}

// RuleContext carries inputs needed when evaluating an expression.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Label    string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) label() string {
	if ctx.Label != "" {
		return ctx.Label
	}
	return "unlabelled"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures State construction.
type Option func(*stateConfig)

type stateConfig struct {
	inputs        []Property
	unitsSet      bool
	unitsRaw      string
	displayUnits  map[registry.Symbol]string
	label         string
	backend       eos.Backend
	registry      *registry.Registry
	settings      *Settings
	tolerance     float64
	evaluator     Evaluator
	programCache  ProgramCache
	functions     *FunctionRegistry
	logger        Logger
	activityHooks activity.Hooks
}

func applyOptions(opts []Option) stateConfig {
	cfg := stateConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg stateConfig) backendOrDefault() eos.Backend {
	if cfg.backend != nil {
		return cfg.backend
	}
	return DefaultBackend()
}

func (cfg stateConfig) registryOrDefault() *registry.Registry {
	if cfg.registry != nil {
		return cfg.registry
	}
	return registry.Default()
}

func (cfg stateConfig) settingsOrDefault() *Settings {
	if cfg.settings != nil {
		return cfg.settings
	}
	return DefaultSettings()
}

func (cfg stateConfig) toleranceOrDefault() float64 {
	if cfg.tolerance > 0 {
		return cfg.tolerance
	}
	return DefaultEqualTolerance
}

func (cfg stateConfig) loggerOrNoop() Logger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopLogger{}
}

// resolveEvaluator returns the configured evaluator or an expr evaluator
// wired with the configured cache and functions.
func (cfg stateConfig) resolveEvaluator() Evaluator {
	if cfg.evaluator != nil {
		return cfg.evaluator
	}
	var exprOpts []ExprEvaluatorOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	return NewExprEvaluator(exprOpts...)
}
