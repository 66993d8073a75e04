package thermo

import (
	"fmt"
	"time"
)

// RuleContext returns a context whose snapshot is the state's display-unit
// view, for use with CompiledRule.Evaluate.
func (s *State) RuleContext() RuleContext {
	return RuleContext{Snapshot: s.Snapshot(), Label: s.label}.withDefaults()
}

// Evaluate runs expr against the state's snapshot with the configured
// evaluator. Variables are the property symbols in display units (x is nil
// outside the two-phase region) together with phase, substance, label and
// units.
func (s *State) Evaluate(expr string) (any, error) {
	return s.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith executes expr using ctx, falling back to the state's snapshot
// when ctx.Snapshot is nil.
func (s *State) EvaluateWith(ctx RuleContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	if s.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = s.Snapshot()
	}
	if ctx.Label == "" {
		ctx.Label = s.label
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(s.evaluator)
	start := time.Now()
	value, evalErr := s.evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, ctx.label(), evalErr)
	s.logger.Log(LogEvent{
		Op:        "evaluate",
		Substance: s.substance,
		Label:     s.label,
		Pair:      s.pair.Pair().String(),
		Engine:    engine,
		Expr:      expr,
		Duration:  duration,
		Err:       evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*thermo.exprEvaluator":
		return "expr"
	case "*thermo.celEvaluator":
		return "cel"
	case "*thermo.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
