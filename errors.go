package thermo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
)

var (
	// ErrUnknownSubstance indicates a substance outside the supported set.
	ErrUnknownSubstance = errors.New("thermo: unknown substance")
	// ErrUnknownProperty indicates a symbol outside the fixed property set.
	ErrUnknownProperty = registry.ErrUnknownProperty
	// ErrPairArity indicates that other than two defining properties were given.
	ErrPairArity = errors.New("thermo: exactly two properties must be supplied")
	// ErrUnsupportedPair indicates a dependent or backend-excluded pair.
	ErrUnsupportedPair = registry.ErrUnsupportedPair
	// ErrDimensionality indicates a quantity with the wrong dimension for its symbol.
	ErrDimensionality = quantity.ErrDimensionality
	// ErrBackendResolution indicates the backend could not resolve the point.
	ErrBackendResolution = errors.New("thermo: backend could not resolve state")
	// ErrInvalidUnitSystem indicates an unrecognised unit-system selector.
	ErrInvalidUnitSystem = errors.New("thermo: invalid unit system")
	// ErrNoEvaluator indicates evaluation was requested without an evaluator.
	ErrNoEvaluator = errors.New("thermo: evaluator not configured")
)

// StateError describes a failed operation on a state. Err is always one of
// the package sentinels, possibly wrapping a lower-level cause.
type StateError struct {
	Op        string
	Substance Substance
	Symbol    registry.Symbol
	Detail    string
	Err       error
}

func (e *StateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("thermo: ")
	b.WriteString(e.Op)
	if e.Substance != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Substance))
	}
	if e.Symbol != "" {
		fmt.Fprintf(&b, " %s", e.Symbol)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(strings.TrimPrefix(e.Err.Error(), "thermo: "))
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	return b.String()
}

func (e *StateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func stateError(op string, sym registry.Symbol, err error, detail string, args ...any) *StateError {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &StateError{Op: op, Symbol: sym, Detail: detail, Err: err}
}

// withSubstance stamps substance onto err when it is a *StateError without one.
func withSubstance(err error, substance Substance) error {
	var stateErr *StateError
	if errors.As(err, &stateErr) && stateErr.Substance == "" {
		stateErr.Substance = substance
	}
	return err
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Label  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("thermo: %s evaluator %s state=%s: %v", e.Engine, describeExpression(e.Expr), e.Label, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "thermo:") {
		return err
	}
	return fmt.Errorf("thermo: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, label string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Label == "" {
			evalErr.Label = label
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Label:  label,
		Err:    err,
	}
}
