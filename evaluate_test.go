package thermo

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

type evaluatorFactory struct {
	name    string
	call    string
	isNull  string
	factory func(cache ProgramCache, functions *FunctionRegistry) Evaluator
}

func evaluatorFactories(t *testing.T) []evaluatorFactory {
	t.Helper()
	factories := []evaluatorFactory{
		{
			name:   "expr",
			call:   "ratio(cp, cv)",
			isNull: "x == nil",
			factory: func(cache ProgramCache, functions *FunctionRegistry) Evaluator {
				return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(functions))
			},
		},
		{
			name:   "cel",
			call:   "call('ratio', cp, cv)",
			isNull: "x == null",
			factory: func(cache ProgramCache, functions *FunctionRegistry) Evaluator {
				return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(functions))
			},
		},
	}
	if JSEvaluatorAvailable() {
		factories = append(factories, evaluatorFactory{
			name:   "js",
			call:   "ratio(cp, cv)",
			isNull: "x === null",
			factory: func(cache ProgramCache, functions *FunctionRegistry) Evaluator {
				return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(functions))
			},
		})
	}
	return factories
}

func ratioFunctions(t *testing.T) *FunctionRegistry {
	t.Helper()
	functions := NewFunctionRegistry()
	err := functions.Register("ratio", func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, errors.New("ratio expects two arguments")
		}
		a, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		b, err := toFloat(args[1])
		if err != nil {
			return nil, err
		}
		return a / b, nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return functions
}

func TestEvaluateAcrossEngines(t *testing.T) {
	for _, engine := range evaluatorFactories(t) {
		t.Run(engine.name, func(t *testing.T) {
			cache := NewMapCache()
			st := stubState(t, 400, WithEvaluator(engine.factory(cache, ratioFunctions(t))))

			cases := []struct {
				expr string
				want any
			}{
				{expr: "h - u", want: 287.0 * 400},
				{expr: "phase == 'gas'", want: true},
				{expr: "convert(T, 'K', 'degC')", want: 126.85},
				{expr: engine.call, want: 1004.5 / 717.5},
				{expr: engine.isNull, want: true},
			}
			for _, tc := range cases {
				got, err := st.Evaluate(tc.expr)
				if err != nil {
					t.Fatalf("%s: %v", tc.expr, err)
				}
				assertValue(t, tc.expr, got, tc.want)
			}

			for i := 0; i < 3; i++ {
				if _, err := st.Evaluate("h - u"); err != nil {
					t.Fatalf("repeat: %v", err)
				}
			}
			if cache.Len() != len(cases) {
				t.Fatalf("expected one cached program per expression, got %d", cache.Len())
			}
		})
	}
}

func TestEvaluateUsesDisplayUnits(t *testing.T) {
	st := stubState(t, 400, WithUnits("SI"))
	got, err := st.Evaluate("T")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assertValue(t, "T", got, 126.85)

	if err := st.SetUnits("EE"); err != nil {
		t.Fatalf("set units: %v", err)
	}
	got, err = st.Evaluate("units == 'EE' && T > 260")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assertValue(t, "units", got, true)
}

func TestEvaluateWithContext(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	st := stubState(t, 400, WithLabel("feed"))

	got, err := st.EvaluateWith(RuleContext{
		Now:  &now,
		Args: map[string]any{"margin": 10.0},
	}, "T + args.margin")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assertValue(t, "args", got, 410.0)

	got, err = st.EvaluateWith(RuleContext{Snapshot: map[string]any{"T": 1.0}}, "T")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assertValue(t, "snapshot override", got, 1.0)

	ctx := st.RuleContext()
	if ctx.Label != "feed" || ctx.Now == nil || ctx.Args == nil || ctx.Metadata == nil {
		t.Fatalf("expected defaults to be filled, got %+v", ctx)
	}
	rule, err := NewExprEvaluator().Compile("label + ':' + substance")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err = rule.Evaluate(ctx)
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	if got != "feed:air" {
		t.Fatalf("expected feed:air got %v", got)
	}
}

func TestEvaluateErrors(t *testing.T) {
	var events []LogEvent
	logger := LoggerFunc(func(event LogEvent) {
		events = append(events, event)
	})
	st := stubState(t, 400, WithLabel("outlet"), WithLogger(logger))
	events = nil

	_, err := st.Evaluate("h +")
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T %v", err, err)
	}
	if evalErr.Engine != "expr" || evalErr.Expr != "h +" || evalErr.Label != "outlet" {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}

	if _, err := st.Evaluate(""); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty expression error, got %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected one logged evaluation, got %d", len(events))
	}
	event := events[0]
	if event.Op != "evaluate" || event.Engine != "expr" || event.Expr != "h +" || event.Err == nil {
		t.Fatalf("unexpected log event %+v", event)
	}
	if event.Substance != Air || event.Label != "outlet" || event.Pair != "Tp" {
		t.Fatalf("unexpected log context %+v", event)
	}

	bare := &State{}
	if _, err := bare.Evaluate("T"); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
}

func TestNewLogsConstruction(t *testing.T) {
	var events []LogEvent
	logger := LoggerFunc(func(event LogEvent) {
		events = append(events, event)
	})
	stubState(t, 400, WithLogger(logger), WithLabel("a"))
	if len(events) != 1 || events[0].Op != "new" || events[0].Err != nil || events[0].Pair != "Tp" || events[0].Label != "a" {
		t.Fatalf("unexpected construction log %+v", events)
	}

	events = nil
	_, err := New(context.Background(), Water, WithLogger(logger))
	if !errors.Is(err, ErrPairArity) {
		t.Fatalf("expected arity error, got %v", err)
	}
	if len(events) != 1 || !errors.Is(events[0].Err, ErrPairArity) || events[0].Substance != Water {
		t.Fatalf("expected failed construction to be logged, got %+v", events)
	}
}

func TestCustomFunctionOption(t *testing.T) {
	st := stubState(t, 400,
		WithCustomFunction("double", func(args ...any) (any, error) {
			v, err := toFloat(args[0])
			return v * 2, err
		}),
		WithProgramCache(NewMapCache()),
	)
	got, err := st.Evaluate("double(T)")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assertValue(t, "double", got, 800.0)
}

func TestFunctionRegistry(t *testing.T) {
	functions := NewFunctionRegistry()
	if err := functions.Register("Ratio", func(args ...any) (any, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := functions.Register("ratio", func(args ...any) (any, error) { return 2, nil }); !errors.Is(err, ErrFunctionExists) {
		t.Fatalf("expected duplicate registration to fail, got %v", err)
	}
	for _, name := range []string{"", "cp", "T", "convert", "2phase", "eta-s"} {
		if err := functions.Register(name, func(args ...any) (any, error) { return nil, nil }); !errors.Is(err, ErrFunctionName) {
			t.Fatalf("%q: expected ErrFunctionName, got %v", name, err)
		}
	}
	if err := functions.Register("eta_s2", nil); err == nil {
		t.Fatalf("expected nil function to be rejected")
	}

	clone := functions.Clone()
	boom := errors.New("boom")
	_ = functions.Register("fail", func(args ...any) (any, error) { return nil, boom })
	if names := clone.Names(); len(names) != 1 || names[0] != "ratio" {
		t.Fatalf("clone must not see later registrations, got %v", names)
	}
	if got, err := clone.Call("RATIO"); err != nil || got != 1 {
		t.Fatalf("expected case-insensitive call, got %v %v", got, err)
	}
	if _, err := clone.Call("missing"); err == nil {
		t.Fatalf("expected missing function error")
	}
	if _, err := functions.Call("fail"); !errors.Is(err, boom) || !strings.Contains(err.Error(), "function fail") {
		t.Fatalf("expected wrapped helper error, got %v", err)
	}
	var nilRegistry *FunctionRegistry
	if nilRegistry.Names() != nil || nilRegistry.Clone() != nil {
		t.Fatalf("nil registry must be usable")
	}
}

func TestEvaluatorEngineName(t *testing.T) {
	if got := evaluatorEngineName(NewExprEvaluator()); got != "expr" {
		t.Fatalf("expected expr got %q", got)
	}
	if got := evaluatorEngineName(NewCELEvaluator()); got != "cel" {
		t.Fatalf("expected cel got %q", got)
	}
	if got := evaluatorEngineName(nil); got != "unknown" {
		t.Fatalf("expected unknown got %q", got)
	}
}

func TestConvertBuiltin(t *testing.T) {
	got, err := convertArgs(int64(0), "degC", "degF")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	assertValue(t, "convert", got, 32.0)
	if _, err := convertArgs(1.0, "bar", "K"); err == nil {
		t.Fatalf("expected incompatible units to fail")
	}
	if _, err := convertArgs(1.0, "bar"); err == nil {
		t.Fatalf("expected arity error")
	}
	if _, err := convertArgs("1", "bar", "Pa"); err == nil {
		t.Fatalf("expected non-numeric value to fail")
	}
}

func assertValue(t *testing.T, label string, got, want any) {
	t.Helper()
	if w, ok := want.(float64); ok {
		g, err := toFloat(got)
		if err != nil {
			t.Fatalf("%s: %v", label, err)
		}
		if math.Abs(g-w) > 1e-9*math.Max(1, math.Abs(w)) {
			t.Fatalf("%s: expected %v got %v", label, w, g)
		}
		return
	}
	if got != want {
		t.Fatalf("%s: expected %v got %v", label, want, got)
	}
}
