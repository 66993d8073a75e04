//go:build js_eval

package thermo

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJSEvaluatorTimeout(t *testing.T) {
	st := stubState(t, 400, WithEvaluator(NewJSEvaluator(JSWithTimeout(50*time.Millisecond))))

	_, err := st.Evaluate("(function(){ while (true) {} })()")
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != "js" {
		t.Fatalf("expected js EvaluationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "script exceeded 50ms") {
		t.Fatalf("expected interrupt reason in %q", err.Error())
	}

	got, err := st.Evaluate("T > 300 ? 'hot' : 'cold'")
	if err != nil || got != "hot" {
		t.Fatalf("expected the evaluator to keep working, got %v %v", got, err)
	}
}

func TestJSEvaluatorCompiledRule(t *testing.T) {
	cache := NewMapCache()
	evaluator := NewJSEvaluator(JSWithProgramCache(cache))
	rule, err := evaluator.Compile("h / 1000")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	st := stubState(t, 400)
	got, err := rule.Evaluate(st.RuleContext())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assertValue(t, "h", got, 401.8)
	if cache.Len() != 1 {
		t.Fatalf("expected compiled program to be cached, got %d", cache.Len())
	}
	if _, err := evaluator.Compile(""); err == nil {
		t.Fatalf("expected empty expression to fail")
	}
}
