package thermo

import (
	"fmt"

	"github.com/goliatone/go-thermo/quantity"
)

// convertMagnitude converts value between two unit expressions. Every
// evaluator exposes it as convert(value, from, to), so expressions can mix
// display units with a unit of their own choosing.
func convertMagnitude(value float64, from, to string) (float64, error) {
	q, err := quantity.New(value, from)
	if err != nil {
		return 0, err
	}
	out, err := q.To(to)
	if err != nil {
		return 0, err
	}
	return out.Magnitude(), nil
}

// toFloat accepts the numeric types evaluators hand back to Go.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("thermo: expected a number, got %T", v)
}

func convertArgs(args ...any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("thermo: convert expects (value, from, to), got %d arguments", len(args))
	}
	value, err := toFloat(args[0])
	if err != nil {
		return nil, err
	}
	from, ok1 := args[1].(string)
	to, ok2 := args[2].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("thermo: convert units must be strings")
	}
	return convertMagnitude(value, from, to)
}
