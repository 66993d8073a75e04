// Package eostest provides a deterministic backend for tests that need a
// State without running a real equation of state.
package eostest

import (
	"context"
	"sync"

	"github.com/goliatone/go-thermo/eos"
	"github.com/goliatone/go-thermo/registry"
)

// Backend records every request and answers with a fixed result, an error,
// or the output of Func when set. The zero value answers with Ideal.
type Backend struct {
	Result eos.Result
	Err    error
	Func   func(ctx context.Context, req eos.Request) (eos.Result, error)

	mu       sync.Mutex
	requests []eos.Request
}

// Resolve implements eos.Backend.
func (b *Backend) Resolve(ctx context.Context, req eos.Request) (eos.Result, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	switch {
	case b.Err != nil:
		return eos.Result{}, b.Err
	case b.Func != nil:
		return b.Func(ctx, req)
	case b.Result.Values != nil:
		return clone(b.Result), nil
	default:
		return Ideal(req)
	}
}

// Calls returns how many requests reached the backend.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []eos.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]eos.Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Fixed returns a complete single-phase result whose values do not depend on
// the request. Tests overwrite the entries they care about.
func Fixed() eos.Result {
	return eos.Result{
		Values: map[registry.Symbol]float64{
			registry.T:  400,
			registry.P:  101325,
			registry.V:  1.8,
			registry.U:  2.5e6,
			registry.H:  2.7e6,
			registry.S:  7.5e3,
			registry.Cp: 2.0e3,
			registry.Cv: 1.5e3,
		},
		Phase: eos.PhaseGas,
	}
}

// Ideal answers Tp requests with a calorically perfect gas (R = 287 J/(kg*K),
// cp = 1004.5 J/(kg*K)) so that results vary with the inputs. Other pairs
// fall back to Fixed with the two inputs overwritten.
func Ideal(req eos.Request) (eos.Result, error) {
	res := Fixed()
	if req.Pair() == registry.NewPair(registry.T, registry.P) {
		const r, cp = 287.0, 1004.5
		t, _ := req.Value(registry.T)
		p, _ := req.Value(registry.P)
		res.Values[registry.V] = r * t / p
		res.Values[registry.H] = cp * t
		res.Values[registry.U] = (cp - r) * t
		res.Values[registry.Cp] = cp
		res.Values[registry.Cv] = cp - r
	}
	res.Values[req.First] = req.FirstValue
	res.Values[req.Second] = req.SecondValue
	return res, nil
}

func clone(res eos.Result) eos.Result {
	values := make(map[registry.Symbol]float64, len(res.Values))
	for k, v := range res.Values {
		values[k] = v
	}
	return eos.Result{Values: values, Phase: res.Phase}
}
