package registry

import (
	"fmt"
	"sort"
)

// Pair is an ordered pair of symbols. Pairs produced by the registry are
// always in canonical order.
type Pair [2]Symbol

// NewPair returns the canonical pair for a and b.
func NewPair(a, b Symbol) Pair {
	first, second := CanonicalOrder(a, b)
	return Pair{first, second}
}

// String concatenates both symbols, e.g. "Tp".
func (p Pair) String() string {
	return string(p[0]) + string(p[1])
}

// Exclusion documents a pair that is independent in principle but that the
// backend cannot resolve.
type Exclusion struct {
	Pair   Pair
	Reason string
}

// DefaultSupportedPairs lists the independent pairs the bundled backends
// resolve, in canonical order.
var DefaultSupportedPairs = []Pair{
	{T, P}, {T, S}, {T, V}, {T, X},
	{P, U}, {P, H}, {P, S}, {P, V}, {P, X},
	{U, V}, {H, S}, {H, V}, {S, V},
}

// DefaultExclusions lists pairs rejected before any backend call. At fixed
// temperature neither u nor h is monotonic in pressure for a real fluid, and
// u/s has no bracketed inversion, so backends cannot invert them reliably.
var DefaultExclusions = []Exclusion{
	{Pair: Pair{T, U}, Reason: "internal energy is not monotonic in pressure at fixed temperature"},
	{Pair: Pair{T, H}, Reason: "enthalpy is not monotonic in pressure at fixed temperature"},
	{Pair: Pair{U, S}, Reason: "no bracketed inversion exists for internal energy and entropy"},
}

// Registry decides which symbol pairs may fix a state. The zero value is
// not usable; construct with New or Default.
type Registry struct {
	supported  map[Pair]struct{}
	exclusions map[Pair]string
}

// Option configures a Registry.
type Option func(*Registry)

// WithSupportedPair adds a to the supported set.
func WithSupportedPair(a, b Symbol) Option {
	return func(r *Registry) {
		r.supported[NewPair(a, b)] = struct{}{}
	}
}

// WithExcludedPair adds a backend exclusion with a human-readable reason.
func WithExcludedPair(a, b Symbol, reason string) Option {
	return func(r *Registry) {
		r.exclusions[NewPair(a, b)] = reason
	}
}

// WithoutExcludedPair removes a backend exclusion. The pair still has to be
// in the supported set to be accepted.
func WithoutExcludedPair(a, b Symbol) Option {
	return func(r *Registry) {
		delete(r.exclusions, NewPair(a, b))
	}
}

// New builds a registry seeded with the default tables, then applies opts.
func New(opts ...Option) *Registry {
	r := &Registry{
		supported:  make(map[Pair]struct{}, len(DefaultSupportedPairs)),
		exclusions: make(map[Pair]string, len(DefaultExclusions)),
	}
	for _, pair := range DefaultSupportedPairs {
		r.supported[NewPair(pair[0], pair[1])] = struct{}{}
	}
	for _, ex := range DefaultExclusions {
		r.exclusions[NewPair(ex.Pair[0], ex.Pair[1])] = ex.Reason
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var defaultRegistry = New()

// Default returns the shared registry built from the default tables. It must
// not be modified.
func Default() *Registry {
	return defaultRegistry
}

// IsSupportedPair reports whether a and b, in either order, may fix a state.
func (r *Registry) IsSupportedPair(a, b Symbol) bool {
	return r.Check(a, b) == nil
}

// Check explains why a and b cannot fix a state, or returns nil.
func (r *Registry) Check(a, b Symbol) error {
	for _, sym := range []Symbol{a, b} {
		if !sym.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownProperty, sym)
		}
	}
	pair := NewPair(a, b)
	if a == b {
		return fmt.Errorf("%w: %q given twice", ErrUnsupportedPair, a)
	}
	for _, sym := range pair {
		if sym.Derived() {
			return fmt.Errorf("%w: %q is derived and cannot fix a state", ErrUnsupportedPair, sym)
		}
	}
	if reason, ok := r.exclusions[pair]; ok {
		return fmt.Errorf("%w: %q is not supported by the backend (%s)", ErrUnsupportedPair, pair.String(), reason)
	}
	if _, ok := r.supported[pair]; !ok {
		return fmt.Errorf("%w: %q is not an independent pair", ErrUnsupportedPair, pair.String())
	}
	return nil
}

// SupportedPairs returns the supported pairs, excluding any that are also on
// the exclusion list, sorted by canonical order.
func (r *Registry) SupportedPairs() []Pair {
	out := make([]Pair, 0, len(r.supported))
	for pair := range r.supported {
		if _, excluded := r.exclusions[pair]; excluded {
			continue
		}
		out = append(out, pair)
	}
	sortPairs(out)
	return out
}

// Exclusions returns the documented exclusion list sorted by canonical order.
func (r *Registry) Exclusions() []Exclusion {
	out := make([]Exclusion, 0, len(r.exclusions))
	for pair, reason := range r.exclusions {
		out = append(out, Exclusion{Pair: pair, Reason: reason})
	}
	sort.Slice(out, func(i, j int) bool {
		return pairLess(out[i].Pair, out[j].Pair)
	})
	return out
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		return pairLess(pairs[i], pairs[j])
	})
}

func pairLess(a, b Pair) bool {
	if a[0] != b[0] {
		return less(a[0], b[0])
	}
	return less(a[1], b[1])
}
