package eos

import (
	"fmt"
	"math"
)

// DefaultMaxIterations bounds every bisection in the bundled backends.
const DefaultMaxIterations = 200

// Bisect finds x in [lo, hi] such that f(x) = target, assuming f is
// monotonic on the interval. It stops when the bracket width falls below
// xtol. The target must lie between f(lo) and f(hi), otherwise ErrOutOfRange
// is returned.
func Bisect(f func(float64) (float64, error), target, lo, hi, xtol float64) (float64, error) {
	flo, err := f(lo)
	if err != nil {
		return 0, err
	}
	fhi, err := f(hi)
	if err != nil {
		return 0, err
	}
	glo, ghi := flo-target, fhi-target
	if glo == 0 {
		return lo, nil
	}
	if ghi == 0 {
		return hi, nil
	}
	if math.Signbit(glo) == math.Signbit(ghi) {
		return 0, fmt.Errorf("%w: target %g outside [%g, %g]", ErrOutOfRange, target, math.Min(flo, fhi), math.Max(flo, fhi))
	}
	for range DefaultMaxIterations {
		mid := 0.5 * (lo + hi)
		fm, err := f(mid)
		if err != nil {
			return 0, err
		}
		gm := fm - target
		if gm == 0 || 0.5*(hi-lo) < xtol {
			return mid, nil
		}
		if math.Signbit(gm) == math.Signbit(glo) {
			lo, glo = mid, gm
		} else {
			hi = mid
		}
	}
	return 0, fmt.Errorf("%w: bisection for target %g", ErrNoConvergence, target)
}
