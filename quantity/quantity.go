package quantity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/unit"
)

// DefaultTolerance is the relative tolerance Equal uses.
const DefaultTolerance = 1e-9

// Quantity is a magnitude expressed in a unit. Quantities are values; every
// conversion returns a new Quantity.
type Quantity struct {
	magnitude float64
	unit      Unit
}

// New parses unit and attaches it to magnitude.
func New(magnitude float64, unit string) (Quantity, error) {
	u, err := ParseUnit(unit)
	if err != nil {
		return Quantity{}, err
	}
	return u.Of(magnitude), nil
}

// Must is like New but panics when unit cannot be parsed.
func Must(magnitude float64, unit string) Quantity {
	q, err := New(magnitude, unit)
	if err != nil {
		panic(err)
	}
	return q
}

// Magnitude returns the numeric value in the quantity's own unit.
func (q Quantity) Magnitude() float64 {
	return q.magnitude
}

// Unit returns the quantity's unit.
func (q Quantity) Unit() Unit {
	return q.unit.normalized()
}

// Dimension returns the quantity's physical dimension.
func (q Quantity) Dimension() Dimension {
	return q.unit.Dimension()
}

// Base returns the magnitude expressed in coherent SI base units (K, Pa,
// m**3/kg, J/kg, J/(kg*K), ...).
func (q Quantity) Base() float64 {
	return q.unit.toBase(q.magnitude)
}

// SI returns q as a gonum unit.Unit holding the base magnitude.
func (q Quantity) SI() *unit.Unit {
	return unit.New(q.Base(), q.unit.base().Dimensions())
}

// To converts q into the unit described by expr.
func (q Quantity) To(expr string) (Quantity, error) {
	target, err := ParseUnit(expr)
	if err != nil {
		return Quantity{}, err
	}
	return q.ToUnit(target)
}

// ToUnit converts q into target. It fails with a *DimensionalityError when
// the dimensions differ.
func (q Quantity) ToUnit(target Unit) (Quantity, error) {
	target = target.normalized()
	if !unit.DimensionsMatch(q.unit.base(), target.base()) {
		return Quantity{}, &DimensionalityError{
			From:    q.Unit().String(),
			To:      target.String(),
			FromDim: q.Dimension(),
			ToDim:   target.Dimension(),
		}
	}
	return Quantity{magnitude: target.fromBase(q.Base()), unit: target}, nil
}

// Equal reports whether q and o describe the same physical amount within
// DefaultTolerance. Quantities of different dimension are never equal.
func (q Quantity) Equal(o Quantity) bool {
	return q.EqualWithin(o, DefaultTolerance)
}

// EqualWithin is Equal with an explicit relative tolerance.
func (q Quantity) EqualWithin(o Quantity, rel float64) bool {
	a, b := q.SI(), o.SI()
	if !unit.DimensionsMatch(a, b) {
		return false
	}
	return Close(a.Value(), b.Value(), rel)
}

// String renders the quantity as "<magnitude> <unit>".
func (q Quantity) String() string {
	return fmt.Sprintf("%g %s", q.magnitude, q.Unit())
}

// AbsoluteFloor is the absolute difference below which Close treats two
// base values as equal regardless of the relative tolerance.
const AbsoluteFloor = 1e-9

// Close reports whether a and b agree within rel of the larger magnitude, or
// within AbsoluteFloor.
func Close(a, b, rel float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	diff := math.Abs(a - b)
	if diff <= AbsoluteFloor {
		return true
	}
	return diff <= rel*math.Max(math.Abs(a), math.Abs(b))
}
