// Package quantity provides typed physical quantities: a magnitude tagged with
// a unit whose physical dimension is tracked, converted and compared.
//
// Units are parsed from plain strings such as "kJ/(kg*K)", "m**3/kg" or
// "BTU/(lb*degR)". Every unit resolves to a gonum unit.Unit holding its scale
// against the SI base units, plus an offset for the absolute temperature
// scales gonum does not model, so conversion between any two units of the
// same dimension is a pair of affine maps.
package quantity

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/unit"
)

// Dimension holds the exponents of the SI base dimensions a unit is built
// from. The zero Dimension is dimensionless.
type Dimension struct {
	dims unit.Dimensions
}

// Dimensionless is the zero dimension.
var Dimensionless = Dimension{}

// Common derived dimensions.
var (
	DimTemperature    = NewDimension(unit.Dimensions{unit.TemperatureDim: 1})
	DimPressure       = NewDimension(unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -2})
	DimSpecificVolume = NewDimension(unit.Dimensions{unit.LengthDim: 3, unit.MassDim: -1})
	DimSpecificEnergy = NewDimension(unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -2})
	DimSpecificHeat   = NewDimension(unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -2, unit.TemperatureDim: -1})
)

// NewDimension copies d, dropping zero exponents.
func NewDimension(d unit.Dimensions) Dimension {
	return Dimension{dims: unit.New(1, d).Dimensions()}
}

// Dimensions returns a copy of the gonum exponent map.
func (d Dimension) Dimensions() unit.Dimensions {
	return d.uniter().Dimensions()
}

// Equal reports whether both dimensions carry the same exponents.
func (d Dimension) Equal(o Dimension) bool {
	return unit.DimensionsMatch(d.uniter(), o.uniter())
}

// IsDimensionless reports whether every exponent is zero.
func (d Dimension) IsDimensionless() bool {
	return d.Equal(Dimensionless)
}

func (d Dimension) uniter() *unit.Unit {
	return unit.New(1, d.dims)
}

// dimensionNames fixes the rendering order of base dimensions.
var dimensionNames = []struct {
	dim  unit.Dimension
	name string
}{
	{unit.MassDim, "[mass]"},
	{unit.LengthDim, "[length]"},
	{unit.TimeDim, "[time]"},
	{unit.TemperatureDim, "[temperature]"},
	{unit.MoleDim, "[substance]"},
	{unit.CurrentDim, "[current]"},
	{unit.LuminousIntensityDim, "[luminosity]"},
	{unit.AngleDim, "[angle]"},
}

// String renders the dimension as "[length]**3/[mass]".
func (d Dimension) String() string {
	if d.IsDimensionless() {
		return "dimensionless"
	}
	var num, den []string
	for _, t := range dimensionNames {
		exp := d.dims[t.dim]
		switch {
		case exp > 0:
			num = append(num, formatTerm(t.name, exp))
		case exp < 0:
			den = append(den, formatTerm(t.name, -exp))
		}
	}
	out := "1"
	if len(num) > 0 {
		out = strings.Join(num, "*")
	}
	switch len(den) {
	case 0:
		return out
	case 1:
		return out + "/" + den[0]
	default:
		return out + "/(" + strings.Join(den, "*") + ")"
	}
}

func formatTerm(name string, exp int) string {
	if exp == 1 {
		return name
	}
	return fmt.Sprintf("%s**%d", name, exp)
}
