package quantity

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionality indicates two dimensions that were required to match
	// did not.
	ErrDimensionality = errors.New("quantity: dimensionality mismatch")
	// ErrUnknownUnit indicates a unit name missing from the unit table.
	ErrUnknownUnit = errors.New("quantity: unknown unit")
	// ErrInvalidUnit indicates a unit expression that could not be parsed.
	ErrInvalidUnit = errors.New("quantity: invalid unit expression")
)

// DimensionalityError describes a conversion or comparison between
// incompatible dimensions.
type DimensionalityError struct {
	From    string
	To      string
	FromDim Dimension
	ToDim   Dimension
}

func (e *DimensionalityError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("quantity: cannot convert from %q (%s) to %q (%s)", e.From, e.FromDim, e.To, e.ToDim)
}

// Unwrap lets errors.Is match ErrDimensionality.
func (e *DimensionalityError) Unwrap() error {
	return ErrDimensionality
}
