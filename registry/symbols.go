// Package registry holds the static tables that describe thermodynamic
// property symbols: the physical dimension and canonical unit of each symbol,
// and which unordered symbol pairs may fix a state.
package registry

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-thermo/quantity"
)

var (
	// ErrUnknownProperty indicates a symbol outside the fixed property set.
	ErrUnknownProperty = errors.New("registry: unknown property")
	// ErrUnsupportedPair indicates two symbols that cannot fix a state.
	ErrUnsupportedPair = errors.New("registry: unsupported property pair")
)

// Symbol is the short name of a thermodynamic property.
type Symbol string

const (
	T     Symbol = "T"
	P     Symbol = "p"
	V     Symbol = "v"
	U     Symbol = "u"
	H     Symbol = "h"
	S     Symbol = "s"
	X     Symbol = "x"
	Cp    Symbol = "cp"
	Cv    Symbol = "cv"
	Phase Symbol = "phase"
)

type symbolInfo struct {
	dim     quantity.Dimension
	unit    quantity.Unit
	derived bool
	rank    int
	label   string
}

var symbolTable = map[Symbol]symbolInfo{
	T:     {dim: quantity.DimTemperature, unit: quantity.MustParseUnit("K"), rank: 0, label: "temperature"},
	P:     {dim: quantity.DimPressure, unit: quantity.MustParseUnit("Pa"), rank: 1, label: "pressure"},
	U:     {dim: quantity.DimSpecificEnergy, unit: quantity.MustParseUnit("J/kg"), rank: 2, label: "specific internal energy"},
	H:     {dim: quantity.DimSpecificEnergy, unit: quantity.MustParseUnit("J/kg"), rank: 3, label: "specific enthalpy"},
	S:     {dim: quantity.DimSpecificHeat, unit: quantity.MustParseUnit("J/(kg*K)"), rank: 4, label: "specific entropy"},
	V:     {dim: quantity.DimSpecificVolume, unit: quantity.MustParseUnit("m**3/kg"), rank: 5, label: "specific volume"},
	X:     {dim: quantity.Dimensionless, unit: quantity.MustParseUnit("dimensionless"), rank: 6, label: "quality"},
	Cp:    {dim: quantity.DimSpecificHeat, unit: quantity.MustParseUnit("J/(kg*K)"), derived: true, rank: 7, label: "specific heat at constant pressure"},
	Cv:    {dim: quantity.DimSpecificHeat, unit: quantity.MustParseUnit("J/(kg*K)"), derived: true, rank: 8, label: "specific heat at constant volume"},
	Phase: {dim: quantity.Dimensionless, unit: quantity.MustParseUnit("dimensionless"), derived: true, rank: 9, label: "phase"},
}

// Symbols returns every symbol in canonical order.
func Symbols() []Symbol {
	return []Symbol{T, P, U, H, S, V, X, Cp, Cv, Phase}
}

// QuantitySymbols returns the symbols whose values are quantities, which is
// every symbol except Phase.
func QuantitySymbols() []Symbol {
	return []Symbol{T, P, U, H, S, V, X, Cp, Cv}
}

// ParseSymbol returns the Symbol named exactly name.
func ParseSymbol(name string) (Symbol, error) {
	sym := Symbol(name)
	if _, ok := symbolTable[sym]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return sym, nil
}

// Valid reports whether s is part of the fixed symbol set.
func (s Symbol) Valid() bool {
	_, ok := symbolTable[s]
	return ok
}

// Derived reports whether s is only ever computed (cp, cv, phase) and never
// accepted as a defining input.
func (s Symbol) Derived() bool {
	return symbolTable[s].derived
}

// Label returns the long-form name of s, or the symbol itself when unknown.
func (s Symbol) Label() string {
	if info, ok := symbolTable[s]; ok {
		return info.label
	}
	return string(s)
}

// ExpectedDimension returns the physical dimension a value for sym must
// carry. Phase is not a quantity and reports Dimensionless.
func ExpectedDimension(sym Symbol) (quantity.Dimension, error) {
	info, ok := symbolTable[sym]
	if !ok {
		return quantity.Dimension{}, fmt.Errorf("%w: %q", ErrUnknownProperty, sym)
	}
	return info.dim, nil
}

// CanonicalUnit returns the fixed unit values for sym are stored in.
func CanonicalUnit(sym Symbol) (quantity.Unit, error) {
	info, ok := symbolTable[sym]
	if !ok {
		return quantity.Unit{}, fmt.Errorf("%w: %q", ErrUnknownProperty, sym)
	}
	return info.unit, nil
}

// CanonicalOrder orders two symbols deterministically so that (a, b) and
// (b, a) resolve identically. Unknown symbols sort after known ones, by name.
func CanonicalOrder(a, b Symbol) (Symbol, Symbol) {
	if less(b, a) {
		return b, a
	}
	return a, b
}

func less(a, b Symbol) bool {
	ia, okA := symbolTable[a]
	ib, okB := symbolTable[b]
	switch {
	case okA && okB:
		return ia.rank < ib.rank
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}
