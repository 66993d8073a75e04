package thermo

import (
	"fmt"
	"strings"
)

// Substance names a pure substance or pseudo-pure mixture.
type Substance string

const (
	Water         Substance = "water"
	Air           Substance = "air"
	R134a         Substance = "r134a"
	R22           Substance = "r22"
	Propane       Substance = "propane"
	Ammonia       Substance = "ammonia"
	Isobutane     Substance = "isobutane"
	CarbonDioxide Substance = "carbondioxide"
	Oxygen        Substance = "oxygen"
	Nitrogen      Substance = "nitrogen"
)

// Substances returns every recognised substance. Not all of them have a
// model in DefaultBackend.
func Substances() []Substance {
	return []Substance{
		Water, Air, R134a, R22, Propane, Ammonia, Isobutane,
		CarbonDioxide, Oxygen, Nitrogen,
	}
}

// ParseSubstance matches name case-insensitively against Substances.
func ParseSubstance(name string) (Substance, error) {
	key := Substance(strings.ToLower(strings.TrimSpace(name)))
	names := make([]string, 0, len(Substances()))
	for _, s := range Substances() {
		if s == key {
			return s, nil
		}
		names = append(names, string(s))
	}
	return "", &StateError{
		Op:     "substance",
		Detail: "supported: " + strings.Join(names, ", "),
		Err:    fmt.Errorf("%w %q", ErrUnknownSubstance, name),
	}
}
