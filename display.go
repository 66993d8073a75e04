package thermo

import (
	"encoding/json"

	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
)

// Display layers, strongest first. The first layer that names a unit for a
// symbol wins.
const (
	LayerInstanceSymbol = "instance.symbol"
	LayerInstanceUnits  = "instance.units"
	LayerSettingsSymbol = "settings.symbol"
	LayerSettingsUnits  = "settings.units"
	LayerCanonical      = "canonical"
)

var layerPriority = map[string]int{
	LayerInstanceSymbol: 40,
	LayerInstanceUnits:  30,
	LayerSettingsSymbol: 20,
	LayerSettingsUnits:  10,
	LayerCanonical:      0,
}

// Trace captures which display layers were consulted for a symbol and which
// one produced the effective unit.
type Trace struct {
	Symbol registry.Symbol `json:"symbol"`
	Unit   string          `json:"unit"`
	Layers []Provenance    `json:"layers"`
}

// Provenance details how a single layer contributed to a traced symbol.
type Provenance struct {
	Layer    string `json:"layer"`
	Priority int    `json:"priority"`
	System   string `json:"system,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Found    bool   `json:"found"`
}

// Effective returns the layer that produced the unit.
func (t Trace) Effective() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// displayView is the instance half of the display stack, copied under the
// state's lock so resolution never holds it while reading settings.
type displayView struct {
	units       UnitSystem
	unitsSet    bool
	symbolUnits map[registry.Symbol]quantity.Unit
}

// resolveDisplay walks the layers for sym and returns the effective unit
// together with the provenance of every layer.
func resolveDisplay(view displayView, settings *Settings, sym registry.Symbol) (quantity.Unit, Trace) {
	canonical, _ := registry.CanonicalUnit(sym)
	trace := Trace{Symbol: sym}
	var (
		effective quantity.Unit
		found     bool
	)
	visit := func(layer string, system UnitSystem, unit quantity.Unit, ok bool) {
		p := Provenance{Layer: layer, Priority: layerPriority[layer], System: string(system)}
		if ok {
			p.Unit = unit.String()
			p.Found = !found
			if !found {
				effective, found = unit, true
			}
		}
		trace.Layers = append(trace.Layers, p)
	}

	unit, ok := view.symbolUnits[sym]
	visit(LayerInstanceSymbol, "", unit, ok)

	if view.unitsSet {
		unit, ok = view.units.Unit(sym)
		visit(LayerInstanceUnits, view.units, unit, ok)
	} else {
		visit(LayerInstanceUnits, "", quantity.Unit{}, false)
	}

	if settings != nil {
		unit, ok = settings.DisplayUnit(sym)
		visit(LayerSettingsSymbol, "", unit, ok)
		system := settings.Units()
		unit, ok = system.Unit(sym)
		visit(LayerSettingsUnits, system, unit, ok)
	}

	visit(LayerCanonical, "", canonical, true)
	trace.Unit = effective.String()
	return effective, trace
}
