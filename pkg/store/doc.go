// Package store persists labelled state points, such as the numbered states
// of a power cycle, and re-fixes them on load.
//
// Records hold only what fixed a state: the substance, the two defining
// inputs in canonical units, the label and the unit-system override. Derived
// properties are never stored; Resolver.Resolve passes the inputs back
// through thermo.New so the backend recomputes them.
//
// Data flow:
//
//	*thermo.State -> RecordFromState -> Store.Save
//	Store.Load -> Record.Options -> thermo.New -> *thermo.State
//
// Ref.Identifier provides the deterministic storage key "table/label".
package store
