package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	thermo "github.com/goliatone/go-thermo"
	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
)

var (
	ErrETagMismatch = errors.New("store: etag mismatch")
	ErrNotFound     = errors.New("store: record not found")
	ErrInvalidRef   = errors.New("store: invalid ref")
)

// Ref identifies one state point in one table.
type Ref struct {
	Table string
	Label string
}

// Identifier returns the storage key "table/label".
func (r Ref) Identifier() (string, error) {
	table := strings.TrimSpace(r.Table)
	label := strings.TrimSpace(r.Label)
	if table == "" {
		return "", fmt.Errorf("%w: table is required", ErrInvalidRef)
	}
	if label == "" {
		return "", fmt.Errorf("%w: label is required", ErrInvalidRef)
	}
	if strings.Contains(table, "/") {
		return "", fmt.Errorf("%w: table %q must not contain '/'", ErrInvalidRef, table)
	}
	return table + "/" + label, nil
}

// Input is one defining property in canonical units.
type Input struct {
	Symbol    string  `json:"symbol"`
	Magnitude float64 `json:"magnitude"`
	Unit      string  `json:"unit"`
}

// Record is the persisted form of a state point.
type Record struct {
	Substance string  `json:"substance"`
	Label     string  `json:"label,omitempty"`
	Units     string  `json:"units,omitempty"`
	Inputs    []Input `json:"inputs"`
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one record per Ref.
type Store interface {
	Load(ctx context.Context, ref Ref) (record Record, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, record Record, meta Meta) (Meta, error)
	// List returns the labels stored in table, sorted.
	List(ctx context.Context, table string) ([]string, error)
}

// ConditionalStore is a Store that can compare and swap in one step.
// SaveIfMatch writes only while the stored ETag still equals expected and
// fails with ErrETagMismatch otherwise, including when nothing is stored.
type ConditionalStore interface {
	Store
	SaveIfMatch(ctx context.Context, ref Ref, record Record, meta Meta, expected string) (Meta, error)
}

// RecordFromState captures the substance, canonical inputs, label and unit
// override of st.
func RecordFromState(st *thermo.State) Record {
	pair := st.Pair()
	rec := Record{
		Substance: string(st.Substance()),
		Label:     st.Label(),
		Units:     string(st.Units()),
	}
	for _, p := range []thermo.Property{pair.First, pair.Second} {
		rec.Inputs = append(rec.Inputs, Input{
			Symbol:    string(p.Symbol),
			Magnitude: p.Value.Magnitude(),
			Unit:      p.Value.Unit().String(),
		})
	}
	return rec
}

// Validate checks the record shape. Pair support and dimensions are left to
// thermo.New.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Substance) == "" {
		return errors.New("store: record substance is required")
	}
	if len(r.Inputs) != 2 {
		return fmt.Errorf("store: record needs exactly two inputs, got %d", len(r.Inputs))
	}
	for _, in := range r.Inputs {
		if _, err := registry.ParseSymbol(in.Symbol); err != nil {
			return fmt.Errorf("store: record input: %w", err)
		}
	}
	return nil
}

// Options converts the record into thermo.New options.
func (r Record) Options() ([]thermo.Option, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	opts := make([]thermo.Option, 0, len(r.Inputs)+2)
	for _, in := range r.Inputs {
		q, err := quantity.New(in.Magnitude, in.Unit)
		if err != nil {
			return nil, fmt.Errorf("store: record input %s: %w", in.Symbol, err)
		}
		opts = append(opts, thermo.With(registry.Symbol(in.Symbol), q))
	}
	if r.Label != "" {
		opts = append(opts, thermo.WithLabel(r.Label))
	}
	if r.Units != "" {
		opts = append(opts, thermo.WithUnits(r.Units))
	}
	return opts, nil
}

// CloneMeta returns meta with its Extra map copied.
func CloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}

func cloneRecord(rec Record) Record {
	out := rec
	if rec.Inputs != nil {
		out.Inputs = append([]Input(nil), rec.Inputs...)
	}
	return out
}
