package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	thermo "github.com/goliatone/go-thermo"
	"github.com/goliatone/go-thermo/eos/eostest"
	"github.com/goliatone/go-thermo/pkg/activity"
	"github.com/goliatone/go-thermo/pkg/store"
	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
)

type refFixture struct {
	Description string    `json:"description"`
	Cases       []refCase `json:"cases"`
}

type refCase struct {
	Name string `json:"name"`
	Ref  struct {
		Table string `json:"table"`
		Label string `json:"label"`
	} `json:"ref"`
	Expect struct {
		Value string `json:"value"`
		Err   string `json:"err"`
	} `json:"expect"`
}

func TestRefIdentifierContracts(t *testing.T) {
	fx := loadFixture[refFixture](t, "store_refs.json")
	for _, tc := range fx.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := store.Ref{Table: tc.Ref.Table, Label: tc.Ref.Label}.Identifier()
			if tc.Expect.Err != "" {
				if err == nil {
					t.Fatalf("expected error %q but got nil", tc.Expect.Err)
				}
				if err.Error() != tc.Expect.Err {
					t.Fatalf("expected error %q, got %q", tc.Expect.Err, err.Error())
				}
				if !errors.Is(err, store.ErrInvalidRef) {
					t.Fatalf("expected ErrInvalidRef, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.Expect.Value {
				t.Fatalf("expected %q, got %q", tc.Expect.Value, got)
			}
		})
	}
}

func newAirState(t *testing.T, label string, kelvin float64) *thermo.State {
	t.Helper()
	st, err := thermo.New(context.Background(), thermo.Air,
		thermo.With(registry.P, quantity.Must(1, "bar")),
		thermo.With(registry.T, quantity.Must(kelvin, "K")),
		thermo.WithLabel(label),
		thermo.WithUnits("EE"),
		thermo.WithBackend(&eostest.Backend{}),
		thermo.WithSettings(thermo.NewSettings()),
	)
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return st
}

func TestRecordFromStateKeepsCanonicalInputs(t *testing.T) {
	rec := store.RecordFromState(newAirState(t, "inlet", 300))
	if rec.Substance != "air" || rec.Label != "inlet" || rec.Units != "EE" {
		t.Fatalf("unexpected record header: %+v", rec)
	}
	if len(rec.Inputs) != 2 {
		t.Fatalf("expected two inputs, got %d", len(rec.Inputs))
	}
	if rec.Inputs[0].Symbol != "T" || rec.Inputs[0].Magnitude != 300 || rec.Inputs[0].Unit != "K" {
		t.Fatalf("unexpected first input: %+v", rec.Inputs[0])
	}
	if rec.Inputs[1].Symbol != "p" || rec.Inputs[1].Magnitude != 100000 || rec.Inputs[1].Unit != "Pa" {
		t.Fatalf("unexpected second input: %+v", rec.Inputs[1])
	}
}

func TestRecordValidate(t *testing.T) {
	cases := []struct {
		name string
		rec  store.Record
	}{
		{"missing_substance", store.Record{Inputs: []store.Input{{Symbol: "T"}, {Symbol: "p"}}}},
		{"one_input", store.Record{Substance: "air", Inputs: []store.Input{{Symbol: "T"}}}},
		{"unknown_symbol", store.Record{Substance: "air", Inputs: []store.Input{{Symbol: "T"}, {Symbol: "rho"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.rec.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
			if _, err := tc.rec.Options(); err == nil {
				t.Fatalf("expected Options to fail")
			}
		})
	}
}

func TestResolverSaveAndResolveRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := &eostest.Backend{}
	saved := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	resolver := store.Resolver{
		Store:   store.NewMemoryStore(),
		Options: []thermo.Option{thermo.WithBackend(backend), thermo.WithSettings(thermo.NewSettings())},
		Now:     func() time.Time { return saved },
	}
	original := newAirState(t, "1", 300)
	ref := store.Ref{Table: "brayton", Label: "1"}

	meta, err := resolver.Save(ctx, ref, original, store.Meta{Extra: map[string]string{"course": "me300"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.SnapshotID == "" || meta.ETag == "" || !meta.UpdatedAt.Equal(saved) {
		t.Fatalf("expected issued meta, got %+v", meta)
	}

	restored, loaded, err := resolver.Resolve(ctx, ref)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loaded.ETag != meta.ETag || loaded.Extra["course"] != "me300" {
		t.Fatalf("expected stored meta, got %+v", loaded)
	}
	if !restored.Equal(original) {
		t.Fatalf("expected restored state to equal original:\n%s\n%s", restored, original)
	}
	if restored.Label() != "1" || restored.Units() != thermo.UnitsEE {
		t.Fatalf("expected label and units restored, got %q %q", restored.Label(), restored.Units())
	}
	if backend.Calls() != 1 {
		t.Fatalf("expected resolve to call the backend once, got %d", backend.Calls())
	}
	if got := backend.Requests()[0].FirstValue; math.Abs(got-300) > 1e-12 {
		t.Fatalf("expected canonical temperature 300 K, got %v", got)
	}
}

func TestResolverSaveChecksETag(t *testing.T) {
	ctx := context.Background()
	resolver := store.Resolver{Store: store.NewMemoryStore()}
	ref := store.Ref{Table: "brayton", Label: "2"}

	first, err := resolver.Save(ctx, ref, newAirState(t, "2", 500), store.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = resolver.Save(ctx, ref, newAirState(t, "2", 550), store.Meta{ETag: "stale"})
	if !errors.Is(err, store.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}

	second, err := resolver.Save(ctx, ref, newAirState(t, "2", 550), store.Meta{ETag: first.ETag})
	if err != nil {
		t.Fatalf("save with current etag: %v", err)
	}
	if second.ETag == first.ETag || second.SnapshotID == first.SnapshotID {
		t.Fatalf("expected fresh snapshot and etag, got %+v after %+v", second, first)
	}

	_, err = resolver.Save(ctx, store.Ref{Table: "brayton", Label: "new"}, newAirState(t, "new", 400), store.Meta{ETag: "anything"})
	if !errors.Is(err, store.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch for missing record, got %v", err)
	}
}

func TestResolverConcurrentSavesWithSameETag(t *testing.T) {
	ctx := context.Background()
	resolver := store.Resolver{Store: store.NewMemoryStore()}
	ref := store.Ref{Table: "brayton", Label: "5"}
	first, err := resolver.Save(ctx, ref, newAirState(t, "5", 400), store.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	const writers = 8
	states := make([]*thermo.State, writers)
	for i := range states {
		states[i] = newAirState(t, "5", 410+float64(i))
	}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(st *thermo.State) {
			defer wg.Done()
			_, err := resolver.Save(ctx, ref, st, store.Meta{ETag: first.ETag})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}(states[i])
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one writer to win, got %d", succeeded)
	}
	for _, err := range failures {
		if !errors.Is(err, store.ErrETagMismatch) {
			t.Fatalf("expected losers to see ErrETagMismatch, got %v", err)
		}
	}
}

func TestMemoryStoreSaveIfMatch(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	ref := store.Ref{Table: "t", Label: "1"}
	rec := store.Record{Substance: "air", Inputs: []store.Input{{Symbol: "T", Magnitude: 300, Unit: "K"}, {Symbol: "p", Magnitude: 1e5, Unit: "Pa"}}}

	if _, err := s.SaveIfMatch(ctx, ref, rec, store.Meta{ETag: "v1"}, ""); !errors.Is(err, store.ErrETagMismatch) {
		t.Fatalf("expected mismatch for a missing record, got %v", err)
	}
	if _, err := s.Save(ctx, ref, rec, store.Meta{ETag: "v1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.SaveIfMatch(ctx, ref, rec, store.Meta{ETag: "v2"}, "v1"); err != nil {
		t.Fatalf("save if match: %v", err)
	}
	if _, err := s.SaveIfMatch(ctx, ref, rec, store.Meta{ETag: "v3"}, "v1"); !errors.Is(err, store.ErrETagMismatch) {
		t.Fatalf("expected stale etag to fail, got %v", err)
	}
}

func TestResolverResolveMissing(t *testing.T) {
	resolver := store.Resolver{Store: store.NewMemoryStore()}
	_, _, err := resolver.Resolve(context.Background(), store.Ref{Table: "t", Label: "nope"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolverResolveTableOrdersByLabel(t *testing.T) {
	ctx := context.Background()
	resolver := store.Resolver{
		Store:   store.NewMemoryStore(),
		Options: []thermo.Option{thermo.WithBackend(&eostest.Backend{})},
	}
	for _, tc := range []struct {
		label  string
		kelvin float64
	}{{"3", 900}, {"1", 300}, {"2", 550}} {
		if _, err := resolver.Save(ctx, store.Ref{Table: "brayton", Label: tc.label}, newAirState(t, tc.label, tc.kelvin), store.Meta{}); err != nil {
			t.Fatalf("save %s: %v", tc.label, err)
		}
	}
	if _, err := resolver.Save(ctx, store.Ref{Table: "other", Label: "1"}, newAirState(t, "1", 310), store.Meta{}); err != nil {
		t.Fatalf("save other: %v", err)
	}

	states, err := resolver.ResolveTable(ctx, "brayton")
	if err != nil {
		t.Fatalf("resolve table: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}
	for i, want := range []string{"1", "2", "3"} {
		if states[i].Label() != want {
			t.Fatalf("state[%d] expected label %q, got %q", i, want, states[i].Label())
		}
	}
}

func TestResolverSaveEmitsPersistedEvent(t *testing.T) {
	capture := &activity.CaptureHook{}
	resolver := store.Resolver{Store: store.NewMemoryStore(), Hooks: activity.Hooks{capture}}
	st := newAirState(t, "4", 350)

	meta, err := resolver.Save(context.Background(), store.Ref{Table: "brayton", Label: "4"}, st, store.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Verb != "state.persisted" || event.ObjectID != st.ID().String() {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Metadata["table"] != "brayton" || event.Metadata["snapshot_id"] != meta.SnapshotID {
		t.Fatalf("expected persistence metadata, got %+v", event.Metadata)
	}
	if event.Channel != "thermo" {
		t.Fatalf("expected default channel thermo, got %q", event.Channel)
	}

	resolver.Channel = "plant"
	if _, err := resolver.Save(context.Background(), store.Ref{Table: "brayton", Label: "4"}, st, store.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := capture.Events[1].Channel; got != "plant" {
		t.Fatalf("expected resolver channel plant, got %q", got)
	}
}

func TestMemoryStoreIsolatesRecords(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	ref := store.Ref{Table: "t", Label: "1"}
	rec := store.Record{Substance: "air", Inputs: []store.Input{{Symbol: "T", Magnitude: 300, Unit: "K"}, {Symbol: "p", Magnitude: 1e5, Unit: "Pa"}}}
	meta := store.Meta{Extra: map[string]string{"k": "v"}}

	if _, err := s.Save(ctx, ref, rec, meta); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.Inputs[0].Magnitude = 1
	meta.Extra["k"] = "changed"

	got, gotMeta, ok, err := s.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%t err=%v", ok, err)
	}
	if got.Inputs[0].Magnitude != 300 || gotMeta.Extra["k"] != "v" {
		t.Fatalf("expected stored copy to be isolated, got %+v %+v", got, gotMeta)
	}

	if _, _, _, err := s.Load(ctx, store.Ref{Table: "t"}); !errors.Is(err, store.ErrInvalidRef) {
		t.Fatalf("expected ErrInvalidRef, got %v", err)
	}
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", name, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", name, err)
	}
	return out
}
