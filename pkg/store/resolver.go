package store

import (
	"context"
	"fmt"
	"time"

	thermo "github.com/goliatone/go-thermo"
	"github.com/goliatone/go-thermo/pkg/activity"
	"github.com/google/uuid"
)

// Resolver saves states into a Store and re-fixes them on load.
type Resolver struct {
	Store Store
	// Options are applied to every state Resolve builds, before the record's
	// own inputs (backend, settings, logger and so on).
	Options []thermo.Option
	// Hooks receive a state.persisted event after every successful Save.
	Hooks activity.Hooks
	// Channel is stamped on persisted events; it defaults to "thermo".
	Channel string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Save persists st under ref. When meta.ETag is set it must match the stored
// ETag; stores implementing ConditionalStore enforce that atomically with
// the write. A fresh SnapshotID and ETag are issued on every save.
func (r Resolver) Save(ctx context.Context, ref Ref, st *thermo.State, meta Meta) (Meta, error) {
	if r.Store == nil {
		return Meta{}, fmt.Errorf("store: store is required")
	}
	if st == nil {
		return Meta{}, fmt.Errorf("store: state is required")
	}
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	_, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("store: load %q: %w", key, err)
	}
	if !ok {
		loadedMeta = Meta{}
	}
	if meta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.SnapshotID = uuid.NewString()
	saveMeta.ETag = uuid.NewString()
	saveMeta.UpdatedAt = r.now()

	record := RecordFromState(st)
	if record.Label == "" {
		record.Label = ref.Label
	}
	var savedMeta Meta
	if cas, ok := r.Store.(ConditionalStore); ok && meta.ETag != "" {
		savedMeta, err = cas.SaveIfMatch(ctx, ref, record, saveMeta, meta.ETag)
	} else {
		savedMeta, err = r.Store.Save(ctx, ref, record, saveMeta)
	}
	if err != nil {
		return loadedMeta, fmt.Errorf("store: save %q: %w", key, err)
	}

	emitter := activity.NewEmitter(r.Hooks, activity.Config{Enabled: true, Channel: r.Channel})
	if emitter.Enabled() {
		// Hook failures do not undo a committed save.
		_ = emitter.Emit(ctx, activity.BuildStatePersistedEvent(activity.StateEventInput{
			ObjectID:   st.ID().String(),
			Substance:  record.Substance,
			Label:      record.Label,
			Pair:       st.Pair().Pair().String(),
			Phase:      string(st.Phase()),
			Table:      ref.Table,
			SnapshotID: savedMeta.SnapshotID,
			OccurredAt: savedMeta.UpdatedAt,
		}))
	}
	return savedMeta, nil
}

// Resolve loads the record at ref and fixes it again through thermo.New.
func (r Resolver) Resolve(ctx context.Context, ref Ref) (*thermo.State, Meta, error) {
	if r.Store == nil {
		return nil, Meta{}, fmt.Errorf("store: store is required")
	}
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, err
	}
	record, meta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("store: load %q: %w", key, err)
	}
	if !ok {
		return nil, Meta{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	st, err := r.fix(ctx, record)
	if err != nil {
		return nil, meta, fmt.Errorf("store: resolve %q: %w", key, err)
	}
	return st, meta, nil
}

// ResolveTable re-fixes every state in table, ordered by label.
func (r Resolver) ResolveTable(ctx context.Context, table string) ([]*thermo.State, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("store: store is required")
	}
	labels, err := r.Store.List(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("store: list %q: %w", table, err)
	}
	out := make([]*thermo.State, 0, len(labels))
	for _, label := range labels {
		st, _, err := r.Resolve(ctx, Ref{Table: table, Label: label})
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (r Resolver) fix(ctx context.Context, record Record) (*thermo.State, error) {
	recordOpts, err := record.Options()
	if err != nil {
		return nil, err
	}
	opts := make([]thermo.Option, 0, len(r.Options)+len(recordOpts))
	opts = append(opts, r.Options...)
	opts = append(opts, recordOpts...)
	return thermo.New(ctx, thermo.Substance(record.Substance), opts...)
}

func (r Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
