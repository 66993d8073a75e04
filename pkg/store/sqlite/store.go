// Package sqlite persists state records in a single SQLite table using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-thermo/internal/hydrate"
	"github.com/goliatone/go-thermo/pkg/store"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `CREATE TABLE IF NOT EXISTS thermo_states (
	ref_key TEXT PRIMARY KEY,
	tbl TEXT NOT NULL,
	label TEXT NOT NULL,
	payload BLOB NOT NULL,
	snapshot_id TEXT NOT NULL DEFAULT '',
	etag TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL DEFAULT '',
	extra BLOB
)`

// Option configures a Store.
type Option func(*Store)

// WithDecoderOptions appends options to the record decoder, e.g. extra
// pre-hooks for older payload layouts.
func WithDecoderOptions(opts ...hydrate.DecoderOption[store.Record]) Option {
	return func(s *Store) {
		s.decoderOpts = append(s.decoderOpts, opts...)
	}
}

// Store implements store.Store on SQLite.
type Store struct {
	db          *sql.DB
	path        string
	decoderOpts []hydrate.DecoderOption[store.Record]
	decoder     *hydrate.Decoder[store.Record]
}

var _ store.ConditionalStore = (*Store)(nil)

// Open opens or creates the database at path. ":memory:" keeps everything in
// memory for the lifetime of the Store.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = "thermo.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create thermo_states table: %w", err)
	}

	s := &Store{db: db, path: path}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	decoderOpts := []hydrate.DecoderOption[store.Record]{
		hydrate.WithPreHook[store.Record](normalizePayload),
		hydrate.WithDisallowUnknownFields[store.Record](),
	}
	decoderOpts = append(decoderOpts, s.decoderOpts...)
	decoderOpts = append(decoderOpts, hydrate.WithPostHook[store.Record](validateRecord))
	s.decoder = hydrate.NewDecoder(decoderOpts...)
	return s, nil
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, ref store.Ref) (store.Record, store.Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return store.Record{}, store.Meta{}, false, err
	}

	var (
		payload   []byte
		extra     []byte
		updatedAt string
		meta      store.Meta
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, snapshot_id, etag, updated_at, extra FROM thermo_states WHERE ref_key = ?`, key)
	if err := row.Scan(&payload, &meta.SnapshotID, &meta.ETag, &updatedAt, &extra); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Record{}, store.Meta{}, false, nil
		}
		return store.Record{}, store.Meta{}, false, fmt.Errorf("select %q: %w", key, err)
	}
	if updatedAt != "" {
		if meta.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return store.Record{}, store.Meta{}, false, fmt.Errorf("decode updated_at for %q: %w", key, err)
		}
	}
	if len(extra) > 0 {
		if err := json.Unmarshal(extra, &meta.Extra); err != nil {
			return store.Record{}, store.Meta{}, false, fmt.Errorf("decode extra for %q: %w", key, err)
		}
	}

	record, err := s.decoder.DecodeJSON(hydrate.Context{Key: key, Source: "sqlite"}, payload)
	if err != nil {
		return store.Record{}, store.Meta{}, false, err
	}
	return record, meta, true, nil
}

type encodedRow struct {
	key       string
	payload   []byte
	extra     []byte
	updatedAt string
}

func encodeRow(ref store.Ref, record store.Record, meta store.Meta) (encodedRow, error) {
	key, err := ref.Identifier()
	if err != nil {
		return encodedRow{}, err
	}
	out := encodedRow{key: key}
	if out.payload, err = json.Marshal(record); err != nil {
		return encodedRow{}, fmt.Errorf("encode payload for %q: %w", key, err)
	}
	if len(meta.Extra) > 0 {
		if out.extra, err = json.Marshal(meta.Extra); err != nil {
			return encodedRow{}, fmt.Errorf("encode extra for %q: %w", key, err)
		}
	}
	if !meta.UpdatedAt.IsZero() {
		out.updatedAt = meta.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return out, nil
}

// Save implements store.Store with an upsert.
func (s *Store) Save(ctx context.Context, ref store.Ref, record store.Record, meta store.Meta) (store.Meta, error) {
	r, err := encodeRow(ref, record, meta)
	if err != nil {
		return store.Meta{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO thermo_states(ref_key, tbl, label, payload, snapshot_id, etag, updated_at, extra)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(ref_key) DO UPDATE SET
			payload=excluded.payload,
			snapshot_id=excluded.snapshot_id,
			etag=excluded.etag,
			updated_at=excluded.updated_at,
			extra=excluded.extra`,
		r.key, strings.TrimSpace(ref.Table), strings.TrimSpace(ref.Label), r.payload,
		meta.SnapshotID, meta.ETag, r.updatedAt, r.extra)
	if err != nil {
		return store.Meta{}, fmt.Errorf("upsert %q: %w", r.key, err)
	}
	return store.CloneMeta(meta), nil
}

// SaveIfMatch implements store.ConditionalStore. The update only applies to
// a row still carrying expected.
func (s *Store) SaveIfMatch(ctx context.Context, ref store.Ref, record store.Record, meta store.Meta, expected string) (_ store.Meta, retErr error) {
	r, err := encodeRow(ref, record, meta)
	if err != nil {
		return store.Meta{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Meta{}, fmt.Errorf("begin %q: %w", r.key, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE thermo_states SET
			payload=?, snapshot_id=?, etag=?, updated_at=?, extra=?
		WHERE ref_key=? AND etag=?`,
		r.payload, meta.SnapshotID, meta.ETag, r.updatedAt, r.extra, r.key, expected)
	if err != nil {
		return store.Meta{}, fmt.Errorf("update %q: %w", r.key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Meta{}, fmt.Errorf("update %q: %w", r.key, err)
	}
	if n == 0 {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT etag FROM thermo_states WHERE ref_key = ?`, r.key).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return store.Meta{}, fmt.Errorf("select etag %q: %w", r.key, err)
		}
		return store.Meta{}, fmt.Errorf("%w: expected %q, got %q", store.ErrETagMismatch, expected, current)
	}
	if err := tx.Commit(); err != nil {
		return store.Meta{}, fmt.Errorf("commit %q: %w", r.key, err)
	}
	return store.CloneMeta(meta), nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label FROM thermo_states WHERE tbl = ? ORDER BY label`, strings.TrimSpace(table))
	if err != nil {
		return nil, fmt.Errorf("select labels: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// normalizePayload lower-cases the substance and trims symbol names so that
// hand-edited rows still decode.
func normalizePayload(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	if name, ok := payload["substance"].(string); ok {
		payload["substance"] = strings.ToLower(strings.TrimSpace(name))
	}
	inputs, _ := payload["inputs"].([]any)
	for _, raw := range inputs {
		if in, ok := raw.(map[string]any); ok {
			if sym, ok := in["symbol"].(string); ok {
				in["symbol"] = strings.TrimSpace(sym)
			}
		}
	}
	return payload, nil
}

func validateRecord(_ hydrate.Context, record *store.Record) error {
	return record.Validate()
}
