package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store keyed by Ref.Identifier. It is intended
// for tests and examples.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	ref    Ref
	record Record
	meta   Meta
}

var _ ConditionalStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (Record, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Record{}, Meta{}, false, err
	}

	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return Record{}, Meta{}, false, nil
	}
	return cloneRecord(rec.record), CloneMeta(rec.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, record Record, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	s.records[key] = memoryRecord{ref: ref, record: cloneRecord(record), meta: CloneMeta(meta)}
	s.mu.Unlock()
	return CloneMeta(meta), nil
}

func (s *MemoryStore) SaveIfMatch(_ context.Context, ref Ref, record Record, meta Meta, expected string) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[key]
	if !ok || current.meta.ETag != expected {
		return Meta{}, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expected, current.meta.ETag)
	}
	s.records[key] = memoryRecord{ref: ref, record: cloneRecord(record), meta: CloneMeta(meta)}
	return CloneMeta(meta), nil
}

func (s *MemoryStore) List(_ context.Context, table string) ([]string, error) {
	table = strings.TrimSpace(table)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var labels []string
	for _, rec := range s.records {
		if strings.TrimSpace(rec.ref.Table) == table {
			labels = append(labels, strings.TrimSpace(rec.ref.Label))
		}
	}
	sort.Strings(labels)
	return labels, nil
}
