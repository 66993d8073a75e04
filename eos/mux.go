package eos

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Mux routes requests to a backend registered for the request's substance.
// Substance names are matched case-insensitively.
type Mux struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewMux returns an empty Mux.
func NewMux() *Mux {
	return &Mux{backends: make(map[string]Backend)}
}

// Handle registers backend for every substance in names, replacing any
// previous registration.
func (m *Mux) Handle(backend Backend, names ...string) {
	if m == nil || backend == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backends == nil {
		m.backends = make(map[string]Backend)
	}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		m.backends[key] = backend
	}
}

// Lookup returns the backend registered for substance.
func (m *Mux) Lookup(substance string) (Backend, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[strings.ToLower(substance)]
	return b, ok
}

// Substances lists the registered substance names in sorted order.
func (m *Mux) Substances() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.backends))
	for name := range m.backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve implements Backend.
func (m *Mux) Resolve(ctx context.Context, req Request) (Result, error) {
	backend, ok := m.Lookup(req.Substance)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q has no bundled model", ErrUnsupportedSubstance, req.Substance)
	}
	return backend.Resolve(ctx, req)
}
