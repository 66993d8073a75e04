package thermo

import "sync"

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *stateConfig) {
		cfg.programCache = cache
	}
}

// MapCache is a ProgramCache backed by a map. Several states evaluating the
// same expressions can share one instance.
type MapCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMapCache returns an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{programs: make(map[string]any)}
}

// Get implements ProgramCache.
func (c *MapCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

// Set implements ProgramCache.
func (c *MapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = make(map[string]any)
	}
	c.programs[key] = value
}

// Len reports how many programs are cached.
func (c *MapCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}
