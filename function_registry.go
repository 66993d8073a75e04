package thermo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrFunctionName indicates a helper name that is empty, not an
	// identifier, or taken by a state variable or builtin.
	ErrFunctionName = errors.New("thermo: invalid function name")
	// ErrFunctionExists indicates a helper registered twice.
	ErrFunctionExists = errors.New("thermo: function already registered")
)

// reservedNames shadow snapshot variables or builtins in every engine.
var reservedNames = map[string]struct{}{
	"t": {}, "p": {}, "v": {}, "u": {}, "h": {}, "s": {}, "x": {},
	"cp": {}, "cv": {}, "phase": {}, "substance": {}, "label": {}, "units": {},
	"convert": {}, "call": {}, "now": {}, "args": {}, "metadata": {},
}

// Function is a helper callable from state expressions, e.g. a steam-table
// correlation or an isentropic efficiency.
type Function func(args ...any) (any, error)

// FunctionRegistry maps lower-cased names to helpers. It is safe for
// concurrent use.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// Register adds fn under name, matched case-insensitively.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key, err := functionKey(name)
	if err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("thermo: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, ok := r.functions[key]; ok {
		return fmt.Errorf("%w: %q", ErrFunctionExists, name)
	}
	r.functions[key] = fn
	return nil
}

func functionKey(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrFunctionName)
	}
	for i, c := range key {
		letter := c == '_' || (c >= 'a' && c <= 'z')
		if !letter && (i == 0 || c < '0' || c > '9') {
			return "", fmt.Errorf("%w: %q is not an identifier", ErrFunctionName, name)
		}
	}
	if _, ok := reservedNames[key]; ok {
		return "", fmt.Errorf("%w: %q is reserved", ErrFunctionName, name)
	}
	return key, nil
}

// Clone returns a registry with the same helpers. Later registrations on
// either side are not shared.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{functions: make(map[string]Function, len(r.functions))}
	for name, fn := range r.functions {
		out.functions[name] = fn
	}
	return out
}

// Call runs the helper registered under name. Errors from the helper are
// wrapped with its name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("thermo: no functions registered")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("thermo: function %q not registered", name)
	}
	out, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("thermo: function %s: %w", name, err)
	}
	return out, nil
}

// Names returns the registered names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// WithFunctionRegistry exposes a copy of registry to the state's
// expressions. Helpers added with WithCustomFunction afterwards go into the
// copy.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *stateConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction registers one helper for the state's expressions.
// Invalid or duplicate names are ignored; use FunctionRegistry.Register to
// see the error.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *stateConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
