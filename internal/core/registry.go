package core

import (
	"fmt"
	"sort"
	"sync"
)

// Predicate reports whether a single field value passes a validation.
// A missing field is passed as nil. Predicates must not panic for any input.
type Predicate func(value any) bool

// Registry maps validation names to predicates.
// It is safe for concurrent use; the Engine only reads from it.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{predicates: make(map[string]Predicate)}
}

// DefaultRegistry returns a registry holding the built-in validations:
// notEmpty, notNull, isInteger and positive.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("notEmpty", NotEmpty)
	r.Register("notNull", NotNull)
	r.Register("isInteger", IsInteger)
	r.Register("positive", Positive)
	return r
}

// Register adds a predicate under name.
// Panics if the name is empty, the predicate is nil, or the name is taken.
func (r *Registry) Register(name string, p Predicate) {
	if name == "" {
		panic("validation name must not be empty")
	}
	if p == nil {
		panic(fmt.Sprintf("nil predicate for validation %s", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.predicates[name]; exists {
		panic(fmt.Sprintf("validation already registered: %s", name))
	}
	r.predicates[name] = p
}

// Lookup returns the predicate registered under name.
// Returns false if not found.
func (r *Registry) Lookup(name string) (Predicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.predicates[name]
	return p, ok
}

// Names returns all registered validation names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered validations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.predicates)
}
