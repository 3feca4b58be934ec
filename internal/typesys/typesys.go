// Package typesys holds the catalog of data types that node ports can
// declare. Types are registered at process start (built-ins first, then any
// component-supplied types) and are immutable afterwards: a type can be
// deprecated but never removed, so historical workflow definitions keep
// resolving.
package typesys

import (
	"fmt"
	"sort"
	"sync"
)

// DataType describes one declared port data type.
type DataType struct {
	// ID is the canonical identifier, e.g. "string" or "token-amount".
	ID string
	// Name is the human-readable display name.
	Name string
	// Category groups related types, e.g. "primitive" or "web3".
	Category string
	// CompatibleWith lists type IDs this type can feed directly, without a
	// transformer.
	CompatibleWith []string
}

// Registry is the process-wide catalog of known data types. Reads are safe
// for concurrent use; registration is expected to finish before workflow
// execution starts.
type Registry struct {
	mu         sync.RWMutex
	types      map[string]*DataType
	deprecated map[string]bool
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		types:      make(map[string]*DataType),
		deprecated: make(map[string]bool),
	}
}

// Register adds a new data type. Registering the same ID twice is an error:
// types are immutable once registered.
func (r *Registry) Register(t *DataType) error {
	if t.ID == "" {
		return fmt.Errorf("data type ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[t.ID]; exists {
		return fmt.Errorf("data type %q already registered", t.ID)
	}

	// Copy so the caller cannot mutate the registered definition afterwards.
	cp := *t
	cp.CompatibleWith = append([]string(nil), t.CompatibleWith...)
	r.types[t.ID] = &cp
	return nil
}

// Lookup returns the type for the given ID.
func (r *Registry) Lookup(id string) (*DataType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	return t, ok
}

// Deprecate flags a type as deprecated. The type stays resolvable; removal
// is deliberately not supported.
func (r *Registry) Deprecate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; !ok {
		return fmt.Errorf("cannot deprecate unknown data type %q", id)
	}
	r.deprecated[id] = true
	return nil
}

// Deprecated reports whether a type has been flagged as deprecated.
func (r *Registry) Deprecated(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deprecated[id]
}

// Compatible reports whether `from` declares direct compatibility with
// `to`. The relation is directional: number feeds string ports for free,
// but a string reaching a number port still needs a transformer.
func (r *Registry) Compatible(from, to string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.declares(from, to)
}

func (r *Registry) declares(a, b string) bool {
	t, ok := r.types[a]
	if !ok {
		return false
	}
	for _, id := range t.CompatibleWith {
		if id == b {
			return true
		}
	}
	return false
}

// IDs returns all registered type IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
