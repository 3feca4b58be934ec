// Package transform holds the catalog of registered pairwise type
// converters. The connection validator searches this catalog for multi-hop
// paths between types that are not directly compatible.
package transform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/typesys"
)

// ApplyFunc converts a single value. Transformers must be pure from the
// engine's point of view; side effects are the author's responsibility.
type ApplyFunc func(cty.Value) (cty.Value, error)

// Transformer converts values of one declared data type into another.
type Transformer struct {
	// ID uniquely names the transformer, e.g. "string_to_number".
	ID string
	// From and To are registered data type IDs. From == To is rejected.
	From string
	To   string
	// Cost weighs this conversion during path selection. Must be >= 0.
	Cost float64
	// Lossy marks conversions that can drop information (e.g. precision).
	Lossy bool
	// Async marks conversions that perform I/O or otherwise add latency.
	Async bool
	Apply ApplyFunc
}

// Catalog indexes transformers by source type. Registration happens before
// workflow execution starts; lookups are safe for concurrent use.
type Catalog struct {
	types *typesys.Registry

	mu     sync.RWMutex
	byID   map[string]*Transformer
	byFrom map[string][]*Transformer
}

// NewCatalog creates an empty catalog bound to a type registry.
func NewCatalog(types *typesys.Registry) *Catalog {
	return &Catalog{
		types:  types,
		byID:   make(map[string]*Transformer),
		byFrom: make(map[string][]*Transformer),
	}
}

// Register adds a transformer to the catalog. It enforces the catalog
// invariants: known endpoint types, non-negative cost, no self-loops, no
// duplicate IDs.
func (c *Catalog) Register(t *Transformer) error {
	switch {
	case t.ID == "":
		return fmt.Errorf("transformer ID cannot be empty")
	case t.Apply == nil:
		return fmt.Errorf("transformer %q has no apply function", t.ID)
	case t.Cost < 0:
		return fmt.Errorf("transformer %q has negative cost %v", t.ID, t.Cost)
	case t.From == t.To:
		return fmt.Errorf("transformer %q is a self-loop on type %q", t.ID, t.From)
	}
	if _, ok := c.types.Lookup(t.From); !ok {
		return fmt.Errorf("transformer %q: unknown source type %q", t.ID, t.From)
	}
	if _, ok := c.types.Lookup(t.To); !ok {
		return fmt.Errorf("transformer %q: unknown target type %q", t.ID, t.To)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[t.ID]; exists {
		return fmt.Errorf("transformer %q already registered", t.ID)
	}
	c.byID[t.ID] = t
	c.byFrom[t.From] = append(c.byFrom[t.From], t)
	// Keep adjacency deterministic regardless of registration order.
	sort.Slice(c.byFrom[t.From], func(i, j int) bool {
		return c.byFrom[t.From][i].ID < c.byFrom[t.From][j].ID
	})
	return nil
}

// From returns every transformer whose source type is `typeID`, sorted by
// transformer ID. The returned slice must not be mutated.
func (c *Catalog) From(typeID string) []*Transformer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byFrom[typeID]
}

// Lookup returns a transformer by ID.
func (c *Catalog) Lookup(id string) (*Transformer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// To returns every transformer whose target type is `typeID`.
func (c *Catalog) To(typeID string) []*Transformer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Transformer
	for _, id := range c.sortedIDs() {
		if t := c.byID[id]; t.To == typeID {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) sortedIDs() []string {
	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Chain is a composed sequence of transformers bridging two types that have
// no direct converter. Applying a chain short-circuits on the first step
// that fails.
type Chain []*Transformer

// Apply runs each step's conversion in order.
func (ch Chain) Apply(v cty.Value) (cty.Value, error) {
	out := v
	for _, t := range ch {
		var err error
		out, err = t.Apply(out)
		if err != nil {
			return cty.NilVal, fmt.Errorf("transformer %q (%s -> %s) failed: %w", t.ID, t.From, t.To, err)
		}
	}
	return out, nil
}

// Cost sums the step costs.
func (ch Chain) Cost() float64 {
	var total float64
	for _, t := range ch {
		total += t.Cost
	}
	return total
}
