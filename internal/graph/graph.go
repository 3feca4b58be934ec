// Package graph provides the dependency structure over workflow node IDs:
// who feeds whom, in-degrees for topological scheduling, and transitive
// dependent traversal for failure propagation.
package graph

import (
	"fmt"
	"sort"
	"sync"
)

type vertex struct {
	id         string
	deps       map[string]*vertex
	dependents map[string]*vertex
}

// Graph is a directed acyclic dependency graph over node IDs. Construction
// happens once per execution request; reads are safe for concurrent use.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*vertex
	// order preserves insertion order for deterministic iteration.
	order []string
}

// New creates an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*vertex)}
}

// AddNode adds a node with the given ID. Adding an existing ID is a no-op.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &vertex{
		id:         id,
		deps:       make(map[string]*vertex),
		dependents: make(map[string]*vertex),
	}
	g.order = append(g.order, id)
}

// AddEdge records that `toID` depends on `fromID`. An error is returned if
// either node does not exist or the edge would be a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	from, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	to, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	to.deps[fromID] = from
	from.dependents[toID] = to
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// IDs returns all node IDs in insertion order.
func (g *Graph) IDs() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]string(nil), g.order...)
}

// InDegree returns how many direct dependencies a node has.
func (g *Graph) InDegree(id string) (int, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	v, ok := g.nodes[id]
	if !ok {
		return 0, fmt.Errorf("node not found: %s", id)
	}
	return len(v.deps), nil
}

// Dependencies returns the IDs a node directly depends on, sorted.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	v, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(v.deps), nil
}

// Dependents returns the IDs that directly depend on a node, sorted.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	v, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(v.dependents), nil
}

// TransitiveDependents returns every node downstream of id, sorted. Used to
// propagate a failure to everything that can no longer run.
func (g *Graph) TransitiveDependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	start, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	seen := make(map[string]bool)
	var walk func(v *vertex)
	walk = func(v *vertex) {
		for _, dep := range v.dependents {
			if !seen[dep.id] {
				seen[dep.id] = true
				walk(dep)
			}
		}
	}
	walk(start)

	out := make([]string, 0, len(seen))
	for nid := range seen {
		out = append(out, nid)
	}
	sort.Strings(out)
	return out, nil
}

func sortedIDs(m map[string]*vertex) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
