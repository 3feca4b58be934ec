// Package builder turns a workflow definition into a validated execution
// plan: it resolves every node type against the component directory, checks
// every edge against the declared ports, and computes a deterministic
// topological order, rejecting cyclic graphs.
package builder

import (
	"context"
	"sort"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/model"
	"github.com/vk/flowgrid/internal/registry"
)

// Directory is the component directory interface the builder consumes. The
// builder never mutates directory state.
type Directory interface {
	Descriptor(typeID string) (*registry.Component, bool)
}

// Plan is a validated workflow ready for execution.
type Plan struct {
	Workflow *model.Workflow
	// Order is a topological order over the node IDs, deterministic for a
	// fixed workflow (declaration-order seeded Kahn).
	Order []string
	// Components maps node ID to its resolved component descriptor.
	Components map[string]*registry.Component
	// Inbound maps node ID to its inbound edges, in declaration order.
	Inbound map[string][]model.EdgeSpec
	// Graph is the dependency structure over node IDs.
	Graph *graph.Graph
}

// Build validates the workflow against the directory and computes the
// execution order. All structural problems are collected into a single
// *model.ValidationError rather than reported one at a time.
func Build(ctx context.Context, wf *model.Workflow, dir Directory) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting workflow validation.", "nodes", len(wf.Nodes), "edges", len(wf.Edges))

	var problems []*model.Error

	plan := &Plan{
		Workflow:   wf,
		Components: make(map[string]*registry.Component, len(wf.Nodes)),
		Inbound:    make(map[string][]model.EdgeSpec),
		Graph:      graph.New(),
	}

	// First pass: resolve every node against the directory.
	nodeIdx := make(map[string]int, len(wf.Nodes))
	for i, n := range wf.Nodes {
		if _, dup := nodeIdx[n.ID]; dup {
			problems = append(problems, model.NewError(model.CodeDuplicateNode, n.ID, "duplicate node ID %q", n.ID))
			continue
		}
		nodeIdx[n.ID] = i

		desc, ok := dir.Descriptor(n.Type)
		if !ok {
			problems = append(problems, model.NewError(model.CodeUnknownComponent, n.ID,
				"node %q references unknown component type %q", n.ID, n.Type))
			continue
		}
		plan.Components[n.ID] = desc
		plan.Graph.AddNode(n.ID)
	}

	// Second pass: check every edge against the resolved descriptors.
	for _, e := range wf.Edges {
		ok := true
		if _, exists := nodeIdx[e.SourceNode]; !exists {
			problems = append(problems, model.NewError(model.CodeDanglingEdge, e.SourceNode,
				"edge references unknown source node %q", e.SourceNode))
			ok = false
		}
		if _, exists := nodeIdx[e.TargetNode]; !exists {
			problems = append(problems, model.NewError(model.CodeDanglingEdge, e.TargetNode,
				"edge references unknown target node %q", e.TargetNode))
			ok = false
		}
		if !ok {
			continue
		}

		if src := plan.Components[e.SourceNode]; src != nil {
			if _, found := src.OutputPort(e.SourcePort); !found {
				problems = append(problems, model.NewError(model.CodeUnknownPort, e.SourceNode,
					"node %q (%s) has no output port %q", e.SourceNode, src.Type, e.SourcePort))
				ok = false
			}
		}
		if dst := plan.Components[e.TargetNode]; dst != nil {
			if _, found := dst.InputPort(e.TargetPort); !found {
				problems = append(problems, model.NewError(model.CodeUnknownPort, e.TargetNode,
					"node %q (%s) has no input port %q", e.TargetNode, dst.Type, e.TargetPort))
				ok = false
			}
		}
		if !ok {
			continue
		}

		plan.Inbound[e.TargetNode] = append(plan.Inbound[e.TargetNode], e)
		if e.SourceNode != e.TargetNode {
			if err := plan.Graph.AddEdge(e.SourceNode, e.TargetNode); err != nil {
				problems = append(problems, model.WrapError(model.CodeDanglingEdge, e.TargetNode, err, "invalid edge"))
			}
		} else {
			problems = append(problems, model.NewError(model.CodeCycle, e.SourceNode,
				"node %q connects to itself", e.SourceNode))
		}
	}

	if len(problems) > 0 {
		return nil, &model.ValidationError{Problems: problems}
	}

	order, remainder := topoSort(wf, plan.Graph)
	if len(remainder) > 0 {
		return nil, &model.ValidationError{Problems: []*model.Error{
			model.NewError(model.CodeCycle, "", "cycle detected among nodes: %v", remainder),
		}}
	}
	plan.Order = order

	logger.Debug("Build: workflow validated.", "order", order)
	return plan, nil
}

// topoSort runs Kahn's algorithm. The queue is seeded and extended in node
// declaration order so the result is deterministic for a fixed workflow.
// Nodes left unordered are exactly the ones involved in (or downstream of)
// a cycle; they are returned for error reporting.
func topoSort(wf *model.Workflow, g *graph.Graph) (order []string, remainder []string) {
	declIdx := make(map[string]int, len(wf.Nodes))
	for i, n := range wf.Nodes {
		declIdx[n.ID] = i
	}

	indeg := make(map[string]int, g.Len())
	var queue []string
	for _, id := range g.IDs() {
		d, _ := g.InDegree(id)
		indeg[id] = d
		if d == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		// Pop the declared-earliest ready node.
		sort.Slice(queue, func(i, j int) bool { return declIdx[queue[i]] < declIdx[queue[j]] })
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		successors, _ := g.Dependents(id)
		for _, succ := range successors {
			indeg[succ]--
			if indeg[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) < g.Len() {
		ordered := make(map[string]bool, len(order))
		for _, id := range order {
			ordered[id] = true
		}
		for _, id := range g.IDs() {
			if !ordered[id] {
				remainder = append(remainder, id)
			}
		}
	}
	return order, remainder
}
