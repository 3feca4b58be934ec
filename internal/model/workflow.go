// Package model defines the in-memory data structures shared by the graph
// builder, the connection validator and the execution engine: workflow
// definitions, per-node execution records and the error taxonomy.
package model

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// NodeSpec describes one node instance in a workflow definition.
type NodeSpec struct {
	// ID is the unique, human-readable instance name, e.g. "fetch_price".
	ID string
	// Type names the component that backs this node, e.g. "constant".
	Type string
	// Config holds the node's static configuration as a cty object value.
	// cty.NilVal means the node has no configuration.
	Config cty.Value
}

// EdgeSpec wires one output port of a source node to one input port of a
// target node.
type EdgeSpec struct {
	SourceNode string
	SourcePort string
	TargetNode string
	TargetPort string
}

// Workflow is a complete dataflow definition: a set of node instances plus
// the directed edges between their ports. It is built once per execution
// request and never mutated during a run.
type Workflow struct {
	ID    string
	Nodes []NodeSpec
	Edges []EdgeSpec
}

// Options controls how a single workflow execution behaves.
type Options struct {
	// FailFast stops scheduling new nodes after the first failure. When
	// false the engine runs best-effort: independent branches continue and
	// only the dependents of a failed node are skipped.
	FailFast bool
	// NodeTimeout bounds every single executor invocation. Zero means the
	// DefaultNodeTimeout applies.
	NodeTimeout time.Duration
	// Timeout bounds the whole run. Zero disables the workflow deadline.
	Timeout time.Duration
	// Workers caps the number of nodes executing concurrently. Zero means
	// DefaultWorkers.
	Workers int
	// Inputs provides top-level values for input ports that are not fed by
	// an edge, keyed by node ID and then port ID.
	Inputs map[string]map[string]cty.Value
}

// Defaults applied by the engine when an Options field is zero.
const (
	DefaultNodeTimeout = 30 * time.Second
	DefaultWorkers     = 4
)
