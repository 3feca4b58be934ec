package model

import (
	"time"

	"github.com/zclconf/go-cty/cty"
)

// Status is the terminal (or in-flight) state of a single node.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// RunState is the terminal state of a whole execution request.
type RunState string

const (
	// RunCompleted means the engine finished scheduling every node. Nodes
	// themselves may still have failed or been skipped.
	RunCompleted RunState = "completed"
	// RunFailed means validation rejected the workflow before any node ran,
	// or the workflow-level deadline fired.
	RunFailed RunState = "failed"
	// RunCancelled means the caller aborted the run.
	RunCancelled RunState = "cancelled"
)

// Record tracks one node through an execution. It is created when the node
// is scheduled and mutated only by the engine goroutine driving that node.
type Record struct {
	NodeID   string
	Status   Status
	Outputs  map[string]cty.Value
	Err      error
	Duration time.Duration
}

// Report is the immutable aggregate returned to the caller of a run.
type Report struct {
	// Success is true only when every node succeeded: a failed or skipped
	// node clears it.
	Success bool
	State   RunState
	// Records holds one entry per workflow node, in topological order. It is
	// always non-nil, even when validation failed before any node ran.
	Records  []*Record
	Errors   []error
	Warnings []string
}

// Record returns the record for the given node ID, or nil.
func (r *Report) Record(nodeID string) *Record {
	for _, rec := range r.Records {
		if rec.NodeID == nodeID {
			return rec
		}
	}
	return nil
}

// Counts tallies the records per status.
func (r *Report) Counts() map[Status]int {
	out := make(map[Status]int, 5)
	for _, rec := range r.Records {
		out[rec.Status]++
	}
	return out
}
