package engine

import (
	"sync"
	"sync/atomic"

	"github.com/vk/flowgrid/internal/model"
	"github.com/vk/flowgrid/internal/registry"
)

// execNode is the engine's per-run view of one workflow node: its spec, its
// resolved component and its mutable execution record. The record is only
// ever written by the goroutine that claimed the node.
type execNode struct {
	id     string
	spec   model.NodeSpec
	comp   *registry.Component
	record *model.Record

	// depCount counts unmet dependencies; the node becomes ready at zero.
	depCount atomic.Int32
	// claimed guards against double processing: a node with several parents
	// can be skipped by one failing branch and enqueued by another
	// succeeding one. Whoever claims first owns the record.
	claimed atomic.Bool
}

func newExecNode(spec model.NodeSpec, comp *registry.Component) *execNode {
	return &execNode{
		id:     spec.ID,
		spec:   spec,
		comp:   comp,
		record: &model.Record{NodeID: spec.ID, Status: model.StatusPending},
	}
}

// claim takes ownership of the node. Returns false if another goroutine
// already ran or skipped it.
func (n *execNode) claim() bool {
	return n.claimed.CompareAndSwap(false, true)
}

// skip marks the node skipped and releases its WaitGroup slot. It returns
// true only for the goroutine that actually performed the skip.
func (n *execNode) skip(err error, wg *sync.WaitGroup) bool {
	if !n.claim() {
		return false
	}
	n.record.Status = model.StatusSkipped
	n.record.Err = err
	wg.Done()
	return true
}
