package engine

import (
	"context"
	"errors"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/model"
	"github.com/vk/flowgrid/internal/registry"
)

type execResult struct {
	outputs map[string]cty.Value
	err     error
}

// execute invokes one node's executor inside its isolated scope under the
// per-node timeout, and finalizes the node's record. Executor panics are
// converted to runtime failures; a hung executor is abandoned at the
// deadline (its goroutine exits on its own, the buffered channel keeps it
// from blocking) so the rest of the run keeps moving.
func (r *run) execute(ctx context.Context, n *execNode, inputs map[string]cty.Value) error {
	logger := ctxlog.FromContext(ctx).With("workflow", r.workflow.ID, "node", n.id)

	call := &registry.Call{
		NodeID:     n.id,
		WorkflowID: r.workflow.ID,
		Inputs:     inputs,
		Config:     n.spec.Config,
		Logger:     logger,
	}

	nodeCtx, cancel := context.WithTimeout(ctx, r.opts.NodeTimeout)
	defer cancel()

	started := time.Now()
	resultChan := make(chan execResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resultChan <- execResult{err: model.NewError(model.CodeRuntime, n.id, "executor panicked: %v", rec)}
			}
		}()
		outputs, err := n.comp.Executor.Execute(nodeCtx, call)
		resultChan <- execResult{outputs: outputs, err: err}
	}()

	var res execResult
	select {
	case res = <-resultChan:
	case <-nodeCtx.Done():
		n.record.Duration = time.Since(started)
		if errors.Is(ctx.Err(), context.Canceled) {
			return model.WrapError(model.CodeCancelled, n.id, ctx.Err(), "execution cancelled while node was running")
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return model.WrapError(model.CodeTimeout, n.id, ctx.Err(), "workflow deadline fired while node was running")
		}
		return model.NewError(model.CodeTimeout, n.id, "node exceeded its %s timeout", r.opts.NodeTimeout)
	}
	n.record.Duration = time.Since(started)

	if res.err != nil {
		var ce *model.Error
		if errors.As(res.err, &ce) {
			return res.err
		}
		return model.WrapError(model.CodeRuntime, n.id, res.err, "executor failed")
	}

	n.record.Outputs = res.outputs
	if n.record.Outputs == nil {
		n.record.Outputs = map[string]cty.Value{}
	}
	for _, p := range n.comp.Outputs {
		if _, ok := n.record.Outputs[p.ID]; !ok {
			r.addWarning("node %q produced no value on declared output port %q", n.id, p.ID)
		}
	}
	return nil
}
