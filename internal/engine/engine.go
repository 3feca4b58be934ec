// Package engine orchestrates workflow execution: it validates and orders
// the graph, resolves every inbound edge through the connection validator,
// runs each node's executor inside a bounded, isolated scope, and
// aggregates per-node results into a final report.
//
// Nodes with no dependency relationship run concurrently on a small worker
// pool; the only channel between nodes is the explicit inputs and outputs
// resolved by the engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/flowgrid/internal/builder"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/model"
	"github.com/vk/flowgrid/internal/validator"
)

// Engine executes workflows against a component directory and a connection
// validator. A single Engine is safe for concurrent runs.
type Engine struct {
	directory builder.Directory
	validator *validator.Validator
}

// New creates an execution engine.
func New(dir builder.Directory, v *validator.Validator) *Engine {
	return &Engine{directory: dir, validator: v}
}

// run carries the mutable state of one execution request.
type run struct {
	engine   *Engine
	workflow *model.Workflow
	plan     *builder.Plan
	opts     model.Options
	nodes    map[string]*execNode
	wg       sync.WaitGroup

	mu       sync.Mutex
	warnings []string
}

// Run executes a workflow and always returns a report; it never panics on
// node misbehavior. Validation problems surface in the report's Errors with
// an empty (non-nil) Records slice, so the caller sees a uniform contract.
func (e *Engine) Run(ctx context.Context, wf *model.Workflow, opts model.Options) *model.Report {
	logger := ctxlog.FromContext(ctx).With("workflow", wf.ID)
	logger.Info("Starting workflow run.", "nodes", len(wf.Nodes), "failFast", opts.FailFast)

	// Validating.
	plan, err := builder.Build(ctx, wf, e.directory)
	if err != nil {
		logger.Error("Workflow validation failed.", "error", err)
		return &model.Report{
			Success: false,
			State:   model.RunFailed,
			Records: []*model.Record{},
			Errors:  []error{err},
		}
	}

	// Scheduling.
	r := &run{
		engine:   e,
		workflow: wf,
		plan:     plan,
		opts:     withDefaults(opts),
		nodes:    make(map[string]*execNode, len(wf.Nodes)),
	}
	for _, spec := range wf.Nodes {
		n := newExecNode(spec, plan.Components[spec.ID])
		indeg, _ := plan.Graph.InDegree(spec.ID)
		n.depCount.Store(int32(indeg))
		r.nodes[spec.ID] = n
	}

	// Running.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var deadlineCtx context.Context = runCtx
	if r.opts.Timeout > 0 {
		var cancelDeadline context.CancelFunc
		deadlineCtx, cancelDeadline = context.WithTimeout(runCtx, r.opts.Timeout)
		defer cancelDeadline()
	}

	readyChan := make(chan *execNode, len(r.nodes))
	for _, id := range plan.Order {
		if d, _ := plan.Graph.InDegree(id); d == 0 {
			readyChan <- r.nodes[id]
		}
	}
	r.wg.Add(len(r.nodes))

	logger.Debug("Starting worker pool.", "workers", r.opts.Workers)
	for i := 0; i < r.opts.Workers; i++ {
		go r.worker(deadlineCtx, readyChan, cancel, i)
	}
	r.wg.Wait()
	close(readyChan)

	return r.report(ctx, deadlineCtx)
}

// worker is the processing loop for a single concurrent worker.
func (r *run) worker(ctx context.Context, readyChan chan *execNode, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx).With("workflow", r.workflow.ID)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "node", n.id)

		if err := ctx.Err(); err != nil {
			if n.skip(interruptError(ctx, err), &r.wg) {
				r.skipDependents(ctx, n)
			}
			continue
		}

		if !n.claim() {
			// Already skipped by a failing sibling branch.
			continue
		}

		workerLogger.Debug("Worker picked up node for execution.")
		n.record.Status = model.StatusRunning

		inputs, skipErr, failErr := r.resolveInputs(ctx, n)
		var execErr error
		switch {
		case skipErr != nil:
			// The worker already claimed the node, so write the record
			// directly instead of going through skip().
			workerLogger.Warn("Node skipped: inbound connection cannot be resolved.", "error", skipErr)
			n.record.Status = model.StatusSkipped
			n.record.Err = skipErr
			r.skipDependents(ctx, n)
			r.wg.Done()
			continue
		case failErr != nil:
			execErr = failErr
		default:
			execErr = r.execute(ctx, n, inputs)
		}

		if execErr != nil {
			workerLogger.Error("Node execution failed.", "error", execErr)
			n.record.Status = model.StatusFailed
			n.record.Err = execErr
			if r.opts.FailFast {
				cancel()
			}
			r.skipDependents(ctx, n)
			r.wg.Done()
			continue
		}

		workerLogger.Debug("Node execution succeeded.", "durationMs", n.record.Duration.Milliseconds())
		n.record.Status = model.StatusSucceeded

		dependents, err := r.plan.Graph.Dependents(n.id)
		if err != nil {
			workerLogger.Error("Failed to get dependents for completed node.", "error", err)
		} else {
			for _, depID := range dependents {
				dependent := r.nodes[depID]
				if dependent.depCount.Add(-1) == 0 {
					workerLogger.Debug("Unlocking dependent node.", "dependent", depID)
					readyChan <- dependent
				}
			}
		}

		r.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// skipDependents marks every transitive dependent of a finished node as
// skipped. Safe to call multiple times for the same subtree.
func (r *run) skipDependents(ctx context.Context, n *execNode) {
	logger := ctxlog.FromContext(ctx)
	downstream, err := r.plan.Graph.TransitiveDependents(n.id)
	if err != nil {
		logger.Error("Failed to get transitive dependents.", "node", n.id, "error", err)
		return
	}
	for _, depID := range downstream {
		dep := r.nodes[depID]
		if dep.skip(model.NewError(model.CodeSkipped, depID, "skipped due to upstream failure of %q", n.id), &r.wg) {
			logger.Warn("Skipping dependent node due to upstream failure.", "node", depID, "upstream", n.id)
		}
	}
}

// report assembles the final aggregate once every node has terminated.
func (r *run) report(callerCtx, runCtx context.Context) *model.Report {
	rep := &model.Report{Records: make([]*model.Record, 0, len(r.nodes))}

	failed, skipped := 0, 0
	for _, id := range r.plan.Order {
		rec := r.nodes[id].record
		rep.Records = append(rep.Records, rec)
		switch rec.Status {
		case model.StatusFailed:
			failed++
			rep.Errors = append(rep.Errors, rec.Err)
		case model.StatusSkipped:
			skipped++
		}
	}
	rep.Warnings = r.warnings

	switch {
	case errors.Is(callerCtx.Err(), context.Canceled):
		rep.State = model.RunCancelled
		rep.Errors = append(rep.Errors, model.NewError(model.CodeCancelled, "", "execution cancelled by caller"))
	case errors.Is(callerCtx.Err(), context.DeadlineExceeded):
		// The caller's own deadline counts the same as the workflow one.
		rep.State = model.RunFailed
		rep.Errors = append(rep.Errors, model.NewError(model.CodeTimeout, "", "caller context deadline exceeded"))
	case r.opts.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		rep.State = model.RunFailed
		rep.Errors = append(rep.Errors, model.NewError(model.CodeTimeout, "",
			"workflow exceeded its %s deadline", r.opts.Timeout))
	default:
		rep.State = model.RunCompleted
	}

	rep.Success = rep.State == model.RunCompleted && failed == 0 && skipped == 0
	return rep
}

func (r *run) addWarning(format string, args ...any) {
	r.mu.Lock()
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

// interruptError classifies why a pending node could not start.
func interruptError(ctx context.Context, err error) *model.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.WrapError(model.CodeTimeout, "", err, "workflow deadline fired before node started")
	}
	return model.WrapError(model.CodeCancelled, "", err, "execution interrupted before node started")
}

func withDefaults(opts model.Options) model.Options {
	if opts.NodeTimeout <= 0 {
		opts.NodeTimeout = model.DefaultNodeTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = model.DefaultWorkers
	}
	return opts
}
