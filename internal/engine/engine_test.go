package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/flowgrid/internal/model"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/transform"
	"github.com/vk/flowgrid/internal/typesys"
	"github.com/vk/flowgrid/internal/validator"
)

// fixture wires a full runtime with a set of small test components.
func fixture(t *testing.T) (*Engine, *registry.Registry) {
	t.Helper()

	types := typesys.NewRegistry()
	typesys.RegisterBuiltins(types)
	catalog := transform.NewCatalog(types)
	require.NoError(t, catalog.Register(&transform.Transformer{
		ID: "parse_float", From: typesys.TypeString, To: typesys.TypeNumber, Cost: 1,
		Apply: func(v cty.Value) (cty.Value, error) { return convert.Convert(v, cty.Number) },
	}))

	reg := registry.New()
	reg.RegisterComponent(&registry.Component{
		Type:    "const",
		Outputs: []registry.Port{{ID: "out", Type: typesys.TypeString}},
		Executor: registry.ExecutorFunc(func(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
			return map[string]cty.Value{"out": call.ConfigAttr("value")}, nil
		}),
	})
	reg.RegisterComponent(&registry.Component{
		Type:    "double",
		Inputs:  []registry.Port{{ID: "in", Type: typesys.TypeNumber, Required: true}},
		Outputs: []registry.Port{{ID: "result", Type: typesys.TypeNumber}},
		Executor: registry.ExecutorFunc(func(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
			in := call.Input("in")
			f, _ := in.AsBigFloat().Float64()
			return map[string]cty.Value{"result": cty.NumberFloatVal(f * 2)}, nil
		}),
	})
	reg.RegisterComponent(&registry.Component{
		Type:   "fail",
		Inputs: []registry.Port{{ID: "in", Type: typesys.TypeAny}},
		Outputs: []registry.Port{
			{ID: "out", Type: typesys.TypeAny},
		},
		Executor: registry.ExecutorFunc(func(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
			return nil, errors.New("deliberate failure")
		}),
	})
	reg.RegisterComponent(&registry.Component{
		Type:    "hang",
		Outputs: []registry.Port{{ID: "out", Type: typesys.TypeAny}},
		Executor: registry.ExecutorFunc(func(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	})
	reg.RegisterComponent(&registry.Component{
		Type:    "panic",
		Outputs: []registry.Port{{ID: "out", Type: typesys.TypeAny}},
		Executor: registry.ExecutorFunc(func(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
			panic("executor exploded")
		}),
	})
	reg.RegisterComponent(&registry.Component{
		Type:   "expects_signal",
		Inputs: []registry.Port{{ID: "in", Type: typesys.TypeSignal}},
		Outputs: []registry.Port{
			{ID: "out", Type: typesys.TypeSignal},
		},
		Executor: registry.ExecutorFunc(func(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
			return map[string]cty.Value{"out": call.Input("in")}, nil
		}),
	})

	return New(reg, validator.New(types, catalog)), reg
}

func edge(src, srcPort, dst, dstPort string) model.EdgeSpec {
	return model.EdgeSpec{SourceNode: src, SourcePort: srcPort, TargetNode: dst, TargetPort: dstPort}
}

func constNode(id, value string) model.NodeSpec {
	return model.NodeSpec{
		ID:     id,
		Type:   "const",
		Config: cty.ObjectVal(map[string]cty.Value{"value": cty.StringVal(value)}),
	}
}

func TestExampleScenario(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID:    "example",
		Nodes: []model.NodeSpec{constNode("n1", "42"), {ID: "n2", Type: "double"}},
		Edges: []model.EdgeSpec{edge("n1", "out", "n2", "in")},
	}

	rep := e.Run(context.Background(), wf, model.Options{FailFast: true})
	require.True(t, rep.Success, "errors: %v", rep.Errors)
	assert.Equal(t, model.RunCompleted, rep.State)

	n1 := rep.Record("n1")
	require.NotNil(t, n1)
	assert.Equal(t, model.StatusSucceeded, n1.Status)
	assert.Equal(t, cty.StringVal("42"), n1.Outputs["out"])

	n2 := rep.Record("n2")
	require.NotNil(t, n2)
	assert.Equal(t, model.StatusSucceeded, n2.Status)
	f, _ := n2.Outputs["result"].AsBigFloat().Float64()
	assert.InDelta(t, 84.0, f, 1e-9, "string '42' converts to 42 and doubles to 84")
}

func TestValidationFailureRunsNothing(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID: "cyclic",
		Nodes: []model.NodeSpec{
			{ID: "a", Type: "fail"},
			{ID: "b", Type: "fail"},
			{ID: "c", Type: "fail"},
		},
		Edges: []model.EdgeSpec{
			edge("a", "out", "b", "in"),
			edge("b", "out", "c", "in"),
			edge("c", "out", "a", "in"),
		},
	}

	rep := e.Run(context.Background(), wf, model.Options{})
	assert.False(t, rep.Success)
	assert.Equal(t, model.RunFailed, rep.State)
	require.NotNil(t, rep.Records, "records must be populated even on validation failure")
	assert.Empty(t, rep.Records)

	require.Len(t, rep.Errors, 1)
	var verr *model.ValidationError
	require.ErrorAs(t, rep.Errors[0], &verr)
	assert.Contains(t, verr.Error(), "cycle")
}

func TestFailFastPropagation(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID: "failfast",
		Nodes: []model.NodeSpec{
			constNode("a", "1"),
			{ID: "b", Type: "fail"},
			{ID: "c", Type: "double"},
		},
		Edges: []model.EdgeSpec{
			edge("a", "out", "b", "in"),
			edge("b", "out", "c", "in"),
		},
	}

	rep := e.Run(context.Background(), wf, model.Options{FailFast: true})
	assert.False(t, rep.Success)
	assert.Equal(t, model.RunCompleted, rep.State)
	assert.Equal(t, model.StatusSucceeded, rep.Record("a").Status)
	assert.Equal(t, model.StatusFailed, rep.Record("b").Status)
	assert.Equal(t, model.StatusSkipped, rep.Record("c").Status)
	assert.Equal(t, model.CodeRuntime, model.CodeOf(rep.Record("b").Err))
}

func TestBestEffortContinuesIndependentBranches(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID: "besteffort",
		Nodes: []model.NodeSpec{
			constNode("a", "1"),
			{ID: "b", Type: "fail"},
			{ID: "c", Type: "double"},
			constNode("d", "independent"),
		},
		Edges: []model.EdgeSpec{
			edge("a", "out", "b", "in"),
			edge("b", "out", "c", "in"),
		},
	}

	rep := e.Run(context.Background(), wf, model.Options{FailFast: false})
	assert.False(t, rep.Success)
	assert.Equal(t, model.StatusFailed, rep.Record("b").Status)
	assert.Equal(t, model.StatusSkipped, rep.Record("c").Status)
	assert.Equal(t, model.StatusSucceeded, rep.Record("d").Status, "independent branch must still run")
}

func TestTimeoutIsolation(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID: "timeout",
		Nodes: []model.NodeSpec{
			{ID: "stuck", Type: "hang"},
			constNode("ok", "fine"),
		},
	}

	started := time.Now()
	rep := e.Run(context.Background(), wf, model.Options{FailFast: false, NodeTimeout: 100 * time.Millisecond})
	elapsed := time.Since(started)

	stuck := rep.Record("stuck")
	assert.Equal(t, model.StatusFailed, stuck.Status)
	assert.Equal(t, model.CodeTimeout, model.CodeOf(stuck.Err))
	assert.Equal(t, model.StatusSucceeded, rep.Record("ok").Status)
	assert.Less(t, elapsed, 3*time.Second, "a hung executor must not stall the run")
}

func TestWorkflowDeadline(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID:    "deadline",
		Nodes: []model.NodeSpec{{ID: "stuck", Type: "hang"}},
	}

	rep := e.Run(context.Background(), wf, model.Options{
		Timeout:     100 * time.Millisecond,
		NodeTimeout: time.Minute,
	})
	assert.False(t, rep.Success)
	assert.Equal(t, model.RunFailed, rep.State)

	found := false
	for _, err := range rep.Errors {
		if model.CodeOf(err) == model.CodeTimeout {
			found = true
		}
	}
	assert.True(t, found, "report must carry a workflow timeout error, got %v", rep.Errors)
}

func TestCallerDeadline(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID:    "caller-deadline",
		Nodes: []model.NodeSpec{{ID: "stuck", Type: "hang"}},
	}

	// No engine-level Timeout: the deadline comes from the caller's context
	// and must still land the run in a failed terminal state.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	rep := e.Run(ctx, wf, model.Options{NodeTimeout: time.Minute})
	assert.False(t, rep.Success)
	assert.Equal(t, model.RunFailed, rep.State)

	found := false
	for _, err := range rep.Errors {
		if model.CodeOf(err) == model.CodeTimeout {
			found = true
		}
	}
	assert.True(t, found, "report must carry a timeout error, got %v", rep.Errors)
}

func TestCancellation(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID:    "cancel",
		Nodes: []model.NodeSpec{{ID: "stuck", Type: "hang"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *model.Report, 1)
	go func() {
		done <- e.Run(ctx, wf, model.Options{NodeTimeout: time.Minute})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case rep := <-done:
		assert.Equal(t, model.RunCancelled, rep.State)
		assert.False(t, rep.Success)
		assert.Equal(t, model.CodeCancelled, model.CodeOf(rep.Record("stuck").Err))
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not propagate promptly")
	}
}

func TestUnresolvableConnectionSkipsConsumer(t *testing.T) {
	e, _ := fixture(t)

	// const emits a string; expects_signal wants a signal and no transformer
	// bridges them. The consumer is skipped, never executed with bad data.
	wf := &model.Workflow{
		ID: "nopath",
		Nodes: []model.NodeSpec{
			constNode("src", "hello"),
			{ID: "sink", Type: "expects_signal"},
		},
		Edges: []model.EdgeSpec{edge("src", "out", "sink", "in")},
	}

	rep := e.Run(context.Background(), wf, model.Options{FailFast: true})
	assert.False(t, rep.Success, "a skipped node clears overall success")
	assert.Equal(t, model.RunCompleted, rep.State, "a connection skip is not an engine failure")
	assert.Equal(t, model.StatusSucceeded, rep.Record("src").Status)

	sink := rep.Record("sink")
	assert.Equal(t, model.StatusSkipped, sink.Status)
	assert.Equal(t, model.CodeNoPath, model.CodeOf(sink.Err))
}

func TestPanicIsContained(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID:    "panic",
		Nodes: []model.NodeSpec{{ID: "boom", Type: "panic"}, constNode("ok", "still here")},
	}

	rep := e.Run(context.Background(), wf, model.Options{FailFast: false})
	boom := rep.Record("boom")
	assert.Equal(t, model.StatusFailed, boom.Status)
	assert.Equal(t, model.CodeRuntime, model.CodeOf(boom.Err))
	assert.Contains(t, boom.Err.Error(), "panicked")
	assert.Equal(t, model.StatusSucceeded, rep.Record("ok").Status)
}

func TestRequiredInputMissing(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID:    "missing-input",
		Nodes: []model.NodeSpec{{ID: "lonely", Type: "double"}},
	}

	rep := e.Run(context.Background(), wf, model.Options{})
	rec := rep.Record("lonely")
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.Contains(t, rec.Err.Error(), "required input")
}

func TestTopLevelInputs(t *testing.T) {
	e, _ := fixture(t)

	wf := &model.Workflow{
		ID:    "toplevel",
		Nodes: []model.NodeSpec{{ID: "d", Type: "double"}},
	}

	rep := e.Run(context.Background(), wf, model.Options{
		Inputs: map[string]map[string]cty.Value{
			"d": {"in": cty.NumberIntVal(21)},
		},
	})
	require.True(t, rep.Success, "errors: %v", rep.Errors)
	f, _ := rep.Record("d").Outputs["result"].AsBigFloat().Float64()
	assert.InDelta(t, 42.0, f, 1e-9)
}

func TestIndependentNodesRunConcurrently(t *testing.T) {
	types := typesys.NewRegistry()
	typesys.RegisterBuiltins(types)
	catalog := transform.NewCatalog(types)
	reg := registry.New()

	// Each node blocks until the other has started; the run only finishes
	// if the engine really executes them in parallel.
	var mu sync.Mutex
	startedNodes := make(map[string]chan struct{})
	for _, id := range []string{"left", "right"} {
		startedNodes[id] = make(chan struct{})
	}
	other := map[string]string{"left": "right", "right": "left"}

	reg.RegisterComponent(&registry.Component{
		Type:    "rendezvous",
		Outputs: []registry.Port{{ID: "out", Type: typesys.TypeAny}},
		Executor: registry.ExecutorFunc(func(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
			mu.Lock()
			ch := startedNodes[call.NodeID]
			peer := startedNodes[other[call.NodeID]]
			mu.Unlock()
			close(ch)
			select {
			case <-peer:
				return map[string]cty.Value{"out": cty.True}, nil
			case <-ctx.Done():
				return nil, fmt.Errorf("peer never started: %w", ctx.Err())
			}
		}),
	})

	e := New(reg, validator.New(types, catalog))
	wf := &model.Workflow{
		ID:    "parallel",
		Nodes: []model.NodeSpec{{ID: "left", Type: "rendezvous"}, {ID: "right", Type: "rendezvous"}},
	}

	rep := e.Run(context.Background(), wf, model.Options{Workers: 2, NodeTimeout: 5 * time.Second})
	require.True(t, rep.Success, "errors: %v", rep.Errors)
}
