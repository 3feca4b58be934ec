package testutil

import (
	"context"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/typesys"
)

// RecorderModule registers a "recorder" sink component that remembers every
// value delivered to its input port, keyed by node ID. Useful for asserting
// on what actually flowed through a graph.
type RecorderModule struct {
	mu       sync.Mutex
	received map[string]cty.Value
}

func NewRecorderModule() *RecorderModule {
	return &RecorderModule{received: make(map[string]cty.Value)}
}

// Received returns the value the given recorder node consumed, if any.
func (m *RecorderModule) Received(nodeID string) (cty.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.received[nodeID]
	return v, ok
}

// Register registers the "recorder" component.
func (m *RecorderModule) Register(r *registry.Registry) {
	r.RegisterComponent(&registry.Component{
		Type: "recorder",
		Inputs: []registry.Port{
			{ID: "in", Type: typesys.TypeAny, Required: true},
		},
		Executor: registry.ExecutorFunc(func(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
			m.mu.Lock()
			m.received[call.NodeID] = call.Input("in")
			m.mu.Unlock()
			return nil, nil
		}),
	})
}
