// Package registry implements the component directory: the catalog of node
// types the engine can execute. Each component declares its typed input and
// output ports plus an Executor. Components plug in through the Module
// interface, mirroring how node packages self-register at startup.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Port is a named, typed input or output slot on a component.
type Port struct {
	// ID names the port, e.g. "out" or "amount_in".
	ID string
	// Type is a registered data type ID.
	Type string
	// Required marks input ports that must receive a value. Ignored for
	// output ports.
	Required bool
}

// Call is the narrow execution scope handed to an executor: its resolved
// inputs, its static config and nothing else. Executors have no ambient
// access to other nodes' state or to the engine's internals.
type Call struct {
	NodeID     string
	WorkflowID string
	// Inputs holds one resolved value per connected input port.
	Inputs map[string]cty.Value
	// Config is the node's static configuration object, or cty.NilVal.
	Config cty.Value
	Logger *slog.Logger
}

// Input returns the named input value, or cty.NilVal when the port was not
// fed.
func (c *Call) Input(port string) cty.Value {
	if v, ok := c.Inputs[port]; ok {
		return v
	}
	return cty.NilVal
}

// ConfigAttr returns the named config attribute, or cty.NilVal.
func (c *Call) ConfigAttr(name string) cty.Value {
	if c.Config == cty.NilVal || !c.Config.Type().IsObjectType() || !c.Config.Type().HasAttribute(name) {
		return cty.NilVal
	}
	return c.Config.GetAttr(name)
}

// Executor is the single pluggable unit of node behavior. The engine does
// not know or care what an implementation does internally.
type Executor interface {
	Execute(ctx context.Context, call *Call) (map[string]cty.Value, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, call *Call) (map[string]cty.Value, error)

func (f ExecutorFunc) Execute(ctx context.Context, call *Call) (map[string]cty.Value, error) {
	return f(ctx, call)
}

// Component describes one registered node type: its ports and its executor.
// Read-only once registered.
type Component struct {
	// Type is the component's unique type ID, e.g. "constant".
	Type        string
	Description string
	Inputs      []Port
	Outputs     []Port
	Executor    Executor
}

// InputPort returns the declared input port with the given ID.
func (c *Component) InputPort(id string) (Port, bool) {
	for _, p := range c.Inputs {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// OutputPort returns the declared output port with the given ID.
func (c *Component) OutputPort(id string) (Port, bool) {
	for _, p := range c.Outputs {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Module is the interface node packages implement to self-register.
type Module interface {
	Register(r *Registry)
}

// Registry holds all registered components for a single runtime instance.
// Reads are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	components map[string]*Component
}

// New creates an empty component registry.
func New() *Registry {
	return &Registry{components: make(map[string]*Component)}
}

// RegisterComponent adds a component. Duplicate type IDs and components
// without an executor are programmer errors, so it panics like any other
// startup-time registration.
func (r *Registry) RegisterComponent(c *Component) {
	if c.Type == "" {
		panic("registry: component type cannot be empty")
	}
	if c.Executor == nil {
		panic(fmt.Sprintf("registry: component %q has no executor", c.Type))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[c.Type]; exists {
		panic(fmt.Sprintf("registry: component %q already registered", c.Type))
	}
	slog.Debug("Registering component.", "type", c.Type)
	r.components[c.Type] = c
}

// Descriptor returns the component for a node type ID. The engine treats
// the result as read-only.
func (r *Registry) Descriptor(typeID string) (*Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[typeID]
	return c, ok
}

// Types returns all registered component type IDs in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.components))
	for id := range r.components {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
