// Package arith provides a small numeric component for workflow plumbing
// and tests: it doubles its input or adds a configured operand to it.
package arith

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/model"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/typesys"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func onRun(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
	in := call.Input("in")
	if in == cty.NilVal {
		return nil, model.NewError(model.CodeRuntime, call.NodeID, "arith node received no input")
	}
	if in.Type() != cty.Number {
		return nil, model.NewError(model.CodeRuntime, call.NodeID,
			"arith input must be a number, got %s", in.Type().FriendlyName())
	}
	f, _ := in.AsBigFloat().Float64()

	op := "double"
	if v := call.ConfigAttr("op"); v != cty.NilVal {
		op = v.AsString()
	}

	var result float64
	switch op {
	case "double":
		result = f * 2
	case "add":
		operand := call.ConfigAttr("operand")
		if operand == cty.NilVal {
			return nil, model.NewError(model.CodeRuntime, call.NodeID, "arith op 'add' requires an 'operand' config attribute")
		}
		o, _ := operand.AsBigFloat().Float64()
		result = f + o
	default:
		return nil, model.NewError(model.CodeRuntime, call.NodeID, "unknown arith op %q", op)
	}

	return map[string]cty.Value{"result": cty.NumberFloatVal(result)}, nil
}

// Register registers the component with the directory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent(&registry.Component{
		Type:        "arith",
		Description: "Doubles its input, or adds a configured operand.",
		Inputs: []registry.Port{
			{ID: "in", Type: typesys.TypeNumber, Required: true},
		},
		Outputs: []registry.Port{
			{ID: "result", Type: typesys.TypeNumber},
		},
		Executor: registry.ExecutorFunc(onRun),
	})
}
