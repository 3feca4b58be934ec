// Package constant provides a source component that emits a configured
// literal value. The value is coerced to a string on its way out, so
// downstream numeric ports are reached through the stock string-to-number
// transformer rather than by guessing the author's intent.
package constant

import (
	"context"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/flowgrid/internal/model"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/typesys"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func onRun(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
	raw := call.ConfigAttr("value")
	if raw == cty.NilVal {
		return nil, model.NewError(model.CodeRuntime, call.NodeID, "constant node requires a 'value' config attribute")
	}
	out, err := convert.Convert(raw, cty.String)
	if err != nil {
		return nil, model.NewError(model.CodeRuntime, call.NodeID, "constant value is not representable as a string: %v", err)
	}
	return map[string]cty.Value{"out": out}, nil
}

// Register registers the component with the directory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent(&registry.Component{
		Type:        "constant",
		Description: "Emits a configured literal value.",
		Outputs: []registry.Port{
			{ID: "out", Type: typesys.TypeString},
		},
		Executor: registry.ExecutorFunc(onRun),
	})
}
