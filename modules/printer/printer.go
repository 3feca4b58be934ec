// Package printer provides a sink component that logs whatever value
// reaches it. Useful as the terminal node of a flow and in examples.
package printer

import (
	"context"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/typesys"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func onRun(ctx context.Context, call *registry.Call) (map[string]cty.Value, error) {
	in := call.Input("in")
	if in == cty.NilVal {
		call.Logger.Info("printer received no value")
		return nil, nil
	}

	rendered := renderValue(in)
	call.Logger.Info("printer", "value", rendered)
	return nil, nil
}

// renderValue formats a value for logging. Strings print bare; everything
// else is rendered as JSON so structured values stay readable.
func renderValue(v cty.Value) string {
	if v.Type() == cty.String {
		return v.AsString()
	}
	buf, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(buf)
}

// Register registers the component with the directory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent(&registry.Component{
		Type:        "printer",
		Description: "Logs the value that arrives on its input port.",
		Inputs: []registry.Port{
			{ID: "in", Type: typesys.TypeAny},
		},
		Executor: registry.ExecutorFunc(onRun),
	})
}
