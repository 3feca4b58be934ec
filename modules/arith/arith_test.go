package arith

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/registry"
)

func call(op string, in cty.Value, extra map[string]cty.Value) *registry.Call {
	cfg := map[string]cty.Value{"op": cty.StringVal(op)}
	for k, v := range extra {
		cfg[k] = v
	}
	return &registry.Call{
		NodeID: "n",
		Inputs: map[string]cty.Value{"in": in},
		Config: cty.ObjectVal(cfg),
		Logger: slog.Default(),
	}
}

func TestDouble(t *testing.T) {
	out, err := onRun(context.Background(), call("double", cty.NumberIntVal(21), nil))
	require.NoError(t, err)
	f, _ := out["result"].AsBigFloat().Float64()
	assert.InDelta(t, 42.0, f, 1e-9)
}

func TestAdd(t *testing.T) {
	out, err := onRun(context.Background(), call("add", cty.NumberIntVal(40), map[string]cty.Value{
		"operand": cty.NumberIntVal(2),
	}))
	require.NoError(t, err)
	f, _ := out["result"].AsBigFloat().Float64()
	assert.InDelta(t, 42.0, f, 1e-9)
}

func TestOpDefaultsToDouble(t *testing.T) {
	out, err := onRun(context.Background(), &registry.Call{
		NodeID: "n",
		Inputs: map[string]cty.Value{"in": cty.NumberIntVal(3)},
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	f, _ := out["result"].AsBigFloat().Float64()
	assert.InDelta(t, 6.0, f, 1e-9)
}

func TestErrors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		_, err := onRun(context.Background(), &registry.Call{NodeID: "n", Logger: slog.Default()})
		require.Error(t, err)
	})

	t.Run("non-numeric input", func(t *testing.T) {
		_, err := onRun(context.Background(), call("double", cty.StringVal("42"), nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be a number")
	})

	t.Run("unknown op", func(t *testing.T) {
		_, err := onRun(context.Background(), call("modulo", cty.NumberIntVal(1), nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown arith op")
	})

	t.Run("add without operand", func(t *testing.T) {
		_, err := onRun(context.Background(), call("add", cty.NumberIntVal(1), nil))
		require.Error(t, err)
	})
}
