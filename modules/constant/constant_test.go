package constant

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/registry"
)

func TestEmitsConfiguredValue(t *testing.T) {
	out, err := onRun(context.Background(), &registry.Call{
		NodeID: "c",
		Config: cty.ObjectVal(map[string]cty.Value{"value": cty.StringVal("42")}),
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("42"), out["out"])
}

func TestCoercesNumbersToString(t *testing.T) {
	out, err := onRun(context.Background(), &registry.Call{
		NodeID: "c",
		Config: cty.ObjectVal(map[string]cty.Value{"value": cty.NumberIntVal(7)}),
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("7"), out["out"])
}

func TestMissingValue(t *testing.T) {
	_, err := onRun(context.Background(), &registry.Call{NodeID: "c", Logger: slog.Default()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value")
}
