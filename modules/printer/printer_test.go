package printer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/testutil"
)

func TestPrintsString(t *testing.T) {
	logger, buf := testutil.CaptureLogger()
	_, err := onRun(context.Background(), &registry.Call{
		NodeID: "p",
		Inputs: map[string]cty.Value{"in": cty.StringVal("hello")},
		Logger: logger,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hello")
}

func TestPrintsStructuredValuesAsJSON(t *testing.T) {
	logger, buf := testutil.CaptureLogger()
	_, err := onRun(context.Background(), &registry.Call{
		NodeID: "p",
		Inputs: map[string]cty.Value{"in": cty.ObjectVal(map[string]cty.Value{
			"symbol": cty.StringVal("ETH"),
		})},
		Logger: logger,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `symbol`)
	assert.Contains(t, buf.String(), `ETH`)
}

func TestHandlesMissingInput(t *testing.T) {
	logger, buf := testutil.CaptureLogger()
	_, err := onRun(context.Background(), &registry.Call{NodeID: "p", Logger: logger})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no value")
}
