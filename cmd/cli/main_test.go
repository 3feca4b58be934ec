package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return shouldExit=true.
	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined")
}

func TestRun_BrokenFlowFile(t *testing.T) {
	t.Parallel()

	invalidHCL := `
		node "constant" "a" {
			config {
		// Missing closing braces here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(invalidHCL), 0o600))

	err := run(&bytes.Buffer{}, []string{filePath})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load flow file")
}

func TestRun_SuccessfulFlow(t *testing.T) {
	t.Parallel()

	flow := `
node "constant" "greet" {
  config {
    value = "hello"
  }
}

node "printer" "show" {}

edge {
  source = "greet.out"
  target = "show.in"
}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(flow), 0o600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-log-level", "error", filePath})
	require.NoError(t, err)
	require.Contains(t, out.String(), "2 succeeded")
}
