package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/leafletmm/internal/cli"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A definitions file with a syntax error makes app.NewApp panic while
	// loading.
	tempDir := t.TempDir()
	writeFile(t, filepath.Join(tempDir, "main.hcl"), `
		layer "stores" {
			type = "metamodels"
		// Missing closing brace here
	`)

	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, logs, []string{"layers", "-d", tempDir})

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	assert.Contains(t, runErr.Error(), "application startup panicked")
	assert.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(context.Background(), out, logs, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error for help")
	assert.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(context.Background(), out, logs, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	exitErr, ok := err.(*cli.ExitError)
	require.True(t, ok)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_RenderEndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tempDir := t.TempDir()
	defsDir := filepath.Join(tempDir, "definitions")
	rootDir := filepath.Join(tempDir, "www")

	writeFile(t, filepath.Join(defsDir, "stores.hcl"), `
metamodel "stores" {
  attribute "geo" {
    type   = "file"
    column = "geo_file"
  }
  item "berlin" {
    geo_file = { path = ["files/berlin.geojson", "files/gone.geojson"] }
  }
}

layer "stores" {
  type      = "metamodels"
  metamodel = "stores"
  renderer "geojson" {
    geojson_attribute = "geo"
    deferred          = true
  }
}
`)
	writeFile(t, filepath.Join(rootDir, "files", "berlin.geojson"), `{"type":"Feature","geometry":null,"properties":{}}`)

	baseArgs := []string{"-d", defsDir, "--root-dir", rootDir, "--log-level", "debug", "render", "stores"}

	// --- Act & Assert: immediate pass ---
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, logs, baseArgs))

	var immediate map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &immediate))
	assert.Equal(t, "FeatureCollection", immediate["type"])
	assert.Empty(t, immediate["features"])

	// --- Act & Assert: deferred pass ---
	out, logs = &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, run(context.Background(), out, logs, append(baseArgs, "--deferred")))

	assert.JSONEq(t, `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null,"properties":{}}]}`, out.String())
	assert.Contains(t, logs.String(), "Skipping missing GeoJSON file.")
}
