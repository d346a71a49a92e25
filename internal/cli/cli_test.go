package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/leafletmm/internal/app"
)

// fakeRunner records which run mode was invoked and with what configuration.
type fakeRunner struct {
	cfg      *app.Config
	called   string
	layerID  string
	deferred bool
}

func (f *fakeRunner) RenderLayer(_ context.Context, layerID string, deferred bool) error {
	f.called, f.layerID, f.deferred = "render", layerID, deferred
	return nil
}

func (f *fakeRunner) ListLayers(context.Context) error {
	f.called = "layers"
	return nil
}

func (f *fakeRunner) ListLayerTypes(context.Context) error {
	f.called = "layer-types"
	return nil
}

func (f *fakeRunner) Serve(context.Context) error {
	f.called = "serve"
	return nil
}

func execute(t *testing.T, args ...string) (*fakeRunner, string, error) {
	t.Helper()

	fake := &fakeRunner{}
	out := &bytes.Buffer{}
	err := Execute(context.Background(), args, out, func(cfg *app.Config) Runner {
		fake.cfg = cfg
		return fake
	})
	return fake, out.String(), err
}

func TestExecute_Commands(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		args         []string
		wantCalled   string
		wantLayer    string
		wantDeferred bool
	}{
		{name: "render immediate", args: []string{"render", "stores"}, wantCalled: "render", wantLayer: "stores"},
		{name: "render deferred", args: []string{"render", "--deferred", "stores"}, wantCalled: "render", wantLayer: "stores", wantDeferred: true},
		{name: "layers", args: []string{"layers"}, wantCalled: "layers"},
		{name: "layer types", args: []string{"layer-types"}, wantCalled: "layer-types"},
		{name: "serve", args: []string{"serve"}, wantCalled: "serve"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake, _, err := execute(t, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCalled, fake.called)
			assert.Equal(t, tc.wantLayer, fake.layerID)
			assert.Equal(t, tc.wantDeferred, fake.deferred)
		})
	}
}

func TestExecute_Defaults(t *testing.T) {
	t.Parallel()

	fake, _, err := execute(t, "layers")
	require.NoError(t, err)
	require.NotNil(t, fake.cfg)
	assert.Equal(t, "definitions", fake.cfg.DefinitionsPath)
	assert.Equal(t, ".", fake.cfg.RootDir)
	assert.Equal(t, ":8080", fake.cfg.Listen)
	assert.False(t, fake.cfg.Watch)
	assert.Equal(t, "json", fake.cfg.LogFormat)
	assert.Equal(t, "info", fake.cfg.LogLevel)
}

func TestExecute_Flags(t *testing.T) {
	t.Parallel()

	fake, _, err := execute(t, "serve",
		"-d", "/etc/leafletmm",
		"--root-dir", "/var/www",
		"--listen", "127.0.0.1:9000",
		"--watch",
		"--log-format", "TEXT",
		"--log-level", "debug",
	)
	require.NoError(t, err)
	assert.Equal(t, "/etc/leafletmm", fake.cfg.DefinitionsPath)
	assert.Equal(t, "/var/www", fake.cfg.RootDir)
	assert.Equal(t, "127.0.0.1:9000", fake.cfg.Listen)
	assert.True(t, fake.cfg.Watch)
	assert.Equal(t, "text", fake.cfg.LogFormat)
	assert.Equal(t, "debug", fake.cfg.LogLevel)
}

func TestExecute_Environment(t *testing.T) {
	t.Setenv("LEAFLETMM_ROOT_DIR", "/srv/www")
	t.Setenv("LEAFLETMM_LOG_LEVEL", "warn")

	fake, _, err := execute(t, "layers")
	require.NoError(t, err)
	assert.Equal(t, "/srv/www", fake.cfg.RootDir)
	assert.Equal(t, "warn", fake.cfg.LogLevel)

	// Flags win over the environment.
	fake, _, err = execute(t, "layers", "--root-dir", "/flag")
	require.NoError(t, err)
	assert.Equal(t, "/flag", fake.cfg.RootDir)
}

func TestExecute_ConfigFile(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "leafletmm.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("definitions: /opt/defs\nroot_dir: /opt/www\nwatch: true\n"), 0o600))

	fake, _, err := execute(t, "serve", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "/opt/defs", fake.cfg.DefinitionsPath)
	assert.Equal(t, "/opt/www", fake.cfg.RootDir)
	assert.True(t, fake.cfg.Watch)
}

func TestExecute_UsageErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown flag", args: []string{"layers", "--this-is-not-a-valid-flag"}, wantErr: "unknown flag: --this-is-not-a-valid-flag"},
		{name: "bad log format", args: []string{"layers", "--log-format", "xml"}, wantErr: "invalid log-format"},
		{name: "bad log level", args: []string{"layers", "--log-level", "loud"}, wantErr: "invalid log-level"},
		{name: "render without layer", args: []string{"render"}, wantErr: "render requires exactly one LAYER_ID argument"},
		{name: "unknown command", args: []string{"paint"}, wantErr: "unknown command"},
		{name: "empty definitions", args: []string{"layers", "-d", ""}, wantErr: "DefinitionsPath is a required configuration field"},
		{name: "missing config file", args: []string{"layers", "-c", "/does/not/exist.yaml"}, wantErr: "failed to read config file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake, _, err := execute(t, tc.args...)
			require.Error(t, err)

			exitErr, ok := err.(*ExitError)
			require.True(t, ok, "expected an ExitError, got %T", err)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantErr)
			assert.Empty(t, fake.called)
		})
	}
}

func TestExecute_Help(t *testing.T) {
	t.Parallel()

	fake, out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "render")
	assert.Empty(t, fake.called)
}
