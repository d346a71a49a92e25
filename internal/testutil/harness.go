package testutil

import (
	"context"
	"fmt"
	"os"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/leafletmm/internal/app"
	"github.com/specialistvlad/leafletmm/internal/registry"
)

// Layout of the in-memory project the harness builds.
const (
	ProjectRoot    = "/project"
	DefinitionsDir = ProjectRoot + "/definitions"
	WebRoot        = ProjectRoot + "/www"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Err error
	App *app.App
	Fs  afero.Fs

	out  *app.SafeBuffer
	logs *app.SafeBuffer
}

// Output returns everything the app wrote as results so far.
func (r *HarnessResult) Output() string {
	return r.out.String()
}

// LogOutput returns the app's log output so far.
func (r *HarnessResult) LogOutput() string {
	return r.logs.String()
}

// RunIntegrationTest writes files into an in-memory project and starts an
// app on it. File names are relative to the project root, e.g.
// "definitions/layers.hcl" or "www/uploads/a.geojson". Without modules the
// app registers its core modules.
//
// Startup panics are recovered and reported through Err.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(DefinitionsDir, 0o755))
	require.NoError(t, fsys.MkdirAll(WebRoot, 0o755))
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, path.Join(ProjectRoot, name), []byte(content), 0o644))
	}

	cfg, err := app.NewConfig(app.Config{
		DefinitionsPath: DefinitionsDir,
		RootDir:         WebRoot,
		LogLevel:        "debug",
		LogFormat:       "text",
		Fs:              fsys,
	})
	require.NoError(t, err)

	result := &HarnessResult{
		Fs:   fsys,
		out:  &app.SafeBuffer{},
		logs: &app.SafeBuffer{},
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		result.App = app.NewApp(result.out, result.logs, cfg, modules...)
	}()

	t.Cleanup(func() {
		if os.Getenv("LEAFLETMM_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.logs.String())
		}
	})

	return result
}

// Render resolves a layer through the app and returns the written output.
func (r *HarnessResult) Render(t *testing.T, layerID string, deferred bool) string {
	t.Helper()
	require.NoError(t, r.Err, "app failed to start")

	before := len(r.out.String())
	require.NoError(t, r.App.RenderLayer(context.Background(), layerID, deferred))
	return r.out.String()[before:]
}
