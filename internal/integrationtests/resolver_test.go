package integrationtests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/leafletmm/internal/registry"
	"github.com/specialistvlad/leafletmm/internal/testutil"
	"github.com/specialistvlad/leafletmm/modules/metamodels"
)

const regionsModel = `
metamodel "regions" {
  attribute "outline" {
    type   = "file"
    column = "outline_file"
  }
  attribute "centre" { type = "text" }

  item "single" {
    outline_file = "uploads/a.geojson"
    centre       = "{\"type\":\"Point\",\"coordinates\":[1,2]}"
  }
  item "missing" {
    outline_file = "uploads/missing.geojson"
  }
  item "multiple" {
    outline_file = { path = ["a.geojson", "b.geojson"] }
  }
  item "empty" {
    outline_file = { path = [] }
  }
}
`

const regionsLayers = `
layer "outlines" {
  type      = "metamodels"
  metamodel = "regions"
  renderer "geojson" {
    geojson_attribute = "outline"
    deferred          = true
  }
}

layer "centres" {
  type      = "metamodels"
  metamodel = "regions"
  renderer "geojson" {
    geojson_attribute = "centre"
  }
}
`

func regionFiles() map[string]string {
	return map[string]string{
		"definitions/regions.hcl": regionsModel,
		"definitions/layers.hcl":  regionsLayers,
		"www/uploads/a.geojson":   `{"type":"Feature","id":"uploads-a"}`,
		"www/a.geojson":           `{"type":"Feature","id":"a"}`,
		"www/b.geojson":           `{"type":"Feature","id":"b"}`,
	}
}

// TestResolver_FileReferences covers single, missing, multiple and empty
// file references in one deferred pass. Items are processed in declaration
// order and paths in list order.
func TestResolver_FileReferences(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, regionFiles())

	out := result.Render(t, "outlines", true)

	assert.JSONEq(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"uploads-a"},
		{"type":"Feature","id":"a"},
		{"type":"Feature","id":"b"}
	]}`, out)
	assert.Contains(t, result.LogOutput(), "Skipping missing GeoJSON file.")
	assert.Contains(t, result.LogOutput(), "/project/www/uploads/missing.geojson")
}

// TestResolver_DirectValue verifies that a text attribute is appended
// verbatim, once per item that carries a value.
func TestResolver_DirectValue(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, regionFiles())

	out := result.Render(t, "centres", false)

	// Items without a value contribute a null feature.
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[
		{"type":"Point","coordinates":[1,2]},
		null,
		null,
		null
	]}`, out)
}

// TestResolver_PassGate verifies that each renderer only contributes to the
// pass its deferred flag selects.
func TestResolver_PassGate(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, regionFiles())

	empty := `{"type":"FeatureCollection","features":[]}`
	assert.JSONEq(t, empty, result.Render(t, "outlines", false))
	assert.JSONEq(t, empty, result.Render(t, "centres", true))
}

// TestResolver_FilesNeverLeaveRoot verifies that references pointing above
// the web root are resolved inside it.
func TestResolver_FilesNeverLeaveRoot(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"definitions/main.hcl": `
metamodel "m" {
  attribute "f" { type = "file" }
  item "escape" { f = "../secret.geojson" }
}
layer "l" {
  type      = "metamodels"
  metamodel = "m"
  renderer "geojson" {
    geojson_attribute = "f"
    deferred          = true
  }
}
`,
		"secret.geojson":     `{"secret":true}`,
		"www/secret.geojson": `{"public":true}`,
	}

	result := testutil.RunIntegrationTest(t, files)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[{"public":true}]}`, result.Render(t, "l", true))
}

// TestResolver_RenderersSeeEveryItem verifies the request every renderer
// receives: one call per item, in order, carrying the layer and the pass.
func TestResolver_RenderersSeeEveryItem(t *testing.T) {
	t.Parallel()

	rec := &testutil.Recorder{}
	files := map[string]string{
		"definitions/main.hcl": `
metamodel "m" {
  attribute "a" { type = "text" }
  item "first" {}
  item "second" {}
}
layer "l" {
  type      = "metamodels"
  metamodel = "m"
  renderer "recording" {}
}
`,
	}

	result := testutil.RunIntegrationTest(t, files, &metamodels.Module{}, testutil.RecordingModule("recording", rec))
	result.Render(t, "l", false)
	result.Render(t, "l", true)

	assert.Equal(t, []testutil.Call{
		{Layer: "l", Item: "first", Deferred: false},
		{Layer: "l", Item: "second", Deferred: false},
		{Layer: "l", Item: "first", Deferred: true},
		{Layer: "l", Item: "second", Deferred: true},
	}, rec.Calls())
}

// TestResolver_OtherLayerTypes verifies that layer types which do not draw
// from metamodels resolve to an empty collection.
func TestResolver_OtherLayerTypes(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"definitions/main.hcl": `
layer "folder" {
  type = "group"
}
`,
	}
	group := &testutil.SimpleModule{
		LayerTypeName: "group",
		LayerType:     &registry.LayerType{Children: true},
	}

	result := testutil.RunIntegrationTest(t, files, &metamodels.Module{}, group)
	require.NoError(t, result.Err)

	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, result.Render(t, "folder", false))
	assert.Equal(t, []string{"group", "metamodels"}, result.App.Registry().LayerTypeNames())
}
