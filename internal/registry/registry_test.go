package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/leafletmm/internal/geojson"
	"github.com/specialistvlad/leafletmm/internal/model"
	"github.com/specialistvlad/leafletmm/internal/record"
	"github.com/specialistvlad/leafletmm/internal/renderer"
)

type noopConfig struct {
	Deferred bool `hcl:"deferred,optional"`
}

type noopRenderer struct{}

func (noopRenderer) LoadData(context.Context, record.Item, *geojson.FeatureCollection, renderer.Request) error {
	return nil
}

func noopHandler() *RegisteredRenderer {
	return &RegisteredRenderer{
		NewConfig:  func() any { return new(noopConfig) },
		ConfigType: reflect.TypeOf(noopConfig{}),
		New:        func(renderer.Deps, any) (renderer.Renderer, error) { return noopRenderer{}, nil },
	}
}

func newTestRegistry() *Registry {
	r := New()
	r.RegisterLayerType("metamodels", &LayerType{MetaModels: true, BoundsMode: BoundsMode{Extend: true, Fit: true}})
	r.RegisterLayerType("tiles", &LayerType{})
	r.RegisterRenderer("noop", noopHandler())
	return r
}

func TestRegistry_LayerTypes(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()

	lt, ok := r.LayerType("metamodels")
	require.True(t, ok)
	assert.True(t, lt.MetaModels)

	_, ok = r.LayerType("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"metamodels", "tiles"}, r.LayerTypeNames())

	// The returned map is a copy.
	types := r.LayerTypes()
	delete(types, "tiles")
	assert.Len(t, r.LayerTypes(), 2)
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	assert.PanicsWithValue(t, "layer type 'tiles' already registered", func() {
		r.RegisterLayerType("tiles", &LayerType{})
	})
	assert.PanicsWithValue(t, "renderer kind 'noop' already registered", func() {
		r.RegisterRenderer("noop", noopHandler())
	})
	assert.Panics(t, func() {
		r.RegisterRenderer("broken", &RegisteredRenderer{})
	})
}

func TestValidateRegistry(t *testing.T) {
	t.Parallel()

	require.NoError(t, newTestRegistry().ValidateRegistry(context.Background()))

	type noDeferred struct {
		Attr string `hcl:"attr"`
	}
	type wrongDeferred struct {
		Deferred string `hcl:"deferred"`
	}

	r := New()
	r.RegisterRenderer("no_deferred", &RegisteredRenderer{
		NewConfig: func() any { return new(noDeferred) },
		New:       func(renderer.Deps, any) (renderer.Renderer, error) { return noopRenderer{}, nil },
	})
	r.RegisterRenderer("wrong_deferred", &RegisteredRenderer{
		NewConfig:  func() any { return new(wrongDeferred) },
		ConfigType: reflect.TypeOf(wrongDeferred{}),
		New:        func(renderer.Deps, any) (renderer.Renderer, error) { return noopRenderer{}, nil },
	})
	r.RegisterRenderer("mismatch", &RegisteredRenderer{
		NewConfig:  func() any { return new(noopConfig) },
		ConfigType: reflect.TypeOf(wrongDeferred{}),
		New:        func(renderer.Deps, any) (renderer.Renderer, error) { return noopRenderer{}, nil },
	})

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer 'no_deferred': config struct has no 'deferred' field")
	assert.Contains(t, err.Error(), "renderer 'wrong_deferred': 'deferred' must be a bool")
	assert.Contains(t, err.Error(), "renderer 'mismatch': NewConfig returns")
}

func TestValidateDefinitions(t *testing.T) {
	t.Parallel()

	src := `
metamodel "stores" {
  attribute "geo" { type = "text" }
}

layer "ok" {
  type      = "metamodels"
  metamodel = "stores"
  renderer "noop" {}
}

layer "tiles" {
  type = "tiles"
}
`
	defs, err := model.Parse(context.Background(), []byte(src), "defs.hcl")
	require.NoError(t, err)
	require.NoError(t, newTestRegistry().ValidateDefinitions(context.Background(), defs))

	bad := `
layer "a" { type = "unknown" }
layer "b" { type = "metamodels" }
layer "c" {
  type      = "metamodels"
  metamodel = "nope"
  renderer "missing" {}
}
`
	defs, err = model.Parse(context.Background(), []byte(bad), "bad.hcl")
	require.NoError(t, err)

	err = newTestRegistry().ValidateDefinitions(context.Background(), defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layer 'a' (bad.hcl): unknown layer type 'unknown'")
	assert.Contains(t, err.Error(), "layer 'b' (bad.hcl): layer type 'metamodels' requires a metamodel")
	assert.Contains(t, err.Error(), "layer 'c' (bad.hcl): unknown metamodel 'nope'")
	assert.Contains(t, err.Error(), "layer 'c' (bad.hcl): unknown renderer kind 'missing'")
}
