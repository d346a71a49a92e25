// Package metamodels integrates metamodel records with the map layer
// system. Registering the module adds the `metamodels` layer type and the
// renderer kinds such layers use to turn items into features.
package metamodels

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/leafletmm/internal/registry"
	"github.com/specialistvlad/leafletmm/internal/renderer"
)

// LayerTypeName is the layer type key this module registers.
const LayerTypeName = "metamodels"

// Renderer kinds provided by this module.
const (
	RendererGeoJSON = "geojson"
	RendererMarker  = "marker"
)

// Icon is the backend icon of the layer type.
const Icon = "bundles/netzmachtcontaoleafletmetamodels/img/layer.png"

// Module implements the registry.Module interface for this package.
type Module struct{}

// LayerType returns the descriptor of the metamodels layer type.
func LayerType() *registry.LayerType {
	return &registry.LayerType{
		Children:   false,
		Icon:       Icon,
		MetaModels: true,
		BoundsMode: registry.BoundsMode{
			Extend: true,
			Fit:    true,
		},
	}
}

// Register adds the layer type and renderer kinds to the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLayerType(LayerTypeName, LayerType())

	r.RegisterRenderer(RendererGeoJSON, &registry.RegisteredRenderer{
		NewConfig:  func() any { return new(renderer.GeoJSONConfig) },
		ConfigType: reflect.TypeOf(renderer.GeoJSONConfig{}),
		New: func(deps renderer.Deps, cfg any) (renderer.Renderer, error) {
			c, ok := cfg.(*renderer.GeoJSONConfig)
			if !ok {
				return nil, fmt.Errorf("geojson renderer: unexpected config type %T", cfg)
			}
			return renderer.NewGeoJSON(deps, *c)
		},
	})

	r.RegisterRenderer(RendererMarker, &registry.RegisteredRenderer{
		NewConfig:  func() any { return new(renderer.MarkerConfig) },
		ConfigType: reflect.TypeOf(renderer.MarkerConfig{}),
		New: func(deps renderer.Deps, cfg any) (renderer.Renderer, error) {
			c, ok := cfg.(*renderer.MarkerConfig)
			if !ok {
				return nil, fmt.Errorf("marker renderer: unexpected config type %T", cfg)
			}
			return renderer.NewMarker(deps, *c)
		},
	})
}
