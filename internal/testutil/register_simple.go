package testutil

import "github.com/specialistvlad/leafletmm/internal/registry"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single layer type and/or renderer kind.
type SimpleModule struct {
	LayerTypeName string
	LayerType     *registry.LayerType

	RendererKind string
	Renderer     *registry.RegisteredRenderer
}

// Register implements registry.Module.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.LayerType != nil {
		r.RegisterLayerType(m.LayerTypeName, m.LayerType)
	}
	if m.Renderer != nil {
		r.RegisterRenderer(m.RendererKind, m.Renderer)
	}
}
