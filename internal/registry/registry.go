package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/specialistvlad/leafletmm/internal/renderer"
)

// Module is the interface that all modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// BoundsMode controls how a layer takes part in fitting the map view.
type BoundsMode struct {
	Extend bool `json:"extend"`
	Fit    bool `json:"fit"`
}

// LayerType is the static metadata of a layer type.
type LayerType struct {
	// Children reports whether layers of this type may contain child layers.
	Children bool `json:"children"`
	// Icon is the backend icon path.
	Icon string `json:"icon"`
	// MetaModels marks layer types whose data comes from a metamodel.
	MetaModels bool       `json:"metamodels"`
	BoundsMode BoundsMode `json:"boundsMode"`
}

// RegisteredRenderer holds the compiled Go parts of a renderer kind.
type RegisteredRenderer struct {
	// NewConfig returns a pointer to the struct the renderer block is decoded into.
	NewConfig func() any
	// ConfigType is the type NewConfig points to.
	ConfigType reflect.Type
	// New builds the renderer from the decoded configuration.
	New func(deps renderer.Deps, cfg any) (renderer.Renderer, error)
}

// Registry holds the layer types and renderer kinds for a single
// application instance.
type Registry struct {
	layerTypes map[string]*LayerType
	renderers  map[string]*RegisteredRenderer
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		layerTypes: make(map[string]*LayerType),
		renderers:  make(map[string]*RegisteredRenderer),
	}
}

// RegisterLayerType inserts the descriptor of a layer type. Registering the
// same name twice is a programming error and panics.
func (r *Registry) RegisterLayerType(name string, lt *LayerType) {
	if _, exists := r.layerTypes[name]; exists {
		panic(fmt.Sprintf("layer type '%s' already registered", name))
	}
	slog.Debug("Registering layer type.", "name", name, "metamodels", lt.MetaModels)
	r.layerTypes[name] = lt
}

// RegisterRenderer registers the factory of a renderer kind.
func (r *Registry) RegisterRenderer(kind string, handler *RegisteredRenderer) {
	if _, exists := r.renderers[kind]; exists {
		panic(fmt.Sprintf("renderer kind '%s' already registered", kind))
	}
	if handler.NewConfig == nil || handler.New == nil {
		panic(fmt.Sprintf("renderer kind '%s' is missing its config or constructor", kind))
	}
	slog.Debug("Registering renderer kind.", "kind", kind)
	r.renderers[kind] = handler
}

// LayerType returns the descriptor registered under name.
func (r *Registry) LayerType(name string) (LayerType, bool) {
	lt, ok := r.layerTypes[name]
	if !ok {
		return LayerType{}, false
	}
	return *lt, true
}

// LayerTypes returns a copy of all registered layer type descriptors.
func (r *Registry) LayerTypes() map[string]LayerType {
	out := make(map[string]LayerType, len(r.layerTypes))
	for name, lt := range r.layerTypes {
		out[name] = *lt
	}
	return out
}

// LayerTypeNames returns the registered layer type names in sorted order.
func (r *Registry) LayerTypeNames() []string {
	return sortedKeys(r.layerTypes)
}

// Renderer returns the factory registered for kind.
func (r *Registry) Renderer(kind string) (*RegisteredRenderer, bool) {
	h, ok := r.renderers[kind]
	return h, ok
}

// RendererKinds returns the registered renderer kinds in sorted order.
func (r *Registry) RendererKinds() []string {
	return sortedKeys(r.renderers)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
