// Package mapper builds the feature collections of map layers.
//
// A Mapper is created once from the loaded definitions and the registry.
// Creation decodes every renderer block against the config struct of its
// registered kind, builds the renderers and checks the attributes they name
// against the layer's metamodel, so configuration mistakes are reported at
// startup instead of during a rendering pass.
package mapper

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/spf13/afero"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
	"github.com/specialistvlad/leafletmm/internal/geojson"
	"github.com/specialistvlad/leafletmm/internal/model"
	"github.com/specialistvlad/leafletmm/internal/record"
	"github.com/specialistvlad/leafletmm/internal/registry"
	"github.com/specialistvlad/leafletmm/internal/renderer"
)

// ErrLayerNotFound is returned for layer ids that are not defined.
var ErrLayerNotFound = errors.New("layer not found")

// Options configure how renderers access referenced files.
type Options struct {
	// Fs is the file system file references are read from. Defaults to the OS.
	Fs afero.Fs
	// RootDir is the directory relative file references resolve against.
	RootDir string
}

// LayerInfo describes a layer for listings.
type LayerInfo struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Type      string             `json:"type"`
	MetaModel string             `json:"metamodel,omitempty"`
	Renderers []string           `json:"renderers,omitempty"`
	LayerType registry.LayerType `json:"layerType"`
}

// Mapper resolves layers into feature collections.
type Mapper struct {
	registry *registry.Registry
	layers   map[string]*builtLayer
	order    []string
}

type builtLayer struct {
	def       *model.Layer
	layerType registry.LayerType
	metamodel *record.MetaModel
	renderers []renderer.Renderer
}

// New validates defs against reg and builds all renderers.
func New(ctx context.Context, reg *registry.Registry, defs *model.Definitions, opts Options) (*Mapper, error) {
	logger := ctxlog.FromContext(ctx)

	if err := reg.ValidateDefinitions(ctx, defs); err != nil {
		return nil, err
	}

	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	m := &Mapper{
		registry: reg,
		layers:   make(map[string]*builtLayer, len(defs.Layers)),
		order:    defs.LayerIDs(),
	}

	for _, id := range m.order {
		def := defs.Layers[id]
		lt, _ := reg.LayerType(def.Type)
		bl := &builtLayer{def: def, layerType: lt}

		if lt.MetaModels {
			bl.metamodel = defs.MetaModels[def.MetaModel]
			deps := renderer.Deps{LayerID: id, Fs: fsys, RootDir: opts.RootDir}
			for _, rb := range def.Renderers {
				r, err := buildRenderer(reg, rb, deps)
				if err == nil && bl.metamodel != nil {
					if ac, ok := r.(renderer.AttributeChecker); ok {
						err = ac.CheckAttributes(bl.metamodel)
					}
				}
				if err != nil {
					return nil, fmt.Errorf("layer '%s' (%s): %w", id, def.FSInformation.FilePath, err)
				}
				bl.renderers = append(bl.renderers, r)
			}
		}

		m.layers[id] = bl
		logger.Debug("Layer prepared.", "layer", id, "type", def.Type, "renderers", len(bl.renderers))
	}

	return m, nil
}

func buildRenderer(reg *registry.Registry, rb *model.RendererBlock, deps renderer.Deps) (renderer.Renderer, error) {
	h, ok := reg.Renderer(rb.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown renderer kind '%s'", rb.Kind)
	}
	cfg := h.NewConfig()
	if diags := gohcl.DecodeBody(rb.Body, model.EvalContext(), cfg); diags.HasErrors() {
		return nil, fmt.Errorf("invalid '%s' renderer: %w", rb.Kind, diags)
	}
	r, err := h.New(deps, cfg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Layers lists all layers in id order.
func (m *Mapper) Layers() []LayerInfo {
	out := make([]LayerInfo, 0, len(m.order))
	for _, id := range m.order {
		bl := m.layers[id]
		info := LayerInfo{
			ID:        id,
			Title:     bl.def.Title,
			Type:      bl.def.Type,
			MetaModel: bl.def.MetaModel,
			LayerType: bl.layerType,
		}
		if bl.layerType.MetaModels {
			for _, rb := range bl.def.Renderers {
				info.Renderers = append(info.Renderers, rb.Kind)
			}
		}
		out = append(out, info)
	}
	return out
}

// Layer returns the listing entry of a single layer.
func (m *Mapper) Layer(id string) (LayerInfo, bool) {
	for _, info := range m.Layers() {
		if info.ID == id {
			return info, true
		}
	}
	return LayerInfo{}, false
}

// LoadLayer builds the feature collection of a layer for one pass.
func (m *Mapper) LoadLayer(ctx context.Context, id string, deferred bool) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	if err := m.LoadInto(ctx, id, fc, deferred); err != nil {
		return nil, err
	}
	return fc, nil
}

// LoadInto runs every renderer of the layer over every item of its
// metamodel, appending to fc. Layers of types without metamodel data add
// nothing.
func (m *Mapper) LoadInto(ctx context.Context, id string, fc *geojson.FeatureCollection, deferred bool) error {
	bl, ok := m.layers[id]
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrLayerNotFound, id)
	}

	logger := ctxlog.FromContext(ctx).With("layer", id, "deferred", deferred)
	if !bl.layerType.MetaModels || bl.metamodel == nil {
		logger.Debug("Layer has no metamodel data.")
		return nil
	}

	ctx = ctxlog.WithLogger(ctx, logger)
	req := renderer.Request{Deferred: deferred, ParentID: id, Mapper: m}
	before := fc.Len()

	for _, item := range bl.metamodel.Items() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, r := range bl.renderers {
			if err := r.LoadData(ctx, item, fc, req); err != nil {
				return err
			}
		}
	}

	logger.Debug("Layer resolved.", "features_added", fc.Len()-before)
	return nil
}
