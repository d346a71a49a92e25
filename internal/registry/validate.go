package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
	"github.com/specialistvlad/leafletmm/internal/model"
)

// ValidateRegistry checks that every registered renderer's Go config struct
// can be decoded from a renderer block and exposes the `deferred` setting
// the pass gate relies on.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, kind := range r.RendererKinds() {
		h := r.renderers[kind]
		cfgType := h.ConfigType
		if cfgType == nil {
			cfgType = reflect.TypeOf(h.NewConfig())
		}
		if cfgType.Kind() == reflect.Pointer {
			cfgType = cfgType.Elem()
		}
		if cfgType.Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("renderer '%s': config type %s is not a struct", kind, cfgType))
			continue
		}

		if got := reflect.TypeOf(h.NewConfig()); got != reflect.PointerTo(cfgType) {
			errs = append(errs, fmt.Sprintf("renderer '%s': NewConfig returns %s, want *%s", kind, got, cfgType))
		}

		tags := make(map[string]reflect.StructField)
		for i := 0; i < cfgType.NumField(); i++ {
			field := cfgType.Field(i)
			if !field.IsExported() {
				continue
			}
			tagName := strings.Split(field.Tag.Get("hcl"), ",")[0]
			if tagName != "" {
				tags[tagName] = field
			}
		}

		deferred, ok := tags["deferred"]
		if !ok {
			errs = append(errs, fmt.Sprintf("renderer '%s': config struct has no 'deferred' field", kind))
			continue
		}
		if deferred.Type.Kind() != reflect.Bool {
			errs = append(errs, fmt.Sprintf("renderer '%s': 'deferred' must be a bool, found %s", kind, deferred.Type))
		}
		logger.Debug("Renderer kind validated.", "kind", kind, "settings", len(tags))
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateDefinitions performs a parity check between the loaded layer
// definitions and what is registered: every layer type and renderer kind
// must exist, and metamodel layers must name a declared metamodel.
func (r *Registry) ValidateDefinitions(ctx context.Context, defs *model.Definitions) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, id := range defs.LayerIDs() {
		layer := defs.Layers[id]
		where := fmt.Sprintf("layer '%s' (%s)", id, layer.FSInformation.FilePath)

		lt, ok := r.LayerType(layer.Type)
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown layer type '%s'", where, layer.Type))
			continue
		}

		if !lt.MetaModels {
			if layer.MetaModel != "" || len(layer.Renderers) > 0 {
				logger.Warn("Layer type does not draw from metamodels; metamodel and renderers are ignored.", "layer", id, "type", layer.Type)
			}
			continue
		}

		if layer.MetaModel == "" {
			errs = append(errs, fmt.Sprintf("%s: layer type '%s' requires a metamodel", where, layer.Type))
		} else if _, ok := defs.MetaModels[layer.MetaModel]; !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown metamodel '%s'", where, layer.MetaModel))
		}

		if len(layer.Renderers) == 0 {
			logger.Warn("Metamodel layer has no renderers and will always be empty.", "layer", id)
		}
		for _, rb := range layer.Renderers {
			if _, ok := r.Renderer(rb.Kind); !ok {
				errs = append(errs, fmt.Sprintf("%s: unknown renderer kind '%s'", where, rb.Kind))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("definition validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
