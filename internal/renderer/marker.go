// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package renderer

import (
	"context"
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
	"github.com/specialistvlad/leafletmm/internal/geojson"
	"github.com/specialistvlad/leafletmm/internal/record"
)

// MarkerConfig is the body of a `renderer "marker"` block.
type MarkerConfig struct {
	LatitudeAttribute  string `hcl:"latitude_attribute"`
	LongitudeAttribute string `hcl:"longitude_attribute"`
	TitleAttribute     string `hcl:"title_attribute,optional"`
	Deferred           bool   `hcl:"deferred,optional"`
}

// MarkerRenderer places one point per item from a pair of coordinate
// attributes. Items without coordinates are skipped.
type MarkerRenderer struct {
	layerID string
	cfg     MarkerConfig
}

var (
	_ Renderer         = (*MarkerRenderer)(nil)
	_ AttributeChecker = (*MarkerRenderer)(nil)
)

// NewMarker creates a MarkerRenderer.
func NewMarker(deps Deps, cfg MarkerConfig) (*MarkerRenderer, error) {
	if cfg.LatitudeAttribute == "" || cfg.LongitudeAttribute == "" {
		return nil, fmt.Errorf("layer '%s': %w: latitude_attribute and longitude_attribute are required", deps.LayerID, ErrInvalidConfig)
	}
	return &MarkerRenderer{layerID: deps.LayerID, cfg: cfg}, nil
}

// CheckAttributes reports the first configured attribute the metamodel does
// not declare.
func (r *MarkerRenderer) CheckAttributes(m *record.MetaModel) error {
	settings := []struct{ setting, name string }{
		{"latitude_attribute", r.cfg.LatitudeAttribute},
		{"longitude_attribute", r.cfg.LongitudeAttribute},
		{"title_attribute", r.cfg.TitleAttribute},
	}
	for _, s := range settings {
		if s.name == "" {
			continue
		}
		if _, ok := m.Attribute(s.name); !ok {
			return fmt.Errorf("%w: %s '%s' is not declared by metamodel '%s'", ErrAttributeNotFound, s.setting, s.name, m.Name)
		}
	}
	return nil
}

// LoadData appends a point feature for the item.
func (r *MarkerRenderer) LoadData(ctx context.Context, item record.Item, fc *geojson.FeatureCollection, req Request) error {
	if !passMatches(r.cfg.Deferred, req.Deferred) {
		return nil
	}

	lat, latOK, err := r.coordinate(item, r.cfg.LatitudeAttribute)
	if err != nil {
		return err
	}
	lng, lngOK, err := r.coordinate(item, r.cfg.LongitudeAttribute)
	if err != nil {
		return err
	}
	if !latOK || !lngOK {
		ctxlog.FromContext(ctx).Debug("Item has no coordinates, skipping marker.", "layer", r.layerID, "item", item.ID())
		return nil
	}
	if math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return fmt.Errorf("layer '%s', item '%s': coordinates out of range: lat=%v lng=%v", r.layerID, item.ID(), lat, lng)
	}

	props := map[string]any{}
	if r.cfg.TitleAttribute != "" {
		attr, ok := item.Attribute(r.cfg.TitleAttribute)
		if !ok {
			return r.attributeNotFound(item, "title_attribute", r.cfg.TitleAttribute)
		}
		v, err := item.Get(attr.ColumnName)
		if err != nil {
			return fmt.Errorf("layer '%s': failed to read attribute '%s': %w", r.layerID, attr.Name, err)
		}
		title, err := record.AsString(v)
		if err != nil {
			return fmt.Errorf("layer '%s', item '%s', attribute '%s': %w", r.layerID, item.ID(), attr.Name, err)
		}
		props["title"] = title
	}

	fc.AddFeature(geojson.PointFeature{
		ID:         item.ID(),
		Latitude:   lat,
		Longitude:  lng,
		Properties: props,
	})
	return nil
}

// coordinate reads a numeric attribute. The boolean is false when the item
// holds no value for it.
func (r *MarkerRenderer) coordinate(item record.Item, name string) (float64, bool, error) {
	attr, ok := item.Attribute(name)
	if !ok {
		return 0, false, r.attributeNotFound(item, "coordinate attribute", name)
	}
	v, err := item.Get(attr.ColumnName)
	if err != nil {
		return 0, false, fmt.Errorf("layer '%s': failed to read attribute '%s': %w", r.layerID, name, err)
	}
	if v.IsNull() {
		return 0, false, nil
	}
	if !v.IsWhollyKnown() {
		return 0, false, fmt.Errorf("layer '%s', item '%s': attribute '%s' is not known", r.layerID, item.ID(), name)
	}
	if v.Type().Equals(cty.String) && v.AsString() == "" {
		return 0, false, nil
	}

	num, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, false, fmt.Errorf("layer '%s', item '%s': attribute '%s' is not a number: %w", r.layerID, item.ID(), name, err)
	}
	f, _ := num.AsBigFloat().Float64()
	return f, true, nil
}

func (r *MarkerRenderer) attributeNotFound(item record.Item, setting, name string) error {
	return fmt.Errorf("layer '%s', item '%s': %w: %s '%s'", r.layerID, item.ID(), ErrAttributeNotFound, setting, name)
}
