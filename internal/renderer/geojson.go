// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
	"github.com/specialistvlad/leafletmm/internal/fsutil"
	"github.com/specialistvlad/leafletmm/internal/geojson"
	"github.com/specialistvlad/leafletmm/internal/record"
)

// ValueKind tells how a GeoJSON attribute stores its data.
type ValueKind int

const (
	// KindDirectValue attributes hold the GeoJSON text in their column.
	KindDirectValue ValueKind = iota
	// KindFileReference attributes hold paths to GeoJSON files.
	KindFileReference
)

func (k ValueKind) String() string {
	switch k {
	case KindDirectValue:
		return "direct_value"
	case KindFileReference:
		return "file_reference"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// KindOf selects the value kind for an attribute.
func KindOf(attr *record.Attribute) ValueKind {
	if attr.IsFile() {
		return KindFileReference
	}
	return KindDirectValue
}

// GeoJSONConfig is the body of a `renderer "geojson"` block.
type GeoJSONConfig struct {
	GeoJSONAttribute string `hcl:"geojson_attribute"`
	Deferred         bool   `hcl:"deferred,optional"`
}

// GeoJSONRenderer resolves an item's GeoJSON attribute into static
// features, either straight from the attribute value or from the files the
// attribute references.
type GeoJSONRenderer struct {
	layerID string
	cfg     GeoJSONConfig
	fs      afero.Fs
	rootDir string
}

var (
	_ Renderer         = (*GeoJSONRenderer)(nil)
	_ AttributeChecker = (*GeoJSONRenderer)(nil)
)

// NewGeoJSON creates a GeoJSONRenderer. A nil Fs in deps means the OS file
// system and an empty RootDir means the working directory.
func NewGeoJSON(deps Deps, cfg GeoJSONConfig) (*GeoJSONRenderer, error) {
	if cfg.GeoJSONAttribute == "" {
		return nil, fmt.Errorf("layer '%s': %w: geojson_attribute must not be empty", deps.LayerID, ErrInvalidConfig)
	}
	fsys := deps.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	rootDir := deps.RootDir
	if rootDir == "" {
		rootDir = "."
	}
	return &GeoJSONRenderer{
		layerID: deps.LayerID,
		cfg:     cfg,
		fs:      fsys,
		rootDir: rootDir,
	}, nil
}

// Config returns the renderer's configuration.
func (r *GeoJSONRenderer) Config() GeoJSONConfig {
	return r.cfg
}

// CheckAttributes reports a geojson_attribute the metamodel does not declare.
func (r *GeoJSONRenderer) CheckAttributes(m *record.MetaModel) error {
	if _, ok := m.Attribute(r.cfg.GeoJSONAttribute); !ok {
		return fmt.Errorf("%w: geojson_attribute '%s' is not declared by metamodel '%s'", ErrAttributeNotFound, r.cfg.GeoJSONAttribute, m.Name)
	}
	return nil
}

// LoadData appends the item's GeoJSON features to fc when the renderer takes
// part in the requested pass.
func (r *GeoJSONRenderer) LoadData(ctx context.Context, item record.Item, fc *geojson.FeatureCollection, req Request) error {
	logger := ctxlog.FromContext(ctx).With("layer", r.layerID, "item", item.ID())

	if !passMatches(r.cfg.Deferred, req.Deferred) {
		logger.Debug("Renderer does not take part in this pass.", "configured_deferred", r.cfg.Deferred, "deferred_pass", req.Deferred)
		return nil
	}

	attr, ok := item.Attribute(r.cfg.GeoJSONAttribute)
	if !ok {
		return fmt.Errorf("layer '%s', item '%s': %w: geojson_attribute '%s'", r.layerID, item.ID(), ErrAttributeNotFound, r.cfg.GeoJSONAttribute)
	}

	kind := KindOf(attr)
	logger.Debug("Resolving GeoJSON attribute.", "attribute", attr.Name, "kind", kind.String())

	switch kind {
	case KindFileReference:
		return r.loadFromFiles(ctx, item, attr, fc)
	default:
		return r.loadFromValue(logger, item, attr, fc)
	}
}

func (r *GeoJSONRenderer) loadFromValue(logger *slog.Logger, item record.Item, attr *record.Attribute, fc *geojson.FeatureCollection) error {
	v, err := item.Get(attr.ColumnName)
	if err != nil {
		return fmt.Errorf("layer '%s': failed to read attribute '%s': %w", r.layerID, attr.Name, err)
	}
	content, err := record.AsString(v)
	if err != nil {
		return fmt.Errorf("layer '%s', item '%s', attribute '%s': %w", r.layerID, item.ID(), attr.Name, err)
	}
	if strings.TrimSpace(content) == "" {
		logger.Warn("GeoJSON attribute is empty, appending null feature.", "attribute", attr.Name)
	}
	fc.AddFeature(geojson.NewStaticFeature(content))
	return nil
}

func (r *GeoJSONRenderer) loadFromFiles(ctx context.Context, item record.Item, attr *record.Attribute, fc *geojson.FeatureCollection) error {
	logger := ctxlog.FromContext(ctx)

	value, err := item.ParseAttribute(attr.Name)
	if err != nil {
		return fmt.Errorf("layer '%s': failed to parse attribute '%s': %w", r.layerID, attr.Name, err)
	}

	paths := value.Paths()
	if len(paths) == 0 {
		logger.Debug("File attribute references no files.", "layer", r.layerID, "item", item.ID(), "attribute", attr.Name)
		return nil
	}

	for _, rel := range paths {
		full := fsutil.JoinRoot(r.rootDir, rel)
		data, exists, err := fsutil.ReadIfExists(r.fs, full)
		if err != nil {
			return fmt.Errorf("layer '%s', item '%s': failed to read '%s': %w", r.layerID, item.ID(), full, err)
		}
		if !exists {
			logger.Debug("Skipping missing GeoJSON file.", "layer", r.layerID, "item", item.ID(), "path", full)
			continue
		}
		fc.AddFeature(geojson.NewStaticFeature(string(data)))
	}
	return nil
}
