// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package geojson provides the feature values that renderers append to a
// layer's FeatureCollection and the encoding of that collection to GeoJSON.
//
// Features are deliberately thin. A StaticFeature carries a GeoJSON payload
// that was produced elsewhere (an attribute value or a file on disk) and is
// written out verbatim; a PointFeature is built from coordinates.
package geojson

import (
	"encoding/json"
	"fmt"
	"strings"

	gj "github.com/paulmach/go.geojson"
)

// Feature is a single geospatial object that can be encoded into a
// FeatureCollection.
type Feature interface {
	// RawJSON returns the GeoJSON encoding of the feature.
	RawJSON() (json.RawMessage, error)
}

// StaticFeature wraps a raw GeoJSON payload. The payload is not parsed or
// validated when the feature is created.
type StaticFeature struct {
	content string
}

// NewStaticFeature creates a StaticFeature around content.
func NewStaticFeature(content string) StaticFeature {
	return StaticFeature{content: content}
}

// Content returns the wrapped payload unchanged.
func (f StaticFeature) Content() string {
	return f.content
}

// RawJSON returns the payload. An empty or whitespace-only payload encodes
// as JSON null.
func (f StaticFeature) RawJSON() (json.RawMessage, error) {
	trimmed := strings.TrimSpace(f.content)
	if trimmed == "" {
		return json.RawMessage("null"), nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("static feature payload is not valid JSON: %.40q", trimmed)
	}
	return json.RawMessage(trimmed), nil
}

// String returns the wrapped payload.
func (f StaticFeature) String() string {
	return f.content
}

// PointFeature is a GeoJSON Feature with a Point geometry.
type PointFeature struct {
	ID         string
	Longitude  float64
	Latitude   float64
	Properties map[string]any
}

// RawJSON encodes the point in [longitude, latitude] order.
func (f PointFeature) RawJSON() (json.RawMessage, error) {
	feature := gj.NewPointFeature([]float64{f.Longitude, f.Latitude})
	if f.ID != "" {
		feature.ID = f.ID
	}
	for k, v := range f.Properties {
		feature.SetProperty(k, v)
	}

	b, err := feature.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode point feature %q: %w", f.ID, err)
	}
	return b, nil
}
