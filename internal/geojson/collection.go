// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package geojson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// FeatureCollection is an ordered, append-only group of features that are
// rendered together. Appends are serialised, so several resolutions may
// target the same collection.
type FeatureCollection struct {
	mu       sync.Mutex
	features []Feature
}

// NewFeatureCollection returns an empty collection.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{}
}

// AddFeature appends f to the end of the collection.
func (c *FeatureCollection) AddFeature(f Feature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.features = append(c.features, f)
}

// Features returns a snapshot of the features in append order.
func (c *FeatureCollection) Features() []Feature {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Feature, len(c.features))
	copy(out, c.features)
	return out
}

// Len reports the number of features appended so far.
func (c *FeatureCollection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.features)
}

// MarshalJSON encodes the collection as a GeoJSON FeatureCollection.
func (c *FeatureCollection) MarshalJSON() ([]byte, error) {
	features := c.Features()

	var buf bytes.Buffer
	buf.WriteString(`{"type":"FeatureCollection","features":[`)
	for i, f := range features {
		raw, err := f.RawJSON()
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(raw)
	}
	buf.WriteString(`]}`)

	// Static payloads are embedded verbatim; compact them so the output is
	// a single well-formed document.
	var out bytes.Buffer
	if err := json.Compact(&out, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to encode feature collection: %w", err)
	}
	return out.Bytes(), nil
}
