// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package renderer turns the items of a metamodel into map features.
//
// A Renderer is configured once per layer and then called for every item of
// the layer's metamodel, once for the immediate rendering pass and once for
// the deferred pass that serves lazily loaded layer data. Each renderer
// decides for itself, through its own deferred flag, which of the two passes
// it contributes to.
package renderer

import (
	"context"
	"errors"

	"github.com/spf13/afero"

	"github.com/specialistvlad/leafletmm/internal/geojson"
	"github.com/specialistvlad/leafletmm/internal/record"
)

var (
	// ErrAttributeNotFound means a renderer references an attribute its
	// metamodel does not declare. It is a layer configuration error.
	ErrAttributeNotFound = errors.New("attribute not found")
	// ErrInvalidConfig is returned by renderer constructors for unusable settings.
	ErrInvalidConfig = errors.New("invalid renderer configuration")
)

// Renderer appends the features of one item to a collection.
type Renderer interface {
	LoadData(ctx context.Context, item record.Item, fc *geojson.FeatureCollection, req Request) error
}

// AttributeChecker is implemented by renderers whose settings name
// attributes of the layer's metamodel. CheckAttributes returns an error
// wrapping ErrAttributeNotFound for the first undeclared one.
type AttributeChecker interface {
	CheckAttributes(m *record.MetaModel) error
}

// Request is the context of a single rendering pass.
type Request struct {
	// Deferred is true during the deferred pass.
	Deferred bool
	// ParentID identifies the layer being rendered.
	ParentID string
	// Mapper is the component driving the pass. Renderers pass it through
	// untouched.
	Mapper any
}

// Deps are the environment a renderer is built with.
type Deps struct {
	// LayerID names the layer the renderer belongs to, for error messages.
	LayerID string
	// Fs is the file system file references are read from.
	Fs afero.Fs
	// RootDir is the directory relative file references are resolved against.
	RootDir string
}

// passMatches reports whether a renderer configured for the deferred pass
// (or not) takes part in the given pass.
//
// The table is spelled out case by case and must not be collapsed into a
// single comparison.
//
// TODO: confirm with the layer owners whether a deferred renderer should
// also contribute to the immediate pass (see DESIGN.md, gate question).
func passMatches(configuredDeferred, deferredPass bool) bool {
	switch {
	case !configuredDeferred && !deferredPass:
		return true
	case !configuredDeferred && deferredPass:
		return false
	case configuredDeferred && deferredPass:
		return true
	default:
		return false
	}
}
