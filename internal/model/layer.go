// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Layer, a single map layer definition, and its renderer
// blocks.
//
// A layer's `type` selects a layer type registered in the registry. For data
// driven layers (`metamodels`) the layer names the metamodel it draws items
// from and lists the renderers that turn those items into features. The
// renderer bodies are validated later against the config struct of the
// registered renderer kind.
package model

import (
	"github.com/hashicorp/hcl/v2"
)

// Layer is the format-agnostic representation of a `layer` block.
type Layer struct {
	ID            string
	Type          string
	Title         string
	MetaModel     string
	Renderers     []*RendererBlock
	FSInformation *FSInfo
	DefRange      hcl.Range
}

// RendererBlock is a `renderer` block whose body is decoded once the kind is known.
type RendererBlock struct {
	Kind     string
	Body     hcl.Body
	DefRange hcl.Range
}

// hclLayer represents a single 'layer' block for decoding purposes.
type hclLayer struct {
	ID        string         `hcl:"id,label"`
	Type      string         `hcl:"type"`
	Title     string         `hcl:"title,optional"`
	MetaModel string         `hcl:"metamodel,optional"`
	Renderers []*hclRenderer `hcl:"renderer,block"`
	DefRange  hcl.Range      `hcl:",def_range"`
}

type hclRenderer struct {
	Kind     string    `hcl:"kind,label"`
	Body     hcl.Body  `hcl:",remain"`
	DefRange hcl.Range `hcl:",def_range"`
}

func newLayerFromHCL(l *hclLayer, filePath string) *Layer {
	layer := &Layer{
		ID:            l.ID,
		Type:          l.Type,
		Title:         l.Title,
		MetaModel:     l.MetaModel,
		Renderers:     make([]*RendererBlock, 0, len(l.Renderers)),
		FSInformation: NewFSInfo(filePath),
		DefRange:      l.DefRange,
	}
	if layer.Title == "" {
		layer.Title = l.ID
	}
	for _, r := range l.Renderers {
		layer.Renderers = append(layer.Renderers, &RendererBlock{
			Kind:     r.Kind,
			Body:     r.Body,
			DefRange: r.DefRange,
		})
	}
	return layer
}
