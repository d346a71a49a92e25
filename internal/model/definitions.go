// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Definitions, the root container for everything loaded
// from a user's .hcl files, and the loader that discovers and merges them.
//
// Users are free to split metamodels and layers across files and
// directories. Names are global to the whole definitions path, so a layer in
// one file may reference a metamodel declared in another.
package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
	"github.com/specialistvlad/leafletmm/internal/fsutil"
	"github.com/specialistvlad/leafletmm/internal/record"
)

// Definitions holds all metamodels and layers of a workspace.
type Definitions struct {
	MetaModels map[string]*record.MetaModel
	Layers     map[string]*Layer

	// Sources maps metamodel names to the file that declared them.
	Sources map[string]*FSInfo
}

// NewDefinitions returns an empty Definitions.
func NewDefinitions() *Definitions {
	return &Definitions{
		MetaModels: make(map[string]*record.MetaModel),
		Layers:     make(map[string]*Layer),
		Sources:    make(map[string]*FSInfo),
	}
}

// LayerIDs returns the layer identifiers in sorted order.
func (d *Definitions) LayerIDs() []string {
	ids := make([]string, 0, len(d.Layers))
	for id := range d.Layers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// hclDefinitionsFile represents the top-level structure of a definitions file.
type hclDefinitionsFile struct {
	MetaModels []*hclMetaModel `hcl:"metamodel,block"`
	Layers     []*hclLayer     `hcl:"layer,block"`
}

// Load finds and parses every .hcl file below the given paths.
func Load(ctx context.Context, fsys afero.Fs, paths ...string) (*Definitions, error) {
	logger := ctxlog.FromContext(ctx)

	defs := NewDefinitions()
	parser := hclparse.NewParser()

	for _, root := range paths {
		logger.Debug("Loading definitions from path", "path", root)

		files, err := fsutil.FindFilesByExtension(fsys, root, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to find definition files in %s: %w", root, err)
		}
		if len(files) == 0 {
			logger.Warn("No .hcl definition files found in path", "path", root)
			continue
		}

		for _, filePath := range files {
			src, err := afero.ReadFile(fsys, filePath)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
			}
			if err := defs.parseFile(ctx, parser, src, filePath); err != nil {
				return nil, err
			}
			logger.Debug("Successfully loaded definitions from HCL file", "file", filePath)
		}
	}

	logger.Info("Definitions loaded successfully.", "metamodels", len(defs.MetaModels), "layers", len(defs.Layers))
	return defs, nil
}

// Parse parses a single definitions document held in memory.
func Parse(ctx context.Context, src []byte, filename string) (*Definitions, error) {
	defs := NewDefinitions()
	if err := defs.parseFile(ctx, hclparse.NewParser(), src, filename); err != nil {
		return nil, err
	}
	return defs, nil
}

func (d *Definitions) parseFile(ctx context.Context, parser *hclparse.Parser, src []byte, filePath string) error {
	hclFile, diags := parser.ParseHCL(src, filePath)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsed hclDefinitionsFile
	diags = gohcl.DecodeBody(hclFile.Body, EvalContext(), &parsed)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}

	var allDiags hcl.Diagnostics
	for _, mm := range parsed.MetaModels {
		if prev, exists := d.Sources[mm.Name]; exists {
			allDiags = append(allDiags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate metamodel definition",
				Detail:   fmt.Sprintf("A metamodel named '%s' has already been defined in %s.", mm.Name, prev.FilePath),
				Subject:  mm.DefRange.Ptr(),
			})
			continue
		}
		model, mmDiags := newMetaModelFromHCL(ctx, mm)
		allDiags = append(allDiags, mmDiags...)
		if mmDiags.HasErrors() {
			continue
		}
		d.MetaModels[mm.Name] = model
		d.Sources[mm.Name] = NewFSInfo(filePath)
	}

	for _, l := range parsed.Layers {
		if prev, exists := d.Layers[l.ID]; exists {
			allDiags = append(allDiags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate layer definition",
				Detail:   fmt.Sprintf("A layer named '%s' has already been defined in %s.", l.ID, prev.FSInformation.FilePath),
				Subject:  l.DefRange.Ptr(),
			})
			continue
		}
		d.Layers[l.ID] = newLayerFromHCL(l, filePath)
	}

	if allDiags.HasErrors() {
		return fmt.Errorf("invalid definitions in %s: %w", filePath, allDiags)
	}
	return nil
}
