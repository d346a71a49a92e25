// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go representation of the leafletmm HCL
// definition files. Its purpose is to turn the user's `metamodel` and `layer`
// blocks into a strongly-typed, in-memory model before anything is rendered.
//
// # Core Concepts
//
//   - Definitions: The root container aggregating every block found in one or
//     more .hcl files.
//
//   - MetaModel: A named schema of typed attributes plus the items that hold
//     values for them. Parsed into record.MetaModel.
//
//   - Layer: A map layer of a registered layer type. A `metamodels` layer names
//     a metamodel and carries one or more `renderer` blocks whose bodies stay
//     undecoded until the renderer kind is known.
//
//   - FSInfo: Metadata linking every definition back to its source file for
//     error reporting.
//
// An example file:
//
//	metamodel "stores" {
//	  attribute "geo" {
//	    type   = "file"
//	    column = "geo_file"
//	  }
//	  item "berlin" {
//	    geo_file = ["uploads/berlin.geojson"]
//	  }
//	}
//
//	layer "stores" {
//	  type      = "metamodels"
//	  metamodel = "stores"
//	  renderer "geojson" {
//	    geojson_attribute = "geo"
//	    deferred          = true
//	  }
//	}
//
// Renderer bodies stay hcl.Body until the mapper decodes them against the
// config struct registered for their kind.
package model
