// Package registry provides the central "glue" between map layer types and
// the Go code that renders them.
//
// The Registry stores the descriptors of the layer types the map subsystem
// knows about (e.g., "metamodels") and the renderer factories a layer
// definition can reference by kind (e.g., "geojson"). Modules populate it
// once at startup through Module.Register; afterwards it is only read.
//
// The registry is an explicit value owned by the App and handed to the
// mapper and the HTTP server. Nothing registers into package-level state.
package registry
