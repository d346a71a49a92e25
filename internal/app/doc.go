// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run modes (rendering a layer, listing
// layers and layer types, serving layer data over HTTP), decoupled from any
// specific entrypoint like a CLI.
package app
