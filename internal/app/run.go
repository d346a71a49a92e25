package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
	"github.com/specialistvlad/leafletmm/internal/server"
	"github.com/specialistvlad/leafletmm/internal/watcher"
)

// RenderLayer resolves one layer for the given pass and writes the feature
// collection to the output.
func (a *App) RenderLayer(ctx context.Context, layerID string, deferred bool) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Rendering layer.", "layer", layerID, "deferred", deferred)

	fc, err := a.Mapper().LoadLayer(ctx, layerID, deferred)
	if err != nil {
		return fmt.Errorf("failed to render layer: %w", err)
	}
	a.logger.Info("🗺️  Layer rendered.", "layer", layerID, "deferred", deferred, "features", fc.Len())
	return a.writeJSON(fc)
}

// ListLayers writes the defined layers to the output.
func (a *App) ListLayers(ctx context.Context) error {
	return a.writeJSON(a.Mapper().Layers())
}

// ListLayerTypes writes the registered layer types to the output.
func (a *App) ListLayerTypes(ctx context.Context) error {
	return a.writeJSON(a.registry.LayerTypes())
}

// Serve runs the layer server until ctx is cancelled. With Watch enabled the
// definitions are reloaded whenever a definition file changes.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Serve method started.")

	if err := a.config.checkWatch(); err != nil {
		return err
	}

	srv := server.New(ctx, a.registry, a.Mapper())

	if a.config.Watch {
		w, err := watcher.New(ctx, watcher.Config{
			Paths:     []string{a.config.DefinitionsPath},
			Extension: ".hcl",
		})
		if err != nil {
			return err
		}
		changes, err := w.Start()
		if err != nil {
			_ = w.Stop()
			return err
		}
		defer func() { _ = w.Stop() }()

		a.logger.Info("👀 Watching definitions for changes.", "path", a.config.DefinitionsPath)
		go a.reloadOnChange(ctx, changes, srv)
	}

	err := srv.ListenAndServe(ctx, a.config.Listen)
	a.logger.Debug("App.Serve method finished.")
	return err
}

func (a *App) reloadOnChange(ctx context.Context, changes <-chan struct{}, srv *server.Server) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			if err := a.Reload(ctx); err != nil {
				a.logger.Error("Keeping previous definitions.", "error", err)
				continue
			}
			srv.SetMapper(a.Mapper())
		}
	}
}

func (a *App) writeJSON(v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if _, err := fmt.Fprintln(a.outW, string(body)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
