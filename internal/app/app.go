package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
	"github.com/specialistvlad/leafletmm/internal/mapper"
	"github.com/specialistvlad/leafletmm/internal/model"
	"github.com/specialistvlad/leafletmm/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *Config

	mu     sync.RWMutex
	mapper *mapper.Mapper
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW. It returns a fully initialized App instance,
// including its own isolated logger and registry.
func NewApp(outW, logW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with Go handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	// Validate the integrity of the registry.
	if err := reg.ValidateRegistry(ctx); err != nil {
		// This is a programmer error (mismatch between code and config), so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	a := &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
	}

	m, err := a.buildMapper(ctx)
	if err != nil {
		// A failure to load definitions is a fatal startup error.
		panic(fmt.Errorf("failed to load definitions: %w", err))
	}
	a.mapper = m

	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Mapper returns the mapper built from the current definitions.
func (a *App) Mapper() *mapper.Mapper {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mapper
}

// Reload loads the definitions again. On failure the previous definitions
// stay active.
func (a *App) Reload(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	m, err := a.buildMapper(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload definitions: %w", err)
	}

	a.mu.Lock()
	a.mapper = m
	a.mu.Unlock()

	a.logger.Info("Definitions reloaded.")
	return nil
}

func (a *App) buildMapper(ctx context.Context) (*mapper.Mapper, error) {
	defs, err := model.Load(ctx, a.config.Fs, a.config.DefinitionsPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Definitions loaded into model.", "path", a.config.DefinitionsPath)

	return mapper.New(ctx, a.registry, defs, mapper.Options{
		Fs:      a.config.Fs,
		RootDir: a.config.RootDir,
	})
}
