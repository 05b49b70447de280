package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/buildforge/internal/config"
	"github.com/vk/buildforge/internal/ctxlog"
	"github.com/vk/buildforge/internal/preset"
	"github.com/vk/buildforge/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	presets  *preset.Store
}

// NewApp is the constructor for the main application. It loads all
// declarations through the given loader and returns a fully initialized App
// with a populated registry and preset store. Logs go to logW; the resolved
// plan is the only thing ever written to outW.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.DeclPath)
	if err != nil {
		// A failure to load declarations is a fatal startup error.
		panic(fmt.Errorf("failed to load declarations: %w", err))
	}
	logger.Debug("Declarations loaded and translated into unified model.")

	reg := registry.New()
	for _, t := range model.Targets {
		if err := reg.Register(t); err != nil {
			panic(fmt.Errorf("failed to register target: %w", err))
		}
	}
	logger.Debug("Targets registered.", "count", reg.Len())

	presets := preset.NewStore()
	for _, p := range model.Presets {
		if err := presets.Register(p); err != nil {
			panic(fmt.Errorf("failed to register preset: %w", err))
		}
	}
	logger.Debug("Presets registered.", "count", len(model.Presets))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		presets:  presets,
	}
}

// Registry returns the application's target registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Presets returns the application's preset store. This is primarily for testing.
func (a *App) Presets() *preset.Store {
	return a.presets
}
