package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/buildforge/internal/buildctx"
	"github.com/vk/buildforge/internal/ctxlog"
	"github.com/vk/buildforge/internal/plan"
	"github.com/vk/buildforge/internal/resolve"
)

// Run executes one resolution: preset resolution, requirement propagation,
// plan generation, and finally the JSON plan written to the output writer.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	bctx, err := buildctx.New(nil)
	if err != nil {
		return err
	}
	if appConfig.Preset != "" {
		bctx, err = a.presets.Resolve(appConfig.Preset)
		if err != nil {
			return fmt.Errorf("failed to resolve preset: %w", err)
		}
		a.logger.Debug("Preset resolved.", "preset", appConfig.Preset, "context", bctx.String())
	}
	if len(appConfig.Overrides) > 0 {
		bctx, err = bctx.Merge(appConfig.Overrides)
		if err != nil {
			return fmt.Errorf("invalid context override: %w", err)
		}
	}
	a.logger.Info("Build context resolved.", "context", bctx.String())

	names := appConfig.Targets
	if len(names) == 0 {
		a.registry.Names()(func(name string) bool {
			names = append(names, name)
			return true
		})
	}
	if len(names) == 0 {
		a.logger.Warn("No targets declared, nothing to plan.")
		return nil
	}

	resolver := resolve.New(a.registry)
	generator := plan.New(a.registry, resolver, appConfig.Workers)

	entries, err := generator.Generate(ctx, names, bctx)
	if err != nil {
		return fmt.Errorf("plan generation failed: %w", err)
	}
	a.logger.Info("Build plan generated.", "entries", len(entries))

	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode build plan: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
