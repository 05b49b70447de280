package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/buildforge/internal/config"
	"github.com/vk/buildforge/internal/ctxlog"
	"github.com/vk/buildforge/internal/fsutil"
	"github.com/vk/buildforge/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL declaration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire declaration loading process: file discovery,
// parsing, and translation into the format-agnostic model. Declarations keep
// their file order; files are visited in sorted path order.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	var files []string
	for _, path := range paths {
		found, err := fsutil.FindByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered declaration files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()
	evalCtx := evalContext()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root schema.File
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		for _, tb := range root.Targets {
			t, err := l.translateTarget(tb, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Targets = append(model.Targets, t)
		}
		for _, pb := range root.Presets {
			model.Presets = append(model.Presets, l.translatePreset(pb))
		}
	}

	logger.Debug("Declarations translated into unified model.",
		"targets", len(model.Targets), "presets", len(model.Presets))
	return model, nil
}
