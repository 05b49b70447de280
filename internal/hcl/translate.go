package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/buildforge/internal/config"
	"github.com/vk/buildforge/internal/schema"
)

// translateTarget converts the HCL-specific target schema into the agnostic
// model, evaluating requirement lists into concrete entries.
func (l *Loader) translateTarget(s *schema.Target, evalCtx *hcl.EvalContext) (*config.Target, error) {
	t := &config.Target{
		Name:    s.Name,
		Kind:    config.Kind(s.Kind),
		Sources: s.Sources,
	}

	var err error
	if t.Private, err = l.translateRequirements(s.Private, evalCtx); err != nil {
		return nil, fmt.Errorf("target %q: private: %w", s.Name, err)
	}
	if t.Public, err = l.translateRequirements(s.Public, evalCtx); err != nil {
		return nil, fmt.Errorf("target %q: public: %w", s.Name, err)
	}
	if t.Interface, err = l.translateRequirements(s.Interface, evalCtx); err != nil {
		return nil, fmt.Errorf("target %q: interface: %w", s.Name, err)
	}
	return t, nil
}

// translateRequirements converts one visibility block. A missing block
// yields an empty requirement set.
func (l *Loader) translateRequirements(b *schema.Requirements, evalCtx *hcl.EvalContext) (config.Requirements, error) {
	var req config.Requirements
	if b == nil {
		return req, nil
	}

	var err error
	if req.IncludePaths, err = entryList(b.IncludePaths, evalCtx); err != nil {
		return req, fmt.Errorf("include_paths: %w", err)
	}
	if req.Definitions, err = entryList(b.Definitions, evalCtx); err != nil {
		return req, fmt.Errorf("definitions: %w", err)
	}
	if req.Options, err = entryList(b.Options, evalCtx); err != nil {
		return req, fmt.Errorf("compile_options: %w", err)
	}
	req.Links = b.Link
	return req, nil
}

// translatePreset converts the HCL-specific preset schema into the agnostic
// model.
func (l *Loader) translatePreset(s *schema.Preset) *config.Preset {
	return &config.Preset{
		Name:     s.Name,
		Inherits: s.Inherits,
		Values:   s.Values,
	}
}
