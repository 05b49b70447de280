package config

import (
	"github.com/vk/buildforge/internal/expr"
)

// Model is the unified, format-agnostic representation of everything a
// declaration frontend loaded: all target and preset declarations, in the
// order they were declared.
type Model struct {
	Targets []*Target
	Presets []*Preset
}

// Kind classifies a target.
type Kind string

const (
	// Executable is a linkable program.
	Executable Kind = "executable"

	// StaticLibrary is an archived object artifact consumed at link time.
	StaticLibrary Kind = "static-library"

	// InterfaceOnly carries usage requirements but produces no artifact and
	// may declare no sources.
	InterfaceOnly Kind = "interface-only"
)

// Valid reports whether k is one of the declared target kinds.
func (k Kind) Valid() bool {
	switch k {
	case Executable, StaticLibrary, InterfaceOnly:
		return true
	}
	return false
}

// Requirements is one visibility-scoped set of usage requirements. Entry
// order is the declaration order and is significant: later same-key compile
// definitions override earlier ones in downstream tools.
type Requirements struct {
	IncludePaths []expr.Entry
	Definitions  []expr.Entry
	Options      []expr.Entry

	// Links are dependency edges to other target names.
	Links []string
}

// Target is the format-agnostic representation of a `target` block.
//
// The three requirement sets follow the visibility rule: Private is consumed
// by the target only, Public by the target and its consumers, Interface by
// consumers only.
type Target struct {
	Name    string
	Kind    Kind
	Sources []string

	Private   Requirements
	Public    Requirements
	Interface Requirements
}

// Preset is the format-agnostic representation of a `preset` block: a named
// bundle of build-context overrides with optional single inheritance.
type Preset struct {
	Name     string
	Inherits string
	Values   map[string]string
}
