package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Requirements represents one visibility block (`private`, `public` or
// `interface`) within a target. The three list attributes stay as raw
// expressions here: entries may call the condition constructors, so the
// loader evaluates them against the declaration eval context during
// translation.
type Requirements struct {
	IncludePaths hcl.Expression `hcl:"include_paths,optional"`
	Definitions  hcl.Expression `hcl:"definitions,optional"`
	Options      hcl.Expression `hcl:"compile_options,optional"`
	Link         []string       `hcl:"link,optional"`
}

// Target represents a `target` block from a declaration file.
type Target struct {
	Name      string        `hcl:"name,label"`
	Kind      string        `hcl:"kind,label"`
	Sources   []string      `hcl:"sources,optional"`
	Private   *Requirements `hcl:"private,block"`
	Public    *Requirements `hcl:"public,block"`
	Interface *Requirements `hcl:"interface,block"`
}

// Preset represents a `preset` block from a declaration file.
type Preset struct {
	Name     string            `hcl:"name,label"`
	Inherits string            `hcl:"inherits,optional"`
	Values   map[string]string `hcl:"values,optional"`
}

// File represents the top-level structure of a declaration file. Targets
// and presets may be mixed freely across files.
type File struct {
	Targets []*Target `hcl:"target,block"`
	Presets []*Preset `hcl:"preset,block"`
	Body    hcl.Body  `hcl:",remain"`
}
