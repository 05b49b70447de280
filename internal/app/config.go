package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// DeclPath points at a declaration file or a directory of .hcl files.
	DeclPath string

	// Preset names the build-context preset to resolve. Empty means start
	// from an all-unset context.
	Preset string

	// Targets restricts the plan to the named targets and their transitive
	// dependencies. Empty means every registered target.
	Targets []string

	// Overrides are explicit context key/value pairs applied after preset
	// resolution; they win on collision.
	Overrides map[string]string

	LogFormat string
	LogLevel  string
	Workers   int
}

// NewConfig validates a Config and returns it ready for use.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DeclPath == "" {
		return nil, errors.New("DeclPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}
