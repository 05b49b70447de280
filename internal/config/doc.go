// Package config defines the format-agnostic declaration model shared by
// the declaration frontends and the resolution core. Frontends (HCL today)
// translate their syntax into this model; the core never sees raw text.
package config
