// Package hcl implements the HCL declaration frontend. It discovers and
// parses declaration files, evaluates the condition constructor functions
// (eq, all, any, not, when) into the closed expression type, and translates
// everything into the format-agnostic config model. The resolution core
// never sees HCL.
package hcl
