// Package registry holds the target declarations for a single resolution
// run. It is populated once during loading and only read afterwards.
package registry
