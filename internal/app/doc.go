// Package app wires the declaration loader, target registry, preset store,
// and plan generator into one application lifecycle: populate once, resolve,
// emit the plan.
package app
