// Package resolve implements transitive, visibility-qualified propagation of
// usage requirements across the target dependency graph.
//
// For a target T, exported(T) is what T's consumers inherit and effective(T)
// is what T itself compiles with:
//
//   - private requirements are consumed by T only and never exported
//   - public requirements are consumed by T and exported to its consumers
//   - interface requirements are exported only; T itself never sees them
//
// Propagation follows a memoized post-order traversal: each target's sets
// are computed exactly once regardless of fan-in, and a traversal that
// revisits a target currently on the active path fails with CycleError
// naming the full cycle.
package resolve
