// Package plan generates the ordered build plan: requested targets plus
// their transitive dependencies, topologically ordered with declaration
// order breaking ties, each entry carrying the concrete flags obtained by
// evaluating its propagated requirements against one build context. The
// emitted sequence is what an external toolchain invoker consumes; this
// package never touches a filesystem or process.
package plan
