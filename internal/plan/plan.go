package plan

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vk/buildforge/internal/buildctx"
	"github.com/vk/buildforge/internal/config"
	"github.com/vk/buildforge/internal/ctxlog"
	"github.com/vk/buildforge/internal/expr"
	"github.com/vk/buildforge/internal/registry"
	"github.com/vk/buildforge/internal/resolve"
)

// Entry is the fully resolved build instruction set for one target, ready
// for external toolchain invocation.
type Entry struct {
	Name           string      `json:"name"`
	Kind           config.Kind `json:"kind"`
	Sources        []string    `json:"sources"`
	IncludePaths   []string    `json:"include_paths"`
	Definitions    []string    `json:"definitions"`
	CompileOptions []string    `json:"compile_options"`

	// Links lists link dependencies in link order: every artifact appears
	// after the artifacts it depends on, duplicates collapsed to the first
	// appearance. Interface-only targets contribute no artifact and are
	// traversed but never listed.
	Links []string `json:"links"`
}

// Generator turns requested target names plus a build context into an
// ordered build plan.
type Generator struct {
	reg     *registry.Registry
	res     *resolve.Resolver
	workers int
}

// New creates a plan generator. workers bounds the concurrent per-target
// evaluation phase; values below one mean sequential evaluation.
func New(reg *registry.Registry, res *resolve.Resolver, workers int) *Generator {
	if workers < 1 {
		workers = 1
	}
	return &Generator{reg: reg, res: res, workers: workers}
}

// Generate validates the requested names, topologically orders the induced
// dependency sub-graph (requested targets plus their transitive
// dependencies), and emits one resolved Entry per target in that order.
// Identical inputs always produce identical output.
func (g *Generator) Generate(ctx context.Context, names []string, bctx buildctx.Context) ([]Entry, error) {
	logger := ctxlog.FromContext(ctx)

	for _, name := range names {
		if _, err := g.reg.Lookup(name); err != nil {
			return nil, err
		}
	}

	order, err := g.topoOrder(names)
	if err != nil {
		return nil, err
	}
	logger.Debug("Plan order computed.", "targets", len(order))

	// Per-target evaluation is independent once the resolver has run, so it
	// fans out on a bounded pool. Entries land at their topological index,
	// and the lowest-index error wins, keeping output and failure
	// deterministic regardless of scheduling.
	entries := make([]Entry, len(order))
	errs := make([]error, len(order))

	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i, name := range order {
		i, name := i, name
		eg.Go(func() error {
			entries[i], errs[i] = g.entryFor(name, bctx)
			return nil
		})
	}
	// Goroutines report through errs; Wait cannot fail here.
	_ = eg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Plan generation finished.", "entries", len(entries))
	return entries, nil
}

// topoOrder computes Kahn's algorithm over the sub-graph induced by the
// requested targets, breaking ties by declaration order.
func (g *Generator) topoOrder(names []string) ([]string, error) {
	declIndex := make(map[string]int)
	i := 0
	g.reg.Names()(func(name string) bool {
		declIndex[name] = i
		i++
		return true
	})

	// Transitive closure over all dependency edges, any visibility.
	closure := make(map[string]bool)
	var grow func(name string) error
	grow = func(name string) error {
		if closure[name] {
			return nil
		}
		closure[name] = true
		t, err := g.reg.Lookup(name)
		if err != nil {
			return err
		}
		for _, dep := range allLinks(t) {
			if err := grow(dep); err != nil {
				var unknown *registry.UnknownTargetError
				if errors.As(err, &unknown) && unknown.Name == dep {
					return fmt.Errorf("target %q depends on unregistered target: %w", name, err)
				}
				return err
			}
		}
		return nil
	}
	for _, name := range names {
		if err := grow(name); err != nil {
			return nil, err
		}
	}

	members := make([]string, 0, len(closure))
	for name := range closure {
		members = append(members, name)
	}
	sort.Slice(members, func(a, b int) bool {
		return declIndex[members[a]] < declIndex[members[b]]
	})

	// In-degree counts distinct dependency edges within the closure.
	indegree := make(map[string]int, len(members))
	dependents := make(map[string][]string, len(members))
	for _, name := range members {
		t, _ := g.reg.Lookup(name)
		seen := make(map[string]bool)
		for _, dep := range allLinks(t) {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range members {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(members))
	for len(ready) > 0 {
		// Deterministic tie-break: earliest declaration first.
		next := 0
		for j := 1; j < len(ready); j++ {
			if declIndex[ready[j]] < declIndex[ready[next]] {
				next = j
			}
		}
		name := ready[next]
		ready = append(ready[:next], ready[next+1:]...)
		order = append(order, name)

		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(members) {
		// Leftover nodes sit on a cycle. The resolver's depth-first walk
		// names the full cycle path, so delegate to it for the error.
		var leftover []string
		for _, name := range members {
			if indegree[name] > 0 {
				leftover = append(leftover, name)
			}
		}
		for _, name := range leftover {
			if _, err := g.res.Resolve(name); err != nil {
				return nil, err
			}
		}
		return nil, &resolve.CycleError{Path: leftover}
	}

	return order, nil
}

// entryFor folds one target's effective requirement set into a concrete
// plan entry under the given build context.
func (g *Generator) entryFor(name string, bctx buildctx.Context) (Entry, error) {
	res, err := g.res.Resolve(name)
	if err != nil {
		return Entry{}, err
	}

	includes, err := evalEntries(res.Effective.IncludePaths, bctx)
	if err != nil {
		return Entry{}, fmt.Errorf("target %q: include paths: %w", name, err)
	}
	definitions, err := evalEntries(res.Effective.Definitions, bctx)
	if err != nil {
		return Entry{}, fmt.Errorf("target %q: definitions: %w", name, err)
	}
	options, err := evalEntries(res.Effective.Options, bctx)
	if err != nil {
		return Entry{}, fmt.Errorf("target %q: compile options: %w", name, err)
	}

	links, err := g.linkOrder(res.Target)
	if err != nil {
		return Entry{}, err
	}

	sources := res.Target.Sources
	if sources == nil {
		sources = []string{}
	}

	return Entry{
		Name:           res.Target.Name,
		Kind:           res.Target.Kind,
		Sources:        sources,
		IncludePaths:   includes,
		Definitions:    definitions,
		CompileOptions: options,
		Links:          links,
	}, nil
}

// linkOrder emits the target's link dependencies so that every artifact
// appears after its own dependencies: own private and public link edges in
// declared order, each preceded depth-first by what it exports, first
// appearance kept on duplication.
func (g *Generator) linkOrder(t *config.Target) ([]string, error) {
	out := []string{}
	seen := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if seen[name] {
			return nil
		}
		seen[name] = true

		dep, err := g.reg.Lookup(name)
		if err != nil {
			return fmt.Errorf("target %q depends on unregistered target: %w", t.Name, err)
		}
		// A consumer inherits the dep's public and interface link edges.
		for _, d := range dep.Public.Links {
			if err := visit(d); err != nil {
				return err
			}
		}
		for _, d := range dep.Interface.Links {
			if err := visit(d); err != nil {
				return err
			}
		}
		if dep.Kind != config.InterfaceOnly {
			out = append(out, name)
		}
		return nil
	}

	for _, d := range t.Private.Links {
		if err := visit(d); err != nil {
			return nil, err
		}
	}
	for _, d := range t.Public.Links {
		if err := visit(d); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// evalEntries resolves conditional entries against the build context,
// dropping the ones whose guard does not hold and deduplicating the
// resulting values with first appearance kept.
func evalEntries(entries []expr.Entry, bctx buildctx.Context) ([]string, error) {
	out := []string{}
	seen := make(map[string]bool)
	for _, e := range entries {
		v, ok, err := e.Resolve(bctx)
		if err != nil {
			return nil, err
		}
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

func allLinks(t *config.Target) []string {
	out := make([]string, 0, len(t.Private.Links)+len(t.Public.Links)+len(t.Interface.Links))
	out = append(out, t.Private.Links...)
	out = append(out, t.Public.Links...)
	out = append(out, t.Interface.Links...)
	return out
}
