package resolve

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vk/buildforge/internal/config"
	"github.com/vk/buildforge/internal/expr"
	"github.com/vk/buildforge/internal/registry"
)

// Usage is one fully propagated requirement set. Entry order is the
// contribution order: the target's own declarations first, then its
// dependencies' contributions in declaration order, depth-first. Entries are
// deduplicated by value with the first appearance kept.
type Usage struct {
	IncludePaths []expr.Entry
	Definitions  []expr.Entry
	Options      []expr.Entry
	Links        []string
}

// Resolved is the derived, read-only view of one target after propagation.
type Resolved struct {
	Target *config.Target

	// Effective is what the target itself compiles with: its own private and
	// public requirements plus the exported requirements of its private and
	// public dependencies.
	Effective Usage

	// Exported is what the target's consumers inherit: its own public and
	// interface requirements plus the exported requirements of its public
	// and interface dependencies.
	Exported Usage
}

// Resolver computes resolved requirement sets over an immutable registry.
// Each target is computed exactly once regardless of fan-in; concurrent
// first requesters of the same target block until the single in-flight
// computation completes and then share the cached result.
type Resolver struct {
	reg *registry.Registry

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	once sync.Once
	res  *Resolved
	err  error
}

// New creates a resolver over the given registry. The registry must not be
// mutated while the resolver is in use.
func New(reg *registry.Registry) *Resolver {
	return &Resolver{
		reg:     reg,
		entries: make(map[string]*entry),
	}
}

// Resolve returns the propagated requirement sets for name. It fails with
// registry.UnknownTargetError if name or any transitive dependency is not
// registered, and with CycleError if the dependency graph is cyclic.
func (r *Resolver) Resolve(name string) (*Resolved, error) {
	return r.resolve(name, nil)
}

// resolve memoizes compute. The stack carries the active traversal path of
// the calling goroutine; revisiting a name on it is a cycle, detected before
// entering the entry's once so the traversal never deadlocks on itself.
func (r *Resolver) resolve(name string, stack []string) (*Resolved, error) {
	for i, s := range stack {
		if s == name {
			path := make([]string, 0, len(stack)-i+1)
			path = append(path, stack[i:]...)
			return nil, &CycleError{Path: append(path, name)}
		}
	}

	e := r.entry(name)
	e.once.Do(func() {
		e.res, e.err = r.compute(name, append(stack, name))
	})
	return e.res, e.err
}

func (r *Resolver) entry(name string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		e = &entry{}
		r.entries[name] = e
	}
	return e
}

// compute performs the post-order step for one target: dependencies are
// resolved before their contributions are folded in.
func (r *Resolver) compute(name string, stack []string) (*Resolved, error) {
	t, err := r.reg.Lookup(name)
	if err != nil {
		return nil, err
	}

	// Exported: own public + interface requirements, then the exported sets
	// of public and interface dependencies.
	var exported usageBuilder
	exported.addOwn(t.Public)
	exported.addOwn(t.Interface)

	// Effective: own private + public requirements, then the exported sets
	// of private and public dependencies. Interface dependencies do not
	// contribute: they exist for consumers only.
	var effective usageBuilder
	effective.addOwn(t.Private)
	effective.addOwn(t.Public)

	for _, dep := range t.Private.Links {
		d, err := r.depend(t, dep, stack)
		if err != nil {
			return nil, err
		}
		effective.merge(d.Exported)
	}
	for _, dep := range t.Public.Links {
		d, err := r.depend(t, dep, stack)
		if err != nil {
			return nil, err
		}
		effective.merge(d.Exported)
		exported.merge(d.Exported)
	}
	for _, dep := range t.Interface.Links {
		d, err := r.depend(t, dep, stack)
		if err != nil {
			return nil, err
		}
		exported.merge(d.Exported)
	}

	return &Resolved{
		Target:    t,
		Effective: effective.u,
		Exported:  exported.u,
	}, nil
}

// depend resolves one dependency edge, naming the referring target when the
// edge dangles.
func (r *Resolver) depend(from *config.Target, dep string, stack []string) (*Resolved, error) {
	d, err := r.resolve(dep, stack)
	if err != nil {
		var unknown *registry.UnknownTargetError
		if errors.As(err, &unknown) && unknown.Name == dep {
			return nil, fmt.Errorf("target %q depends on unregistered target: %w", from.Name, err)
		}
		return nil, err
	}
	return d, nil
}

// usageBuilder accumulates a Usage with stable value-dedup: the first
// appearance of an entry wins, later duplicates are dropped.
type usageBuilder struct {
	u        Usage
	seenInc  map[string]bool
	seenDef  map[string]bool
	seenOpt  map[string]bool
	seenLink map[string]bool
}

func (b *usageBuilder) addOwn(req config.Requirements) {
	b.u.IncludePaths = appendEntries(b.u.IncludePaths, req.IncludePaths, &b.seenInc)
	b.u.Definitions = appendEntries(b.u.Definitions, req.Definitions, &b.seenDef)
	b.u.Options = appendEntries(b.u.Options, req.Options, &b.seenOpt)
	b.u.Links = appendLinks(b.u.Links, req.Links, &b.seenLink)
}

func (b *usageBuilder) merge(other Usage) {
	b.u.IncludePaths = appendEntries(b.u.IncludePaths, other.IncludePaths, &b.seenInc)
	b.u.Definitions = appendEntries(b.u.Definitions, other.Definitions, &b.seenDef)
	b.u.Options = appendEntries(b.u.Options, other.Options, &b.seenOpt)
	b.u.Links = appendLinks(b.u.Links, other.Links, &b.seenLink)
}

func appendEntries(dst []expr.Entry, src []expr.Entry, seen *map[string]bool) []expr.Entry {
	if *seen == nil {
		*seen = make(map[string]bool)
	}
	for _, e := range src {
		k := e.Key()
		if (*seen)[k] {
			continue
		}
		(*seen)[k] = true
		dst = append(dst, e)
	}
	return dst
}

func appendLinks(dst []string, src []string, seen *map[string]bool) []string {
	if *seen == nil {
		*seen = make(map[string]bool)
	}
	for _, l := range src {
		if (*seen)[l] {
			continue
		}
		(*seen)[l] = true
		dst = append(dst, l)
	}
	return dst
}
