package registry

import (
	"sync"

	"github.com/vk/buildforge/internal/config"
)

// Registry stores target declarations for one resolution run. It validates
// uniqueness and well-formedness at registration time; dangling dependency
// edges are deliberately not checked here, since declarations may arrive in
// any order. The resolver checks edges when it walks them.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]*config.Target
	order   []string
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		targets: make(map[string]*config.Target),
	}
}

// Register adds a target declaration. It fails with DuplicateTargetError if
// the name is already present and with InvalidTargetError if the declaration
// is malformed (unknown kind, or an interface-only target carrying sources).
func (r *Registry) Register(t *config.Target) error {
	if t.Name == "" {
		return &InvalidTargetError{Name: t.Name, Reason: "target name must not be empty"}
	}
	if !t.Kind.Valid() {
		return &InvalidTargetError{Name: t.Name, Reason: "unknown target kind " + string(t.Kind)}
	}
	if t.Kind == config.InterfaceOnly && len(t.Sources) > 0 {
		return &InvalidTargetError{Name: t.Name, Reason: "interface-only target may not declare sources"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.targets[t.Name]; ok {
		return &DuplicateTargetError{Name: t.Name}
	}
	r.targets[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Lookup returns the declaration registered under name, failing with
// UnknownTargetError if absent.
func (r *Registry) Lookup(name string) (*config.Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.targets[name]
	if !ok {
		return nil, &UnknownTargetError{Name: name}
	}
	return t, nil
}

// Names returns a restartable sequence of registered target names in
// insertion order. The returned function has the shape of iter.Seq[string],
// spelled out so the package builds on toolchains without the iter package.
func (r *Registry) Names() func(yield func(string) bool) {
	return func(yield func(string) bool) {
		r.mu.RLock()
		names := make([]string, len(r.order))
		copy(names, r.order)
		r.mu.RUnlock()

		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

// Index returns the declaration position of name, used for deterministic
// tie-breaking, and whether the name is registered.
func (r *Registry) Index(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, n := range r.order {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
