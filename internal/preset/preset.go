// Package preset implements named, inheritable build-context presets. A
// preset optionally names a parent; resolving a preset walks the parent
// chain to the root and merges overrides root-to-leaf so a child shadows
// its ancestors key-by-key.
package preset

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vk/buildforge/internal/buildctx"
	"github.com/vk/buildforge/internal/config"
)

// MaxChainDepth bounds the parent chain walk. Hand-authored preset trees are
// shallow; anything deeper is treated as malformed input.
const MaxChainDepth = 32

// Store owns the preset declarations. It is populated once and only read
// afterwards; Resolve never mutates a registered preset.
type Store struct {
	mu      sync.RWMutex
	presets map[string]*config.Preset
}

// NewStore creates an empty preset store.
func NewStore() *Store {
	return &Store{presets: make(map[string]*config.Preset)}
}

// Register adds a preset declaration. It fails with DuplicatePresetError if
// the name is already present. The parent is not required to exist yet;
// dangling parents surface at resolve time as UnknownPresetError.
func (s *Store) Register(p *config.Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.presets[p.Name]; ok {
		return &DuplicatePresetError{Name: p.Name}
	}
	s.presets[p.Name] = p
	return nil
}

// Resolve walks the parent chain from the named preset to the root and
// merges the collected overrides into one flat build context, child winning
// on key collision.
//
// Resolve does not validate completeness: a context key left unset here
// fails later, on first use by a conditional expression.
func (s *Store) Resolve(name string) (buildctx.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Walk leaf to root, guarding against cycles and runaway chains.
	var chain []*config.Preset
	seen := make(map[string]int)
	for cur := name; cur != ""; {
		if _, ok := seen[cur]; ok {
			path := make([]string, 0, len(chain)+1)
			for _, p := range chain {
				path = append(path, p.Name)
			}
			return buildctx.Context{}, &CycleError{Path: append(path, cur)}
		}
		if len(chain) >= MaxChainDepth {
			return buildctx.Context{}, &ChainTooDeepError{Name: name, Limit: MaxChainDepth}
		}

		p, ok := s.presets[cur]
		if !ok {
			return buildctx.Context{}, &UnknownPresetError{Name: cur}
		}
		seen[cur] = len(chain)
		chain = append(chain, p)
		cur = p.Inherits
	}

	// Merge root-to-leaf so each child's entries shadow its ancestors'.
	ctx, err := buildctx.New(nil)
	if err != nil {
		return buildctx.Context{}, err
	}
	for i := len(chain) - 1; i >= 0; i-- {
		ctx, err = ctx.Merge(chain[i].Values)
		if err != nil {
			return buildctx.Context{}, fmt.Errorf("preset %q: %w", chain[i].Name, err)
		}
	}
	return ctx, nil
}

// DuplicatePresetError reports a second registration under an existing name.
type DuplicatePresetError struct {
	Name string
}

func (e *DuplicatePresetError) Error() string {
	return fmt.Sprintf("preset %q is already registered", e.Name)
}

// UnknownPresetError reports a reference to a name that was never registered.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q", e.Name)
}

// CycleError reports a parent chain that revisits a preset. Path holds the
// walked names ending with the revisited one.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("preset inheritance cycle: %s", strings.Join(e.Path, " -> "))
}

// ChainTooDeepError reports a parent chain exceeding MaxChainDepth.
type ChainTooDeepError struct {
	Name  string
	Limit int
}

func (e *ChainTooDeepError) Error() string {
	return fmt.Sprintf("preset %q: inheritance chain exceeds %d levels", e.Name, e.Limit)
}
