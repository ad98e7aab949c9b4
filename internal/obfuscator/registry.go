package obfuscator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/runstack/obfuscator/internal/config"
	"github.com/runstack/obfuscator/internal/scrambler"
	"github.com/runstack/obfuscator/internal/transformer"
)

// MaxBuiltinLevel is the highest level the default registry provides.
const MaxBuiltinLevel = 2

// PassFactory builds the pass for one level. It may return nil when the
// level contributes nothing under cfg (level 1 with comment stripping off).
type PassFactory func(cfg config.LevelConfig, policy *scrambler.PreservationPolicy) transformer.Pass

type levelEntry struct {
	name    string
	factory PassFactory
}

// Registry maps level numbers to pass constructors.
type Registry struct {
	mu     sync.RWMutex
	levels map[int]levelEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{levels: make(map[int]levelEntry)}
}

// DefaultRegistry returns a registry with the built-in levels:
// 1 strips comments, 2 renames local variables.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(1, "strip-comments", func(cfg config.LevelConfig, _ *scrambler.PreservationPolicy) transformer.Pass {
		if !cfg.StripComments {
			return nil
		}
		return transformer.NewCommentStripperVisitor()
	})
	r.MustRegister(2, "rename-variables", func(cfg config.LevelConfig, policy *scrambler.PreservationPolicy) transformer.Pass {
		return transformer.NewVariableRenamer(cfg, policy)
	})
	return r
}

// Register adds or replaces the factory for level.
func (r *Registry) Register(level int, name string, factory PassFactory) error {
	if level < 1 {
		return fmt.Errorf("level must be at least 1, got %d", level)
	}
	if factory == nil {
		return fmt.Errorf("nil factory for level %d", level)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[level] = levelEntry{name: name, factory: factory}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(level int, name string, factory PassFactory) {
	if err := r.Register(level, name, factory); err != nil {
		panic(err)
	}
}

// Max returns the highest level reachable from 1 without gaps.
func (r *Registry) Max() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := 0
	for {
		if _, ok := r.levels[max+1]; !ok {
			return max
		}
		max++
	}
}

// Levels lists the registered levels in increasing order with their names.
func (r *Registry) Levels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]int, 0, len(r.levels))
	for k := range r.levels {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%d:%s", k, r.levels[k].name))
	}
	return out
}

func (r *Registry) lookup(level int) (levelEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.levels[level]
	return e, ok
}
