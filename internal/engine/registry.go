package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages a named collection of evaluators that can be looked
// up at runtime. It is safe for concurrent use.
type Registry struct {
	evaluators map[string]Evaluator
	mu         sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]Evaluator)}
}

// Default returns a registry with both market evaluators registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register("moneyline", NewMoneyline())
	r.Register("spread", NewSpread())
	return r
}

// Register adds an evaluator under the given name, replacing any
// existing entry.
func (r *Registry) Register(name string, ev Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluators[name] = ev
}

// Get retrieves an evaluator by name.
func (r *Registry) Get(name string) (Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.evaluators[name]
	if !ok {
		return nil, fmt.Errorf("evaluator %q: not registered", name)
	}
	return ev, nil
}

// List returns the names of all registered evaluators in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.evaluators))
	for n := range r.evaluators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
