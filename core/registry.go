package core

import "sync"

// ── Registry ──────────────────────────────────────────────────────────────────

// DefaultRegistry is a thread-safe implementation of Registry.
type DefaultRegistry struct {
	mu       sync.RWMutex
	adapters map[BackendKind]Adapter
}

// NewRegistry returns an empty DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{adapters: make(map[BackendKind]Adapter)}
}

func (r *DefaultRegistry) Register(a Adapter) {
	r.mu.Lock()
	r.adapters[a.Kind()] = a
	r.mu.Unlock()
}

func (r *DefaultRegistry) AdapterFor(kind BackendKind) (Adapter, bool) {
	r.mu.RLock()
	a, ok := r.adapters[kind]
	r.mu.RUnlock()
	return a, ok
}

func (r *DefaultRegistry) Kinds() []BackendKind {
	r.mu.RLock()
	kinds := make([]BackendKind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	r.mu.RUnlock()
	return kinds
}
