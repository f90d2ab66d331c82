package server

import "sync"

// Teardowns is the host's registry of per-session teardown hooks.
// It implements session.Host.
type Teardowns struct {
	mu    sync.Mutex
	hooks map[string]func(id string)
}

// NewTeardowns creates an empty registry.
func NewTeardowns() *Teardowns {
	return &Teardowns{hooks: make(map[string]func(id string))}
}

// RegisterTeardown stores fn to be called when the session with id ends.
// A second registration for the same id replaces the first.
func (t *Teardowns) RegisterTeardown(id string, fn func(id string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks[id] = fn
}

// UnregisterTeardown forgets the hook for id, if any.
func (t *Teardowns) UnregisterTeardown(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.hooks, id)
}

// Fire removes and calls the hook for id. It reports whether one was
// registered. The hook runs without the registry lock held, so it may call
// UnregisterTeardown.
func (t *Teardowns) Fire(id string) bool {
	t.mu.Lock()
	fn, ok := t.hooks[id]
	delete(t.hooks, id)
	t.mu.Unlock()

	if ok {
		fn(id)
	}
	return ok
}

// Len returns the number of registered hooks.
func (t *Teardowns) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.hooks)
}
