package series

import "sync"

// LatestStore holds zero or one sample: the most recently set one.
type LatestStore struct {
	mu     sync.RWMutex
	sample Sample
	set    bool
}

// NewLatestStore creates an empty [LatestStore].
func NewLatestStore() *LatestStore {
	return &LatestStore{}
}

// Set replaces the held sample unconditionally.
func (l *LatestStore) Set(s Sample) {
	l.mu.Lock()
	l.sample = s
	l.set = true
	l.mu.Unlock()
}

// Get returns the held sample, or false if Set was never called.
func (l *LatestStore) Get() (Sample, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sample, l.set
}
