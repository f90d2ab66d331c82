package series

import (
	"sync"

	"github.com/eapache/queue"
)

// DefaultCapacity is the rollover size used when a non-positive capacity is given.
const DefaultCapacity = 1000

// RollingStore is a bounded buffer of samples with FIFO eviction.
//
// RollingStore keeps at most Cap samples in the order they were appended.
// When an append would exceed the capacity, the oldest sample is evicted in
// the same critical section, so readers never see more than Cap samples.
//
// Appends are expected from a single goroutine (the session's consumer).
// [RollingStore.Snapshot] is safe to call from any goroutine.
type RollingStore struct {
	mu       sync.RWMutex
	samples  *queue.Queue
	capacity int
}

// NewRollingStore creates an empty [RollingStore] with the given capacity.
// A capacity below 1 falls back to [DefaultCapacity].
func NewRollingStore(capacity int) *RollingStore {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &RollingStore{
		samples:  queue.New(),
		capacity: capacity,
	}
}

// Append adds a sample at the newest end, evicting the oldest samples until
// the length is back at capacity.
func (r *RollingStore) Append(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples.Add(s)
	for r.samples.Length() > r.capacity {
		r.samples.Remove()
	}
}

// Snapshot returns a copy of the stored samples, oldest first.
//
// The returned slice is owned by the caller; later appends do not affect it.
func (r *RollingStore) Snapshot() []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.samples.Length()
	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		out[i] = r.samples.Get(i).(Sample)
	}
	return out
}

// Last returns the newest sample, or false if the store is empty.
func (r *RollingStore) Last() (Sample, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.samples.Length() == 0 {
		return Sample{}, false
	}
	return r.samples.Get(r.samples.Length() - 1).(Sample), true
}

// Len returns the number of samples currently stored.
func (r *RollingStore) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.samples.Length()
}

// Cap returns the rollover capacity.
func (r *RollingStore) Cap() int {
	return r.capacity
}
