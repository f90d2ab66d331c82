package series

import (
	"sync"
	"testing"
	"time"
)

var base = time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

func sampleAt(i int, value float64) Sample {
	return NewSample(base.Add(time.Duration(i)*time.Second), value)
}

func TestNewRollingStore(t *testing.T) {
	store := NewRollingStore(5)
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
	if store.Cap() != 5 {
		t.Errorf("Cap() = %d, want 5", store.Cap())
	}
	if got := store.Snapshot(); len(got) != 0 {
		t.Errorf("Snapshot() = %v items, want 0", len(got))
	}
	if _, ok := store.Last(); ok {
		t.Error("Last() ok = true on empty store, want false")
	}
}

func TestNewRollingStore_DefaultCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if got := NewRollingStore(capacity).Cap(); got != DefaultCapacity {
			t.Errorf("NewRollingStore(%d).Cap() = %d, want %d", capacity, got, DefaultCapacity)
		}
	}
}

func TestRollingStore_RolloverKeepsNewest(t *testing.T) {
	store := NewRollingStore(3)

	for i, v := range []float64{10, 20, 30, 40, 50} {
		store.Append(sampleAt(i, v))
	}

	got := store.Snapshot()
	want := []float64{30, 40, 50}
	if len(got) != len(want) {
		t.Fatalf("Snapshot() = %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Value != want[i] {
			t.Errorf("Snapshot()[%d].Value = %v, want %v", i, got[i].Value, want[i])
		}
	}
	if !got[0].Timestamp.Equal(base.Add(2 * time.Second)) {
		t.Errorf("Snapshot()[0].Timestamp = %v, want %v", got[0].Timestamp, base.Add(2*time.Second))
	}
}

func TestRollingStore_LengthBoundedAfterEveryAppend(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		appends  int
	}{
		{name: "below capacity", capacity: 10, appends: 4},
		{name: "exactly capacity", capacity: 10, appends: 10},
		{name: "far beyond capacity", capacity: 7, appends: 100},
		{name: "capacity one", capacity: 1, appends: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewRollingStore(tt.capacity)
			for i := 0; i < tt.appends; i++ {
				store.Append(sampleAt(i, float64(i)))
				if store.Len() > tt.capacity {
					t.Fatalf("after append %d: Len() = %d, want <= %d", i, store.Len(), tt.capacity)
				}
			}

			wantLen := min(tt.appends, tt.capacity)
			got := store.Snapshot()
			if len(got) != wantLen {
				t.Fatalf("Snapshot() = %d items, want %d", len(got), wantLen)
			}

			// survivors are exactly the most recent appends, ascending
			first := tt.appends - wantLen
			for i, s := range got {
				if s.Value != float64(first+i) {
					t.Errorf("Snapshot()[%d].Value = %v, want %v", i, s.Value, float64(first+i))
				}
				if i > 0 && s.Timestamp.Before(got[i-1].Timestamp) {
					t.Errorf("Snapshot()[%d] timestamp out of order", i)
				}
			}
		})
	}
}

func TestRollingStore_Last(t *testing.T) {
	store := NewRollingStore(2)
	store.Append(sampleAt(0, 1))
	store.Append(sampleAt(1, 2))
	store.Append(sampleAt(2, 3))

	last, ok := store.Last()
	if !ok {
		t.Fatal("Last() ok = false, want true")
	}
	if last.Value != 3 {
		t.Errorf("Last().Value = %v, want 3", last.Value)
	}
}

func TestRollingStore_SnapshotIsCopy(t *testing.T) {
	store := NewRollingStore(3)
	store.Append(sampleAt(0, 1))

	snap := store.Snapshot()
	snap[0].Value = 99

	store.Append(sampleAt(1, 2))

	again := store.Snapshot()
	if again[0].Value != 1 {
		t.Errorf("Snapshot()[0].Value = %v after caller mutation, want 1", again[0].Value)
	}
	if len(snap) != 1 {
		t.Errorf("earlier snapshot grew to %d items, want 1", len(snap))
	}
}

// TestRollingStore_ConcurrentSnapshots runs one writer against many readers.
// Run with -race.
func TestRollingStore_ConcurrentSnapshots(t *testing.T) {
	const capacity = 16
	store := NewRollingStore(capacity)

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 2000; i++ {
			store.Append(sampleAt(i, float64(i)))
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap := store.Snapshot()
				if len(snap) > capacity {
					t.Errorf("Snapshot() = %d items, want <= %d", len(snap), capacity)
					return
				}
				for i := 1; i < len(snap); i++ {
					if snap[i].Value != snap[i-1].Value+1 {
						t.Errorf("Snapshot() not contiguous at %d: %v then %v", i, snap[i-1].Value, snap[i].Value)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
}
