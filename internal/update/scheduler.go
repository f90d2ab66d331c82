package update

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/eapache/queue"
	"github.com/google/uuid"

	"github.com/jpalmerr/tickboard/internal/series"
)

// ErrClosed is returned by [Scheduler.Enqueue] after [Scheduler.Close].
var ErrClosed = errors.New("update scheduler closed")

// ApplyFunc folds one delivered sample into consumer-owned state.
// It is only ever called from the scheduler's consumer goroutine.
type ApplyFunc func(series.Sample)

// Observer receives scheduler events for instrumentation. Any field may be nil.
type Observer struct {
	// Enqueued is called after a sample is accepted, with the new backlog.
	Enqueued func(pending int)

	// Delivered is called after a sample has been applied, with the remaining backlog.
	Delivered func(pending int)
}

// Scheduler delivers enqueued samples to an [ApplyFunc] on one goroutine.
//
// Deliveries happen exactly once and in the order the Enqueue calls
// completed. Enqueue is safe for concurrent use and never waits on the
// consumer.
//
// The consumer goroutine starts with [NewScheduler] and exits after
// [Scheduler.Close], once everything enqueued before Close has been applied.
type Scheduler struct {
	apply    ApplyFunc
	logger   *slog.Logger
	observer Observer

	mu      sync.Mutex
	pending *queue.Queue
	closed  bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewScheduler creates a [Scheduler] and starts its consumer goroutine.
//
// Parameters:
//   - apply: called once per delivered sample, serially, on the consumer goroutine
//   - logger: logger for recovered apply panics
//   - observer: optional instrumentation hooks
func NewScheduler(apply ApplyFunc, logger *slog.Logger, observer Observer) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		apply:    apply,
		logger:   logger,
		observer: observer,
		pending:  queue.New(),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Enqueue schedules a sample for delivery on the consumer goroutine.
//
// Enqueue holds the queue lock only for the append, then signals the
// consumer without blocking. Returns [ErrClosed] if the scheduler is closed;
// the sample is not delivered in that case.
func (s *Scheduler) Enqueue(sample series.Sample) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.pending.Add(sample)
	n := s.pending.Length()
	s.mu.Unlock()

	if s.observer.Enqueued != nil {
		s.observer.Enqueued(n)
	}
	s.signal()
	return nil
}

// Pending returns the number of samples enqueued but not yet applied.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Length()
}

// Close stops accepting samples. Samples already enqueued are still
// delivered, after which the consumer goroutine exits and [Scheduler.Done]
// is closed. Close does not wait; it is idempotent and safe for concurrent use.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.signal()
	})
}

// Done returns a channel that is closed when the consumer goroutine has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// signal wakes the consumer. The wake channel has capacity one, so a
// pending signal already covers any samples added after it.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the consumer loop.
func (s *Scheduler) run() {
	defer close(s.done)

	for range s.wake {
		s.drain()

		s.mu.Lock()
		finished := s.closed && s.pending.Length() == 0
		s.mu.Unlock()
		if finished {
			return
		}
	}
}

// drain applies every pending sample in FIFO order. The lock is released
// while a sample is applied so producers are never held up by apply.
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if s.pending.Length() == 0 {
			s.mu.Unlock()
			return
		}
		sample := s.pending.Remove().(series.Sample)
		n := s.pending.Length()
		s.mu.Unlock()

		s.safeApply(sample)

		if s.observer.Delivered != nil {
			s.observer.Delivered(n)
		}
	}
}

// safeApply calls apply with panic recovery. A panicking apply loses that
// one sample; later deliveries continue.
func (s *Scheduler) safeApply(sample series.Sample) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("apply panic",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.apply(sample)
}
