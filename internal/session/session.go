package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/tickboard/internal/producer"
	"github.com/jpalmerr/tickboard/internal/series"
	"github.com/jpalmerr/tickboard/internal/update"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

// Session is one viewing session: its stores, producer and scheduler.
//
// The stores are written only by the scheduler's consumer goroutine. All
// exported methods are safe for concurrent use.
type Session struct {
	id        string
	createdAt time.Time
	logger    *slog.Logger

	rolling   *series.RollingStore
	latest    *series.LatestStore
	scheduler *update.Scheduler
	producer  *producer.Producer

	cancel    context.CancelFunc
	destroyed atomic.Bool
	lateOnce  sync.Once
	onApplied func(*Session, series.Sample)
	onDropped func()

	subMu       sync.RWMutex
	subscribers map[chan series.Sample]struct{}
	subClosed   bool

	done chan struct{}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Series returns a snapshot of the rolling series, oldest first.
func (s *Session) Series() []series.Sample {
	return s.rolling.Snapshot()
}

// Latest returns the most recently applied sample.
func (s *Session) Latest() (series.Sample, bool) {
	return s.latest.Get()
}

// Len returns the current number of samples in the rolling series.
func (s *Session) Len() int {
	return s.rolling.Len()
}

// Capacity returns the rollover capacity of the series.
func (s *Session) Capacity() int {
	return s.rolling.Cap()
}

// Pending returns the number of samples waiting for the consumer.
func (s *Session) Pending() int {
	return s.scheduler.Pending()
}

// Destroyed reports whether the session's cancellation flag is set.
// Once true it never becomes false again.
func (s *Session) Destroyed() bool {
	return s.destroyed.Load()
}

// Done returns a channel closed once both the producer and the consumer
// goroutines have exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Subscribe returns a channel that receives every sample applied to the
// session's stores from now on.
//
// The channel is buffered; if it fills, samples are dropped for this
// subscriber rather than blocking the consumer. It is closed when the
// session's consumer exits or on [Session.Unsubscribe].
func (s *Session) Subscribe() <-chan series.Sample {
	ch := make(chan series.Sample, subscriberBuffer)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.subClosed {
		close(ch)
		return ch
	}
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (s *Session) Unsubscribe(ch <-chan series.Sample) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for subCh := range s.subscribers {
		if subCh == ch {
			delete(s.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// seed inserts the initial sample. It runs before the consumer goroutine
// exists, so it does not break the single-writer rule.
func (s *Session) seed(sample series.Sample) {
	s.rolling.Append(sample)
	s.latest.Set(sample)
}

// apply is the scheduler's ApplyFunc and runs on the consumer goroutine.
//
// Samples delivered after the session was destroyed are dropped: the
// first one is logged, the rest only counted.
func (s *Session) apply(sample series.Sample) {
	if s.destroyed.Load() {
		s.lateOnce.Do(func() {
			s.logger.Info("delivery after teardown, dropping", "session_id", s.id)
		})
		if s.onDropped != nil {
			s.onDropped()
		}
		return
	}

	s.rolling.Append(sample)
	s.latest.Set(sample)

	s.notifySubscribers(sample)
	if s.onApplied != nil {
		s.onApplied(s, sample)
	}
}

// notifySubscribers sends without blocking; full subscribers miss the sample.
func (s *Session) notifySubscribers(sample series.Sample) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for ch := range s.subscribers {
		select {
		case ch <- sample:
		default:
		}
	}
}

// closeSubscribers closes every subscription; later Subscribe calls get a
// closed channel.
func (s *Session) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.subClosed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}
