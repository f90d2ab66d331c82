package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jpalmerr/tickboard/internal/metrics"
	"github.com/jpalmerr/tickboard/internal/producer"
	"github.com/jpalmerr/tickboard/internal/series"
	"github.com/jpalmerr/tickboard/internal/update"
)

var (
	// ErrProducerStartup is returned by [Controller.Create] when the
	// session's producer cannot be built or started.
	ErrProducerStartup = errors.New("producer startup failed")

	// ErrSessionLimit is returned by [Controller.Create] when the
	// controller already holds its maximum number of live sessions.
	ErrSessionLimit = errors.New("session limit reached")
)

// Host is the hosting renderer's teardown-hook registry.
//
// The host must call the registered function, at most once, when the
// viewing session with that id ends. It must not hold locks of its own
// while doing so, because the callback calls back into UnregisterTeardown.
type Host interface {
	RegisterTeardown(id string, fn func(id string))
	UnregisterTeardown(id string)
}

// ControllerOptions configures a [Controller]. Zero values are valid.
type ControllerOptions struct {
	// Host receives teardown-hook registrations. Nil means sessions are
	// only destroyed explicitly.
	Host Host

	// MaxSessions caps concurrently live sessions. Zero means unlimited.
	MaxSessions int

	// Metrics records session and sample counters. Nil creates a private collector.
	Metrics *metrics.Collector

	// Logger for lifecycle events. Nil uses slog.Default().
	Logger *slog.Logger

	// OnSample is called on the consumer goroutine after each sample is
	// applied to a session's stores. It must not block.
	OnSample func(sessionID string, s series.Sample)
}

// Controller creates, tracks and destroys sessions.
type Controller struct {
	host        Host
	maxSessions int
	metrics     *metrics.Collector
	logger      *slog.Logger
	onSample    func(string, series.Sample)

	mu       sync.Mutex
	sessions map[string]*Session
	reserved int
}

// NewController creates a [Controller].
func NewController(opts ControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Controller{
		host:        opts.Host,
		maxSessions: opts.MaxSessions,
		metrics:     m,
		logger:      logger,
		onSample:    opts.OnSample,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session whose series begins at seedValue.
//
// The seed sample (timestamp now, value seedValue) is in both stores
// before Create returns, so the first render always has data. The
// producer is then started and the teardown hook registered with the host.
//
// Returns [ErrSessionLimit] when at capacity, or an error wrapping
// [ErrProducerStartup] if the configuration or seed is unusable. No
// session exists in either case.
func (c *Controller) Create(seedValue float64, cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		c.metrics.SessionRejected()
		return nil, fmt.Errorf("%w: invalid config: %w", ErrProducerStartup, err)
	}

	if err := c.reserve(); err != nil {
		c.metrics.SessionRejected()
		return nil, err
	}

	s, err := c.start(seedValue, cfg)
	if err != nil {
		c.release()
		c.metrics.SessionRejected()
		return nil, err
	}

	c.mu.Lock()
	c.reserved--
	c.sessions[s.id] = s
	c.mu.Unlock()

	if c.host != nil {
		c.host.RegisterTeardown(s.id, c.DestroyByID)
	}
	c.metrics.SessionCreated()

	c.logger.Info("session created",
		"session_id", s.id,
		"seed", seedValue,
		"interval", cfg.SampleInterval.String(),
		"capacity", cfg.BufferCapacity,
	)
	return s, nil
}

// CreateRandom starts a session with a seed drawn uniformly from
// [cfg.SeedMin, cfg.SeedMax), rounded down to two decimals.
func (c *Controller) CreateRandom(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		c.metrics.SessionRejected()
		return nil, fmt.Errorf("%w: invalid config: %w", ErrProducerStartup, err)
	}
	return c.Create(RandomSeed(cfg.SeedMin, cfg.SeedMax), cfg)
}

// RandomSeed draws a two-decimal value from [lo, hi).
func RandomSeed(lo, hi float64) float64 {
	v := math.Floor(distuv.Uniform{Min: lo, Max: hi}.Rand()*100) / 100
	return math.Max(v, lo)
}

// start builds and launches one session. On error nothing is left running.
func (c *Controller) start(seedValue float64, cfg Config) (*Session, error) {
	clock := cfg.clock()

	noise, err := cfg.noiseSource()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProducerStartup, err)
	}

	s := &Session{
		id:          uuid.NewString(),
		createdAt:   clock.Now(),
		rolling:     series.NewRollingStore(cfg.BufferCapacity),
		latest:      series.NewLatestStore(),
		subscribers: make(map[chan series.Sample]struct{}),
		onDropped:   c.metrics.SampleDropped,
		done:        make(chan struct{}),
	}
	s.logger = c.logger.With("session_id", s.id)
	s.onApplied = c.applied

	s.seed(series.NewSample(clock.Now(), seedValue))

	s.scheduler = update.NewScheduler(s.apply, s.logger, update.Observer{
		Enqueued:  func(int) { c.metrics.Enqueued() },
		Delivered: func(int) { c.metrics.Delivered() },
	})

	p, err := producer.New(s.scheduler, noise, clock, cfg.SampleInterval, seedValue, s.logger)
	if err != nil {
		s.scheduler.Close()
		return nil, fmt.Errorf("%w: %w", ErrProducerStartup, err)
	}
	p.WithObserver(producer.Observer{
		Generated: c.metrics.SampleGenerated,
		Skipped:   func(error) { c.metrics.SampleSkipped() },
	})
	s.producer = p

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// the producer closes the scheduler on its way out; the consumer then
	// drains what is left and exits
	if err := p.Start(ctx, s.scheduler.Close); err != nil {
		cancel()
		s.scheduler.Close()
		return nil, fmt.Errorf("%w: %w", ErrProducerStartup, err)
	}

	go func() {
		<-p.Done()
		<-s.scheduler.Done()
		s.closeSubscribers()
		close(s.done)
	}()

	return s, nil
}

// applied runs on a session's consumer goroutine after each applied sample.
func (c *Controller) applied(s *Session, sample series.Sample) {
	c.metrics.SampleApplied()
	if c.onSample != nil {
		c.onSample(s.id, sample)
	}
}

// Destroy sets the session's cancellation flag and forgets it.
//
// Destroy returns immediately: the producer notices within one sample
// interval and the consumer exits after it. Samples still in flight are
// dropped rather than applied. A second call is a no-op.
func (c *Controller) Destroy(s *Session) {
	if s == nil || !s.destroyed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()

	c.mu.Lock()
	delete(c.sessions, s.id)
	c.mu.Unlock()

	if c.host != nil {
		c.host.UnregisterTeardown(s.id)
	}

	lifetime := time.Since(s.createdAt)
	c.metrics.SessionDestroyed(lifetime.Seconds())
	c.logger.Info("session destroyed, stopping producer",
		"session_id", s.id,
		"lifetime", lifetime.Round(time.Millisecond).String(),
		"samples", s.Len(),
	)
}

// DestroyByID destroys the live session with the given id, if any.
// It is the teardown hook handed to the [Host].
func (c *Controller) DestroyByID(id string) {
	c.Destroy(c.Get(id))
}

// Get returns the live session with the given id, or nil.
func (c *Controller) Get(id string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[id]
}

// Len returns the number of live sessions.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Sessions returns the live sessions ordered by creation time.
func (c *Controller) Sessions() []*Session {
	c.mu.Lock()
	out := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

// Close destroys every live session and waits until their goroutines have
// exited or ctx is done.
func (c *Controller) Close(ctx context.Context) error {
	sessions := c.Sessions()
	for _, s := range sessions {
		c.Destroy(s)
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// reserve claims a slot under the session limit.
func (c *Controller) reserve() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSessions > 0 && len(c.sessions)+c.reserved >= c.maxSessions {
		return fmt.Errorf("%w (%d)", ErrSessionLimit, c.maxSessions)
	}
	c.reserved++
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.reserved--
	c.mu.Unlock()
}
