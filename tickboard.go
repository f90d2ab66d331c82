package tickboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/tickboard/dashboard"
	"github.com/jpalmerr/tickboard/internal/metrics"
	"github.com/jpalmerr/tickboard/internal/series"
	"github.com/jpalmerr/tickboard/internal/server"
	"github.com/jpalmerr/tickboard/internal/session"
)

const (
	defaultPort = 8080

	// callbackBuffer is how many samples may wait for the callback dispatcher.
	callbackBuffer = 256

	// sessionStopTimeout bounds how long Start waits for session goroutines.
	sessionStopTimeout = 5 * time.Second
)

// Board is the main orchestrator for live series sessions and dashboard serving.
//
// Every browser connection to the dashboard is one viewing session: it gets
// its own random walk, producer goroutine and consumer goroutine, and is torn
// down when the connection ends. Board is created using [New] with functional
// options and started with [Board.Start].
//
// The typical lifecycle is:
//
//	b, err := tickboard.New(tickboard.WithTitle("Prices"))
//	if err != nil {
//	    slog.Error("failed to create tickboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	b.Start(ctx) // blocks until context cancelled
type Board struct {
	title           string
	port            int
	maxSessions     int
	session         session.Config
	logger          *slog.Logger
	sampleCallbacks []SampleCallback
}

// New creates a new [Board] instance with the given options.
//
// Options have sensible defaults:
//   - Sample interval: 1 second
//   - Buffer capacity: 1000 samples
//   - Noise: normal, mean 0.00001, stddev 0.001
//   - Seed range: [30, 500)
//   - Port: 8080
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		port:    defaultPort,
		session: session.DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.session.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		title:           cfg.title,
		port:            cfg.port,
		maxSessions:     cfg.maxSessions,
		session:         cfg.session,
		logger:          logger,
		sampleCallbacks: cfg.sampleCallbacks,
	}, nil
}

// Start serves the dashboard and runs sessions for its viewers.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The HTTP server starts on the configured port
//   - Each dashboard connection creates a session seeded from the seed range
//   - Sample callbacks receive every applied sample
//   - The dashboard is available at http://localhost:<port>
//
// On cancellation the HTTP server shuts down, every live session is
// destroyed, and Start waits (up to 5 seconds) for their goroutines.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("tickboard starting",
		"sample_interval", b.session.SampleInterval.String(),
		"buffer_capacity", b.session.BufferCapacity,
		"noise", b.session.NoiseDistribution,
	)
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	collector := metrics.NewCollector()
	teardowns := server.NewTeardowns()

	var samples chan Sample
	var onSample func(string, series.Sample)
	if len(b.sampleCallbacks) > 0 {
		samples = make(chan Sample, callbackBuffer)
		onSample = func(id string, s series.Sample) {
			// runs on a session consumer; never block it
			select {
			case samples <- Sample{SessionID: id, Timestamp: s.Timestamp, Value: s.Value}:
			default:
				b.logger.Debug("sample callback dispatcher behind, dropping", "session_id", id)
			}
		}
	}

	controller := session.NewController(session.ControllerOptions{
		Host:        teardowns,
		MaxSessions: b.maxSessions,
		Metrics:     collector,
		Logger:      b.logger,
		OnSample:    onSample,
	})

	httpServer := server.NewServer(server.Config{
		Controller: controller,
		Teardowns:  teardowns,
		Session:    b.session,
		Metrics:    collector,
		Port:       b.port,
		Assets:     dashboard.Assets,
		Title:      b.title,
		Logger:     b.logger,
	})
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if samples != nil {
		g.Go(func() error {
			for {
				select {
				case s := <-samples:
					for _, cb := range b.sampleCallbacks {
						invokeCallbackSafe(cb, s, b.logger)
					}
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), sessionStopTimeout)
		defer cancel()
		if err := controller.Close(stopCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				b.logger.Warn("sessions did not stop in time", "remaining", controller.Len())
				return nil
			}
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	b.logger.Info("tickboard stopped")
	return nil
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// SampleInterval returns the producer interval of every session.
func (b *Board) SampleInterval() time.Duration {
	return b.session.SampleInterval
}

// BufferCapacity returns the rolling series capacity of every session.
func (b *Board) BufferCapacity() int {
	return b.session.BufferCapacity
}

// MaxSessions returns the live session cap, zero meaning unlimited.
func (b *Board) MaxSessions() int {
	return b.maxSessions
}

// Title returns the configured dashboard title.
func (b *Board) Title() string {
	return b.title
}

// invokeCallbackSafe calls a sample callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb SampleCallback, s Sample, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sample callback panicked",
				"panic", r,
				"session_id", s.SessionID,
			)
		}
	}()
	cb(s)
}
