package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/tickboard/internal/series"
	"github.com/jpalmerr/tickboard/internal/update"
)

// ErrAlreadyStarted is returned by [Producer.Start] on a second call.
var ErrAlreadyStarted = errors.New("producer already started")

// Observer receives producer events for instrumentation. Any field may be nil.
type Observer struct {
	// Generated is called after a sample was handed to the sink.
	Generated func()

	// Skipped is called when an iteration produced no sample.
	Skipped func(err error)
}

// Producer runs the sample-generation loop for one session.
//
// The walk continues from the seed sample the session already holds, so
// each iteration first sleeps for the interval and then, unless the context
// passed to [Producer.Start] has been cancelled meanwhile:
//  1. Draws a noise term from the [NoiseSource]
//  2. Advances the log-value with [Step]
//  3. Stamps the value with the [Clock] and hands it to the [Sink]
//
// The sleep is the only suspension point and is never interrupted, so a
// cancelled producer exits within one interval and enqueues nothing after
// it has observed the cancellation. A failed iteration (non-finite value,
// panicking noise source) is logged and skipped; the loop continues with
// the previous log-value.
type Producer struct {
	sink     Sink
	noise    NoiseSource
	clock    Clock
	interval time.Duration
	logger   *slog.Logger
	observer Observer

	logValue float64

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// New creates a [Producer] whose walk starts at seedValue.
//
// Parameters:
//   - sink: receives every generated sample
//   - noise: noise source for the walk
//   - clock: time source; nil uses [RealClock]
//   - interval: sleep between iterations
//   - seedValue: current visible value; the walk continues from log(seedValue)
//   - logger: logger for skipped iterations and the shutdown diagnostic
//
// Returns an error if a dependency is missing, the interval is not positive,
// or seedValue is not a positive finite number.
func New(sink Sink, noise NoiseSource, clock Clock, interval time.Duration, seedValue float64, logger *slog.Logger) (*Producer, error) {
	if sink == nil {
		return nil, errors.New("sink cannot be nil")
	}
	if noise == nil {
		return nil, errors.New("noise source cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	if !(seedValue > 0) || math.IsInf(seedValue, 0) {
		return nil, fmt.Errorf("seed value must be positive and finite, got %v", seedValue)
	}
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Producer{
		sink:     sink,
		noise:    noise,
		clock:    clock,
		interval: interval,
		logger:   logger,
		logValue: math.Log(seedValue),
		done:     make(chan struct{}),
	}, nil
}

// WithObserver sets instrumentation hooks. It must be called before Start.
func (p *Producer) WithObserver(o Observer) *Producer {
	p.observer = o
	return p
}

// Start launches the loop in a background goroutine and returns immediately.
//
// onExit, if non-nil, runs on the producer goroutine after the loop ends
// and before [Producer.Done] is closed. Returns [ErrAlreadyStarted] if the
// producer was started before.
func (p *Producer) Start(ctx context.Context, onExit func()) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer close(p.done)
		if onExit != nil {
			defer onExit()
		}
		p.run(ctx)
	}()
	return nil
}

// Done returns a channel that is closed when the loop has exited.
func (p *Producer) Done() <-chan struct{} {
	return p.done
}

// run is the producer loop.
func (p *Producer) run(ctx context.Context) {
	reason := "cancelled"
	defer func() {
		p.logger.Info("producer shutting down", "reason", reason)
	}()

	for ctx.Err() == nil {
		p.clock.Sleep(p.interval)
		if ctx.Err() != nil {
			return
		}

		sample, err := p.next()
		if err != nil {
			p.logger.Warn("sample skipped", "error", err.Error())
			if p.observer.Skipped != nil {
				p.observer.Skipped(err)
			}
			continue
		}

		if err := p.sink.Enqueue(sample); err != nil {
			if errors.Is(err, update.ErrClosed) {
				reason = "scheduler closed"
				return
			}
			p.logger.Warn("enqueue failed", "error", err.Error())
			continue
		}
		if p.observer.Generated != nil {
			p.observer.Generated()
		}
	}
}

// next computes one sample and commits the new log-value on success.
func (p *Producer) next() (sample series.Sample, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.logger.Error("noise source panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("noise source panic (correlation_id: %s)", correlationID)
		}
	}()

	next, value, err := Step(p.logValue, p.noise.Rand())
	if err != nil {
		return series.Sample{}, err
	}
	p.logValue = next
	return series.NewSample(p.clock.Now(), value), nil
}
