package tickboard

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jpalmerr/tickboard/internal/producer"
	"github.com/jpalmerr/tickboard/internal/session"
)

// MinSampleInterval is the shortest accepted producer interval.
const MinSampleInterval = 10 * time.Millisecond

// Noise distributions accepted by [WithNoiseDistribution].
const (
	DistributionNormal  = producer.DistributionNormal
	DistributionLaplace = producer.DistributionLaplace
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	port            int
	maxSessions     int
	session         session.Config
	logger          *slog.Logger
	sampleCallbacks []SampleCallback
}

// Option is a function that configures a [Board] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*boardConfig) error

// WithSampleInterval sets how long each session's producer sleeps between
// samples. Defaults to 1 second.
//
// Example:
//
//	b, err := tickboard.New(
//	    tickboard.WithSampleInterval(250 * time.Millisecond),
//	)
//
// Returns an error if the interval is shorter than [MinSampleInterval].
func WithSampleInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < MinSampleInterval {
			return fmt.Errorf("sample interval must be at least %s, got %s", MinSampleInterval, d)
		}
		cfg.session.SampleInterval = d
		return nil
	}
}

// WithBufferCapacity sets how many samples each session's rolling series
// keeps before evicting the oldest. Defaults to 1000.
//
// Returns an error if n is less than 1.
func WithBufferCapacity(n int) Option {
	return func(cfg *boardConfig) error {
		if n < 1 {
			return fmt.Errorf("buffer capacity must be at least 1, got %d", n)
		}
		cfg.session.BufferCapacity = n
		return nil
	}
}

// WithNoise sets the mean and standard deviation of the log-space noise
// added at each step of the random walk. Defaults to 0.00001 and 0.001.
//
// With mean 0 and stddev 0 every session stays at its seed value.
//
// Returns an error if either value is not finite or stddev is negative.
func WithNoise(mean, stddev float64) Option {
	return func(cfg *boardConfig) error {
		if math.IsNaN(mean) || math.IsInf(mean, 0) {
			return errors.New("noise mean must be finite")
		}
		if math.IsNaN(stddev) || math.IsInf(stddev, 0) || stddev < 0 {
			return errors.New("noise stddev must be finite and non-negative")
		}
		cfg.session.NoiseMean = mean
		cfg.session.NoiseStdDev = stddev
		return nil
	}
}

// WithNoiseDistribution selects the noise distribution:
// [DistributionNormal] (default) or [DistributionLaplace].
func WithNoiseDistribution(name string) Option {
	return func(cfg *boardConfig) error {
		switch name {
		case DistributionNormal, DistributionLaplace:
			cfg.session.NoiseDistribution = name
			return nil
		default:
			return fmt.Errorf("unknown noise distribution %q", name)
		}
	}
}

// WithSeedRange sets the half-open range [lo, hi) new sessions draw their
// starting value from. Defaults to [30, 500).
//
// Returns an error unless 0 < lo < hi and both are finite.
func WithSeedRange(lo, hi float64) Option {
	return func(cfg *boardConfig) error {
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return errors.New("seed range must be finite")
		}
		if lo <= 0 || lo >= hi {
			return fmt.Errorf("seed range must satisfy 0 < lo < hi, got [%v, %v)", lo, hi)
		}
		cfg.session.SeedMin = lo
		cfg.session.SeedMax = hi
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard UI and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxSessions caps how many viewing sessions may be live at once.
// Further stream requests are rejected with 503. Zero means unlimited,
// which is the default.
func WithMaxSessions(n int) Option {
	return func(cfg *boardConfig) error {
		if n < 0 {
			return errors.New("max sessions cannot be negative")
		}
		cfg.maxSessions = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSampleCallback registers a function to be called for every sample
// applied to any session.
//
// Multiple callbacks may be registered; they execute in registration order.
//
// Callbacks are invoked from a single dispatch goroutine, never from a
// session's consumer, so a slow callback cannot stall a chart. If the
// dispatcher falls behind, samples are dropped for the callbacks. Panics
// within callbacks are recovered and logged.
//
// Example:
//
//	b, err := tickboard.New(
//	    tickboard.WithSampleCallback(func(s tickboard.Sample) {
//	        if s.Value > 400 {
//	            log.Printf("session %s crossed 400", s.SessionID)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithSampleCallback(cb SampleCallback) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.sampleCallbacks = append(cfg.sampleCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab, header
// and chart. If not specified, defaults to "TickBoard".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}
