package session

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jpalmerr/tickboard/internal/producer"
	"github.com/jpalmerr/tickboard/internal/series"
)

// Defaults for [Config].
const (
	DefaultSampleInterval = time.Second
	DefaultBufferCapacity = series.DefaultCapacity
	DefaultNoiseMean      = 0.00001
	DefaultNoiseStdDev    = 0.001
	DefaultSeedMin        = 30
	DefaultSeedMax        = 500
)

// Config holds the per-session settings.
type Config struct {
	// SampleInterval is the producer's sleep between samples.
	SampleInterval time.Duration

	// BufferCapacity is the rollover size of the series.
	BufferCapacity int

	// NoiseDistribution names the noise distribution ("normal" or "laplace").
	NoiseDistribution string

	// NoiseMean and NoiseStdDev parameterise the noise distribution.
	NoiseMean   float64
	NoiseStdDev float64

	// SeedMin and SeedMax bound random seeds: [SeedMin, SeedMax).
	SeedMin float64
	SeedMax float64

	// Clock overrides the producer's clock. Nil uses the wall clock.
	Clock producer.Clock

	// Noise overrides the configured distribution. Nil builds one from
	// NoiseDistribution, NoiseMean and NoiseStdDev.
	Noise producer.NoiseSource
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		SampleInterval:    DefaultSampleInterval,
		BufferCapacity:    DefaultBufferCapacity,
		NoiseDistribution: producer.DistributionNormal,
		NoiseMean:         DefaultNoiseMean,
		NoiseStdDev:       DefaultNoiseStdDev,
		SeedMin:           DefaultSeedMin,
		SeedMax:           DefaultSeedMax,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive, got %s", c.SampleInterval)
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("buffer capacity must be at least 1, got %d", c.BufferCapacity)
	}
	if c.Noise == nil {
		if _, err := producer.NewNoise(c.NoiseDistribution, c.NoiseMean, c.NoiseStdDev); err != nil {
			return err
		}
	}
	if !finite(c.SeedMin) || !finite(c.SeedMax) {
		return errors.New("seed range must be finite")
	}
	if c.SeedMin <= 0 {
		return fmt.Errorf("seed range minimum must be positive, got %v", c.SeedMin)
	}
	if c.SeedMin >= c.SeedMax {
		return fmt.Errorf("seed range minimum %v must be below maximum %v", c.SeedMin, c.SeedMax)
	}
	return nil
}

func (c Config) noiseSource() (producer.NoiseSource, error) {
	if c.Noise != nil {
		return c.Noise, nil
	}
	return producer.NewNoise(c.NoiseDistribution, c.NoiseMean, c.NoiseStdDev)
}

func (c Config) clock() producer.Clock {
	if c.Clock != nil {
		return c.Clock
	}
	return producer.RealClock{}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
