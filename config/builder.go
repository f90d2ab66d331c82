package config

import (
	"github.com/jpalmerr/tickboard"
)

// BuildOptions converts parsed configuration into SDK options for
// [tickboard.New].
//
// The config is expected to have come from [Parse] or [Load], so defaults
// are filled in; [tickboard.New] still validates every option.
func BuildOptions(cfg *Config) []tickboard.Option {
	opts := []tickboard.Option{
		tickboard.WithPort(cfg.Port),
		tickboard.WithSampleInterval(cfg.SampleInterval.Duration()),
		tickboard.WithBufferCapacity(cfg.BufferCapacity),
		tickboard.WithMaxSessions(cfg.MaxSessions),
		tickboard.WithSeedRange(cfg.SeedRange.Min, cfg.SeedRange.Max),
	}

	if cfg.Title != "" {
		opts = append(opts, tickboard.WithTitle(cfg.Title))
	}

	if cfg.Noise.Distribution != "" {
		opts = append(opts, tickboard.WithNoiseDistribution(cfg.Noise.Distribution))
	}

	mean, stddev := DefaultNoiseMean, DefaultNoiseStdDev
	if cfg.Noise.Mean != nil {
		mean = *cfg.Noise.Mean
	}
	if cfg.Noise.StdDev != nil {
		stddev = *cfg.Noise.StdDev
	}
	opts = append(opts, tickboard.WithNoise(mean, stddev))

	return opts
}
