// Package config provides YAML configuration parsing for TickBoard.
//
// This package enables running TickBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Real Time Stock Price Streaming
//	port: 8080
//	sample_interval: 1s
//	buffer_capacity: 1000
//	max_sessions: 100
//
//	noise:
//	  distribution: normal
//	  mean: 0.00001
//	  stddev: 0.001
//
//	seed_range: [30, 500]
package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/tickboard"
)

// Defaults applied by [Parse] to unset fields.
const (
	DefaultPort           = 8080
	DefaultSampleInterval = time.Second
	DefaultBufferCapacity = 1000
	DefaultDistribution   = tickboard.DistributionNormal
	DefaultNoiseMean      = 0.00001
	DefaultNoiseStdDev    = 0.001
	DefaultSeedMin        = 30
	DefaultSeedMax        = 500
)

// Config is the root configuration structure for TickBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard and chart title. Defaults to "TickBoard" if not set.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// SampleInterval is the time between samples of every session.
	// Accepts duration strings like "1s", "250ms". Defaults to 1s.
	SampleInterval Duration `yaml:"sample_interval"`

	// BufferCapacity is how many samples each session keeps. Defaults to 1000.
	BufferCapacity int `yaml:"buffer_capacity"`

	// MaxSessions caps concurrently live sessions. Zero means unlimited.
	MaxSessions int `yaml:"max_sessions"`

	// Noise parameterises the random walk.
	Noise NoiseConfig `yaml:"noise"`

	// SeedRange is the half-open range new sessions start in.
	SeedRange SeedRange `yaml:"seed_range"`
}

// NoiseConfig describes the log-space noise added at each step.
type NoiseConfig struct {
	// Distribution is "normal" (default) or "laplace".
	Distribution string `yaml:"distribution"`

	// Mean defaults to 0.00001. A pointer so an explicit 0 is kept.
	Mean *float64 `yaml:"mean"`

	// StdDev defaults to 0.001. A pointer so an explicit 0 is kept.
	StdDev *float64 `yaml:"stddev"`
}

// SeedRange is the half-open range [Min, Max) session seeds are drawn from.
//
// It supports two formats in YAML:
//
// Sequence:
//
//	seed_range: [30, 500]
//
// Structured object:
//
//	seed_range:
//	  min: 30
//	  max: 500
type SeedRange struct {
	Min float64
	Max float64
}

// UnmarshalYAML implements yaml.Unmarshaler for SeedRange.
func (r *SeedRange) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var pair []float64
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("seed_range must have exactly 2 values, got %d", len(pair))
		}
		r.Min, r.Max = pair[0], pair[1]
		return nil

	case yaml.MappingNode:
		// temporary struct to avoid infinite recursion
		var raw struct {
			Min float64 `yaml:"min"`
			Max float64 `yaml:"max"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		r.Min, r.Max = raw.Min, raw.Max
		return nil
	}

	return fmt.Errorf("seed_range must be a [min, max] list or object, got %v", node.Kind)
}

// IsZero reports whether the range was left unset.
func (r SeedRange) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in Title. Defaults are applied to every
// unset field; see the Default constants.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.SampleInterval == 0 {
		c.SampleInterval = Duration(DefaultSampleInterval)
	}
	if c.BufferCapacity == 0 {
		c.BufferCapacity = DefaultBufferCapacity
	}
	if c.Noise.Distribution == "" {
		c.Noise.Distribution = DefaultDistribution
	}
	if c.Noise.Mean == nil {
		mean := DefaultNoiseMean
		c.Noise.Mean = &mean
	}
	if c.Noise.StdDev == nil {
		stddev := DefaultNoiseStdDev
		c.Noise.StdDev = &stddev
	}
	if c.SeedRange.IsZero() {
		c.SeedRange = SeedRange{Min: DefaultSeedMin, Max: DefaultSeedMax}
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	title, err := expandEnvVars(c.Title)
	if err != nil {
		return fmt.Errorf("title: %w", err)
	}
	c.Title = title

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.SampleInterval.Duration() < tickboard.MinSampleInterval {
		return fmt.Errorf("sample_interval must be at least %s, got %s",
			tickboard.MinSampleInterval, c.SampleInterval.Duration())
	}

	if c.BufferCapacity < 1 {
		return fmt.Errorf("buffer_capacity must be at least 1, got %d", c.BufferCapacity)
	}

	if c.MaxSessions < 0 {
		return fmt.Errorf("max_sessions cannot be negative, got %d", c.MaxSessions)
	}

	switch c.Noise.Distribution {
	case tickboard.DistributionNormal, tickboard.DistributionLaplace:
	default:
		return fmt.Errorf("noise.distribution must be %q or %q, got %q",
			tickboard.DistributionNormal, tickboard.DistributionLaplace, c.Noise.Distribution)
	}
	if !finite(*c.Noise.Mean) {
		return fmt.Errorf("noise.mean must be finite, got %v", *c.Noise.Mean)
	}
	if !finite(*c.Noise.StdDev) || *c.Noise.StdDev < 0 {
		return fmt.Errorf("noise.stddev must be finite and non-negative, got %v", *c.Noise.StdDev)
	}

	r := c.SeedRange
	if !finite(r.Min) || !finite(r.Max) {
		return fmt.Errorf("seed_range must be finite, got [%v, %v]", r.Min, r.Max)
	}
	if r.Min <= 0 {
		return fmt.Errorf("seed_range minimum must be positive, got %v", r.Min)
	}
	if r.Min >= r.Max {
		return fmt.Errorf("seed_range minimum %v must be below maximum %v", r.Min, r.Max)
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
