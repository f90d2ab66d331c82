package producer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNonFiniteSample is returned by [Step] when the walk leaves the finite range.
var ErrNonFiniteSample = errors.New("non-finite sample")

// Noise distributions understood by [NewNoise].
const (
	DistributionNormal  = "normal"
	DistributionLaplace = "laplace"
)

// Step advances the random walk by one noise term.
//
// The walk lives in log space: next = logValue + noise, and the visible
// value is exp(next) rounded to two decimals. Step is pure; it returns
// [ErrNonFiniteSample] if either the new log-value or the value is NaN or
// infinite, in which case the caller must keep the previous log-value.
func Step(logValue, noise float64) (next, value float64, err error) {
	next = logValue + noise
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return logValue, 0, fmt.Errorf("%w: log-value %v", ErrNonFiniteSample, next)
	}

	value = Round2(math.Exp(next))
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return logValue, 0, fmt.Errorf("%w: value exp(%v)", ErrNonFiniteSample, next)
	}
	return next, value, nil
}

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewNoise builds a [NoiseSource] for the named distribution with the given
// mean and standard deviation. An empty name selects the normal distribution.
//
// For the Laplace distribution the scale is stddev/√2 so both distributions
// share the same variance for a given configuration.
func NewNoise(distribution string, mean, stddev float64) (NoiseSource, error) {
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return nil, fmt.Errorf("noise mean must be finite, got %v", mean)
	}
	if math.IsNaN(stddev) || stddev < 0 || math.IsInf(stddev, 0) {
		return nil, fmt.Errorf("noise stddev must be finite and non-negative, got %v", stddev)
	}

	name := strings.ToLower(strings.TrimSpace(distribution))
	switch name {
	case "", DistributionNormal, DistributionLaplace:
	default:
		return nil, fmt.Errorf("unknown noise distribution %q (expected %q or %q)",
			distribution, DistributionNormal, DistributionLaplace)
	}

	// zero spread is a constant drift
	if stddev == 0 {
		return NoiseFunc(func() float64 { return mean }), nil
	}

	switch name {
	case DistributionLaplace:
		return distuv.Laplace{Mu: mean, Scale: stddev / math.Sqrt2}, nil
	default:
		return distuv.Normal{Mu: mean, Sigma: stddev}, nil
	}
}
