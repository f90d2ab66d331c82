// Package producer generates a session's samples in the background.
//
// This package is internal to TickBoard. A [Producer] runs one goroutine
// that advances a log-normal random walk once per interval and hands each
// new [series.Sample] to a [Sink]. It never touches the session's stores.
//
// The walk itself is the pure function [Step]; randomness comes from an
// injectable [NoiseSource] and time from an injectable [Clock], so tests can
// drive the loop deterministically.
package producer
