// Package series holds the visible state of one viewing session.
//
// This package is internal to TickBoard. It provides the two stores a
// session's consumer goroutine folds samples into:
//
//   - [RollingStore]: bounded, time-ordered buffer with FIFO eviction (rollover)
//   - [LatestStore]: the single most recently applied sample, used for the live label
//   - [Sample]: immutable timestamped value handed between goroutines
//
// Both stores assume a single writer. Snapshots may be taken from any
// goroutine and never observe a partially applied append or eviction.
package series
