// Package session owns the lifecycle of viewing sessions.
//
// This package is internal to TickBoard. A [Controller] creates sessions,
// wires each one's producer, update scheduler and stores together, and
// tears them down when the hosting renderer reports the viewer has gone.
//
// Per session there are exactly two goroutines: the producer, which only
// constructs samples, and the scheduler's consumer, which is the only
// writer of the session's [series.RollingStore] and [series.LatestStore].
// Destroying a session cancels the producer cooperatively; the producer
// notices within one sample interval, closes the scheduler on its way out,
// and the consumer exits once the backlog is drained.
package session
