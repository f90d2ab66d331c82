// Package update hands samples from a producer goroutine to the single
// consumer goroutine that owns a session's visible state.
//
// This package is internal to TickBoard. [Scheduler] is a FIFO of pending
// samples plus a dedicated consumer goroutine that drains it serially. Each
// wake-up of the consumer is a "tick": every sample pending at that moment
// is applied, oldest first, before the consumer sleeps again.
//
// The queue is unbounded. A producer never blocks on a slow consumer; the
// backlog grows instead and is reported by [Scheduler.Pending].
package update
