package tickboard

import "time"

// Sample is one applied point of a session's series, as seen by a
// [SampleCallback].
type Sample struct {
	// SessionID identifies the viewing session the sample belongs to.
	SessionID string

	// Timestamp is when the producer generated the sample.
	Timestamp time.Time

	// Value is the sample value, rounded to two decimals.
	Value float64
}

// SampleCallback receives every sample applied to any session's stores.
// See [WithSampleCallback].
type SampleCallback func(Sample)
