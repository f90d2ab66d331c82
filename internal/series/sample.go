package series

import "time"

// Sample is one timestamped value of the series.
//
// Sample is a value type and is never mutated after construction, so it can
// be handed from the producer goroutine to the consumer goroutine without
// any locking.
type Sample struct {
	// Timestamp is when the sample was generated.
	Timestamp time.Time `json:"timestamp"`

	// Value is the sample value, rounded to two decimals by the producer.
	Value float64 `json:"value"`
}

// NewSample creates a [Sample].
func NewSample(ts time.Time, value float64) Sample {
	return Sample{Timestamp: ts, Value: value}
}
