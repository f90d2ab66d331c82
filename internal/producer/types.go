package producer

import (
	"time"

	"github.com/jpalmerr/tickboard/internal/series"
)

// Clock supplies timestamps and the loop's suspension point.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// NoiseSource draws one noise term per iteration.
// gonum's distuv distributions satisfy it directly.
type NoiseSource interface {
	Rand() float64
}

// Sink accepts generated samples. The update scheduler is the production sink.
type Sink interface {
	Enqueue(s series.Sample) error
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// NoiseFunc adapts a plain function to [NoiseSource].
type NoiseFunc func() float64

func (f NoiseFunc) Rand() float64 { return f() }
