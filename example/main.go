package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/tickboard"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// one new high per session is worth a log line
	highs := make(map[string]float64)

	tb, err := tickboard.New(
		tickboard.WithTitle("Real Time Stock Price Streaming"),
		tickboard.WithSampleInterval(250*time.Millisecond),
		tickboard.WithBufferCapacity(400),
		tickboard.WithNoise(0.00001, 0.002),
		tickboard.WithSeedRange(30, 500),
		tickboard.WithMaxSessions(20),
		tickboard.WithPort(8080),
		tickboard.WithLogger(logger),
		// callbacks run on a single dispatcher goroutine, so highs needs no lock
		tickboard.WithSampleCallback(func(s tickboard.Sample) {
			if high, ok := highs[s.SessionID]; !ok || s.Value > high {
				highs[s.SessionID] = s.Value
				if ok {
					logger.Info("new high", "session_id", s.SessionID, "value", s.Value)
				}
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create tickboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  TickBoard Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser.")
	fmt.Println("  Every tab gets its own random walk; closing it stops the walk.")
	fmt.Println("  Metrics: http://localhost:8080/metrics")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tb.Start(ctx); err != nil {
		slog.Error("tickboard error", "error", err)
		os.Exit(1)
	}
}
