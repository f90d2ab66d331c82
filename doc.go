// Package tickboard provides a live, continuously updating time-series
// dashboard in which every viewer watches their own simulated price series.
//
// Each viewing session runs a background producer that generates one
// sample per interval as a log-normal random walk, and a single consumer
// that folds samples into the session's rolling series and latest-value
// stores in the order they were produced. The series keeps a bounded
// number of samples, evicting the oldest first.
//
// # Quick Start
//
//	b, _ := tickboard.New(tickboard.WithTitle("Real Time Stock Price Streaming"))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// Board uses the functional options pattern for configuration:
//
//	b, err := tickboard.New(
//	    tickboard.WithSampleInterval(500 * time.Millisecond),
//	    tickboard.WithBufferCapacity(300),
//	    tickboard.WithNoise(0, 0.002),
//	    tickboard.WithNoiseDistribution(tickboard.DistributionLaplace),
//	    tickboard.WithSeedRange(100, 200),
//	    tickboard.WithPort(9090),
//	)
//
// # Architecture
//
// TickBoard consists of several internal packages (under internal/):
//
//   - internal/series: Sample, rolling series store and latest-value store
//   - internal/update: per-session FIFO handoff to a single consumer goroutine
//   - internal/producer: the random-walk producer loop
//   - internal/session: session lifecycle and the teardown hook contract
//   - internal/metrics: Prometheus collectors
//   - internal/server: HTTP server with REST API, SSE and WebSocket streams
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package tickboard
