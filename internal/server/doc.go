// Package server provides the HTTP host for the TickBoard dashboard and API.
//
// This package is internal to TickBoard and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/JS chart at "/"
//   - Live streams: each connection to "/api/stream" (Server-Sent Events)
//     or "/api/ws" (WebSocket) is one viewing session with its own series
//   - REST API: JSON snapshots under "/api/sessions"
//   - Metrics: Prometheus exposition at "/metrics"
//
// The server owns the teardown-hook registry ([Teardowns]): when a stream
// connection ends, the hook registered for its session fires and the
// session is destroyed.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the tickboard library should not need to interact with this
// package directly. The server is started automatically by [tickboard.Board.Start].
package server
