package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleStream starts a viewing session and streams it via Server-Sent Events.
//
// Events, in order: "session" (id, capacity, title), "snapshot" (the whole
// rolling series), then one "sample" per applied sample. When the client
// disconnects the session's teardown hook fires.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	sess := s.createSession(w)
	if sess == nil {
		return
	}
	defer s.endSession(sess)

	// ResponseController provides deadline-aware write and flush operations.
	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	// writeEvent writes one SSE event with a deadline to prevent blocking forever.
	writeEvent := func(event string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}

		// ResponseController.Flush respects the write deadline
		return rc.Flush()
	}

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch, snapshot, after := subscribeWithSnapshot(sess)
	defer sess.Unsubscribe(ch)

	if err := writeEvent("session", s.streamInfo(sess)); err != nil {
		return
	}
	if err := writeEvent("snapshot", snapshot); err != nil {
		return
	}

	// stream applied samples
	for {
		select {
		case sample, ok := <-ch:
			if !ok {
				return
			}
			if !after(sample) {
				continue
			}
			if err := writeEvent("sample", sample); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
