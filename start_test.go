package tickboard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dialStream connects to a running board's SSE stream, retrying while the
// server comes up. The caller must close the returned body.
func dialStream(port int) (io.ReadCloser, error) {
	url := fmt.Sprintf("http://127.0.0.1:%d/api/stream", port)

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			if resp.StatusCode != http.StatusOK {
				_ = resp.Body.Close()
				return nil, fmt.Errorf("GET /api/stream status = %d", resp.StatusCode)
			}
			return resp.Body, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func openStream(t *testing.T, port int) io.ReadCloser {
	t.Helper()
	body, err := dialStream(port)
	if err != nil {
		t.Fatalf("dialStream() error = %v", err)
	}
	return body
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	// use a high port to avoid conflicts
	b, err := New(
		WithPort(19001),
		WithSampleInterval(20*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)

	// verify Start is still blocking (channel should be empty)
	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
		// expected: still blocking
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns immediately if the context is already cancelled.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	b, err := New(WithPort(19002), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return with already-cancelled context")
	}
}

// TestStart_StreamsSessionAndShutsDown opens a live stream, then verifies
// shutdown ends it and Start returns.
func TestStart_StreamsSessionAndShutsDown(t *testing.T) {
	b, err := New(
		WithPort(19003),
		WithSampleInterval(20*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	body := openStream(t, 19003)
	defer func() { _ = body.Close() }()

	scanner := bufio.NewScanner(body)
	samples := 0
	for scanner.Scan() && samples < 3 {
		if scanner.Text() == "event: sample" {
			samples++
		}
	}
	if samples < 3 {
		t.Fatalf("received %d sample events, want 3", samples)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}

	// the stream is closed by shutdown
	_, _ = io.Copy(io.Discard, body)
}

func TestStart_PortInUse(t *testing.T) {
	first, err := New(WithPort(19005), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	second, err := New(WithPort(19005), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firstDone := make(chan error, 1)
	go func() { firstDone <- first.Start(ctx) }()

	// wait for the first board to bind
	body := openStream(t, 19005)
	_ = body.Close()

	err = second.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to start HTTP server") {
		t.Errorf("error = %v, want HTTP server start failure", err)
	}

	cancel()
	<-firstDone
}

// TestStart_MultipleSequentialRuns verifies that a new Board can be
// started after the previous one shuts down.
func TestStart_MultipleSequentialRuns(t *testing.T) {
	for i := 0; i < 3; i++ {
		b, err := New(
			WithPort(19006+i),
			WithSampleInterval(20*time.Millisecond),
			WithLogger(testLogger()),
		)
		if err != nil {
			t.Fatalf("iteration %d: New() error = %v", i, err)
		}

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- b.Start(ctx)
		}()

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("iteration %d: Start() returned error: %v", i, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("iteration %d: Start() did not return", i)
		}
	}
}

// TestStart_ConcurrentViewers runs several streams against one board.
func TestStart_ConcurrentViewers(t *testing.T) {
	b, err := New(
		WithPort(19010),
		WithSampleInterval(20*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx) }()

	var wg sync.WaitGroup
	ids := make([]string, 4)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, err := dialStream(19010)
			if err != nil {
				t.Errorf("dialStream() error = %v", err)
				return
			}
			defer func() { _ = body.Close() }()

			scanner := bufio.NewScanner(body)
			for scanner.Scan() {
				if line := scanner.Text(); strings.HasPrefix(line, "data: {\"id\"") {
					ids[i] = line
					return
				}
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" {
			t.Fatal("a viewer received no session event")
		}
		if seen[id] {
			t.Errorf("two viewers shared session %s", id)
		}
		seen[id] = true
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return")
	}
}
