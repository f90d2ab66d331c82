package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jpalmerr/tickboard/internal/metrics"
	"github.com/jpalmerr/tickboard/internal/series"
	"github.com/jpalmerr/tickboard/internal/session"
)

const (
	// streamWriteTimeout is the maximum time allowed for a single SSE or
	// WebSocket write. This prevents goroutine leaks when clients are slow or
	// disconnected. Must be <= shutdown timeout to ensure clean shutdown.
	streamWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "TickBoard"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Config holds the dependencies of a [Server].
type Config struct {
	// Controller creates and tracks viewing sessions. Required.
	Controller *session.Controller

	// Teardowns must be the same registry the controller was given as its
	// host, so that closing a stream destroys its session.
	Teardowns *Teardowns

	// Session is the configuration for sessions created by stream requests.
	Session session.Config

	// Metrics is exposed at /metrics when non-nil.
	Metrics *metrics.Collector

	// Port is the TCP port to listen on. Zero lets the OS choose.
	Port int

	// Assets holds assets/index.html. Nil disables the dashboard route.
	Assets fs.FS

	// Title is substituted into the dashboard. Defaults to "TickBoard".
	Title string

	Logger *slog.Logger
}

// Server handles HTTP requests for the TickBoard dashboard and API.
//
// Server provides these endpoints:
//   - GET /: Serves the embedded dashboard HTML
//   - GET /api/stream: Server-Sent Events stream of a new session
//   - GET /api/ws: WebSocket stream of a new session
//   - GET /api/sessions: Lists live sessions
//   - GET /api/sessions/{id}/series: Snapshot of a session's rolling series
//   - GET /api/sessions/{id}/latest: A session's most recent sample
//   - GET /metrics: Prometheus metrics
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	controller *session.Controller
	teardowns  *Teardowns
	sessionCfg session.Config
	metrics    *metrics.Collector
	port       int
	assets     fs.FS
	title      string
	logger     *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr
}

// NewServer creates a new HTTP [Server].
//
// The server is not started until [Server.Start] is called.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	teardowns := cfg.Teardowns
	if teardowns == nil {
		teardowns = NewTeardowns()
	}
	return &Server{
		controller: cfg.Controller,
		teardowns:  teardowns,
		sessionCfg: cfg.Session,
		metrics:    cfg.Metrics,
		port:       cfg.Port,
		assets:     cfg.Assets,
		title:      cfg.Title,
		logger:     logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/api/ws", s.handleWebSocket)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/sessions/{id}/series", s.handleSeries)
	mux.HandleFunc("GET /api/sessions/{id}/latest", s.handleLatest)

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	// serve dashboard assets
	if s.assets != nil {
		// serve index.html at root
		mux.HandleFunc("/", s.handleDashboard)
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	httpServer := &http.Server{
		Handler: s.Handler(),
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the listening address, or nil before [Server.Start].
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// read index.html from embedded assets
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	safeTitle := html.EscapeString(title)
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, safeTitle)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// sessionView is the JSON form of a live session.
type sessionView struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Len       int            `json:"len"`
	Capacity  int            `json:"capacity"`
	Pending   int            `json:"pending"`
	Latest    *series.Sample `json:"latest,omitempty"`
}

func newSessionView(sess *session.Session) sessionView {
	v := sessionView{
		ID:        sess.ID(),
		CreatedAt: sess.CreatedAt(),
		Len:       sess.Len(),
		Capacity:  sess.Capacity(),
		Pending:   sess.Pending(),
	}
	if latest, ok := sess.Latest(); ok {
		v.Latest = &latest
	}
	return v
}

// handleSessions returns every live session as JSON.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions := s.controller.Sessions()
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, newSessionView(sess))
	}
	s.writeJSON(w, views)
}

// handleSeries returns a snapshot of one session's rolling series.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Get(r.PathValue("id"))
	if sess == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, sess.Series())
}

// handleLatest returns one session's most recent sample.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	sess := s.controller.Get(r.PathValue("id"))
	if sess == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	latest, ok := sess.Latest()
	if !ok {
		http.Error(w, "No samples yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, latest)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// createSession starts the session behind a stream request, writing an
// HTTP error and returning nil if that fails.
func (s *Server) createSession(w http.ResponseWriter) *session.Session {
	sess, err := s.controller.CreateRandom(s.sessionCfg)
	if err == nil {
		return sess
	}

	if errors.Is(err, session.ErrSessionLimit) {
		s.logger.Warn("session rejected", "error", err)
		http.Error(w, "Too many sessions", http.StatusServiceUnavailable)
		return nil
	}
	s.logger.Error("session create failed", "error", err)
	http.Error(w, "Session could not be started", http.StatusInternalServerError)
	return nil
}

// endSession fires the session's teardown hook. If the hook was already
// consumed the session is destroyed directly.
func (s *Server) endSession(sess *session.Session) {
	if !s.teardowns.Fire(sess.ID()) {
		s.controller.Destroy(sess)
	}
}

// streamInfo is the first message of every stream.
type streamInfo struct {
	ID       string `json:"id"`
	Capacity int    `json:"capacity"`
	Title    string `json:"title"`
}

func (s *Server) streamInfo(sess *session.Session) streamInfo {
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	return streamInfo{ID: sess.ID(), Capacity: sess.Capacity(), Title: title}
}

// subscribeWithSnapshot subscribes to sess and takes a snapshot. Samples
// already in the snapshot must be skipped on the subscription; after
// reports which.
func subscribeWithSnapshot(sess *session.Session) (<-chan series.Sample, []series.Sample, func(series.Sample) bool) {
	ch := sess.Subscribe()
	snapshot := sess.Series()

	var last time.Time
	if n := len(snapshot); n > 0 {
		last = snapshot[n-1].Timestamp
	}
	after := func(sample series.Sample) bool {
		return sample.Timestamp.After(last)
	}
	return ch, snapshot, after
}
