package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/tickboard/internal/series"
)

const (
	// wsPongWait is how long a client may stay silent before it is
	// considered gone. Browsers answer pings automatically.
	wsPongWait = 60 * time.Second

	// wsPingPeriod must be less than wsPongWait.
	wsPingPeriod = 30 * time.Second
)

// wsMessage is the envelope of every WebSocket message.
type wsMessage struct {
	Type    string          `json:"type"`
	Session string          `json:"session"`
	Info    *streamInfo     `json:"info,omitempty"`
	Samples []series.Sample `json:"samples,omitempty"`
	Sample  *series.Sample  `json:"sample,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWebSocket is the WebSocket counterpart of handleStream.
//
// Messages, in order: {"type":"session"}, {"type":"snapshot","samples":[...]},
// then {"type":"sample","sample":{...}} per applied sample.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "WebSocket upgrade required", http.StatusBadRequest)
		return
	}

	// create the session before upgrading so rejections are plain HTTP errors
	sess := s.createSession(w)
	if sess == nil {
		return
	}
	defer s.endSession(sess)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		s.logger.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// the read loop only exists to notice the client going away
	go s.readWebSocket(conn, cancel)

	ch, snapshot, after := subscribeWithSnapshot(sess)
	defer sess.Unsubscribe(ch)

	write := func(msg wsMessage) error {
		msg.Session = sess.ID()
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(msg)
	}

	info := s.streamInfo(sess)
	if err := write(wsMessage{Type: "session", Info: &info}); err != nil {
		return
	}
	if err := write(wsMessage{Type: "snapshot", Samples: snapshot}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case sample, ok := <-ch:
			if !ok {
				s.closeWebSocket(conn, websocket.CloseGoingAway, "session ended")
				return
			}
			if !after(sample) {
				continue
			}
			if err := write(wsMessage{Type: "sample", Sample: &sample}); err != nil {
				return
			}

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}

		case <-ctx.Done():
			s.closeWebSocket(conn, websocket.CloseGoingAway, "server shutting down")
			return
		}
	}
}

// readWebSocket discards client messages until the connection fails, then
// cancels the stream.
func (s *Server) readWebSocket(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				s.logger.Debug("websocket closed by client", "code", closeErr.Code)
			} else {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
	}
}

// closeWebSocket sends a close frame; errors are ignored since the
// connection is going away regardless.
func (s *Server) closeWebSocket(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
