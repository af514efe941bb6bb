package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// wsConn is the subset of *websocket.Conn used by WebSocketSource.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// WebSocketSource turns each message received on a WebSocket into a chunk.
// A normal close from the peer ends the stream.
type WebSocketSource struct {
	conn wsConn
	log  logrus.FieldLogger

	mu     sync.Mutex
	closed bool
}

// NewWebSocketSource wraps an established connection.
func NewWebSocketSource(conn *websocket.Conn, logger logrus.FieldLogger) *WebSocketSource {
	return newWebSocketSource(conn, logger)
}

func newWebSocketSource(conn wsConn, logger logrus.FieldLogger) *WebSocketSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WebSocketSource{conn: conn, log: logger.WithField("transport", "websocket")}
}

// DialWebSocket connects to rawURL and returns a source reading from it.
func DialWebSocket(ctx context.Context, rawURL string, header http.Header, logger logrus.FieldLogger) (*WebSocketSource, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return newWebSocketSource(conn, logger), nil
}

// Next blocks until the next message arrives.
func (s *WebSocketSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Unblock the read when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := s.conn.ReadMessage()
	if err == nil {
		return data, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.log.Debug("peer closed stream")
		return nil, io.EOF
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return nil, fmt.Errorf("websocket closed with code %d: %w", closeErr.Code, err)
	}
	return nil, fmt.Errorf("websocket read failed: %w", err)
}

// Close sends a normal close frame and closes the connection.
func (s *WebSocketSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		s.log.WithError(err).Debug("sending close frame")
	}
	return s.conn.Close()
}
