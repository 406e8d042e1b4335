package transport

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketSink is a Sink used for dashboard/consumer-facing fan-out
// (spec §4.5) — never the adapter ingest path, which always speaks the
// exchange's native WebSocket protocol directly, not this relay-facing
// one.
type WebSocketSink struct {
	url    string
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWebSocketSink(url string) *WebSocketSink {
	return &WebSocketSink{url: url, dialer: websocket.DefaultDialer}
}

func (s *WebSocketSink) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return wrapConnection("transport.WebSocketSink.Connect", err)
	}
	s.conn = conn
	return nil
}

func (s *WebSocketSink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return wrapNetwork("transport.WebSocketSink.Disconnect", err)
	}
	return nil
}

func (s *WebSocketSink) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *WebSocketSink) Send(ctx context.Context, msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return wrapConnection("transport.WebSocketSink.Send", errNotConnected)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		return wrapNetwork("transport.WebSocketSink.Send", err)
	}
	return nil
}

func (s *WebSocketSink) SendBatch(ctx context.Context, msgs [][]byte) error {
	for _, m := range msgs {
		if err := s.Send(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *WebSocketSink) Metadata() Metadata {
	return Metadata{Target: s.url, Kind: "websocket"}
}
