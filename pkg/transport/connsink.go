package transport

import (
	"context"
	"net"
	"sync"
)

// ConnSink adapts an already-established net.Conn (one accepted by a
// relay's listener, rather than dialed outbound) into a Sink. Connect is
// a no-op since the connection already exists; Disconnect closes it.
type ConnSink struct {
	meta Metadata
	mu   sync.Mutex
	conn net.Conn
}

// WrapConn returns a Sink around an already-open connection — the
// server-side counterpart to UnixSink/TCPSink's client-side dialing, used
// by a relay to hand its accepted consumer connections a Sink without
// redialing them.
func WrapConn(conn net.Conn, meta Metadata) *ConnSink {
	return &ConnSink{conn: conn, meta: meta}
}

func (s *ConnSink) Connect(ctx context.Context) error { return nil }

func (s *ConnSink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return wrapNetwork("transport.ConnSink.Disconnect", err)
	}
	return nil
}

func (s *ConnSink) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *ConnSink) Send(ctx context.Context, msg []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return wrapConnection("transport.ConnSink.Send", errNotConnected)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	return WriteFramed(conn, msg)
}

func (s *ConnSink) SendBatch(ctx context.Context, msgs [][]byte) error {
	for _, m := range msgs {
		if err := s.Send(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConnSink) Metadata() Metadata { return s.meta }

// ReadRaw exposes the underlying connection for the relay's subscription
// handshake (reading the initial {consumer_id, topics} frame) before any
// Sink traffic flows.
func (s *ConnSink) ReadRaw() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}
