package transport

import (
	"context"
	"net"
	"sync"
)

// TCPSink is a Sink backed by a plain TCP connection, the fallback
// transport mode named in spec §6.3's `transport.mode`.
type TCPSink struct {
	address     string
	maxFrame    uint32
	mu          sync.Mutex
	conn        net.Conn
	dialContext func(ctx context.Context, network, address string) (net.Conn, error)
}

func NewTCPSink(address string, maxFrame uint32) *TCPSink {
	var d net.Dialer
	return &TCPSink{address: address, maxFrame: maxFrame, dialContext: d.DialContext}
}

func (s *TCPSink) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}
	conn, err := s.dialContext(ctx, "tcp", s.address)
	if err != nil {
		return wrapConnection("transport.TCPSink.Connect", err)
	}
	s.conn = conn
	return nil
}

func (s *TCPSink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return wrapNetwork("transport.TCPSink.Disconnect", err)
	}
	return nil
}

func (s *TCPSink) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *TCPSink) Send(ctx context.Context, msg []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return wrapConnection("transport.TCPSink.Send", errNotConnected)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	return WriteFramed(conn, msg)
}

func (s *TCPSink) SendBatch(ctx context.Context, msgs [][]byte) error {
	for _, m := range msgs {
		if err := s.Send(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *TCPSink) Metadata() Metadata {
	return Metadata{Target: s.address, Kind: "tcp"}
}
