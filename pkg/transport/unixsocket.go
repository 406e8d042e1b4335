package transport

import (
	"context"
	"net"
	"sync"
)

// UnixSink is a Sink backed by a Unix domain socket — the default
// transport for relay consumer connections (spec §4.4/§6.2).
type UnixSink struct {
	path        string
	maxFrame    uint32
	mu          sync.Mutex
	conn        net.Conn
	dialContext func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewUnixSink returns a disconnected sink targeting path.
func NewUnixSink(path string, maxFrame uint32) *UnixSink {
	var d net.Dialer
	return &UnixSink{path: path, maxFrame: maxFrame, dialContext: d.DialContext}
}

func (s *UnixSink) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil
	}
	conn, err := s.dialContext(ctx, "unix", s.path)
	if err != nil {
		return wrapConnection("transport.UnixSink.Connect", err)
	}
	s.conn = conn
	return nil
}

func (s *UnixSink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return wrapNetwork("transport.UnixSink.Disconnect", err)
	}
	return nil
}

func (s *UnixSink) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *UnixSink) Send(ctx context.Context, msg []byte) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return wrapConnection("transport.UnixSink.Send", errNotConnected)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	return WriteFramed(conn, msg)
}

func (s *UnixSink) SendBatch(ctx context.Context, msgs [][]byte) error {
	for _, m := range msgs {
		if err := s.Send(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *UnixSink) Metadata() Metadata {
	return Metadata{Target: s.path, Kind: "unix"}
}
