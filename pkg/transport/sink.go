// Package transport implements the Sink capability (spec §4.5): stream
// transports for Unix-socket, TCP, and WebSocket consumers, wrapped by a
// batching dispatcher, a circuit breaker, and a connection pool.
package transport

import (
	"context"
	"encoding/binary"
	"io"
)

// Metadata describes a sink's identity and transport kind, surfaced for
// logging and metrics labeling.
type Metadata struct {
	Target string // address/path this sink connects to
	Kind   string // "unix", "tcp", "websocket"
}

// Sink is the transport capability every relay consumer connection and
// every adapter's outbound relay connection is built on (spec §4.5).
type Sink interface {
	Send(ctx context.Context, msg []byte) error
	SendBatch(ctx context.Context, msgs [][]byte) error
	IsConnected() bool
	Connect(ctx context.Context) error
	Disconnect() error
	Metadata() Metadata
}

// WriteFramed writes msg to w using the stream framing spec §4.5/§6.1
// defines for all socket transports: a little-endian u32 length prefix
// followed by the raw message bytes.
func WriteFramed(w io.Writer, msg []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(msg)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return wrapNetwork("transport.WriteFramed", err)
	}
	if _, err := w.Write(msg); err != nil {
		return wrapNetwork("transport.WriteFramed", err)
	}
	return nil
}

// ReadFramed reads one length-prefixed message from r.
func ReadFramed(r io.Reader, maxSize uint32) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, wrapNetwork("transport.ReadFramed", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxSize {
		return nil, wrapResourceExhausted("transport.ReadFramed", "framed message exceeds max size")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, wrapNetwork("transport.ReadFramed", err)
	}
	return buf, nil
}
