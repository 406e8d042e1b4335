package relay

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/tlv"
	"github.com/dawsh2/torq/pkg/torqerr"
	"github.com/dawsh2/torq/pkg/transport"
)

// SubscriptionFrame is the first frame a consumer sends after connecting
// (spec §4.4): its identity and topic subscription set. Everything after
// this frame is ordinary fan-out traffic written via the registered
// Consumer's Sink.
type SubscriptionFrame struct {
	ConsumerID string   `json:"consumer_id"`
	Topics     []string `json:"topics"`
}

// Serve accepts both producer and consumer connections from ln until ctx
// is cancelled. A relay socket carries both roles (spec §4.4/§4.7): an
// adapter dials in and writes framed TLV messages directly, while a
// strategy consumer dials in, sends one JSON subscription frame, then
// only reads. Serve tells the two apart by sniffing each connection's
// first frame for the TLV wire magic. It never returns an error for a
// shutdown triggered by ctx; any other Accept failure is fatal and
// propagates up so a relay's main.go can exit non-zero.
func Serve(ctx context.Context, ln net.Listener, r *Relay, maxFrame uint32, log *zap.Logger) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return torqerr.Wrap(torqerr.Connection, "relay.Serve", err)
		}
		go handleConn(ctx, conn, r, maxFrame, log)
	}
}

// handleConn reads conn's first frame, routes it to the producer or
// consumer path based on whether it carries the TLV wire magic, and
// hands the connection over to that path for its lifetime.
func handleConn(ctx context.Context, conn net.Conn, r *Relay, maxFrame uint32, log *zap.Logger) {
	// connID exists purely for correlating this connection's log lines —
	// it is never part of the wire protocol or the consumer registry key,
	// which stays the caller-supplied consumer_id.
	connID := uuid.NewString()
	log = log.With(zap.String("conn_id", connID))

	first, err := transport.ReadFramed(conn, maxFrame)
	if err != nil {
		log.Warn("relay: failed to read connection's first frame", zap.Error(err))
		_ = conn.Close()
		return
	}

	if isTLVFrame(first) {
		runProducer(ctx, conn, r, first, maxFrame, log)
		return
	}
	runConsumer(ctx, conn, r.registry, first, log)
}

func isTLVFrame(frame []byte) bool {
	if len(frame) < 4 {
		return false
	}
	return binary.LittleEndian.Uint32(frame[0:4]) == tlv.Magic
}

// runProducer treats conn as an adapter's outbound relay sink: publish
// its already-read first frame, then keep publishing every subsequent
// frame until the connection errs out or ctx is cancelled.
func runProducer(ctx context.Context, conn net.Conn, r *Relay, first []byte, maxFrame uint32, log *zap.Logger) {
	defer conn.Close()

	if err := r.Publish(ctx, first); err != nil {
		log.Warn("relay: failed to publish producer's first frame", zap.Error(err))
	}

	for {
		raw, err := transport.ReadFramed(conn, maxFrame)
		if err != nil {
			log.Info("relay: producer connection closed", zap.Error(err))
			return
		}
		if err := r.Publish(ctx, raw); err != nil {
			log.Warn("relay: publish failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// runConsumer parses the already-read first frame as a subscription
// request and registers the connection as a Consumer. The connection is
// closed and discarded on handshake failure.
func runConsumer(ctx context.Context, conn net.Conn, registry *Registry, first []byte, log *zap.Logger) {
	var sub SubscriptionFrame
	if err := json.Unmarshal(first, &sub); err != nil || sub.ConsumerID == "" {
		log.Warn("relay: malformed subscription frame", zap.Error(err))
		_ = conn.Close()
		return
	}

	sink := transport.WrapConn(conn, transport.Metadata{Target: conn.RemoteAddr().String(), Kind: "accepted"})
	if _, err := registry.Register(ctx, sub.ConsumerID, sub.Topics, sink); err != nil {
		log.Warn("relay: consumer registration failed", zap.String("consumer", sub.ConsumerID), zap.Error(err))
		_ = conn.Close()
		return
	}

	log.Info("relay: consumer registered", zap.String("consumer", sub.ConsumerID), zap.Strings("topics", sub.Topics))
}

// Listen opens a net.Listener for mode ("unix_socket" or "tcp") against
// path (unix) or address (tcp), matching config.TransportSection's shape
// without importing the config package directly — main.go wires the two
// together.
func Listen(mode, path, address string) (net.Listener, error) {
	switch mode {
	case "unix_socket":
		return net.Listen("unix", path)
	case "tcp":
		return net.Listen("tcp", address)
	default:
		return nil, torqerr.New(torqerr.Configuration, "relay.Listen", "unsupported transport mode for a relay listener: "+mode)
	}
}
