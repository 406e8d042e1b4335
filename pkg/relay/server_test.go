package relay

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/tlv"
	"github.com/dawsh2/torq/pkg/transport"
)

func testRelay(reg *Registry) *Relay {
	cfg := TopicConfig{Strategy: ByInstrumentVenue, DefaultTLVType: tlv.TypeTrade, MaxTopicsPerConsumer: 8}
	return New(tlv.DomainMarketData, cfg, reg, zap.NewNop(), nil)
}

func TestServeRegistersConsumerAfterSubscriptionFrame(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	registry := NewRegistry(8)
	r := testRelay(registry)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, r, 1<<20, zap.NewNop()) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	frame, err := json.Marshal(SubscriptionFrame{ConsumerID: "consumer-1", Topics: []string{"1"}})
	require.NoError(t, err)
	require.NoError(t, transport.WriteFramed(conn, frame))

	require.Eventually(t, func() bool {
		return registry.Count() == 1
	}, time.Second, 5*time.Millisecond)

	subs := registry.Subscribers("1")
	require.Len(t, subs, 1)
	require.Equal(t, "consumer-1", subs[0].ID)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}

func TestServeClosesConnectionOnMalformedHandshake(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	registry := NewRegistry(8)
	r := testRelay(registry)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = Serve(ctx, ln, r, 1<<20, zap.NewNop()) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, transport.WriteFramed(conn, []byte("not json")))

	require.Never(t, func() bool {
		return registry.Count() != 0
	}, 200*time.Millisecond, 10*time.Millisecond)
}

func TestServeRoutesProducerFramesToPublish(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	registry := NewRegistry(8)
	r := testRelay(registry)

	consumerSink := &recordingSink{}
	_, err = registry.Register(context.Background(), "consumer-1", []string{"1"}, consumerSink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = Serve(ctx, ln, r, 1<<20, zap.NewNop()) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, transport.WriteFramed(conn, tradeMessage(t, 1, 1)))
	require.NoError(t, transport.WriteFramed(conn, tradeMessage(t, 1, 2)))

	require.Eventually(t, func() bool {
		return len(consumerSink.received()) == 2
	}, time.Second, 5*time.Millisecond)
}
