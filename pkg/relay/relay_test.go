package relay

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/tlv"
	"github.com/dawsh2/torq/pkg/transport"
)

// recordingSink is an in-memory transport.Sink double that records every
// message it receives, optionally failing every Send call.
type recordingSink struct {
	mu   sync.Mutex
	recv [][]byte
	fail atomic.Bool
}

func (s *recordingSink) Connect(ctx context.Context) error { return nil }
func (s *recordingSink) Disconnect() error                 { return nil }
func (s *recordingSink) IsConnected() bool                 { return true }
func (s *recordingSink) Metadata() transport.Metadata      { return transport.Metadata{Target: "mem", Kind: "mem"} }

func (s *recordingSink) Send(ctx context.Context, msg []byte) error {
	if s.fail.Load() {
		return assert.AnError
	}
	s.mu.Lock()
	s.recv = append(s.recv, msg)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) SendBatch(ctx context.Context, msgs [][]byte) error {
	for _, m := range msgs {
		if err := s.Send(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *recordingSink) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.recv))
	copy(out, s.recv)
	return out
}

func tradeMessage(t *testing.T, venue uint16, seq uint64) []byte {
	t.Helper()
	trade := tlv.TradeTLV{Venue: venue, InstrumentID: 1, Price: 100, Volume: 1, Side: 0, TimestampNs: 1}
	payload := trade.Encode()
	return tlv.NewBuilder(tlv.DomainMarketData, tlv.SourceKraken, 1, 1).
		WithSequence(seq).
		AddTLV(tlv.TypeTrade, payload).
		Build()
}

func TestRegistryRegisterTransitionsToConnected(t *testing.T) {
	reg := NewRegistry(8)
	sink := &recordingSink{}
	c, err := reg.Register(context.Background(), "c1", []string{"1"}, sink)
	require.NoError(t, err)
	assert.Equal(t, Connected, c.State())
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryRejectsTooManyTopics(t *testing.T) {
	reg := NewRegistry(1)
	_, err := reg.Register(context.Background(), "c1", []string{"a", "b"}, &recordingSink{})
	assert.Error(t, err)
}

func TestConsumerSendFailureTransitionsToFailedAndIsCleanedUp(t *testing.T) {
	reg := NewRegistry(8)
	sink := &recordingSink{}
	sink.fail.Store(true)
	c, err := reg.Register(context.Background(), "c1", []string{"1"}, sink)
	require.NoError(t, err)

	err = c.Send(context.Background(), []byte("x"))
	assert.Error(t, err)
	assert.Equal(t, Failed, c.State())

	evicted := reg.CleanupDead()
	assert.Equal(t, []string{"c1"}, evicted)
	assert.Equal(t, 0, reg.Count())
}

func TestRelayPublishFanOutReachesOnlySubscribedConsumers(t *testing.T) {
	reg := NewRegistry(8)
	sinkA := &recordingSink{}
	sinkB := &recordingSink{}
	// sinkA subscribes to venue topic 1 (the venue tradeMessage carries),
	// sinkB to a venue that never appears.
	_, err := reg.Register(context.Background(), "a", []string{"1"}, sinkA)
	require.NoError(t, err)
	_, err = reg.Register(context.Background(), "b", []string{"99"}, sinkB)
	require.NoError(t, err)

	cfg := TopicConfig{Strategy: ByInstrumentVenue, DefaultTLVType: tlv.TypeTrade, MaxTopicsPerConsumer: 8}
	r := New(tlv.DomainMarketData, cfg, reg, zap.NewNop(), nil)

	for i := uint64(1); i <= 3; i++ {
		msg := tradeMessage(t, 1, i)
		require.NoError(t, r.Publish(context.Background(), msg))
	}

	assert.Len(t, sinkA.received(), 3)
	assert.Empty(t, sinkB.received())
}

func TestRelayPublishPreservesOrderPerConsumer(t *testing.T) {
	reg := NewRegistry(8)
	sink := &recordingSink{}
	_, err := reg.Register(context.Background(), "a", []string{"1"}, sink)
	require.NoError(t, err)

	cfg := TopicConfig{Strategy: ByInstrumentVenue, DefaultTLVType: tlv.TypeTrade, MaxTopicsPerConsumer: 8}
	r := New(tlv.DomainMarketData, cfg, reg, zap.NewNop(), nil)

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, r.Publish(context.Background(), tradeMessage(t, 1, i)))
	}

	got := sink.received()
	require.Len(t, got, 5)
	for i, raw := range got {
		msg, err := tlv.Parse(raw, tlv.Relay)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), msg.Header.Sequence)
	}
}

func TestRelayPublishSkipsOversizedMessage(t *testing.T) {
	reg := NewRegistry(8)
	sink := &recordingSink{}
	_, err := reg.Register(context.Background(), "a", []string{"1"}, sink)
	require.NoError(t, err)

	cfg := TopicConfig{Strategy: ByInstrumentVenue, DefaultTLVType: tlv.TypeTrade, MaxTopicsPerConsumer: 8}
	r := New(tlv.DomainExecution, cfg, reg, zap.NewNop(), nil)
	r.Policy.MaxMsgBytes = 10 // force-shrink for the test

	require.NoError(t, r.Publish(context.Background(), tradeMessage(t, 1, 1)))
	assert.Empty(t, sink.received())

	skipped, _ := r.Stats()
	assert.Equal(t, uint64(1), skipped)
}
