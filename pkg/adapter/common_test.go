package adapter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/identifier"
)

func TestSymbolCacheGetOrCreateCachesOnHit(t *testing.T) {
	c, err := NewSymbolCache(8)
	require.NoError(t, err)

	calls := 0
	create := func() (identifier.InstrumentId, error) {
		calls++
		return identifier.New(identifier.VenueKraken, identifier.AssetSpotCrypto, "BTC/USD")
	}

	id1, err := c.GetOrCreate("BTC/USD", create)
	require.NoError(t, err)
	id2, err := c.GetOrCreate("BTC/USD", create)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, calls)
}

type flakyConnector struct {
	attempts  atomic.Int32
	failUntil int32
	ran       atomic.Int32
}

func (f *flakyConnector) Connect(ctx context.Context) error {
	n := f.attempts.Add(1)
	if n <= f.failUntil {
		return errors.New("upstream unavailable")
	}
	return nil
}

func (f *flakyConnector) Close() error { return nil }

func TestRunWithReconnectRetriesThenRuns(t *testing.T) {
	fc := &flakyConnector{failUntil: 2}
	ctx, cancel := context.WithCancel(context.Background())

	err := RunWithReconnect(ctx, zap.NewNop(), fc, 2*time.Second, func(ctx context.Context) error {
		fc.ran.Add(1)
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), fc.attempts.Load())
	assert.Equal(t, int32(1), fc.ran.Load())
}

func TestFixedPoint8ParsesDecimalStrings(t *testing.T) {
	v, err := FixedPoint8("50000.00000000")
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000_000), v)

	v, err = FixedPoint8("1.0")
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_000), v)
}

func TestFixedPoint8RejectsExcessPrecision(t *testing.T) {
	_, err := FixedPoint8("1.000000001")
	assert.Error(t, err)
}

func TestFixedPoint8RejectsGarbage(t *testing.T) {
	_, err := FixedPoint8("not-a-number")
	assert.Error(t, err)
}

func TestRunWithReconnectStopsOnCancelledContext(t *testing.T) {
	fc := &flakyConnector{failUntil: 100}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunWithReconnect(ctx, zap.NewNop(), fc, time.Second, func(ctx context.Context) error {
		t.Fatal("run should never be called on an already-cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
