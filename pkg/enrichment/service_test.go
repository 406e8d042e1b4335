package enrichment

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/tlv"
)

// fakeDiscoverer lets tests toggle RPC failure on and off, per spec §8
// scenario 5.
type fakeDiscoverer struct {
	fail atomic.Bool
	rec  PoolRecord
}

func (f *fakeDiscoverer) DiscoverPool(ctx context.Context, pool common.Address) (PoolRecord, error) {
	if f.fail.Load() {
		return PoolRecord{}, assert.AnError
	}
	return f.rec, nil
}

func testSwap(pool, tokenIn, tokenOut common.Address) tlv.PoolSwapTLV {
	return tlv.PoolSwapTLV{
		PoolAddress: pool,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		Venue:       1,
		BlockNumber: 100,
		TimestampNs: 1,
	}
}

func TestEnrichFailureQueuesForRetryWithNoEmit(t *testing.T) {
	cache, err := Open(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	disc := &fakeDiscoverer{rec: PoolRecord{Token0: token0, Token1: token1, Token0Decimals: 18, Token1Decimals: 6}}
	disc.fail.Store(true)

	svc := NewService(cache, disc, 10, zap.NewNop())

	emitted := 0
	err = svc.Enrich(context.Background(), testSwap(pool, token0, token1), func(tlv.PoolSwapTLV) error {
		emitted++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, emitted)
	assert.Equal(t, 1, svc.PendingCount())
}

func TestRetryQueueDrainsAfterRPCRecovers(t *testing.T) {
	cache, err := Open(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	disc := &fakeDiscoverer{rec: PoolRecord{Token0: token0, Token1: token1, Token0Decimals: 18, Token1Decimals: 6}}
	disc.fail.Store(true)
	svc := NewService(cache, disc, 1000, zap.NewNop())

	require.NoError(t, svc.Enrich(context.Background(), testSwap(pool, token0, token1), func(tlv.PoolSwapTLV) error {
		t.Fatal("must not emit while RPC is failing")
		return nil
	}))
	require.Equal(t, 1, svc.PendingCount())

	disc.fail.Store(false)

	var got []tlv.PoolSwapTLV
	err = svc.DrainRetryQueue(context.Background(), func(swap tlv.PoolSwapTLV) error {
		got = append(got, swap)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint8(18), got[0].AmountInDecimals)
	assert.Equal(t, uint8(6), got[0].AmountOutDecimals)
	assert.Equal(t, 0, svc.PendingCount())
}

func TestEnrichUsesCacheOnHitWithoutCallingDiscoverer(t *testing.T) {
	cache, err := Open(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	pool := common.HexToAddress("0x2222222222222222222222222222222222222222")
	token0 := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	token1 := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	require.NoError(t, cache.Put(pool, PoolRecord{Token0: token0, Token1: token1, Token0Decimals: 18, Token1Decimals: 6}))

	disc := &fakeDiscoverer{}
	disc.fail.Store(true) // discoverer would fail if called; cache hit must avoid it
	svc := NewService(cache, disc, 10, zap.NewNop())

	var got tlv.PoolSwapTLV
	err = svc.Enrich(context.Background(), testSwap(pool, token0, token1), func(swap tlv.PoolSwapTLV) error {
		got = swap
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(18), got.AmountInDecimals)
	assert.Equal(t, uint8(6), got.AmountOutDecimals)
}
