package tlv

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bigFromString(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test fixture")
	}
	return v
}

func TestTradeTLVRoundTrip(t *testing.T) {
	tr := TradeTLV{
		Venue:        uint16(100),
		InstrumentID: 0xdeadbeefcafebabe,
		Price:        12345600000000,
		Volume:       500000000,
		Side:         1,
		TimestampNs:  1700000000000000000,
	}
	b := tr.Encode()
	assert.Len(t, b, TradeTLVSize)

	got, err := DecodeTradeTLV(b)
	require.NoError(t, err)
	assert.Equal(t, tr, got)
}

func TestDecodeTradeTLVWrongLength(t *testing.T) {
	_, err := DecodeTradeTLV(make([]byte, TradeTLVSize-1))
	assert.Error(t, err)
}

func TestQuoteTLVRoundTrip(t *testing.T) {
	q := QuoteTLV{
		Venue:        101,
		InstrumentID: 42,
		BidPrice:     100,
		BidSize:      10,
		AskPrice:     101,
		AskSize:      11,
		TimestampNs:  9999,
	}
	b := q.Encode()
	assert.Len(t, b, QuoteTLVSize)

	got, err := DecodeQuoteTLV(b)
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestPoolSwapTLVRoundTrip(t *testing.T) {
	amt, _ := Uint128FromBigInt(bigFromString("123456789012345678901234567890"))
	sw := PoolSwapTLV{
		PoolAddress:       common.HexToAddress("0x1f98431c8ad98523631ae4a59f267346ea31f984"),
		TokenIn:           common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"),
		TokenOut:          common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
		Venue:             137,
		AmountIn:          amt,
		AmountOut:         amt,
		LiquidityAfter:    amt,
		SqrtPriceX96After: amt,
		TickAfter:         -12345,
		AmountInDecimals:  18,
		AmountOutDecimals: 6,
		BlockNumber:       19000000,
		TimestampNs:       1700000000000000000,
	}
	b := sw.Encode()
	assert.Len(t, b, PoolSwapTLVSize)

	got, err := DecodePoolSwapTLV(b)
	require.NoError(t, err)
	assert.Equal(t, sw, got)
}

func TestPoolMintAndBurnShareLayout(t *testing.T) {
	m := PoolMintTLV{
		PoolAddress:    common.HexToAddress("0x1f98431c8ad98523631ae4a59f267346ea31f984"),
		Venue:          1,
		TickLower:      -100,
		TickUpper:      100,
		LiquidityDelta: Int128{Lo: 1000, Hi: 0},
		BlockNumber:    1,
		TimestampNs:    1,
	}
	b := m.Encode()
	assert.Len(t, b, PoolMintTLVSize)

	got, err := DecodePoolMintTLV(b)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	burn := PoolBurnTLV(m)
	bb := burn.Encode()
	assert.Equal(t, b, bb)
}

func TestStateInvalidationRoundTrip(t *testing.T) {
	s := StateInvalidationTLV{
		Venue:       100,
		Reason:      InvalidationDisconnection,
		Instruments: []uint64{1, 2, 3},
		TimestampNs: 555,
	}
	b, err := s.Encode()
	require.NoError(t, err)
	assert.Len(t, b, stateInvalidationMinSize+3*8)

	got, err := DecodeStateInvalidationTLV(b)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestStateInvalidationCapacityExceeded(t *testing.T) {
	ids := make([]uint64, MaxInvalidatedInstruments+1)
	s := StateInvalidationTLV{Instruments: ids}
	_, err := s.Encode()
	assert.Error(t, err)
}

func TestArbitrageSignalTLVRoundTrip(t *testing.T) {
	a := ArbitrageSignalTLV{
		SourcePool:         common.HexToAddress("0x1f98431c8ad98523631ae4a59f267346ea31f984"),
		SourceVenue:        1,
		TargetPool:         common.HexToAddress("0x1f98431c8ad98523631ae4a59f267346ea31f985"),
		TargetVenue:        137,
		TokenIn:            common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"),
		TokenOut:           common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"),
		ExpectedProfitUsd:  42.5,
		RequiredCapitalUsd: 1000.0,
		SpreadBps:          25,
		FeeBps:             30,
		GasEstimateUsd:     3.2,
		SlippageBps:        5,
		TimestampNs:        123456789,
	}
	b := a.Encode()
	assert.Len(t, b, ArbitrageSignalTLVSize)

	got, err := DecodeArbitrageSignalTLV(b)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}
