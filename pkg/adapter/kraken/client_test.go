package kraken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/adapter"
	"github.com/dawsh2/torq/pkg/tlv"
)

func TestEncodeTradeProducesParseableMessage(t *testing.T) {
	cache, err := adapter.NewSymbolCache(8)
	require.NoError(t, err)
	c := NewClient([]string{"BTC/USD"}, nil, cache, zap.NewNop())

	raw, err := c.encodeTrade(tradeEvent{Symbol: "BTC/USD", Price: "50000.00000000", Qty: "1.00000000", Side: "sell"})
	require.NoError(t, err)

	msg, err := tlv.Parse(raw, tlv.Strict)
	require.NoError(t, err)
	assert.Equal(t, tlv.SourceKraken, msg.Header.SourceType)

	ext, ok := msg.Find(tlv.TypeTrade)
	require.True(t, ok)
	trade, err := tlv.DecodeTradeTLV(ext.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000_000_000), trade.Price)
	assert.Equal(t, int64(100_000_000), trade.Volume)
	assert.Equal(t, uint8(1), trade.Side)
}

func TestEncodeTradeRejectsMalformedPrice(t *testing.T) {
	cache, err := adapter.NewSymbolCache(8)
	require.NoError(t, err)
	c := NewClient([]string{"BTC/USD"}, nil, cache, zap.NewNop())

	_, err = c.encodeTrade(tradeEvent{Symbol: "BTC/USD", Price: "nope", Qty: "1.0", Side: "buy"})
	assert.Error(t, err)
}
