package coinbase

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
	c := NewClient([]string{"BTC-USD"}, nil, cache, zap.NewNop())

	raw, err := c.encodeTrade(matchEvent{Type: "match", ProductID: "BTC-USD", Price: "50000.00", Size: "1.0", Side: "sell"})
	require.NoError(t, err)

	msg, err := tlv.Parse(raw, tlv.Strict)
	require.NoError(t, err)
	assert.Equal(t, tlv.SourceCoinbase, msg.Header.SourceType)

	ext, ok := msg.Find(tlv.TypeTrade)
	require.True(t, ok)
	trade, err := tlv.DecodeTradeTLV(ext.Value)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), trade.Side)
	assert.Equal(t, int64(5_000_000_000_000), trade.Price)
}

func TestEncodeTradeRejectsBadSize(t *testing.T) {
	cache, err := adapter.NewSymbolCache(8)
	require.NoError(t, err)
	c := NewClient([]string{"BTC-USD"}, nil, cache, zap.NewNop())

	_, err = c.encodeTrade(matchEvent{Type: "match", ProductID: "BTC-USD", Price: "50000.00", Size: "garbage", Side: "buy"})
	assert.Error(t, err)
}
