package binance

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
	c := NewClient([]string{"btcusdt"}, nil, cache, zap.NewNop())

	raw, err := c.encodeTrade(tradeEvent{Symbol: "BTCUSDT", Price: "50000.00000000", Qty: "1.00000000", IsBuyerMaker: true})
	require.NoError(t, err)

	msg, err := tlv.Parse(raw, tlv.Strict)
	require.NoError(t, err)
	assert.Equal(t, tlv.SourceBinance, msg.Header.SourceType)

	ext, ok := msg.Find(tlv.TypeTrade)
	require.True(t, ok)
	trade, err := tlv.DecodeTradeTLV(ext.Value)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), trade.Side)
}

func TestStreamURLJoinsLowercasedSymbols(t *testing.T) {
	c := NewClient([]string{"BTCUSDT", "ethusdt"}, nil, nil, zap.NewNop())
	assert.Equal(t, wsBase+"?streams=btcusdt@trade/ethusdt@trade", c.streamURL())
}
