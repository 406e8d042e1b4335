// Package binance implements the Binance spot WebSocket adapter:
// combined-stream trade events converted to TradeTLV and written directly
// into a pre-connected relay sink (spec §4.7).
package binance

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/adapter"
	"github.com/dawsh2/torq/pkg/identifier"
	"github.com/dawsh2/torq/pkg/tlv"
	"github.com/dawsh2/torq/pkg/torqerr"
	"github.com/dawsh2/torq/pkg/transport"
)

const wsBase = "wss://stream.binance.com:9443/stream"

// tradeEvent mirrors Binance's combined-stream trade payload:
// {"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":"50000.00","q":"1.00000000","m":true}}
type tradeEvent struct {
	Symbol string `json:"s"`
	Price  string `json:"p"`
	Qty    string `json:"q"`
	// IsBuyerMaker true means the trade was a sell hitting a resting bid.
	IsBuyerMaker bool `json:"m"`
}

type streamFrame struct {
	Stream string     `json:"stream"`
	Data   tradeEvent `json:"data"`
}

// Client is a single Binance combined-stream WebSocket connection
// forwarding trades into sink as TradeTLV messages.
type Client struct {
	symbols []string
	sink    transport.Sink
	cache   *adapter.SymbolCache
	log     *zap.Logger

	conn *websocket.Conn
}

// NewClient returns a Client subscribing to symbols' trade stream on
// connect. symbols are exchange-native, lowercase (e.g. "btcusdt").
func NewClient(symbols []string, sink transport.Sink, cache *adapter.SymbolCache, log *zap.Logger) *Client {
	return &Client{symbols: symbols, sink: sink, cache: cache, log: log}
}

func (c *Client) streamURL() string {
	names := make([]string, len(c.symbols))
	for i, s := range c.symbols {
		names[i] = strings.ToLower(s) + "@trade"
	}
	return wsBase + "?streams=" + strings.Join(names, "/")
}

// Connect dials Binance's combined WebSocket stream, satisfying
// adapter.Connector.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.streamURL(), nil)
	if err != nil {
		return torqerr.Wrap(torqerr.Connection, "binance.Client.Connect", err)
	}
	c.conn = conn

	if err := c.sink.Connect(ctx); err != nil {
		conn.Close()
		return err
	}
	return nil
}

// Close tears down the WebSocket connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Run reads frames until the socket closes, a frame fails to decode, or
// the relay sink rejects a write — fail-fast per spec §4.5/§4.7.
func (c *Client) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return torqerr.Wrap(torqerr.Connection, "binance.Client.Run", err)
		}

		var frame streamFrame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Data.Symbol == "" {
			continue
		}

		msg, err := c.encodeTrade(frame.Data)
		if err != nil {
			return err
		}
		if err := c.sink.Send(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Client) encodeTrade(ev tradeEvent) ([]byte, error) {
	id, err := c.cache.GetOrCreate(ev.Symbol, func() (identifier.InstrumentId, error) {
		return identifier.New(identifier.VenueBinance, identifier.AssetSpotCrypto, ev.Symbol)
	})
	if err != nil {
		return nil, err
	}

	price, err := adapter.FixedPoint8(ev.Price)
	if err != nil {
		return nil, err
	}
	qty, err := adapter.FixedPoint8(ev.Qty)
	if err != nil {
		return nil, err
	}

	// IsBuyerMaker true => the aggressor sold into a resting bid.
	side := uint8(0)
	if ev.IsBuyerMaker {
		side = 1
	}

	trade := tlv.TradeTLV{
		Venue:        uint16(identifier.VenueBinance),
		InstrumentID: id.ToU64(),
		Price:        price,
		Volume:       qty,
		Side:         side,
		TimestampNs:  adapter.Now(),
	}

	return tlv.NewBuilder(tlv.DomainMarketData, tlv.SourceBinance, tlv.TypeTrade, trade.TimestampNs).
		AddTLV(tlv.TypeTrade, trade.Encode()).
		Build(), nil
}

var _ adapter.Connector = (*Client)(nil)
