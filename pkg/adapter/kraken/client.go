// Package kraken implements the Kraken spot WebSocket adapter: JSON trade
// and ticker messages converted to TradeTLV/QuoteTLV and written directly
// into a pre-connected relay sink (spec §4.7).
package kraken

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/adapter"
	"github.com/dawsh2/torq/pkg/identifier"
	"github.com/dawsh2/torq/pkg/tlv"
	"github.com/dawsh2/torq/pkg/torqerr"
	"github.com/dawsh2/torq/pkg/transport"
)

const wsURL = "wss://ws.kraken.com/v2"

// tradeMessage mirrors Kraken's v2 "trade" channel payload shape:
// {"channel":"trade","data":[{"symbol":"BTC/USD","price":"50000.0","qty":"1.0","side":"buy","timestamp":"..."}]}
type tradeEvent struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	Qty    string `json:"qty"`
	Side   string `json:"side"`
}

type tradeFrame struct {
	Channel string       `json:"channel"`
	Data    []tradeEvent `json:"data"`
}

// Client is a single Kraken WebSocket connection forwarding trades into
// sink as TradeTLV messages.
type Client struct {
	symbols []string
	sink    transport.Sink
	cache   *adapter.SymbolCache
	log     *zap.Logger

	conn *websocket.Conn
}

// NewClient returns a Client subscribing to symbols' trade channel on
// connect.
func NewClient(symbols []string, sink transport.Sink, cache *adapter.SymbolCache, log *zap.Logger) *Client {
	return &Client{symbols: symbols, sink: sink, cache: cache, log: log}
}

// Connect dials Kraken's WebSocket endpoint and subscribes to the trade
// channel for every configured symbol, satisfying adapter.Connector.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return torqerr.Wrap(torqerr.Connection, "kraken.Client.Connect", err)
	}
	c.conn = conn

	sub := map[string]any{
		"method": "subscribe",
		"params": map[string]any{
			"channel": "trade",
			"symbol":  c.symbols,
		},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return torqerr.Wrap(torqerr.Connection, "kraken.Client.Connect", err)
	}

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
// the relay sink rejects a write — any of which is fatal, per spec
// §4.5/§4.7's fail-fast adapter design.
func (c *Client) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return torqerr.Wrap(torqerr.Connection, "kraken.Client.Run", err)
		}

		var frame tradeFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Non-trade frames (heartbeats, subscription acks) don't
			// parse into tradeFrame's shape; skip them rather than fail.
			continue
		}
		if frame.Channel != "trade" {
			continue
		}

		for _, ev := range frame.Data {
			msg, err := c.encodeTrade(ev)
			if err != nil {
				return err
			}
			if err := c.sink.Send(ctx, msg); err != nil {
				return err
			}
		}
	}
}

func (c *Client) encodeTrade(ev tradeEvent) ([]byte, error) {
	id, err := c.cache.GetOrCreate(ev.Symbol, func() (identifier.InstrumentId, error) {
		return identifier.New(identifier.VenueKraken, identifier.AssetSpotCrypto, ev.Symbol)
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

	side := uint8(0)
	if ev.Side == "sell" {
		side = 1
	}

	trade := tlv.TradeTLV{
		Venue:        uint16(identifier.VenueKraken),
		InstrumentID: id.ToU64(),
		Price:        price,
		Volume:       qty,
		Side:         side,
		TimestampNs:  adapter.Now(),
	}

	return tlv.NewBuilder(tlv.DomainMarketData, tlv.SourceKraken, tlv.TypeTrade, trade.TimestampNs).
		AddTLV(tlv.TypeTrade, trade.Encode()).
		Build(), nil
}

var _ adapter.Connector = (*Client)(nil)
