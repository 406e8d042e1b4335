// Package coinbase implements the Coinbase Exchange WebSocket adapter:
// "matches" channel trade events converted to TradeTLV and written
// directly into a pre-connected relay sink (spec §4.7).
package coinbase

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

const wsURL = "wss://ws-feed.exchange.coinbase.com"

// matchEvent mirrors Coinbase Exchange's "match" message:
// {"type":"match","product_id":"BTC-USD","price":"50000.00","size":"1.0","side":"sell"}
type matchEvent struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Side      string `json:"side"` // side of the taker: "buy" or "sell"
}

// Client is a single Coinbase Exchange WebSocket connection forwarding
// matches into sink as TradeTLV messages.
type Client struct {
	products []string
	sink     transport.Sink
	cache    *adapter.SymbolCache
	log      *zap.Logger

	conn *websocket.Conn
}

// NewClient returns a Client subscribing to products' matches channel on
// connect.
func NewClient(products []string, sink transport.Sink, cache *adapter.SymbolCache, log *zap.Logger) *Client {
	return &Client{products: products, sink: sink, cache: cache, log: log}
}

// Connect dials Coinbase's WebSocket feed and subscribes to the matches
// channel for every configured product, satisfying adapter.Connector.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return torqerr.Wrap(torqerr.Connection, "coinbase.Client.Connect", err)
	}
	c.conn = conn

	sub := map[string]any{
		"type":        "subscribe",
		"product_ids": c.products,
		"channels":    []string{"matches"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return torqerr.Wrap(torqerr.Connection, "coinbase.Client.Connect", err)
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
// the relay sink rejects a write — fail-fast per spec §4.5/§4.7.
func (c *Client) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return torqerr.Wrap(torqerr.Connection, "coinbase.Client.Run", err)
		}

		var ev matchEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Type != "match" {
			continue
		}

		msg, err := c.encodeTrade(ev)
		if err != nil {
			return err
		}
		if err := c.sink.Send(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Client) encodeTrade(ev matchEvent) ([]byte, error) {
	id, err := c.cache.GetOrCreate(ev.ProductID, func() (identifier.InstrumentId, error) {
		return identifier.New(identifier.VenueCoinbase, identifier.AssetSpotCrypto, ev.ProductID)
	})
	if err != nil {
		return nil, err
	}

	price, err := adapter.FixedPoint8(ev.Price)
	if err != nil {
		return nil, err
	}
	size, err := adapter.FixedPoint8(ev.Size)
	if err != nil {
		return nil, err
	}

	side := uint8(0)
	if ev.Side == "sell" {
		side = 1
	}

	trade := tlv.TradeTLV{
		Venue:        uint16(identifier.VenueCoinbase),
		InstrumentID: id.ToU64(),
		Price:        price,
		Volume:       size,
		Side:         side,
		TimestampNs:  adapter.Now(),
	}

	return tlv.NewBuilder(tlv.DomainMarketData, tlv.SourceCoinbase, tlv.TypeTrade, trade.TimestampNs).
		AddTLV(tlv.TypeTrade, trade.Encode()).
		Build(), nil
}

var _ adapter.Connector = (*Client)(nil)
