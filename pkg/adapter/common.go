// Package adapter holds the shared scaffolding every exchange/chain
// adapter builds on: reconnect-with-backoff, a symbol-to-InstrumentId
// cache, and the common outbound relay connection — plus one
// subpackage per upstream source (kraken, binance, coinbase, polygon).
package adapter

import (
	"context"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dawsh2/torq/pkg/identifier"
	"github.com/dawsh2/torq/pkg/tlv"
	"github.com/dawsh2/torq/pkg/torqerr"
	"github.com/dawsh2/torq/pkg/transport"
)

// Config is the shared adapter configuration every source-specific
// adapter embeds and extends (spec §4.7).
type Config struct {
	Source            tlv.SourceType
	Domain            tlv.RelayDomain
	RelayTarget       string // unix socket path or tcp address the adapter forwards into
	SymbolCacheSize   int
	ReconnectMaxElapsed time.Duration
}

// DefaultSymbolCacheSize bounds the in-memory symbol->InstrumentId cache;
// exchanges publish on the order of a few thousand active symbols, so this
// comfortably covers one without unbounded growth.
const DefaultSymbolCacheSize = 4096

// SymbolCache maps an upstream exchange's native symbol string to the
// InstrumentId this system tracks it under, avoiding re-deriving the
// identifier (and re-validating the venue/asset type) on every message.
type SymbolCache struct {
	cache *lru.Cache[string, identifier.InstrumentId]
}

// NewSymbolCache returns a SymbolCache bounded to size entries.
func NewSymbolCache(size int) (*SymbolCache, error) {
	if size <= 0 {
		size = DefaultSymbolCacheSize
	}
	c, err := lru.New[string, identifier.InstrumentId](size)
	if err != nil {
		return nil, torqerr.Wrap(torqerr.Configuration, "adapter.NewSymbolCache", err)
	}
	return &SymbolCache{cache: c}, nil
}

// GetOrCreate returns the cached InstrumentId for symbol, calling create
// to derive and cache one on a miss.
func (c *SymbolCache) GetOrCreate(symbol string, create func() (identifier.InstrumentId, error)) (identifier.InstrumentId, error) {
	if id, ok := c.cache.Get(symbol); ok {
		return id, nil
	}
	id, err := create()
	if err != nil {
		return identifier.InstrumentId{}, err
	}
	c.cache.Add(symbol, id)
	return id, nil
}

// Connector is the upstream connection an adapter maintains: something
// that can (re)establish a live feed. Each exchange package implements
// this around its own WebSocket/RPC client.
type Connector interface {
	Connect(ctx context.Context) error
	Close() error
}

// RunWithReconnect establishes connector's initial connection with
// exponential backoff (the one deliberate upgrade from the teacher's
// hand-rolled jittered-doubling backoff, same as
// transport.ConnectWithBackoff), then hands off to run exactly once. Per
// spec §4.5/§4.7's fail-fast design, only the initial dial is retried —
// once connected, a WebSocket close, decode error, or relay write failure
// is terminal: run returning (for any reason) ends RunWithReconnect too,
// so the caller's main.go can exit non-zero and let an external
// supervisor restart the whole process, rather than this package quietly
// reconnecting mid-stream and masking a corruption or a stuck relay.
func RunWithReconnect(ctx context.Context, log *zap.Logger, connector Connector, maxElapsed time.Duration, run func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	err := backoff.Retry(func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if err := connector.Connect(ctx); err != nil {
			log.Warn("adapter: connect attempt failed, retrying", zap.Error(err))
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return torqerr.Wrap(torqerr.Connection, "adapter.RunWithReconnect", err)
	}

	runErr := run(ctx)
	_ = connector.Close()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return runErr
}

// OutboundSink returns the transport.Sink an adapter forwards its encoded
// TLV messages into, chosen by whether cfg.RelayTarget looks like a
// filesystem path (unix socket) or a host:port pair (tcp) — adapters
// always forward to a relay over a stream transport, never a WebSocket,
// per spec §4.5/§4.7.
func OutboundSink(cfg Config) transport.Sink {
	if len(cfg.RelayTarget) > 0 && cfg.RelayTarget[0] == '/' {
		return transport.NewUnixSink(cfg.RelayTarget, 16*1024*1024)
	}
	return transport.NewTCPSink(cfg.RelayTarget, 16*1024*1024)
}

// fixedPointScale is the 8-decimal-place scale every price/volume field on
// the wire uses (spec §3.4).
var fixedPointScale = big.NewRat(100000000, 1)

// FixedPoint8 parses a decimal price/quantity string (as every exchange's
// JSON feed sends them) into an 8-decimal-place fixed-point int64, via
// big.Rat rather than float64 so the conversion never introduces the
// rounding error a float parse would (spec §3.4's no-floats rule, applied
// at the ingest boundary even though the wire format itself is the
// primary place that rule binds).
func FixedPoint8(s string) (int64, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, torqerr.New(torqerr.Precision, "adapter.FixedPoint8", "not a valid decimal string")
	}
	scaled := new(big.Rat).Mul(r, fixedPointScale)
	if !scaled.IsInt() {
		return 0, torqerr.New(torqerr.Precision, "adapter.FixedPoint8", "value has more than 8 decimal places")
	}
	i := scaled.Num()
	if !i.IsInt64() {
		return 0, torqerr.New(torqerr.Precision, "adapter.FixedPoint8", "value overflows int64 at 8-decimal scale")
	}
	return i.Int64(), nil
}

// Now returns the current time as wire-format nanoseconds since epoch.
func Now() uint64 {
	return uint64(time.Now().UnixNano())
}
