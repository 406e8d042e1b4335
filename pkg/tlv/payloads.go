package tlv

import (
	"encoding/binary"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

// Payload structs mirror spec §3.4's typed TLV payloads. Every struct's
// Encode/Decode pair produces exactly its declared *Size constant's worth
// of bytes — field order is chosen to avoid implicit padding, with any
// alignment gaps closed by named, explicit pad fields so the serialized
// form and the struct's natural layout agree.

// TradeTLVSize is the fixed wire length of TradeTLV: this is the figure
// spec §8's worked scenario checks against (header 32 + TLV header 2 +
// payload 40 = 74 bytes).
const TradeTLVSize = 40

// TradeTLV carries a single executed trade. InstrumentID is the compact,
// non-bijective cache key (InstrumentId.ToU64) rather than the full
// 20-byte bijective identifier — the wire format favors the 8-byte handle
// here and leaves full-identity resolution to the consumer's instrument
// registry, consistent with ToU64's documented role.
type TradeTLV struct {
	Venue        uint16
	InstrumentID uint64
	Price        int64 // fixed-point, 8 decimals
	Volume       int64 // fixed-point, 8 decimals
	Side         uint8 // 0 = buy, 1 = sell
	_pad         [5]byte
	TimestampNs  uint64
}

func (t TradeTLV) Encode() []byte {
	buf := make([]byte, TradeTLVSize)
	binary.LittleEndian.PutUint16(buf[0:2], t.Venue)
	binary.LittleEndian.PutUint64(buf[2:10], t.InstrumentID)
	binary.LittleEndian.PutUint64(buf[10:18], uint64(t.Price))
	binary.LittleEndian.PutUint64(buf[18:26], uint64(t.Volume))
	buf[26] = t.Side
	binary.LittleEndian.PutUint64(buf[32:40], t.TimestampNs)
	return buf
}

func DecodeTradeTLV(b []byte) (TradeTLV, error) {
	if len(b) != TradeTLVSize {
		return TradeTLV{}, wrapProtocol("tlv.DecodeTradeTLV", "wrong payload length")
	}
	var t TradeTLV
	t.Venue = binary.LittleEndian.Uint16(b[0:2])
	t.InstrumentID = binary.LittleEndian.Uint64(b[2:10])
	t.Price = int64(binary.LittleEndian.Uint64(b[10:18]))
	t.Volume = int64(binary.LittleEndian.Uint64(b[18:26]))
	t.Side = b[26]
	t.TimestampNs = binary.LittleEndian.Uint64(b[32:40])
	return t, nil
}

// QuoteTLVSize is the fixed wire length of QuoteTLV.
const QuoteTLVSize = 56

// QuoteTLV carries a top-of-book bid/ask snapshot.
type QuoteTLV struct {
	Venue        uint16
	InstrumentID uint64
	BidPrice     int64
	BidSize      int64
	AskPrice     int64
	AskSize      int64
	_pad         [6]byte
	TimestampNs  uint64
}

func (q QuoteTLV) Encode() []byte {
	buf := make([]byte, QuoteTLVSize)
	binary.LittleEndian.PutUint16(buf[0:2], q.Venue)
	binary.LittleEndian.PutUint64(buf[2:10], q.InstrumentID)
	binary.LittleEndian.PutUint64(buf[10:18], uint64(q.BidPrice))
	binary.LittleEndian.PutUint64(buf[18:26], uint64(q.BidSize))
	binary.LittleEndian.PutUint64(buf[26:34], uint64(q.AskPrice))
	binary.LittleEndian.PutUint64(buf[34:42], uint64(q.AskSize))
	binary.LittleEndian.PutUint64(buf[48:56], q.TimestampNs)
	return buf
}

func DecodeQuoteTLV(b []byte) (QuoteTLV, error) {
	if len(b) != QuoteTLVSize {
		return QuoteTLV{}, wrapProtocol("tlv.DecodeQuoteTLV", "wrong payload length")
	}
	var q QuoteTLV
	q.Venue = binary.LittleEndian.Uint16(b[0:2])
	q.InstrumentID = binary.LittleEndian.Uint64(b[2:10])
	q.BidPrice = int64(binary.LittleEndian.Uint64(b[10:18]))
	q.BidSize = int64(binary.LittleEndian.Uint64(b[18:26]))
	q.AskPrice = int64(binary.LittleEndian.Uint64(b[26:34]))
	q.AskSize = int64(binary.LittleEndian.Uint64(b[34:42]))
	q.TimestampNs = binary.LittleEndian.Uint64(b[48:56])
	return q, nil
}

// PoolSwapTLVSize is the fixed wire length of PoolSwapTLV.
const PoolSwapTLVSize = 152

// PoolSwapTLV carries a single AMM swap event, decoded from a DEX log
// (spec §4.5.1). Amounts/liquidity/price fields use Uint128 — never a
// float — per the precision rules in spec §3.4's Design Notes.
type PoolSwapTLV struct {
	PoolAddress       common.Address
	TokenIn           common.Address
	TokenOut          common.Address
	Venue             uint16 // chain ID
	_pad0             [2]byte
	AmountIn          Uint128
	AmountOut         Uint128
	LiquidityAfter    Uint128
	SqrtPriceX96After Uint128
	TickAfter         int32
	AmountInDecimals  uint8
	AmountOutDecimals uint8
	_pad1             [2]byte
	BlockNumber       uint64
	TimestampNs       uint64
}

func (p PoolSwapTLV) Encode() []byte {
	buf := make([]byte, PoolSwapTLVSize)
	copy(buf[0:20], p.PoolAddress[:])
	copy(buf[20:40], p.TokenIn[:])
	copy(buf[40:60], p.TokenOut[:])
	binary.LittleEndian.PutUint16(buf[60:62], p.Venue)
	putUint128(buf[64:80], p.AmountIn)
	putUint128(buf[80:96], p.AmountOut)
	putUint128(buf[96:112], p.LiquidityAfter)
	putUint128(buf[112:128], p.SqrtPriceX96After)
	binary.LittleEndian.PutUint32(buf[128:132], uint32(p.TickAfter))
	buf[132] = p.AmountInDecimals
	buf[133] = p.AmountOutDecimals
	binary.LittleEndian.PutUint64(buf[136:144], p.BlockNumber)
	binary.LittleEndian.PutUint64(buf[144:152], p.TimestampNs)
	return buf
}

func DecodePoolSwapTLV(b []byte) (PoolSwapTLV, error) {
	if len(b) != PoolSwapTLVSize {
		return PoolSwapTLV{}, wrapProtocol("tlv.DecodePoolSwapTLV", "wrong payload length")
	}
	var p PoolSwapTLV
	copy(p.PoolAddress[:], b[0:20])
	copy(p.TokenIn[:], b[20:40])
	copy(p.TokenOut[:], b[40:60])
	p.Venue = binary.LittleEndian.Uint16(b[60:62])
	p.AmountIn = getUint128(b[64:80])
	p.AmountOut = getUint128(b[80:96])
	p.LiquidityAfter = getUint128(b[96:112])
	p.SqrtPriceX96After = getUint128(b[112:128])
	p.TickAfter = int32(binary.LittleEndian.Uint32(b[128:132]))
	p.AmountInDecimals = b[132]
	p.AmountOutDecimals = b[133]
	p.BlockNumber = binary.LittleEndian.Uint64(b[136:144])
	p.TimestampNs = binary.LittleEndian.Uint64(b[144:152])
	return p, nil
}

// PoolMintTLVSize is the fixed wire length of PoolMintTLV.
const PoolMintTLVSize = 64

// PoolMintTLV carries a liquidity-add event.
type PoolMintTLV struct {
	PoolAddress    common.Address
	Venue          uint16
	_pad0          [2]byte
	TickLower      int32
	TickUpper      int32
	LiquidityDelta Int128
	BlockNumber    uint64
	TimestampNs    uint64
}

func (m PoolMintTLV) Encode() []byte {
	buf := make([]byte, PoolMintTLVSize)
	copy(buf[0:20], m.PoolAddress[:])
	binary.LittleEndian.PutUint16(buf[20:22], m.Venue)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(m.TickLower))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(m.TickUpper))
	putInt128(buf[32:48], m.LiquidityDelta)
	binary.LittleEndian.PutUint64(buf[48:56], m.BlockNumber)
	binary.LittleEndian.PutUint64(buf[56:64], m.TimestampNs)
	return buf
}

func DecodePoolMintTLV(b []byte) (PoolMintTLV, error) {
	if len(b) != PoolMintTLVSize {
		return PoolMintTLV{}, wrapProtocol("tlv.DecodePoolMintTLV", "wrong payload length")
	}
	var m PoolMintTLV
	copy(m.PoolAddress[:], b[0:20])
	m.Venue = binary.LittleEndian.Uint16(b[20:22])
	m.TickLower = int32(binary.LittleEndian.Uint32(b[24:28]))
	m.TickUpper = int32(binary.LittleEndian.Uint32(b[28:32]))
	m.LiquidityDelta = getInt128(b[32:48])
	m.BlockNumber = binary.LittleEndian.Uint64(b[48:56])
	m.TimestampNs = binary.LittleEndian.Uint64(b[56:64])
	return m, nil
}

// PoolBurnTLVSize is the fixed wire length of PoolBurnTLV; identical shape
// to PoolMintTLV, LiquidityDelta's sign is simply always non-positive.
const PoolBurnTLVSize = PoolMintTLVSize

// PoolBurnTLV carries a liquidity-remove event. Encode/Decode reuse
// PoolMintTLV's layout; the two are kept as distinct Go types so callers
// can't accidentally mix a mint into a burn TLV type number.
type PoolBurnTLV PoolMintTLV

func (b PoolBurnTLV) Encode() []byte { return PoolMintTLV(b).Encode() }

func DecodePoolBurnTLV(b []byte) (PoolBurnTLV, error) {
	m, err := DecodePoolMintTLV(b)
	return PoolBurnTLV(m), err
}

// PoolTickTLVSize is the fixed wire length of PoolTickTLV.
const PoolTickTLVSize = 64

// PoolTickTLV carries a tick-crossing observation.
type PoolTickTLV struct {
	PoolAddress  common.Address
	Venue        uint16
	_pad0        [2]byte
	Tick         int32
	_pad1        [4]byte
	SqrtPriceX96 Uint128
	BlockNumber  uint64
	TimestampNs  uint64
}

func (t PoolTickTLV) Encode() []byte {
	buf := make([]byte, PoolTickTLVSize)
	copy(buf[0:20], t.PoolAddress[:])
	binary.LittleEndian.PutUint16(buf[20:22], t.Venue)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(t.Tick))
	putUint128(buf[32:48], t.SqrtPriceX96)
	binary.LittleEndian.PutUint64(buf[48:56], t.BlockNumber)
	binary.LittleEndian.PutUint64(buf[56:64], t.TimestampNs)
	return buf
}

func DecodePoolTickTLV(b []byte) (PoolTickTLV, error) {
	if len(b) != PoolTickTLVSize {
		return PoolTickTLV{}, wrapProtocol("tlv.DecodePoolTickTLV", "wrong payload length")
	}
	var t PoolTickTLV
	copy(t.PoolAddress[:], b[0:20])
	t.Venue = binary.LittleEndian.Uint16(b[20:22])
	t.Tick = int32(binary.LittleEndian.Uint32(b[24:28]))
	t.SqrtPriceX96 = getUint128(b[32:48])
	t.BlockNumber = binary.LittleEndian.Uint64(b[48:56])
	t.TimestampNs = binary.LittleEndian.Uint64(b[56:64])
	return t, nil
}

// PoolLiquidityTLVSize is the fixed wire length of PoolLiquidityTLV.
const PoolLiquidityTLVSize = 48

// PoolLiquidityTLV carries a total-liquidity-changed observation,
// independent of any single mint/burn/swap (e.g. a periodic reconcile).
type PoolLiquidityTLV struct {
	PoolAddress common.Address
	Venue       uint16
	_pad0       [2]byte
	Liquidity   Uint128
	TimestampNs uint64
}

func (l PoolLiquidityTLV) Encode() []byte {
	buf := make([]byte, PoolLiquidityTLVSize)
	copy(buf[0:20], l.PoolAddress[:])
	binary.LittleEndian.PutUint16(buf[20:22], l.Venue)
	putUint128(buf[24:40], l.Liquidity)
	binary.LittleEndian.PutUint64(buf[40:48], l.TimestampNs)
	return buf
}

func DecodePoolLiquidityTLV(b []byte) (PoolLiquidityTLV, error) {
	if len(b) != PoolLiquidityTLVSize {
		return PoolLiquidityTLV{}, wrapProtocol("tlv.DecodePoolLiquidityTLV", "wrong payload length")
	}
	var l PoolLiquidityTLV
	copy(l.PoolAddress[:], b[0:20])
	l.Venue = binary.LittleEndian.Uint16(b[20:22])
	l.Liquidity = getUint128(b[24:40])
	l.TimestampNs = binary.LittleEndian.Uint64(b[40:48])
	return l, nil
}

// InvalidationReason explains why a StateInvalidationTLV was emitted.
type InvalidationReason uint8

const (
	InvalidationDisconnection         InvalidationReason = 1
	InvalidationAuthenticationFailure InvalidationReason = 2
	InvalidationRateLimited           InvalidationReason = 3
	InvalidationStaleness             InvalidationReason = 4
	InvalidationMaintenance           InvalidationReason = 5
	InvalidationRecovery              InvalidationReason = 6
)

func (r InvalidationReason) String() string {
	switch r {
	case InvalidationDisconnection:
		return "Disconnection"
	case InvalidationAuthenticationFailure:
		return "AuthenticationFailure"
	case InvalidationRateLimited:
		return "RateLimited"
	case InvalidationStaleness:
		return "Staleness"
	case InvalidationMaintenance:
		return "Maintenance"
	case InvalidationRecovery:
		return "Recovery"
	default:
		return "Unknown"
	}
}

// MaxInvalidatedInstruments bounds StateInvalidationTLV's instrument list
// (spec §3.5's fixed-capacity container budget).
const MaxInvalidatedInstruments = 16

// stateInvalidationMinSize is StateInvalidationTLV with zero instruments:
// venue(2) + reason(1) + pad(5) + count(2) + pad(6) + timestamp_ns(8).
const stateInvalidationMinSize = 24

// stateInvalidationMaxSize is StateInvalidationTLV at full 16-instrument
// capacity: stateInvalidationMinSize + 16*8 (instrument cache keys).
const stateInvalidationMaxSize = stateInvalidationMinSize + MaxInvalidatedInstruments*8

// StateInvalidationTLV tells consumers to discard cached state for a set
// of instruments — a disconnect, an auth failure, or a detected staleness
// window (spec §4.4).
type StateInvalidationTLV struct {
	Venue       uint16
	Reason      InvalidationReason
	_pad0       [5]byte
	Instruments []uint64 // bounded to MaxInvalidatedInstruments
	TimestampNs uint64
}

func (s StateInvalidationTLV) Encode() ([]byte, error) {
	if len(s.Instruments) > MaxInvalidatedInstruments {
		return nil, wrapProtocol("tlv.StateInvalidationTLV.Encode", "instrument list exceeds capacity")
	}
	size := stateInvalidationMinSize + 8*len(s.Instruments)
	buf := make([]byte, size)
	binary.LittleEndian.PutUint16(buf[0:2], s.Venue)
	buf[2] = byte(s.Reason)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(len(s.Instruments)))
	binary.LittleEndian.PutUint64(buf[16:24], s.TimestampNs)
	for i, id := range s.Instruments {
		off := stateInvalidationMinSize + 8*i
		binary.LittleEndian.PutUint64(buf[off:off+8], id)
	}
	return buf, nil
}

func DecodeStateInvalidationTLV(b []byte) (StateInvalidationTLV, error) {
	if len(b) < stateInvalidationMinSize || len(b) > stateInvalidationMaxSize {
		return StateInvalidationTLV{}, wrapProtocol("tlv.DecodeStateInvalidationTLV", "payload out of bounds")
	}
	var s StateInvalidationTLV
	s.Venue = binary.LittleEndian.Uint16(b[0:2])
	s.Reason = InvalidationReason(b[2])
	count := binary.LittleEndian.Uint16(b[8:10])
	s.TimestampNs = binary.LittleEndian.Uint64(b[16:24])
	want := stateInvalidationMinSize + 8*int(count)
	if want != len(b) {
		return StateInvalidationTLV{}, wrapProtocol("tlv.DecodeStateInvalidationTLV", "count disagrees with payload length")
	}
	s.Instruments = make([]uint64, count)
	for i := range s.Instruments {
		off := stateInvalidationMinSize + 8*i
		s.Instruments[i] = binary.LittleEndian.Uint64(b[off : off+8])
	}
	return s, nil
}

// ArbitrageSignalTLVSize is the fixed wire length of ArbitrageSignalTLV.
const ArbitrageSignalTLVSize = 144

// ArbitrageSignalTLV carries a detected cross-pool arbitrage opportunity
// (spec §4.7). ExpectedProfitUsd, RequiredCapitalUsd and GasEstimateUsd
// are float64, outside the integer-only rule — they are USD-denominated
// estimates feeding a ranking heuristic, not amounts that are ever
// settled on-chain.
type ArbitrageSignalTLV struct {
	SourcePool         common.Address
	SourceVenue        uint16
	_pad0              [2]byte
	TargetPool         common.Address
	TargetVenue        uint16
	_pad1              [2]byte
	TokenIn            common.Address
	TokenOut           common.Address
	ExpectedProfitUsd  float64
	RequiredCapitalUsd float64
	SpreadBps          uint16
	_pad2              [6]byte
	TimestampNs        uint64
	FeeBps             uint16
	_pad3              [6]byte
	GasEstimateUsd     float64
	SlippageBps        uint16
	_pad4              [6]byte
}

func (a ArbitrageSignalTLV) Encode() []byte {
	buf := make([]byte, ArbitrageSignalTLVSize)
	copy(buf[0:20], a.SourcePool[:])
	binary.LittleEndian.PutUint16(buf[20:22], a.SourceVenue)
	copy(buf[24:44], a.TargetPool[:])
	binary.LittleEndian.PutUint16(buf[44:46], a.TargetVenue)
	copy(buf[48:68], a.TokenIn[:])
	copy(buf[68:88], a.TokenOut[:])
	binary.LittleEndian.PutUint64(buf[88:96], math.Float64bits(a.ExpectedProfitUsd))
	binary.LittleEndian.PutUint64(buf[96:104], math.Float64bits(a.RequiredCapitalUsd))
	binary.LittleEndian.PutUint16(buf[104:106], a.SpreadBps)
	binary.LittleEndian.PutUint64(buf[112:120], a.TimestampNs)
	binary.LittleEndian.PutUint16(buf[120:122], a.FeeBps)
	binary.LittleEndian.PutUint64(buf[128:136], math.Float64bits(a.GasEstimateUsd))
	binary.LittleEndian.PutUint16(buf[136:138], a.SlippageBps)
	return buf
}

func DecodeArbitrageSignalTLV(b []byte) (ArbitrageSignalTLV, error) {
	if len(b) != ArbitrageSignalTLVSize {
		return ArbitrageSignalTLV{}, wrapProtocol("tlv.DecodeArbitrageSignalTLV", "wrong payload length")
	}
	var a ArbitrageSignalTLV
	copy(a.SourcePool[:], b[0:20])
	a.SourceVenue = binary.LittleEndian.Uint16(b[20:22])
	copy(a.TargetPool[:], b[24:44])
	a.TargetVenue = binary.LittleEndian.Uint16(b[44:46])
	copy(a.TokenIn[:], b[48:68])
	copy(a.TokenOut[:], b[68:88])
	a.ExpectedProfitUsd = math.Float64frombits(binary.LittleEndian.Uint64(b[88:96]))
	a.RequiredCapitalUsd = math.Float64frombits(binary.LittleEndian.Uint64(b[96:104]))
	a.SpreadBps = binary.LittleEndian.Uint16(b[104:106])
	a.TimestampNs = binary.LittleEndian.Uint64(b[112:120])
	a.FeeBps = binary.LittleEndian.Uint16(b[120:122])
	a.GasEstimateUsd = math.Float64frombits(binary.LittleEndian.Uint64(b[128:136]))
	a.SlippageBps = binary.LittleEndian.Uint16(b[136:138])
	return a, nil
}

func putUint128(b []byte, v Uint128) {
	binary.LittleEndian.PutUint64(b[0:8], v.Lo)
	binary.LittleEndian.PutUint64(b[8:16], v.Hi)
}

func getUint128(b []byte) Uint128 {
	return Uint128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

func putInt128(b []byte, v Int128) {
	binary.LittleEndian.PutUint64(b[0:8], v.Lo)
	binary.LittleEndian.PutUint64(b[8:16], uint64(v.Hi))
}

func getInt128(b []byte) Int128 {
	return Int128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: int64(binary.LittleEndian.Uint64(b[8:16])),
	}
}
