// Package identifier implements the bijective 20-byte InstrumentId record
// and the venue/asset-type enums it's built from. The package is a pure,
// allocation-free library: it holds no state of its own, and every
// constructor either succeeds with a fully valid InstrumentId or returns a
// structured error — never a panic — so callers reconstructing identifiers
// from untrusted wire bytes can always recover.
package identifier

import (
	"encoding/binary"
	"strings"

	"github.com/dawsh2/torq/pkg/torqerr"
)

const (
	symbolLen = 16
	// Size is the packed, padding-free byte length of an InstrumentId.
	Size = symbolLen + 2 + 1 + 1 // 20
)

// InstrumentId is the packed {symbol, venue, asset_type, reserved} record.
// It has no internal padding: encoding and decoding is a straight byte
// copy, so InstrumentId is safe to embed by value inside TLV payload
// structs that themselves must serialize without gaps.
type InstrumentId struct {
	Symbol    [symbolLen]byte
	Venue     uint16
	AssetType AssetType
	Reserved  uint8
}

// New constructs a traditional/crypto instrument identifier from a venue,
// asset type, and a symbol string. Symbols longer than 16 bytes fail with
// SymbolTooLong; the remaining bytes are zero-padded.
func New(venue VenueID, assetType AssetType, symbol string) (InstrumentId, error) {
	if err := venue.Validate(); err != nil {
		return InstrumentId{}, err
	}
	if err := assetType.Validate(); err != nil {
		return InstrumentId{}, err
	}
	if len(symbol) > symbolLen {
		return InstrumentId{}, torqerr.New(torqerr.Protocol, "identifier.New",
			"symbol too long: exceeds 16 bytes")
	}
	var id InstrumentId
	copy(id.Symbol[:], symbol)
	id.Venue = uint16(venue)
	id.AssetType = assetType
	return id, nil
}

// EthereumToken constructs a fungible-token identifier (asset type
// AssetSpotCrypto) from a
// "0x"-prefixed 20-byte hex address, storing the low 16 bytes of the
// address (the part that uniquely distinguishes tokens in practice once
// the 4-byte vanity/checksum prefix is dropped) in the symbol field.
func EthereumToken(venue VenueID, hexAddr string) (InstrumentId, error) {
	addr, err := parseEVMAddress(hexAddr)
	if err != nil {
		return InstrumentId{}, err
	}
	if err := venue.Validate(); err != nil {
		return InstrumentId{}, err
	}
	var id InstrumentId
	copy(id.Symbol[:], addr[4:]) // low 16 bytes of the 20-byte address
	id.Venue = uint16(venue)
	id.AssetType = AssetSpotCrypto
	return id, nil
}

// Pool constructs a liquidity-pool identifier. Per spec §3.1/§4.1, the
// first 16 bytes of the pool address populate Symbol, the EVM chain ID
// populates Venue (truncated to the wire format's 16 bits — chain IDs
// above 65535 are out of scope for this wire representation), and the
// DEX-protocol discriminant populates Reserved.
func Pool(chainID uint16, dexProtocol DexProtocol, poolAddress [20]byte) (InstrumentId, error) {
	if err := dexProtocol.Validate(); err != nil {
		return InstrumentId{}, err
	}
	var id InstrumentId
	copy(id.Symbol[:], poolAddress[:symbolLen])
	id.Venue = chainID
	id.AssetType = AssetPool
	id.Reserved = uint8(dexProtocol)
	return id, nil
}

// ChainID recovers the chain ID a pool identifier was constructed with.
// Returns InvalidAssetType if id is not a pool identifier. The return
// type is uint64 (widened from the wire's 16-bit venue slot) so callers
// comparing against arbitrarily large chain IDs elsewhere in the system
// don't need a second, narrower type.
func (id InstrumentId) ChainID() (uint64, error) {
	if id.AssetType != AssetPool {
		return 0, torqerr.New(torqerr.Protocol, "identifier.InstrumentId.ChainID",
			"invalid asset type: not a pool identifier")
	}
	return uint64(id.Venue), nil
}

// DexProtocol recovers the DEX-protocol discriminant a pool identifier was
// constructed with. Returns InvalidAssetType if id is not a pool identifier.
func (id InstrumentId) DexProtocol() (DexProtocol, error) {
	if id.AssetType != AssetPool {
		return 0, torqerr.New(torqerr.Protocol, "identifier.InstrumentId.DexProtocol",
			"invalid asset type: not a pool identifier")
	}
	return DexProtocol(id.Reserved), nil
}

// VenueID recovers the non-pool venue accessor, validating the stored
// value against the known enum ranges instead of assuming it's well-formed.
func (id InstrumentId) VenueID() (VenueID, error) {
	v := VenueID(id.Venue)
	if err := v.Validate(); err != nil {
		return 0, err
	}
	return v, nil
}

// SymbolString returns the symbol field trimmed of trailing NUL padding.
func (id InstrumentId) SymbolString() string {
	return strings.TrimRight(string(id.Symbol[:]), "\x00")
}

// CanPairWith reports whether id and other may be considered for the same
// arbitrage opportunity: both must share a venue and both must be fungible.
func (id InstrumentId) CanPairWith(other InstrumentId) bool {
	return id.Venue == other.Venue && id.AssetType.Fungible() && other.AssetType.Fungible()
}

// ToU64 produces a fast, non-bijective hash of the identifier suitable as a
// cache key. It must never be used for equality or identity checks — two
// distinct InstrumentIds may collide under ToU64.
func (id InstrumentId) ToU64() uint64 {
	const (
		offsetBasis uint64 = 14695981039346656037
		prime       uint64 = 1099511628211
	)
	h := offsetBasis
	for _, b := range id.Symbol {
		h ^= uint64(b)
		h *= prime
	}
	h ^= uint64(id.Venue)
	h *= prime
	h ^= uint64(id.AssetType)
	h *= prime
	h ^= uint64(id.Reserved)
	h *= prime
	return h
}

// Bytes encodes id into its packed 20-byte wire representation.
func (id InstrumentId) Bytes() [Size]byte {
	var out [Size]byte
	copy(out[0:symbolLen], id.Symbol[:])
	binary.LittleEndian.PutUint16(out[symbolLen:symbolLen+2], id.Venue)
	out[symbolLen+2] = byte(id.AssetType)
	out[symbolLen+3] = id.Reserved
	return out
}

// FromBytes decodes a packed 20-byte wire representation. It does not
// validate venue/asset-type ranges — callers that need validated enum
// values should call VenueID()/ChainID() afterward, which do.
func FromBytes(b []byte) (InstrumentId, error) {
	if len(b) != Size {
		return InstrumentId{}, torqerr.New(torqerr.Protocol, "identifier.FromBytes",
			"wrong byte length for InstrumentId")
	}
	var id InstrumentId
	copy(id.Symbol[:], b[0:symbolLen])
	id.Venue = binary.LittleEndian.Uint16(b[symbolLen : symbolLen+2])
	id.AssetType = AssetType(b[symbolLen+2])
	id.Reserved = b[symbolLen+3]
	return id, nil
}

// Equal reports byte-for-byte equality, the only equality relation the
// spec allows for InstrumentId.
func (id InstrumentId) Equal(other InstrumentId) bool {
	return id.Bytes() == other.Bytes()
}

func parseEVMAddress(hexAddr string) ([20]byte, error) {
	var out [20]byte
	s := strings.TrimPrefix(hexAddr, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) != 40 {
		return out, torqerr.New(torqerr.Protocol, "identifier.parseEVMAddress",
			"invalid address: wrong length")
	}
	for i := 0; i < 20; i++ {
		hi, ok1 := hexNibble(s[i*2])
		lo, ok2 := hexNibble(s[i*2+1])
		if !ok1 || !ok2 {
			return out, torqerr.New(torqerr.Protocol, "identifier.parseEVMAddress",
				"invalid address: non-hex character")
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
