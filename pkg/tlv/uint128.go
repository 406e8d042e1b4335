package tlv

import "math/big"

// Uint128 is a 128-bit unsigned integer stored as two little-endian
// 64-bit words, matching the wire width spec §3.4 assigns to DEX amount
// and liquidity fields. It intentionally does not wrap math/big or
// holiman/uint256 (a 256-bit type) — those would either allocate on every
// operation or over-claim precision the wire format doesn't have.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// Int128 is a 128-bit two's-complement signed integer, used for
// liquidity_delta fields (mint adds, burn removes).
type Int128 struct {
	Lo uint64
	Hi int64
}

// Uint128FromBigInt converts a non-negative big.Int into a Uint128,
// returning a Precision error (never silently truncating) if it doesn't
// fit in 128 bits.
func Uint128FromBigInt(v *big.Int) (Uint128, error) {
	if v.Sign() < 0 {
		return Uint128{}, precisionErr("tlv.Uint128FromBigInt", "negative value for unsigned field")
	}
	if v.BitLen() > 128 {
		return Uint128{}, precisionErr("tlv.Uint128FromBigInt", "value exceeds 128 bits")
	}
	b := v.Bytes() // big-endian, no leading zero byte
	var buf [16]byte
	copy(buf[16-len(b):], b)
	return Uint128{
		Lo: beUint64(buf[8:16]),
		Hi: beUint64(buf[0:8]),
	}, nil
}

// BigInt converts u back into a big.Int.
func (u Uint128) BigInt() *big.Int {
	var buf [16]byte
	putBeUint64(buf[0:8], u.Hi)
	putBeUint64(buf[8:16], u.Lo)
	return new(big.Int).SetBytes(buf[:])
}

// Int128FromBigInt converts a signed big.Int into an Int128, returning a
// Precision error if the magnitude exceeds 127 bits plus sign.
func Int128FromBigInt(v *big.Int) (Int128, error) {
	max := new(big.Int).Lsh(big.NewInt(1), 127)
	min := new(big.Int).Neg(max)
	if v.Cmp(max) >= 0 || v.Cmp(min) < 0 {
		return Int128{}, precisionErr("tlv.Int128FromBigInt", "value exceeds 128-bit signed range")
	}
	u := v
	if v.Sign() < 0 {
		// Two's complement: (1<<128) + v
		mod := new(big.Int).Lsh(big.NewInt(1), 128)
		u = new(big.Int).Add(mod, v)
	}
	var buf [16]byte
	b := u.Bytes()
	copy(buf[16-len(b):], b)
	hi := int64(beUint64(buf[0:8]))
	lo := beUint64(buf[8:16])
	return Int128{Lo: lo, Hi: hi}, nil
}

// BigInt converts i back into a signed big.Int.
func (i Int128) BigInt() *big.Int {
	var buf [16]byte
	putBeUint64(buf[0:8], uint64(i.Hi))
	putBeUint64(buf[8:16], i.Lo)
	v := new(big.Int).SetBytes(buf[:])
	if i.Hi < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), 128)
		v = new(big.Int).Sub(v, mod)
	}
	return v
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

func putBeUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func precisionErr(op, msg string) error {
	return wrapPrecision(op, msg)
}
