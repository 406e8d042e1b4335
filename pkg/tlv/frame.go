package tlv

import "encoding/binary"

// Extension is one decoded TLV entry: a type number plus its raw value
// bytes, not yet interpreted as a specific payload struct.
type Extension struct {
	Type  uint8
	Value []byte
}

// EncodeTLV frames value under type t, using standard (type:u8,length:u8)
// framing when value fits in 255 bytes and automatically upgrading to
// extended framing (marker=255, reserved=0, type:u8, length:u16 LE)
// otherwise, per spec §3.3.
//
// If t is registered in TypeRegistry with a Fixed constraint and value's
// length doesn't match, EncodeTLV panics: building a mis-sized Fixed
// payload is a programmer error in this codebase, not a condition a
// caller should recover from (spec §3.3/§8 — this mirrors what a
// mis-declared fixed-width struct literal does in the source system).
func EncodeTLV(t uint8, value []byte) []byte {
	if c, ok := ConstraintFor(t); ok && c.Kind == Fixed && len(value) != c.N {
		panic("tlv: EncodeTLV: value length does not match registered Fixed size for type")
	}

	if len(value) <= 255 {
		buf := make([]byte, 2+len(value))
		buf[0] = t
		buf[1] = byte(len(value))
		copy(buf[2:], value)
		return buf
	}

	buf := make([]byte, 5+len(value))
	buf[0] = ExtendedMarker
	buf[1] = 0 // reserved
	buf[2] = t
	binary.LittleEndian.PutUint16(buf[3:5], uint16(len(value)))
	copy(buf[5:], value)
	return buf
}

// ParseExtensions walks the TLV extension region following a message
// header, decoding standard and extended entries. strict controls whether
// an entry whose length disagrees with its TypeRegistry constraint (when
// one is registered) is rejected; relay mode (strict=false) forwards
// unrecognized or mismatched entries unchanged, since a relay's job is to
// fan messages out, not to fully understand every payload it forwards
// (spec §4.2/§4.3).
func ParseExtensions(b []byte, strict bool) ([]Extension, error) {
	var out []Extension
	i := 0
	for i < len(b) {
		if i+2 > len(b) {
			return nil, TruncatedTLV{Offset: i}
		}
		marker := b[i]
		if marker == ExtendedMarker {
			if i+5 > len(b) {
				return nil, TruncatedTLV{Offset: i}
			}
			typ := b[i+2]
			length := int(binary.LittleEndian.Uint16(b[i+3 : i+5]))
			start := i + 5
			if start+length > len(b) {
				return nil, TruncatedTLV{Offset: i}
			}
			val := b[start : start+length]
			if strict {
				if c, ok := ConstraintFor(typ); ok && !c.Check(length) {
					return nil, wrapProtocol("tlv.ParseExtensions", "value length violates registered constraint")
				}
			}
			out = append(out, Extension{Type: typ, Value: val})
			i = start + length
			continue
		}

		typ := marker
		length := int(b[i+1])
		start := i + 2
		if start+length > len(b) {
			return nil, TruncatedTLV{Offset: i}
		}
		val := b[start : start+length]
		if strict {
			if c, ok := ConstraintFor(typ); ok && !c.Check(length) {
				return nil, wrapProtocol("tlv.ParseExtensions", "value length violates registered constraint")
			}
		}
		out = append(out, Extension{Type: typ, Value: val})
		i = start + length
	}
	return out, nil
}
