package tlv

import (
	"encoding/binary"
	"fmt"
)

// The types below are Parse's structured errors, distinguished by Go type
// switch rather than sentinel string matching, so callers (e.g. relay
// metrics) can tally failures by exact cause (spec §4.2). Version and
// payload-bounds failures from DecodeHeader and size-constraint violations
// from ParseExtensions are torqerr Protocol errors instead; UnknownTLVType
// is not returned by Parse.
type MessageTooSmall struct{ Need, Got int }

func (e MessageTooSmall) Error() string {
	return fmt.Sprintf("tlv: message too small: need %d bytes, got %d", e.Need, e.Got)
}

type InvalidMagic struct{ Expected, Actual uint32 }

func (e InvalidMagic) Error() string {
	return fmt.Sprintf("tlv: invalid magic: expected %#x, got %#x", e.Expected, e.Actual)
}

type ChecksumMismatch struct{ Expected, Calculated uint32 }

func (e ChecksumMismatch) Error() string {
	return fmt.Sprintf("tlv: checksum mismatch: expected %#x, calculated %#x", e.Expected, e.Calculated)
}

type TruncatedTLV struct{ Offset int }

func (e TruncatedTLV) Error() string {
	return fmt.Sprintf("tlv: truncated TLV entry at offset %d", e.Offset)
}

type UnknownTLVType uint8

func (e UnknownTLVType) Error() string {
	return fmt.Sprintf("tlv: unknown TLV type %d", uint8(e))
}

type PayloadTooLarge struct{ Size int }

func (e PayloadTooLarge) Error() string {
	return fmt.Sprintf("tlv: payload too large: %d bytes", e.Size)
}

// MaxMessageSize bounds a single wire message, guarding the parser
// against a corrupt or adversarial payload_size field before any
// allocation happens.
const MaxMessageSize = 16 * 1024 * 1024

// Message is a fully parsed wire message: its header plus decoded TLV
// extensions.
type Message struct {
	Header     Header
	Extensions []Extension
}

// Mode selects how strictly Parse enforces per-type size constraints.
// Strict is for anything that must fully understand every TLV it reads
// (exchange adapters building outbound messages, consumers materializing
// typed payloads). Relay skips the per-type constraint check so a relay
// can forward a message carrying a TLV type it doesn't recognize yet,
// without failing closed on forward compatibility (spec §4.2/§4.3).
// Strict also verifies the header checksum; Relay does not.
type Mode int

const (
	Strict Mode = iota
	Relay
)

// Parse validates and decodes a complete wire message: header magic,
// version, bounds, checksum (Strict mode only), and the TLV extension
// region.
func Parse(b []byte, mode Mode) (Message, error) {
	if len(b) < HeaderSize {
		return Message{}, MessageTooSmall{Need: HeaderSize, Got: len(b)}
	}
	if len(b) > MaxMessageSize {
		return Message{}, PayloadTooLarge{Size: len(b)}
	}

	if m := binary.LittleEndian.Uint32(b[0:4]); m != Magic {
		return Message{}, InvalidMagic{Expected: Magic, Actual: m}
	}
	h, err := DecodeHeader(b)
	if err != nil {
		return Message{}, err
	}

	if mode == Strict {
		if err := VerifyChecksum(b); err != nil {
			want := h.Checksum
			got := ComputeChecksum(b)
			return Message{}, ChecksumMismatch{Expected: want, Calculated: got}
		}
	}

	payload := b[HeaderSize : HeaderSize+int(h.PayloadSize)]
	exts, err := ParseExtensions(payload, mode == Strict)
	if err != nil {
		return Message{}, err
	}

	return Message{Header: h, Extensions: exts}, nil
}

// Find returns the first extension of type t, if present.
func (m Message) Find(t uint8) (Extension, bool) {
	for _, e := range m.Extensions {
		if e.Type == t {
			return e, true
		}
	}
	return Extension{}, false
}

// FindAll returns every extension of type t, in wire order.
func (m Message) FindAll(t uint8) []Extension {
	var out []Extension
	for _, e := range m.Extensions {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
