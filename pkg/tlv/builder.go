package tlv

import (
	"encoding/binary"
	"sync/atomic"
)

// sequenceCounter is the process-wide monotonic sequence source that
// NewBuilder draws from; HotBuild does not use it and stamps whatever
// sequence its caller passes. Each (RelayDomain, SourceType) pair is expected
// to own a disjoint counter upstream of this package in practice (one
// builder per adapter connection); this package just hands out the next
// number for whichever builder calls it.
var sequenceCounter uint64

// NextSequence returns a fresh, process-wide monotonically increasing
// sequence number.
func NextSequence() uint64 {
	return atomic.AddUint64(&sequenceCounter, 1)
}

// Builder assembles a full wire message (header + TLV extensions) through
// a fluent API. It is meant for paths where allocation and a little extra
// bookkeeping are acceptable — tests, adapters assembling one message at a
// time, admin tooling. HotBuild below is the allocation-light counterpart
// for the relay's forwarding hot path.
type Builder struct {
	domain      RelayDomain
	source      SourceType
	messageType uint8
	sequence    uint64
	timestampNs uint64
	extensions  [][]byte
}

// NewBuilder starts a Builder for the given domain/source/messageType,
// stamping it with the next process-wide sequence number.
func NewBuilder(domain RelayDomain, source SourceType, messageType uint8, timestampNs uint64) *Builder {
	return &Builder{
		domain:      domain,
		source:      source,
		messageType: messageType,
		sequence:    NextSequence(),
		timestampNs: timestampNs,
	}
}

// WithSequence overrides the auto-assigned sequence number (used by tests
// and by recovery/replay paths that must reproduce an exact prior
// sequence rather than mint a new one).
func (b *Builder) WithSequence(seq uint64) *Builder {
	b.sequence = seq
	return b
}

// AddTLV appends a TLV entry built from a typed payload's already-encoded
// bytes.
func (b *Builder) AddTLV(t uint8, value []byte) *Builder {
	b.extensions = append(b.extensions, EncodeTLV(t, value))
	return b
}

// Build serializes the header and all appended TLV extensions into one
// message, computing and filling in the checksum over the complete
// buffer.
func (b *Builder) Build() []byte {
	var payload []byte
	for _, e := range b.extensions {
		payload = append(payload, e...)
	}

	h := Header{
		Magic:       Magic,
		Version:     Version,
		MessageType: b.messageType,
		RelayDomain: b.domain,
		SourceType:  b.source,
		Sequence:    b.sequence,
		TimestampNs: b.timestampNs,
		PayloadSize: uint32(len(payload)),
	}
	headerBytes := h.Encode()

	msg := make([]byte, HeaderSize+len(payload))
	copy(msg, headerBytes[:])
	copy(msg[HeaderSize:], payload)

	checksum := ComputeChecksum(msg)
	binary.LittleEndian.PutUint32(msg[28:32], checksum)
	return msg
}

// HotBuild writes a single-TLV message directly into dst (which must be
// at least HeaderSize+2+len(value) bytes, or HeaderSize+5+len(value) if
// value exceeds 255 bytes), skipping the Builder's intermediate
// allocations and skipping the checksum (the hot path trusts its own
// output and leaves checksum verification to whoever consumes the
// message over an untrusted boundary). It returns the slice of dst
// actually used.
func HotBuild(dst []byte, domain RelayDomain, source SourceType, messageType uint8, sequence, timestampNs uint64, tlvType uint8, value []byte) ([]byte, error) {
	tlvBytes := EncodeTLV(tlvType, value)
	total := HeaderSize + len(tlvBytes)
	if len(dst) < total {
		return nil, wrapProtocol("tlv.HotBuild", "destination buffer too small")
	}

	h := Header{
		Magic:       Magic,
		Version:     Version,
		MessageType: messageType,
		RelayDomain: domain,
		SourceType:  source,
		Sequence:    sequence,
		TimestampNs: timestampNs,
		PayloadSize: uint32(len(tlvBytes)),
	}
	headerBytes := h.Encode()
	copy(dst[0:HeaderSize], headerBytes[:])
	copy(dst[HeaderSize:total], tlvBytes)
	return dst[:total], nil
}
