package recovery

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/dawsh2/torq/pkg/torqerr"
)

// CompressionType selects the codec SnapshotTLV's compressed payload uses
// (spec §3.4/§4.6).
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionZlib
	CompressionLz4
	CompressionZstd
)

// SnapshotHeaderSize is the fixed-length prefix of a SnapshotTLV payload,
// preceding the (possibly compressed) state bytes: sequence(8) +
// timestamp_ns(8) + snapshot_id(8) + uncompressed_size(4) + checksum(4) +
// compression_type(1) + relay_domain(1) + pad(2).
const SnapshotHeaderSize = 36

// DefaultFreshnessBound is the age past which a snapshot is rejected
// outright rather than applied (spec §4.6).
const DefaultFreshnessBound = time.Hour

// Snapshot is a decoded checkpoint of relay state used to recover a
// consumer whose gap exceeds what the Ring can retransmit.
type Snapshot struct {
	RelayDomain       uint8
	Sequence          uint64
	TimestampNs       uint64
	SnapshotID        uint64
	UncompressedSize  uint32
	Checksum          uint32
	CompressionType   CompressionType
	UncompressedState []byte
}

// Encode serializes s into a SnapshotTLV payload, compressing
// UncompressedState with s.CompressionType and computing the CRC32 over
// the uncompressed bytes (so verification never depends on re-running the
// same compressor).
func Encode(s Snapshot) ([]byte, error) {
	compressed, err := compress(s.CompressionType, s.UncompressedState)
	if err != nil {
		return nil, err
	}

	header := make([]byte, SnapshotHeaderSize)
	binary.LittleEndian.PutUint64(header[0:8], s.Sequence)
	binary.LittleEndian.PutUint64(header[8:16], s.TimestampNs)
	binary.LittleEndian.PutUint64(header[16:24], s.SnapshotID)
	binary.LittleEndian.PutUint32(header[24:28], uint32(len(s.UncompressedState)))
	binary.LittleEndian.PutUint32(header[28:32], crc32.ChecksumIEEE(s.UncompressedState))
	header[32] = byte(s.CompressionType)
	header[33] = s.RelayDomain

	return append(header, compressed...), nil
}

// Decode parses a SnapshotTLV payload, decompresses the state, and
// verifies both the CRC32 checksum and the uncompressed-size agreement
// (spec §4.6); a mismatch on either is a Compression error.
func Decode(b []byte) (Snapshot, error) {
	if len(b) < SnapshotHeaderSize {
		return Snapshot{}, torqerr.New(torqerr.Protocol, "recovery.Decode", "snapshot payload too small")
	}
	var s Snapshot
	s.Sequence = binary.LittleEndian.Uint64(b[0:8])
	s.TimestampNs = binary.LittleEndian.Uint64(b[8:16])
	s.SnapshotID = binary.LittleEndian.Uint64(b[16:24])
	s.UncompressedSize = binary.LittleEndian.Uint32(b[24:28])
	s.Checksum = binary.LittleEndian.Uint32(b[28:32])
	s.CompressionType = CompressionType(b[32])
	s.RelayDomain = b[33]

	state, err := decompress(s.CompressionType, b[SnapshotHeaderSize:])
	if err != nil {
		return Snapshot{}, err
	}
	if uint32(len(state)) != s.UncompressedSize {
		return Snapshot{}, torqerr.New(torqerr.Compression, "recovery.Decode",
			"decompressed size disagrees with header")
	}
	if crc32.ChecksumIEEE(state) != s.Checksum {
		return Snapshot{}, torqerr.New(torqerr.Compression, "recovery.Decode",
			"checksum mismatch over uncompressed state")
	}
	s.UncompressedState = state
	return s, nil
}

// CheckFreshness rejects a snapshot older than bound relative to now.
func CheckFreshness(s Snapshot, now time.Time, bound time.Duration) error {
	age := now.Sub(time.Unix(0, int64(s.TimestampNs)))
	if age > bound {
		return torqerr.New(torqerr.Protocol, "recovery.CheckFreshness", "snapshot exceeds freshness bound")
	}
	return nil
}

func compress(kind CompressionType, data []byte) ([]byte, error) {
	switch kind {
	case CompressionNone:
		return data, nil
	case CompressionZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.compress.zlib", err)
		}
		if err := w.Close(); err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.compress.zlib", err)
		}
		return buf.Bytes(), nil
	case CompressionLz4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.compress.lz4", err)
		}
		if err := w.Close(); err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.compress.lz4", err)
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.compress.zstd", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, torqerr.New(torqerr.Compression, "recovery.compress", "unknown compression type")
	}
}

func decompress(kind CompressionType, data []byte) ([]byte, error) {
	switch kind {
	case CompressionNone:
		return data, nil
	case CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.decompress.zlib", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.decompress.zlib", err)
		}
		return out, nil
	case CompressionLz4:
		r := lz4.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.decompress.lz4", err)
		}
		return out, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.decompress.zstd", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, torqerr.Wrap(torqerr.Compression, "recovery.decompress.zstd", err)
		}
		return out, nil
	default:
		return nil, torqerr.New(torqerr.Compression, "recovery.decompress", "unknown compression type")
	}
}
