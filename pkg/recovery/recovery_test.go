package recovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerDetectsGapAfterSequence(t *testing.T) {
	tr := NewTracker()
	key := Key{Source: 1, Domain: 1}

	for _, seq := range []uint64{1, 2, 3} {
		obs := tr.Observe(key, seq)
		assert.Equal(t, InOrder, obs.Kind)
	}

	obs := tr.Observe(key, 5)
	assert.Equal(t, Gap, obs.Kind)
	assert.Equal(t, uint64(4), obs.Expected)
	assert.Equal(t, uint64(5), obs.Received)
}

func TestTrackerDetectsReplay(t *testing.T) {
	tr := NewTracker()
	key := Key{Source: 2, Domain: 1}
	tr.Observe(key, 1)
	tr.Observe(key, 2)

	obs := tr.Observe(key, 1)
	assert.Equal(t, Replay, obs.Kind)
}

func TestTrackerAdvanceClosesGap(t *testing.T) {
	tr := NewTracker()
	key := Key{Source: 3, Domain: 1}
	tr.Observe(key, 1)
	tr.Observe(key, 5) // gap

	tr.Advance(key, 6)
	obs := tr.Observe(key, 6)
	assert.Equal(t, InOrder, obs.Kind)
}

func TestRingRangeFullyBuffered(t *testing.T) {
	r := NewRing(10)
	for i := uint64(1); i <= 5; i++ {
		r.Push(i, []byte{byte(i)})
	}
	msgs, ok := r.Range(2, 4)
	require.True(t, ok)
	assert.Equal(t, [][]byte{{2}, {3}, {4}}, msgs)
}

func TestRingRangeEvictedReturnsFalse(t *testing.T) {
	r := NewRing(3)
	for i := uint64(1); i <= 5; i++ {
		r.Push(i, []byte{byte(i)})
	}
	_, ok := r.Range(1, 5)
	assert.False(t, ok, "sequence 1 and 2 should have been evicted from a capacity-3 ring")
}

func TestSnapshotRoundTripNone(t *testing.T) {
	s := Snapshot{
		RelayDomain:       1,
		Sequence:          100,
		TimestampNs:       uint64(time.Now().UnixNano()),
		SnapshotID:        1,
		CompressionType:   CompressionNone,
		UncompressedState: []byte("some relay state blob"),
	}
	b, err := Encode(s)
	require.NoError(t, err)

	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, s.UncompressedState, decoded.UncompressedState)
	assert.Equal(t, s.Sequence, decoded.Sequence)
}

func TestSnapshotRoundTripZlib(t *testing.T) {
	s := Snapshot{
		Sequence:          1,
		TimestampNs:       uint64(time.Now().UnixNano()),
		CompressionType:   CompressionZlib,
		UncompressedState: []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility"),
	}
	b, err := Encode(s)
	require.NoError(t, err)
	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, s.UncompressedState, decoded.UncompressedState)
}

func TestSnapshotRoundTripLz4(t *testing.T) {
	s := Snapshot{
		Sequence:          1,
		TimestampNs:       uint64(time.Now().UnixNano()),
		CompressionType:   CompressionLz4,
		UncompressedState: []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility"),
	}
	b, err := Encode(s)
	require.NoError(t, err)
	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, s.UncompressedState, decoded.UncompressedState)
}

func TestSnapshotRoundTripZstd(t *testing.T) {
	s := Snapshot{
		Sequence:          1,
		TimestampNs:       uint64(time.Now().UnixNano()),
		CompressionType:   CompressionZstd,
		UncompressedState: []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility"),
	}
	b, err := Encode(s)
	require.NoError(t, err)
	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, s.UncompressedState, decoded.UncompressedState)
}

func TestSnapshotDecodeDetectsChecksumCorruption(t *testing.T) {
	s := Snapshot{
		Sequence:          1,
		TimestampNs:       uint64(time.Now().UnixNano()),
		CompressionType:   CompressionNone,
		UncompressedState: []byte("original state"),
	}
	b, err := Encode(s)
	require.NoError(t, err)
	b[SnapshotHeaderSize] ^= 0xFF // mutate the state bytes after checksum computed

	_, err = Decode(b)
	assert.Error(t, err)
}

func TestCheckFreshnessRejectsStale(t *testing.T) {
	s := Snapshot{TimestampNs: uint64(time.Now().Add(-2 * time.Hour).UnixNano())}
	err := CheckFreshness(s, time.Now(), DefaultFreshnessBound)
	assert.Error(t, err)
}

func TestCheckFreshnessAcceptsRecent(t *testing.T) {
	s := Snapshot{TimestampNs: uint64(time.Now().Add(-time.Minute).UnixNano())}
	err := CheckFreshness(s, time.Now(), DefaultFreshnessBound)
	assert.NoError(t, err)
}
