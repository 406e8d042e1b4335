package tlv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedVecPushWithinCapacity(t *testing.T) {
	fv := NewFixedVec[uint64](3)
	require.NoError(t, fv.Push(1))
	require.NoError(t, fv.Push(2))
	require.NoError(t, fv.Push(3))
	assert.Equal(t, 3, fv.Len())
	assert.Equal(t, 3, fv.Cap())
	assert.Equal(t, []uint64{1, 2, 3}, fv.Slice())
}

func TestFixedVecPushPastCapacity(t *testing.T) {
	fv := NewFixedVec[uint64](1)
	require.NoError(t, fv.Push(1))
	err := fv.Push(2)
	assert.Error(t, err)
	assert.Equal(t, 1, fv.Len())
}

func TestFromSliceBijection(t *testing.T) {
	items := []uint64{10, 20, 30}
	fv, err := FromSlice(16, items)
	require.NoError(t, err)
	assert.Equal(t, items, fv.Slice())
}

func TestFromSliceTooLong(t *testing.T) {
	_, err := FromSlice(2, []uint64{1, 2, 3})
	assert.Error(t, err)
}
