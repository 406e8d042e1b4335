package tlv

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint128RoundTrip(t *testing.T) {
	v := bigFromString("340282366920938463463374607431768211455") // 2^128 - 1
	u, err := Uint128FromBigInt(v)
	require.NoError(t, err)
	assert.Equal(t, v, u.BigInt())
}

func TestUint128RejectsOverflow(t *testing.T) {
	v := new(big.Int).Lsh(big.NewInt(1), 128)
	_, err := Uint128FromBigInt(v)
	assert.Error(t, err)
}

func TestUint128RejectsNegative(t *testing.T) {
	_, err := Uint128FromBigInt(big.NewInt(-1))
	assert.Error(t, err)
}

func TestInt128RoundTripNegative(t *testing.T) {
	v := bigFromString("-170141183460469231731687303715884105727") // -(2^127 - 1)
	i, err := Int128FromBigInt(v)
	require.NoError(t, err)
	assert.Equal(t, v, i.BigInt())
}

func TestInt128RoundTripPositive(t *testing.T) {
	v := bigFromString("170141183460469231731687303715884105726")
	i, err := Int128FromBigInt(v)
	require.NoError(t, err)
	assert.Equal(t, v, i.BigInt())
}

func TestInt128RejectsOutOfRange(t *testing.T) {
	v := new(big.Int).Lsh(big.NewInt(1), 127)
	_, err := Int128FromBigInt(v)
	assert.Error(t, err)
}
