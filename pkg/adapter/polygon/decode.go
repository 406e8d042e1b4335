// Package polygon decodes Uniswap-V3-style Swap contract logs into
// PoolSwapTLV payloads (spec §4.7), grounded on the ABI-offset byte
// slicing in
// other_examples/e6e53325_bimakw-dex-aggregator__...uniswap_v3.go.go
// (there applied to factory/quoter calldata; here applied to log data).
// Mint, Burn and tick logs are not decoded.
package polygon

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/dawsh2/torq/pkg/tlv"
	"github.com/dawsh2/torq/pkg/torqerr"
)

// Swap log data layout (spec §4.7): amount0:int256 @0, amount1:int256 @32,
// sqrtPriceX96:uint160 @64, liquidity:uint128 @96, tick:int24 @128.
const swapLogDataLen = 160

// DecodeSwap decodes a Uniswap-V3 Swap event's log.Data into a PoolSwapTLV.
// Swap direction follows the sign convention spec §4.7 defines: a negative
// amount means that token was sold by the trader into the pool, a
// positive amount means it was bought out of the pool. The adapter refuses to emit on zero amounts or a
// malformed data length, per spec.
func DecodeSwap(log gethtypes.Log, poolAddress common.Address, tokenIn, tokenOut common.Address, venue uint16, amountInDecimals, amountOutDecimals uint8) (tlv.PoolSwapTLV, error) {
	if len(log.Data) != swapLogDataLen {
		return tlv.PoolSwapTLV{}, torqerr.New(torqerr.Protocol, "polygon.DecodeSwap",
			"malformed swap log: unexpected data length")
	}

	amount0 := new(big.Int).SetBytes(log.Data[0:32])
	amount0 = asSigned256(amount0, log.Data[0:32])
	amount1 := new(big.Int).SetBytes(log.Data[32:64])
	amount1 = asSigned256(amount1, log.Data[32:64])

	sqrtPriceX96 := new(big.Int).SetBytes(log.Data[64:96])
	liquidity := new(big.Int).SetBytes(log.Data[96:128])
	// int24 tick occupies only the last 3 bytes of its 32-byte word; the
	// first 29 bytes are sign-extension padding the ABI encoder adds to
	// right-align the value, not magnitude.
	tick := asSigned24(log.Data[157:160])

	if amount0.Sign() == 0 && amount1.Sign() == 0 {
		return tlv.PoolSwapTLV{}, torqerr.New(torqerr.Protocol, "polygon.DecodeSwap",
			"refusing to emit a swap with zero amounts")
	}

	// Whichever side went negative was sold into the pool by the trader
	// (amount_in); the other side, always positive, was bought out of the
	// pool (amount_out).
	var amountIn, amountOut *big.Int
	if amount0.Sign() < 0 {
		amountIn, amountOut = new(big.Int).Neg(amount0), amount1
	} else {
		amountIn, amountOut = new(big.Int).Neg(amount1), amount0
	}

	amountInU, err := tlv.Uint128FromBigInt(amountIn)
	if err != nil {
		return tlv.PoolSwapTLV{}, err
	}
	amountOutU, err := tlv.Uint128FromBigInt(amountOut)
	if err != nil {
		return tlv.PoolSwapTLV{}, err
	}
	liquidityU, err := tlv.Uint128FromBigInt(liquidity)
	if err != nil {
		return tlv.PoolSwapTLV{}, err
	}
	sqrtPriceU, err := tlv.Uint128FromBigInt(sqrtPriceX96)
	if err != nil {
		return tlv.PoolSwapTLV{}, err
	}

	return tlv.PoolSwapTLV{
		PoolAddress:        poolAddress,
		TokenIn:            tokenIn,
		TokenOut:           tokenOut,
		Venue:              venue,
		AmountIn:           amountInU,
		AmountOut:          amountOutU,
		LiquidityAfter:     liquidityU,
		SqrtPriceX96After:  sqrtPriceU,
		TickAfter:          int32(tick),
		AmountInDecimals:   amountInDecimals,
		AmountOutDecimals:  amountOutDecimals,
		BlockNumber:        log.BlockNumber,
		TimestampNs:        0, // stamped by the caller once the block timestamp is resolved
	}, nil
}

// asSigned256 reinterprets a 32-byte big-endian word as two's-complement
// signed, since big.Int.SetBytes always reads unsigned.
func asSigned256(u *big.Int, raw []byte) *big.Int {
	if len(raw) == 0 || raw[0] < 0x80 {
		return u
	}
	var mod big.Int
	mod.Lsh(big.NewInt(1), 256)
	return new(big.Int).Sub(u, &mod)
}

// asSigned24 reinterprets a 3-byte big-endian word (int24) as signed.
func asSigned24(raw []byte) int32 {
	v := int32(raw[0])<<16 | int32(raw[1])<<8 | int32(raw[2])
	if raw[0]&0x80 != 0 {
		v -= 1 << 24
	}
	return v
}
