package identifier

import "github.com/dawsh2/torq/pkg/torqerr"

// DexProtocol discriminates which AMM/DEX protocol a pool identifier
// belongs to; it occupies the Reserved byte of a pool InstrumentId.
type DexProtocol uint8

const (
	DexUnknown      DexProtocol = 0
	DexUniswapV2    DexProtocol = 1
	DexUniswapV3    DexProtocol = 2
	DexSushiswapV2  DexProtocol = 3
	DexCurveStable  DexProtocol = 4
	DexBalancerV2   DexProtocol = 5
	DexQuickswapV3  DexProtocol = 6
)

// Validate rejects protocol discriminants this build doesn't know about;
// DexUnknown is considered valid (the enrichment pipeline may not yet have
// classified the pool's protocol at construction time).
func (d DexProtocol) Validate() error {
	switch d {
	case DexUnknown, DexUniswapV2, DexUniswapV3, DexSushiswapV2, DexCurveStable, DexBalancerV2, DexQuickswapV3:
		return nil
	default:
		return torqerr.New(torqerr.Protocol, "identifier.DexProtocol.Validate",
			"invalid DEX protocol discriminant")
	}
}

func (d DexProtocol) String() string {
	switch d {
	case DexUniswapV2:
		return "UniswapV2"
	case DexUniswapV3:
		return "UniswapV3"
	case DexSushiswapV2:
		return "SushiswapV2"
	case DexCurveStable:
		return "CurveStable"
	case DexBalancerV2:
		return "BalancerV2"
	case DexQuickswapV3:
		return "QuickswapV3"
	default:
		return "Unknown"
	}
}
