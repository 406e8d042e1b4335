package tlv

// ExtendedMarker is the reserved TLV type value signaling extended framing.
const ExtendedMarker = 255

// Type numbers are assigned from partitioned ranges mirroring relay-domain
// assignment (spec §3.3): 1-19 market data, 20-39 signal, 40-59 execution,
// 100-119 system, 200-254 vendor/experimental.
const (
	TypeTrade             = 1
	TypeQuote             = 2
	TypePoolSwap          = 3
	TypePoolMint          = 4
	TypePoolBurn          = 5
	TypePoolTick          = 6
	TypePoolLiquidity     = 7
	TypeStateInvalidation = 8

	TypeArbitrageSignal = 20

	TypeExecutionOrder  = 40
	TypeExecutionFilled = 41

	TypeSnapshot = 101
)

// SizeConstraintKind classifies a TLV type's payload shape, per spec §3.3/§4.2.
type SizeConstraintKind uint8

const (
	Fixed SizeConstraintKind = iota
	Bounded
	Variable
)

// SizeConstraint describes the shape a TLV type's payload must take.
type SizeConstraint struct {
	Kind SizeConstraintKind
	N    int // Fixed: exact length. Bounded: unused, see Min/Max.
	Min  int // Bounded: minimum length (inclusive).
	Max  int // Bounded: maximum length (inclusive).
}

func FixedSize(n int) SizeConstraint       { return SizeConstraint{Kind: Fixed, N: n} }
func BoundedSize(min, max int) SizeConstraint { return SizeConstraint{Kind: Bounded, Min: min, Max: max} }
func VariableSize() SizeConstraint         { return SizeConstraint{Kind: Variable} }

// Check reports whether payloadLen satisfies the constraint.
func (c SizeConstraint) Check(payloadLen int) bool {
	switch c.Kind {
	case Fixed:
		return payloadLen == c.N
	case Bounded:
		return payloadLen >= c.Min && payloadLen <= c.Max
	case Variable:
		return true
	default:
		return false
	}
}

// TypeRegistry maps a TLV type number to its declared size constraint.
// Fixed types enable zero-validation reads on hot paths; Bounded types
// admit one bounds check; Variable types require dynamic allocation or a
// fixed-capacity container (spec §3.5).
var TypeRegistry = map[uint8]SizeConstraint{
	TypeTrade:             FixedSize(TradeTLVSize),
	TypeQuote:              FixedSize(QuoteTLVSize),
	TypePoolSwap:           FixedSize(PoolSwapTLVSize),
	TypePoolMint:           FixedSize(PoolMintTLVSize),
	TypePoolBurn:           FixedSize(PoolBurnTLVSize),
	TypePoolTick:           FixedSize(PoolTickTLVSize),
	TypePoolLiquidity:      FixedSize(PoolLiquidityTLVSize),
	TypeStateInvalidation:  BoundedSize(stateInvalidationMinSize, stateInvalidationMaxSize),
	TypeArbitrageSignal:    FixedSize(ArbitrageSignalTLVSize),
	TypeSnapshot:           VariableSize(),
}

// ConstraintFor returns the declared constraint for t and whether one is
// registered. Unregistered (vendor/experimental, or forward-compatible)
// types report ok=false, and ParseExtensions accepts them without a size
// check in both strict and relay mode.
func ConstraintFor(t uint8) (SizeConstraint, bool) {
	c, ok := TypeRegistry[t]
	return c, ok
}
