package identifier

import "github.com/dawsh2/torq/pkg/torqerr"

// AssetType is partitioned per spec §3.1: 1-49 traditional, 50-99
// cryptocurrency, 100-149 DeFi (including Pool), 150-199 derivatives.
type AssetType uint8

const (
	AssetStock      AssetType = 1
	AssetBond       AssetType = 2
	AssetCommodity  AssetType = 3

	AssetSpotCrypto AssetType = 50
	AssetNFT        AssetType = 51

	AssetPool    AssetType = 100
	AssetLPToken AssetType = 101

	AssetFuture AssetType = 150
	AssetOption AssetType = 151
	AssetPerp   AssetType = 152
)

var assetTypeRanges = []venueRange{
	{1, 49, "traditional"},
	{50, 99, "cryptocurrency"},
	{100, 149, "defi"},
	{150, 199, "derivatives"},
}

// Validate reports whether a falls in one of the declared partitions.
func (a AssetType) Validate() error {
	v := uint16(a)
	for _, r := range assetTypeRanges {
		if v >= r.lo && v <= r.hi {
			return nil
		}
	}
	return torqerr.New(torqerr.Protocol, "identifier.AssetType.Validate",
		"invalid asset type: out of range")
}

// Fungible reports whether instruments of this asset type can be paired for
// arbitrage purposes. Only NFTs are excluded per spec §4.1's can_pair_with.
func (a AssetType) Fungible() bool { return a != AssetNFT }

func (a AssetType) String() string {
	switch a {
	case AssetStock:
		return "Stock"
	case AssetBond:
		return "Bond"
	case AssetCommodity:
		return "Commodity"
	case AssetSpotCrypto:
		return "SpotCrypto"
	case AssetNFT:
		return "NFT"
	case AssetPool:
		return "Pool"
	case AssetLPToken:
		return "LPToken"
	case AssetFuture:
		return "Future"
	case AssetOption:
		return "Option"
	case AssetPerp:
		return "Perp"
	default:
		return "Unknown"
	}
}
