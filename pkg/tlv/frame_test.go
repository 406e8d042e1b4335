package tlv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTLVStandardFraming(t *testing.T) {
	b := EncodeTLV(200, []byte{1, 2, 3})
	require.Len(t, b, 5)
	assert.Equal(t, uint8(200), b[0])
	assert.Equal(t, uint8(3), b[1])
}

func TestEncodeTLVExtendedBoundary(t *testing.T) {
	at255 := EncodeTLV(200, make([]byte, 255))
	assert.Equal(t, uint8(200), at255[0], "255-byte value still fits standard framing")
	assert.Len(t, at255, 2+255)

	at256 := EncodeTLV(200, make([]byte, 256))
	assert.Equal(t, uint8(ExtendedMarker), at256[0], "256-byte value must upgrade to extended framing")
	assert.Len(t, at256, 5+256)
}

func TestEncodeTLVPanicsOnMismatchedFixedSize(t *testing.T) {
	assert.Panics(t, func() {
		EncodeTLV(TypeTrade, make([]byte, TradeTLVSize-1))
	})
}

func TestParseExtensionsRoundTrip(t *testing.T) {
	tr := TradeTLV{Venue: 1, InstrumentID: 1, Price: 1, Volume: 1, TimestampNs: 1}
	payload := EncodeTLV(TypeTrade, tr.Encode())

	exts, err := ParseExtensions(payload, true)
	require.NoError(t, err)
	require.Len(t, exts, 1)
	assert.Equal(t, uint8(TypeTrade), exts[0].Type)

	got, err := DecodeTradeTLV(exts[0].Value)
	require.NoError(t, err)
	assert.Equal(t, tr, got)
}

func TestParseExtensionsStrictRejectsBadFixedSize(t *testing.T) {
	bad := make([]byte, 2+TradeTLVSize+1)
	bad[0] = TypeTrade
	bad[1] = byte(TradeTLVSize + 1)

	_, err := ParseExtensions(bad, true)
	assert.Error(t, err)

	_, err = ParseExtensions(bad, false)
	assert.NoError(t, err, "relay mode forwards without enforcing the constraint")
}

func TestParseExtensionsTruncated(t *testing.T) {
	_, err := ParseExtensions([]byte{TypeTrade, 10, 1, 2}, true)
	assert.Error(t, err)
}

func TestParseExtensionsMultiple(t *testing.T) {
	var payload []byte
	payload = append(payload, EncodeTLV(TypeTrade, make([]byte, TradeTLVSize))...)
	payload = append(payload, EncodeTLV(TypeQuote, make([]byte, QuoteTLVSize))...)

	exts, err := ParseExtensions(payload, true)
	require.NoError(t, err)
	require.Len(t, exts, 2)
	assert.Equal(t, uint8(TypeTrade), exts[0].Type)
	assert.Equal(t, uint8(TypeQuote), exts[1].Type)
}
