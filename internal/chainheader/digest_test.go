package chainheader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestHexRoundTrip(t *testing.T) {
	const hexStr = "0x000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	d, err := DigestFromHex(hexStr)
	require.NoError(t, err)
	require.Equal(t, hexStr, d.Hex())
}

func TestDigestFromHexRejectsBadLength(t *testing.T) {
	_, err := DigestFromHex("0xabcd")
	require.ErrorIs(t, err, ErrInvalidDigestLength)
}

func TestDigestWordsReversesFullByteOrder(t *testing.T) {
	d, err := DigestFromHex("0x000000000000000000000000000000000000000000000000000000000000000f")
	require.NoError(t, err)
	words := d.Words()
	// Last display byte (0x0f) becomes the high byte of the first word.
	require.Equal(t, uint32(0x0f000000), words[0])
	for _, w := range words[1:] {
		require.Equal(t, uint32(0), w)
	}
}
