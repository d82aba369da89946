package argadapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

func TestPushU256RoundTripsThroughHalves(t *testing.T) {
	v, err := chainheader.U256FromDecimalString("340282366920938463463374607431768211456") // 2^128
	require.NoError(t, err)

	var b Builder
	b.PushU256(v, HiThenLo)
	felts := b.Felts()
	require.Len(t, felts, 2)

	hi, lo := v.SplitHalves()
	var wantHi, wantLo Felt
	wantHi.SetBytes(hi[:])
	wantLo.SetBytes(lo[:])

	require.True(t, felts[0].Equal(&wantHi))
	require.True(t, felts[1].Equal(&wantLo))
}

func TestPushU256VariantOrderDiffers(t *testing.T) {
	v, err := chainheader.U256FromDecimalString("1")
	require.NoError(t, err)

	var hiFirst, loFirst Builder
	hiFirst.PushU256(v, HiThenLo)
	loFirst.PushU256(v, LoThenHi)

	require.False(t, hiFirst.Felts()[0].Equal(&loFirst.Felts()[0]))
	require.True(t, hiFirst.Felts()[0].Equal(&loFirst.Felts()[1]))
}

func TestPushDigestEmitsEightFelts(t *testing.T) {
	d, err := chainheader.DigestFromHex("0x000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f")
	require.NoError(t, err)

	var b Builder
	b.PushDigest(d)
	require.Len(t, b.Felts(), 8)
}

func TestPushByteArrayChunking(t *testing.T) {
	data := make([]byte, 65) // two full 31-byte chunks + 3-byte remainder
	for i := range data {
		data[i] = byte(i)
	}

	var b Builder
	b.PushByteArray(data)
	felts := b.Felts()
	// num_full_chunks + 2 full chunks + remainder_chunk + remainder_len
	require.Len(t, felts, 1+2+1+1)
}

func TestPushByteArrayEmpty(t *testing.T) {
	var b Builder
	b.PushByteArray(nil)
	felts := b.Felts()
	require.Len(t, felts, 1+0+1+1)
}
