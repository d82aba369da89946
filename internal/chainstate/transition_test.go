package chainstate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

func mustDigest(t *testing.T, s string) chainheader.Digest {
	t.Helper()
	d, err := chainheader.DigestFromHex(s)
	require.NoError(t, err)
	return d
}

func fakeHash(t *testing.T, n uint32) chainheader.Digest {
	return mustDigest(t, fmt.Sprintf("0x%064x", n))
}

func TestTransitionRejectsHeightMismatch(t *testing.T) {
	params := BitcoinMainnetParams()
	header := &chainheader.BtcHeader{
		BlockTime:   1231469665,
		CompactBits: 0x1d00ffff,
		Hash:        fakeHash(t, 1),
	}
	_, err := Transition(params, params.Genesis, 2, header)
	require.ErrorIs(t, err, ErrHeightMismatch)
}

func TestTransitionMonotonicWorkAndWindow(t *testing.T) {
	params := BitcoinMainnetParams()
	prev := params.Genesis

	for h := uint32(1); h <= 15; h++ {
		header := &chainheader.BtcHeader{
			BlockTime:   prev.EpochStartTime + h*600,
			CompactBits: 0x1d00ffff,
			Hash:        fakeHash(t, h),
		}
		next, err := Transition(params, prev, h, header)
		require.NoError(t, err)

		require.Equal(t, h, next.BlockHeight)
		require.True(t, next.TotalWork.Cmp(prev.TotalWork) > 0, "total work must strictly increase")
		require.LessOrEqual(t, len(next.PrevTimestamps), int(BitcoinTimestampWindow))
		require.Equal(t, header.Time(), next.PrevTimestamps[len(next.PrevTimestamps)-1])
		require.Equal(t, next.BestBlockHash, header.CanonicalHash())

		prev = next
	}
}

func TestTimestampWindowEviction(t *testing.T) {
	params := BitcoinMainnetParams()
	prev := params.Genesis

	for h := uint32(1); h <= uint32(BitcoinTimestampWindow)+1; h++ {
		header := &chainheader.BtcHeader{
			BlockTime:   prev.EpochStartTime + h*600,
			CompactBits: 0x1d00ffff,
			Hash:        fakeHash(t, h),
		}
		next, err := Transition(params, prev, h, header)
		require.NoError(t, err)
		prev = next
	}
	require.Len(t, prev.PrevTimestamps, int(BitcoinTimestampWindow))
}

func TestEpochBoundaryUpdatesEpochStartTime(t *testing.T) {
	params := BitcoinMainnetParams()
	prev := params.Genesis
	prev.BlockHeight = BlocksPerEpoch - 1

	header := &chainheader.BtcHeader{
		BlockTime:   999999,
		CompactBits: 0x1d00ffff,
		Hash:        fakeHash(t, 1),
	}
	next, err := Transition(params, prev, BlocksPerEpoch, header)
	require.NoError(t, err)
	require.Equal(t, uint32(999999), next.EpochStartTime)
}

func TestZcashLineagePrefillsTargetHistoryAtGenesis(t *testing.T) {
	genesisHash := fakeHash(t, 7)
	params, err := ZcashMainnetParams(genesisHash, 0x1f07ffff, 1231006505)
	require.NoError(t, err)
	require.Len(t, params.Genesis.PowTargetHistory, PowAveragingWindow)
	for _, target := range params.Genesis.PowTargetHistory {
		require.Equal(t, 0, target.Cmp(params.Genesis.CurrentTarget))
	}
}

func TestZcashPowTargetHistoryWindowSlides(t *testing.T) {
	genesisHash := fakeHash(t, 7)
	params, err := ZcashMainnetParams(genesisHash, 0x1f07ffff, 1231006505)
	require.NoError(t, err)
	prev := params.Genesis

	for h := uint32(1); h <= PowAveragingWindow+3; h++ {
		header := &chainheader.ZecHeader{
			BlockTime:   prev.EpochStartTime + h*150,
			CompactBits: 0x1f07ffff,
			Hash:        fakeHash(t, h),
		}
		next, err := Transition(params, prev, h, header)
		require.NoError(t, err)
		require.LessOrEqual(t, len(next.PowTargetHistory), PowAveragingWindow)
		prev = next
	}
	require.Len(t, prev.PowTargetHistory, PowAveragingWindow)
}
