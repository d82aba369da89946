package digest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
)

// TestChainStateDigestStability reproduces Scenario 1 of §8 bit-exactly,
// using the same fixture as
// original_source/raito-spv-verify/src/proof.rs's test_chain_state_hash.
func TestChainStateDigestStability(t *testing.T) {
	hash, err := chainheader.DigestFromHex("0x000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f")
	require.NoError(t, err)

	target, err := chainheader.U256FromDecimalString("26959535291011309493156476344723991336010898738574164086137773096960")
	require.NoError(t, err)

	work, err := chainheader.U256FromDecimalString("4295032833")
	require.NoError(t, err)

	state := chainstate.ChainState{
		BlockHeight:    0,
		TotalWork:      work,
		BestBlockHash:  hash,
		CurrentTarget:  target,
		EpochStartTime: 1231006505,
		PrevTimestamps: []uint32{1231006505},
	}

	got, err := ChainState(chainheader.BitcoinLineage, state)
	require.NoError(t, err)
	require.Equal(t, "0x6002eaa4410bd0b15e778656f84fc895fd091827e27ce697ba4231076c70c43b", got.Hex())
}

func TestChainStateDigestDeterministic(t *testing.T) {
	params := chainstate.BitcoinMainnetParams()
	first, err := ChainState(chainheader.BitcoinLineage, params.Genesis)
	require.NoError(t, err)
	second, err := ChainState(chainheader.BitcoinLineage, params.Genesis)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestChainStateDigestSensitiveToBlockHeight(t *testing.T) {
	params := chainstate.BitcoinMainnetParams()
	base := params.Genesis
	changed := base.Clone()
	changed.BlockHeight = base.BlockHeight + 1

	baseDigest, err := ChainState(chainheader.BitcoinLineage, base)
	require.NoError(t, err)
	changedDigest, err := ChainState(chainheader.BitcoinLineage, changed)
	require.NoError(t, err)

	require.NotEqual(t, baseDigest, changedDigest)
}
