package chainstate

import "github.com/chainbridge/powbridge/internal/chainheader"

// Params bundles the chain-specific constants the transition rule needs:
// which header lineage this chain uses, its genesis state, and the
// sliding-timestamp-window size (§3, §4.1 genesis invariant).
type Params struct {
	Lineage        chainheader.Lineage
	Genesis        ChainState
	TimestampWindow int
}

// BitcoinMainnetParams returns the genesis chain state used by
// Scenario 1 of §8. The genesis hash literal matches
// original_source/raito-spv-verify/src/proof.rs's test_chain_state_hash
// fixture exactly, byte for byte.
func BitcoinMainnetParams() Params {
	genesisHash, err := chainheader.DigestFromHex("0x000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f")
	if err != nil {
		panic(err)
	}
	target, err := chainheader.CompactToTarget(0x1d00ffff)
	if err != nil {
		panic(err)
	}
	work := chainheader.WorkFromTarget(target)
	const genesisTime = 1231006505

	return Params{
		Lineage: chainheader.BitcoinLineage,
		Genesis: ChainState{
			BlockHeight:    0,
			TotalWork:      work,
			BestBlockHash:  genesisHash,
			CurrentTarget:  target,
			PrevTimestamps: []uint32{genesisTime},
			EpochStartTime: genesisTime,
		},
		TimestampWindow: int(BitcoinTimestampWindow),
	}
}

// ZcashMainnetParams returns genesis parameters for the Zcash-lineage
// variant, whose pow_target_history window is fully prefilled with
// PowAveragingWindow copies of the genesis target (Open Question /
// SPEC_FULL.md §C.1, grounded on original_source's chain_state.rs).
func ZcashMainnetParams(genesisHash chainheader.Digest, genesisTargetCompact uint32, genesisTime uint32) (Params, error) {
	target, err := chainheader.CompactToTarget(genesisTargetCompact)
	if err != nil {
		return Params{}, err
	}
	work := chainheader.WorkFromTarget(target)

	history := make([]chainheader.U256, PowAveragingWindow)
	for i := range history {
		history[i] = target
	}

	return Params{
		Lineage: chainheader.ZcashLineage,
		Genesis: ChainState{
			BlockHeight:      0,
			TotalWork:        work,
			BestBlockHash:    genesisHash,
			CurrentTarget:    target,
			PrevTimestamps:   []uint32{genesisTime},
			EpochStartTime:   genesisTime,
			PowTargetHistory: history,
		},
		TimestampWindow: int(ZcashTimestampWindow),
	}, nil
}
