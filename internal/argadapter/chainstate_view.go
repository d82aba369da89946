package argadapter

import (
	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
)

// pushChainStateView serializes the ChainStateView layout of §4.5
// step 1: block_height, total_work, best_block_hash, current_target,
// prev_timestamps, epoch_start_time, and — Zcash-lineage only —
// pow_target_history.
func pushChainStateView(b *Builder, lineage chainheader.Lineage, state chainstate.ChainState, cfg Config) {
	b.PushU32(state.BlockHeight)
	b.PushU256(state.TotalWork, cfg.U256Variant)
	b.PushDigest(state.BestBlockHash)
	b.PushU256(state.CurrentTarget, cfg.U256Variant)
	b.PushU32Vec(state.PrevTimestamps)
	b.PushU32(state.EpochStartTime)

	if lineage == chainheader.ZcashLineage {
		b.PushU256Vec(state.PowTargetHistory, cfg.U256Variant)
	}
}
