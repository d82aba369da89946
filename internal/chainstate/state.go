// Package chainstate implements the deterministic, append-only
// chain-state derivation of §4.1: genesis, per-block transition, and
// difficulty-epoch/timestamp-window bookkeeping.
package chainstate

import (
	"github.com/chainbridge/powbridge/internal/chainheader"
)

// BlocksPerEpoch is the difficulty retargeting cadence (§4.1 step 6).
const BlocksPerEpoch = 2016

// PowAveragingWindow is the length of the Zcash-lineage pow_target_history
// sliding window (§3).
const PowAveragingWindow = 17

// TimestampWindow is the sliding window size W for prev_timestamps.
// Bitcoin-lineage uses 11; Zcash-lineage uses up to 28.
type TimestampWindow int

const (
	// BitcoinTimestampWindow is Bitcoin-lineage's W (median-time-past window).
	BitcoinTimestampWindow TimestampWindow = 11
	// ZcashTimestampWindow is Zcash-lineage's W.
	ZcashTimestampWindow TimestampWindow = 28
)

// ChainState is the consensus-derived tuple at a specific height (§3).
// It is immutable once committed: every height has exactly one
// ChainState, produced by Transition from its predecessor.
type ChainState struct {
	BlockHeight     uint32
	TotalWork       chainheader.U256
	BestBlockHash   chainheader.Digest
	CurrentTarget   chainheader.U256
	PrevTimestamps  []uint32
	EpochStartTime  uint32
	PowTargetHistory []chainheader.U256 // nil for Bitcoin-lineage
}

// Clone returns a deep copy safe to mutate independently of the receiver.
func (s ChainState) Clone() ChainState {
	out := s
	out.PrevTimestamps = append([]uint32(nil), s.PrevTimestamps...)
	if s.PowTargetHistory != nil {
		out.PowTargetHistory = append([]chainheader.U256(nil), s.PowTargetHistory...)
	}
	return out
}
