package chainstate

import (
	"errors"
	"fmt"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// ErrHeightMismatch is returned when the height passed to Transition
// does not follow the previous state's height by exactly one.
var ErrHeightMismatch = errors.New("chainstate: height does not follow predecessor")

// Transition computes ChainState_h from (ChainState_{h-1}, header_h),
// the pure deterministic rule of §4.1. At height 0 the caller is
// expected to use the chain's genesis state directly (this function is
// only called for height > 0).
func Transition(params Params, prev ChainState, height uint32, header chainheader.Header) (ChainState, error) {
	if height != prev.BlockHeight+1 {
		return ChainState{}, fmt.Errorf("%w: expected %d, got %d", ErrHeightMismatch, prev.BlockHeight+1, height)
	}

	target, err := chainheader.CompactToTarget(header.Bits())
	if err != nil {
		return ChainState{}, fmt.Errorf("chainstate: unparseable difficulty bits at height %d: %w", height, err)
	}

	work := chainheader.WorkFromTarget(target)
	totalWork, err := prev.TotalWork.Add(work)
	if err != nil {
		return ChainState{}, fmt.Errorf("chainstate: total work overflow at height %d: %w", height, err)
	}

	next := ChainState{
		BlockHeight:   height,
		TotalWork:     totalWork,
		BestBlockHash: header.CanonicalHash(),
		CurrentTarget: target,
	}

	next.PrevTimestamps = appendWindowed(prev.PrevTimestamps, header.Time(), params.TimestampWindow)

	if height%BlocksPerEpoch == 0 {
		next.EpochStartTime = header.Time()
	} else {
		next.EpochStartTime = prev.EpochStartTime
	}

	if params.Lineage == chainheader.ZcashLineage {
		next.PowTargetHistory = nextPowTargetHistory(prev.PowTargetHistory, target)
	}

	return next, nil
}

func appendWindowed(window []uint32, next uint32, maxLen int) []uint32 {
	out := make([]uint32, 0, maxLen)
	out = append(out, window...)
	out = append(out, next)
	if len(out) > maxLen {
		out = out[len(out)-maxLen:]
	}
	return out
}

func nextPowTargetHistory(prev []chainheader.U256, target chainheader.U256) []chainheader.U256 {
	if len(prev) == 0 {
		history := make([]chainheader.U256, PowAveragingWindow)
		for i := range history {
			history[i] = target
		}
		return history
	}
	out := append([]chainheader.U256(nil), prev...)
	out = append(out, target)
	if len(out) > PowAveragingWindow {
		out = out[len(out)-PowAveragingWindow:]
	}
	return out
}
