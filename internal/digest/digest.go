// Package digest computes the chain-state commitment hash the bridge
// shares with the STARK prover's guest program (§4.6). It is the one
// place in the bridge that must match the guest's byte layout
// bit-for-bit, so every step below is grounded directly on
// original_source/raito-spv-verify/src/proof.rs's blake2s_digest().
package digest

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2s"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
)

// ChainState computes blake2s_digest(chain_state) per §4.6: build the
// u32 word vector, serialize it little-endian per word, Blake2s the
// byte stream, then reverse each output 4-byte chunk in place to
// reconcile the host's big-endian hex convention with the guest's
// little-endian word convention.
func ChainState(lineage chainheader.Lineage, state chainstate.ChainState) (chainheader.Digest, error) {
	words := chainStateWords(lineage, state)

	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}

	h, err := blake2s.New256(nil)
	if err != nil {
		return chainheader.Digest{}, err
	}
	h.Write(buf)
	sum := h.Sum(nil)

	chainheader.ReverseBytesInPlace4(sum)

	return chainheader.DigestFromBytes(sum)
}

// chainStateWords builds the word vector W of §4.6 step 1.
// best_block_hash is a Digest field and uses the reversal-then-chunk
// word decomposition (chainheader.Digest.Words); total_work,
// current_target, and each pow_target_history entry are U256 fields
// and decompose directly (chainheader.U256.Words) — the two are
// genuinely different operations, per §4.6's Algorithm and
// cross-checked against proof.rs's blake2s_digest().
func chainStateWords(lineage chainheader.Lineage, state chainstate.ChainState) []uint32 {
	words := make([]uint32, 0, 8+8+8+8+len(state.PrevTimestamps)+2)

	words = append(words, state.BlockHeight)

	totalWorkWords := state.TotalWork.Words()
	words = append(words, totalWorkWords[:]...)

	hashWords := state.BestBlockHash.Words()
	words = append(words, hashWords[:]...)

	targetWords := state.CurrentTarget.Words()
	words = append(words, targetWords[:]...)

	words = append(words, state.EpochStartTime)
	words = append(words, state.PrevTimestamps...)

	if lineage == chainheader.ZcashLineage {
		for _, target := range state.PowTargetHistory {
			tw := target.Words()
			words = append(words, tw[:]...)
		}
	}

	return words
}
