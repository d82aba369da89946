package argadapter

import (
	"github.com/chainbridge/powbridge/internal/chainheader"
)

// pushBlockMMR serializes the block_mmr field of §4.5 step 3: a
// length-prefixed vector of sparse-root digests, each one reinterpreted
// as a 256-bit value and split into (hi, lo) felt halves like any other
// U256 — the guest program treats an MMR root the same way it treats
// any other 32-byte big-endian value once it crosses the felt boundary.
func pushBlockMMR(b *Builder, roots []chainheader.Digest, variant U256Variant) error {
	b.PushU32(uint32(len(roots)))
	for _, root := range roots {
		value, err := chainheader.U256FromBigEndianBytes(root.Bytes())
		if err != nil {
			return err
		}
		b.PushU256(value, variant)
	}
	return nil
}
