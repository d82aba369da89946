package argadapter

import (
	"fmt"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// BlockInput pairs a header with the optional raw transaction-data
// payload the prover's BlockView carries alongside it (§4.5 step 2).
// TxData is nil when the task doesn't need transaction binding for
// that block.
type BlockInput struct {
	Header chainheader.Header
	TxData []byte
}

// pushHeaderView serializes a single header in its lineage's field
// order. Bitcoin headers are version/prev_hash/merkle_root/time/bits/nonce;
// Zcash headers additionally carry the Sapling root, a 32-byte nonce
// (as a ByteArray), and the Equihash solution (as a u32 vector).
func pushHeaderView(b *Builder, header chainheader.Header) error {
	switch h := header.(type) {
	case *chainheader.BtcHeader:
		b.PushU32(h.Version)
		b.PushDigest(h.PrevHash)
		b.PushDigest(h.MerkleRoot)
		b.PushU32(h.BlockTime)
		b.PushU32(h.CompactBits)
		b.PushU32(h.Nonce)
		return nil
	case *chainheader.ZecHeader:
		b.PushU32(h.Version)
		b.PushDigest(h.PrevHash)
		b.PushDigest(h.MerkleRoot)
		b.PushDigest(h.FinalSaplingRoot)
		b.PushU32(h.BlockTime)
		b.PushU32(h.CompactBits)
		b.PushByteArray(h.Nonce[:])
		b.PushU32Vec(h.Solution)
		return nil
	default:
		return fmt.Errorf("argadapter: unsupported header type %T", header)
	}
}

// pushBlocks serializes the length-prefixed vec<BlockView> of §4.5
// step 2, each entry a header view plus an optional transaction-data
// ByteArray.
func pushBlocks(b *Builder, blocks []BlockInput) error {
	b.PushU32(uint32(len(blocks)))
	for _, blk := range blocks {
		if err := pushHeaderView(b, blk.Header); err != nil {
			return err
		}
		b.PushBool(blk.TxData != nil)
		if blk.TxData != nil {
			b.PushByteArray(blk.TxData)
		}
	}
	return nil
}
