package rpcserver

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
	"github.com/chainbridge/powbridge/internal/mmr"
	"github.com/chainbridge/powbridge/internal/nodeclient"
)

// headerWire is §6's JSON shape for a header returned by /headers and
// /block-header/{h}. This is the wire contract internal/prover's
// HTTPBridgeClient decodes on the other end -- field names and the
// lineage-conditional fields must match it exactly.
type headerWire struct {
	Lineage          chainheader.Lineage `json:"lineage"`
	Version          uint32              `json:"version"`
	PrevHash         chainheader.Digest  `json:"prev_hash"`
	MerkleRoot       chainheader.Digest  `json:"merkle_root"`
	FinalSaplingRoot chainheader.Digest  `json:"final_sapling_root,omitempty"`
	BlockTime        uint32              `json:"block_time"`
	CompactBits      uint32              `json:"compact_bits"`
	Nonce            uint32              `json:"nonce,omitempty"`
	NonceBytes       chainheader.Digest  `json:"nonce_bytes,omitempty"`
	Solution         []uint32            `json:"solution,omitempty"`
	Hash             chainheader.Digest  `json:"hash"`
}

func headerToWire(h chainheader.Header) (headerWire, error) {
	switch v := h.(type) {
	case *chainheader.BtcHeader:
		return headerWire{
			Lineage: chainheader.BitcoinLineage, Version: v.Version, PrevHash: v.PrevHash,
			MerkleRoot: v.MerkleRoot, BlockTime: v.BlockTime, CompactBits: v.CompactBits,
			Nonce: v.Nonce, Hash: v.Hash,
		}, nil
	case *chainheader.ZecHeader:
		var nonceBytes chainheader.Digest
		copy(nonceBytes[:], v.Nonce[:])
		return headerWire{
			Lineage: chainheader.ZcashLineage, Version: v.Version, PrevHash: v.PrevHash,
			MerkleRoot: v.MerkleRoot, FinalSaplingRoot: v.FinalSaplingRoot, BlockTime: v.BlockTime,
			CompactBits: v.CompactBits, NonceBytes: nonceBytes, Solution: v.Solution, Hash: v.Hash,
		}, nil
	default:
		return headerWire{}, fmt.Errorf("rpcserver: unknown header type %T", h)
	}
}

// bigIntJSON marshals as a bare JSON integer literal rather than a
// quoted string, per §6's "Cairo-compatible numeric encodings."
type bigIntJSON struct{ *big.Int }

func (b bigIntJSON) MarshalJSON() ([]byte, error) {
	if b.Int == nil {
		return []byte("0"), nil
	}
	return []byte(b.String()), nil
}

// u256PairWire is a digest reinterpreted as a 256-bit integer and
// split into Cairo's {hi, lo} 128-bit halves -- the same hi-then-lo
// convention internal/decoder and internal/argadapter use for digest
// felt pairs.
type u256PairWire struct {
	Hi bigIntJSON `json:"hi"`
	Lo bigIntJSON `json:"lo"`
}

func digestToU256Pair(d chainheader.Digest) u256PairWire {
	hi := new(big.Int).SetBytes(d[:16])
	lo := new(big.Int).SetBytes(d[16:])
	return u256PairWire{Hi: bigIntJSON{hi}, Lo: bigIntJSON{lo}}
}

// sparseRootsWire is §6's SparseRoots response shape.
type sparseRootsWire struct {
	BlockHeight uint32         `json:"block_height"`
	Roots       []u256PairWire `json:"roots"`
}

func sparseRootsToWire(sr mmr.SparseRoots) sparseRootsWire {
	roots := make([]u256PairWire, len(sr.Roots))
	for i, d := range sr.Roots {
		roots[i] = digestToU256Pair(d)
	}
	return sparseRootsWire{BlockHeight: sr.BlockHeight, Roots: roots}
}

// blockInclusionProofWire is §6's BlockInclusionProof response shape.
type blockInclusionProofWire struct {
	BlockHeight   uint32                `json:"block_height"`
	LeafIndex     uint64                `json:"leaf_index"`
	LeafCount     uint64                `json:"leaf_count"`
	PeakHashes    []chainheader.Digest  `json:"peak_hashes"`
	SiblingHashes []chainheader.Digest  `json:"sibling_hashes"`
}

func inclusionProofToWire(blockHeight uint32, p mmr.InclusionProof) blockInclusionProofWire {
	return blockInclusionProofWire{
		BlockHeight: blockHeight, LeafIndex: p.LeafIndex, LeafCount: p.LeafCount,
		PeakHashes: p.PeakHashes, SiblingHashes: p.SiblingHashes,
	}
}

// transactionProofWire is §6's TransactionInclusionProof response shape.
type transactionProofWire struct {
	TxID      chainheader.Digest   `json:"txid"`
	BlockHash chainheader.Digest   `json:"block_hash"`
	Siblings  []chainheader.Digest `json:"siblings"`
	Index     uint32               `json:"index"`
	NumTx     uint32               `json:"num_tx"`
}

func merkleBranchToWire(b nodeclient.MerkleBranch) transactionProofWire {
	return transactionProofWire{TxID: b.TxID, BlockHash: b.BlockHash, Siblings: b.Siblings, Index: b.Index, NumTx: b.NumTx}
}

func bytesToHex(b []byte) string { return hex.EncodeToString(b) }

// compressedSpvProofWire is §6's `/compressed_spv_proof/{txid}`
// response shape: the full CompressedSpvProof of §4.8, with the
// recursive chain-state proof carried as opaque bytes -- the RPC layer
// never decodes it, only the light client's verifier does.
type compressedSpvProofWire struct {
	ChainState       chainstate.ChainState   `json:"chain_state"`
	ChainStateProof  json.RawMessage         `json:"chain_state_proof"`
	BlockHeader      headerWire              `json:"block_header"`
	BlockHeight      uint32                  `json:"block_height"`
	BlockHeaderProof blockInclusionProofWire `json:"block_header_proof"`
	Transaction      string                  `json:"transaction"`
	TransactionProof transactionProofWire    `json:"transaction_proof"`
}
