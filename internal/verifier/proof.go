package verifier

import (
	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
	"github.com/chainbridge/powbridge/internal/mmr"
	"github.com/chainbridge/powbridge/internal/nodeclient"
)

// BlockInclusionProof is the wire shape of §4.2's BlockInclusionProof
// as carried inside a CompressedSpvProof: a block's MMR inclusion
// proof plus the peaks needed to rebuild an ephemeral MMR (§4.8 step 3).
type BlockInclusionProof struct {
	BlockHeight   uint32
	LeafIndex     uint64
	LeafCount     uint64
	PeakHashes    []chainheader.Digest
	SiblingHashes []chainheader.Digest
}

// asMMRProof converts to the shape internal/mmr's standalone
// VerifyProof expects.
func (p BlockInclusionProof) asMMRProof() mmr.InclusionProof {
	return mmr.InclusionProof{
		LeafIndex:     p.LeafIndex,
		LeafCount:     p.LeafCount,
		SiblingHashes: p.SiblingHashes,
		PeakHashes:    p.PeakHashes,
	}
}

// CompressedSpvProof bundles the chain-state proof, the block's MMR
// inclusion proof, and a transaction's Merkle proof that together
// establish a transaction's confirmation (GLOSSARY "Compressed SPV
// proof"; §4.8 contract input).
type CompressedSpvProof struct {
	// ChainState is the tip chain state the STARK proof attests to.
	ChainState chainstate.ChainState
	// ChainStateProof is the recursive proof over ChainState (§4.8 step 4).
	ChainStateProof RecursiveProof

	// BlockHeader is the header of the block the transaction is in.
	BlockHeader chainheader.Header
	// BlockHeight is that block's height.
	BlockHeight uint32
	// BlockHeaderProof proves BlockHeader's digest occupies a leaf of
	// the block MMR committed by ChainState (§4.8 step 3).
	BlockHeaderProof BlockInclusionProof

	// Transaction is the raw serialized transaction whose inclusion is
	// being proven.
	Transaction []byte
	// TransactionProof proves Transaction's txid occupies a leaf of
	// BlockHeader's transaction Merkle tree (§4.8 step 2).
	TransactionProof nodeclient.MerkleBranch
}
