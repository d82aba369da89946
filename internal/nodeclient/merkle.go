package nodeclient

import (
	"crypto/sha256"
	"fmt"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// computeMerkleBranch derives the sibling path and leaf index for txid
// within an ordered list of a block's txids, using the standard
// Bitcoin/Zcash transaction-Merkle-tree construction: pairwise
// double-SHA256, duplicating the last element of an odd-length level.
// No library in the pack implements this specific tree shape (it is
// unrelated to the chain-state digest's Blake2s or the block MMR's
// Blake2s — Bitcoin-lineage transaction Merkle trees are fixed by
// consensus to double-SHA256), so this is hand-rolled standard-library
// arithmetic, the same category of narrow domain math as
// internal/mmr's position functions.
func computeMerkleBranch(txids []chainheader.Digest, target chainheader.Digest) (MerkleBranch, error) {
	index := -1
	for i, id := range txids {
		if id == target {
			index = i
			break
		}
	}
	if index < 0 {
		return MerkleBranch{}, fmt.Errorf("nodeclient: txid not found in block")
	}

	level := append([]chainheader.Digest(nil), txids...)
	pos := index
	var siblings []chainheader.Digest

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		siblingIdx := pos ^ 1
		siblings = append(siblings, level[siblingIdx])

		next := make([]chainheader.Digest, len(level)/2)
		for i := 0; i < len(next); i++ {
			next[i] = doubleSHA256Pair(level[2*i], level[2*i+1])
		}
		level = next
		pos /= 2
	}

	return MerkleBranch{
		TxID:     target,
		Siblings: siblings,
		Index:    uint32(index),
		NumTx:    uint32(len(txids)),
	}, nil
}

// ErrMerkleBranchMismatch is returned by VerifyMerkleBranch when
// climbing a branch's siblings does not reconstruct the claimed
// Merkle root.
var ErrMerkleBranchMismatch = fmt.Errorf("nodeclient: merkle branch does not reconstruct the claimed root")

// VerifyMerkleBranch climbs branch's sibling path from txid and checks
// that it reaches merkleRoot, the counterpart check to
// computeMerkleBranch for a caller that only has the branch, not the
// full txid list (§4.8 step 2: "confirm ... its txid equals
// hash(transaction)" against the block header's committed root).
func VerifyMerkleBranch(txid chainheader.Digest, branch MerkleBranch, merkleRoot chainheader.Digest) error {
	current := txid
	pos := branch.Index
	for _, sibling := range branch.Siblings {
		if pos%2 == 0 {
			current = doubleSHA256Pair(current, sibling)
		} else {
			current = doubleSHA256Pair(sibling, current)
		}
		pos /= 2
	}
	if current != merkleRoot {
		return ErrMerkleBranchMismatch
	}
	return nil
}

// HashTransaction computes a raw transaction's txid: double-SHA256 of
// its serialized bytes, the same leaf value computeMerkleBranch's
// caller matches transactions against (§4.8 step 2: "its txid equals
// hash(transaction)").
func HashTransaction(raw []byte) chainheader.Digest {
	first := sha256.Sum256(raw)
	second := sha256.Sum256(first[:])
	return chainheader.Digest(second)
}

// doubleSHA256Pair concatenates two 32-byte digests in their
// block-sibling order and double-SHA256 hashes them, the Bitcoin/Zcash
// consensus rule for internal Merkle tree nodes.
func doubleSHA256Pair(left, right chainheader.Digest) chainheader.Digest {
	buf := make([]byte, 0, 64)
	buf = append(buf, left.Bytes()...)
	buf = append(buf, right.Bytes()...)
	first := sha256.Sum256(buf)
	second := sha256.Sum256(first[:])
	return chainheader.Digest(second)
}
