package mmr

import (
	"errors"
	"fmt"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// ErrMissingNode is returned when Append needs a previously-stored
// sibling node that the NodeStore does not have — a sign the store is
// out of sync with the claimed leaf count.
var ErrMissingNode = errors.New("mmr: sibling node missing from store")

// Accumulator is the Block-MMR of §4.2: leaves are block header
// digests, appended in block-height order; internal nodes merge pairs
// of equal-height peaks as they complete. It is the Go analogue of the
// spec's BlockMMR, generalized from the teacher's binary Merkle tree
// and grounded on raito-spv-mmr's block_mmr.rs/sparse_roots.rs shape.
type Accumulator struct {
	store     NodeStore
	hasher    Hasher
	leafCount uint64
}

// NewAccumulator returns an empty Accumulator over store.
func NewAccumulator(store NodeStore, hasher Hasher) *Accumulator {
	return &Accumulator{store: store, hasher: hasher}
}

// RestoreAccumulator reconstructs an Accumulator's in-memory leaf
// count against a store that already holds leafCount leaves' worth of
// nodes (the indexer calls this on startup, per §4.4's restore path).
func RestoreAccumulator(store NodeStore, hasher Hasher, leafCount uint64) *Accumulator {
	return &Accumulator{store: store, hasher: hasher, leafCount: leafCount}
}

// BlockCount returns the number of leaves (blocks) appended so far.
func (a *Accumulator) BlockCount() uint64 {
	return a.leafCount
}

// trailingOnes counts the number of trailing 1 bits in n.
func trailingOnes(n uint64) uint64 {
	var c uint64
	for n&1 == 1 {
		c++
		n >>= 1
	}
	return c
}

// Append adds a new leaf (a block's digest) to the accumulator,
// merging completed peak pairs as they arise. The number of merges
// triggered by appending the leafCount-th leaf equals the number of
// trailing 1 bits in leafCount — each one folds the newly completed
// right-hand mountain into the previous peak of the same height.
func (a *Accumulator) Append(leafDigest chainheader.Digest) error {
	pos := elementPositionOfLeaf(a.leafCount)
	if err := a.store.PutNode(pos, leafDigest); err != nil {
		return fmt.Errorf("mmr: store leaf at position %d: %w", pos, err)
	}

	current := leafDigest
	currentPos := pos
	merges := trailingOnes(a.leafCount)
	for i := uint64(0); i < merges; i++ {
		height := indexHeight(currentPos)
		siblingPos := currentPos - subtreeElementCount(height)
		sibling, ok, err := a.store.GetNode(siblingPos)
		if err != nil {
			return fmt.Errorf("mmr: load sibling at position %d: %w", siblingPos, err)
		}
		if !ok {
			return fmt.Errorf("%w: position %d", ErrMissingNode, siblingPos)
		}

		parent := a.hasher.Combine(sibling, current)
		parentPos := currentPos + 1
		if err := a.store.PutNode(parentPos, parent); err != nil {
			return fmt.Errorf("mmr: store parent at position %d: %w", parentPos, err)
		}
		current = parent
		currentPos = parentPos
	}

	a.leafCount++
	return nil
}

// peaksAt loads the peak digests for an MMR truncated to leafCount
// leaves, in left-to-right (largest-mountain-first) order.
func (a *Accumulator) peaksAt(leafCount uint64) ([]chainheader.Digest, error) {
	elementsCount := elementsCountFromLeafCount(leafCount)
	positions := peakPositions(elementsCount)
	peaks := make([]chainheader.Digest, len(positions))
	for i, pos := range positions {
		digest, ok, err := a.store.GetNode(pos)
		if err != nil {
			return nil, fmt.Errorf("mmr: load peak at position %d: %w", pos, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: position %d", ErrMissingNode, pos)
		}
		peaks[i] = digest
	}
	return peaks, nil
}

// SparseRoots returns the zero-padded, fixed-shape projection of the
// accumulator's current peaks (§4.2 get_sparse_roots).
func (a *Accumulator) SparseRoots() (SparseRoots, error) {
	return a.SparseRootsAt(a.leafCount)
}

// SparseRootsAt returns the sparse-roots projection as of an earlier
// leaf count, supporting the verifier's at_chain_height historical
// proofs (§4.2, §4.8).
func (a *Accumulator) SparseRootsAt(leafCount uint64) (SparseRoots, error) {
	elementsCount := elementsCountFromLeafCount(leafCount)
	peaks, err := a.peaksAt(leafCount)
	if err != nil {
		return SparseRoots{}, err
	}
	return deriveSparseRoots(peaks, elementsCount), nil
}

// RootHash folds the current sparse-roots vector down to a single
// digest, used as the MMR commitment exposed in the chain-state digest
// (§4.2 get_root_hash, §4.6).
func (a *Accumulator) RootHash() (chainheader.Digest, error) {
	roots, err := a.SparseRoots()
	if err != nil {
		return chainheader.Digest{}, err
	}
	current := roots.Roots[0]
	for _, r := range roots.Roots[1:] {
		current = a.hasher.Combine(current, r)
	}
	return current, nil
}

// GenerateProof builds an inclusion proof for the leafIndex-th block
// (0-indexed) against the accumulator truncated to asOfLeafCount
// leaves (§4.2 generate_proof / at_chain_height).
func (a *Accumulator) GenerateProof(leafIndex uint64, asOfLeafCount uint64) (InclusionProof, error) {
	if leafIndex >= asOfLeafCount {
		return InclusionProof{}, fmt.Errorf("mmr: leaf index %d out of range for leaf count %d", leafIndex, asOfLeafCount)
	}
	elementsCount := elementsCountFromLeafCount(asOfLeafCount)
	leafPos := elementPositionOfLeaf(leafIndex)

	steps, _ := siblingsPath(leafPos, elementsCount)
	siblingHashes := make([]chainheader.Digest, len(steps))
	for i, step := range steps {
		digest, ok, err := a.store.GetNode(step.siblingPos)
		if err != nil {
			return InclusionProof{}, fmt.Errorf("mmr: load proof sibling at position %d: %w", step.siblingPos, err)
		}
		if !ok {
			return InclusionProof{}, fmt.Errorf("%w: position %d", ErrMissingNode, step.siblingPos)
		}
		siblingHashes[i] = digest
	}

	peaks, err := a.peaksAt(asOfLeafCount)
	if err != nil {
		return InclusionProof{}, err
	}

	return InclusionProof{
		LeafIndex:     leafIndex,
		LeafCount:     asOfLeafCount,
		SiblingHashes: siblingHashes,
		PeakHashes:    peaks,
	}, nil
}

// VerifyProof checks that leafDigest occupies proof.LeafIndex against
// proof's claimed peaks (§4.2 verify_proof). It does not touch the
// accumulator's own store — a verifier can call this as a standalone
// function against any proof it receives.
func VerifyProof(hasher Hasher, leafDigest chainheader.Digest, proof InclusionProof) error {
	return verifyInclusion(hasher, leafDigest, proof)
}
