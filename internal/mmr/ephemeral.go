package mmr

import (
	"fmt"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// SparseRootsFromPeaks projects a bare peaks vector (as carried on the
// wire by a BlockInclusionProof, with no backing NodeStore) onto the
// fixed-shape sparse-roots vector, mirroring Accumulator.SparseRootsAt
// for a verifier that only has the proof's peaks, not a live tree
// (§4.8 step 3: "Build an ephemeral MMR from peaks_hashes and
// leaf_count").
func SparseRootsFromPeaks(peaks []chainheader.Digest, leafCount uint64) (SparseRoots, error) {
	elementsCount := elementsCountFromLeafCount(leafCount)
	mountains := decomposeIntoMountains(elementsCount)
	if len(mountains) != len(peaks) {
		return SparseRoots{}, fmt.Errorf("%w: leaf_count %d expects %d peaks, got %d", ErrProofShapeMismatch, leafCount, len(mountains), len(peaks))
	}
	return deriveSparseRoots(peaks, elementsCount), nil
}

// RootHashFromPeaks folds a bare peaks vector down to a single digest
// the same way Accumulator.RootHash does, for the same ephemeral,
// store-less use case as SparseRootsFromPeaks.
func RootHashFromPeaks(hasher Hasher, peaks []chainheader.Digest, leafCount uint64) (chainheader.Digest, error) {
	roots, err := SparseRootsFromPeaks(peaks, leafCount)
	if err != nil {
		return chainheader.Digest{}, err
	}
	current := roots.Roots[0]
	for _, r := range roots.Roots[1:] {
		current = hasher.Combine(current, r)
	}
	return current, nil
}
