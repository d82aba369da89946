package mmr

import "github.com/chainbridge/powbridge/internal/chainheader"

// SparseRoots is the fixed-shape, zero-padded projection of an MMR's
// peaks onto per-height slots (§4.2 get_sparse_roots / §3 Data Model).
// Roots is ordered ascending by height (index 0 is the shortest
// mountain's slot), zero-padded wherever no peak occupies that height,
// and carries one trailing zero digest as a terminator.
type SparseRoots struct {
	BlockHeight uint32
	Roots       []chainheader.Digest
}

// deriveSparseRoots projects peaks (left-to-right, largest mountain
// first, as returned by decomposeIntoMountains) onto the fixed-shape
// sparse-roots vector. Ported faithfully from
// raito-spv-mmr/sparse_roots.rs's try_from_peaks, including its exact
// loop-termination behavior: the final height-0 slot is only visited
// when elementsCount itself bottoms out with max_height already 0
// (see Scenario 2 in DESIGN.md, where the naive "length =
// floor(log2)+2" reading of the Testable Properties text does not
// hold and the ported loop is the source of truth). maxHeight here is
// the original's elements_count.ilog2()+1 convention, not the
// mountain-height convention subtreeElementCount uses elsewhere in
// this package, so elementsPerHeight is computed inline as
// 2^maxHeight-1, not via subtreeElementCount.
func deriveSparseRoots(peaks []chainheader.Digest, elementsCount uint64) SparseRoots {
	if elementsCount == 0 {
		return SparseRoots{BlockHeight: 0, Roots: []chainheader.Digest{chainheader.ZeroDigest}}
	}

	leafCount := leafCountFromElementsCount(elementsCount)

	maxHeight := bitLength(elementsCount)
	rootIdx := 0
	remaining := elementsCount

	descending := make([]chainheader.Digest, 0, maxHeight)
	for remaining != 0 || maxHeight != 0 {
		elementsPerHeight := (uint64(1) << maxHeight) - 1
		if remaining >= elementsPerHeight {
			descending = append(descending, peaks[rootIdx])
			rootIdx++
			remaining -= elementsPerHeight
		} else {
			descending = append(descending, chainheader.ZeroDigest)
		}
		if maxHeight != 0 {
			maxHeight--
		}
	}

	roots := make([]chainheader.Digest, len(descending))
	for i, d := range descending {
		roots[len(descending)-1-i] = d
	}

	if !roots[len(roots)-1].IsZero() {
		roots = append(roots, chainheader.ZeroDigest)
	}

	return SparseRoots{BlockHeight: uint32(leafCount - 1), Roots: roots}
}
