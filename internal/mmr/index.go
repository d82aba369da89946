package mmr

// elementsCountFromLeafCount returns the total number of MMR elements
// (leaves plus internal merge nodes) once leafCount leaves have been
// appended. Grounded on raito-spv-mmr's leaf_count_to_mmr_size: the
// standard identity 2*leafCount - popcount(leafCount), since each set
// bit i of leafCount corresponds to one complete mountain of 2^i leaves
// contributing 2^(i+1)-1 elements.
func elementsCountFromLeafCount(leafCount uint64) uint64 {
	return 2*leafCount - popCount(leafCount)
}

// elementPositionOfLeaf returns the 0-indexed element position at
// which the leafIndex-th (0-indexed) leaf was inserted. This reuses
// elementsCountFromLeafCount: the number of elements already present
// right before leaf leafIndex is appended is exactly the position at
// which it lands.
func elementPositionOfLeaf(leafIndex uint64) uint64 {
	return elementsCountFromLeafCount(leafIndex)
}

// leafCountFromElementsCount inverts elementsCountFromLeafCount,
// greedily peeling the largest complete mountain off the remaining
// element count until none remains.
func leafCountFromElementsCount(elementsCount uint64) uint64 {
	var leafCount uint64
	remaining := elementsCount
	for remaining != 0 {
		h := topMountainHeight(remaining)
		leafCount += uint64(1) << h
		remaining -= subtreeElementCount(h)
	}
	return leafCount
}

// topMountainHeight returns the largest height h such that a complete
// mountain of that height (subtreeElementCount(h) elements) fits
// within remaining.
func topMountainHeight(remaining uint64) uint64 {
	h := bitLength(remaining+1) - 1
	if subtreeElementCount(h) > remaining {
		h--
	}
	return h
}

// mountain describes one complete-binary-subtree peak within an MMR of
// a given total element count: its height and the 0-indexed position
// of its peak (root) element.
type mountain struct {
	height  uint64
	peakPos uint64
}

// decomposeIntoMountains returns the ordered list of mountains making
// up an MMR of elementsCount elements, from the largest (leftmost,
// earliest-built) mountain to the smallest. This ordering matches the
// left-to-right peak order used throughout proof generation and the
// sparse-roots projection.
func decomposeIntoMountains(elementsCount uint64) []mountain {
	var mountains []mountain
	remaining := elementsCount
	pos := uint64(0)
	for remaining != 0 {
		h := topMountainHeight(remaining)
		size := subtreeElementCount(h)
		pos += size
		mountains = append(mountains, mountain{height: h, peakPos: pos - 1})
		remaining -= size
	}
	return mountains
}

// peakPositions returns just the peak element positions, in the same
// left-to-right order as decomposeIntoMountains.
func peakPositions(elementsCount uint64) []uint64 {
	mountains := decomposeIntoMountains(elementsCount)
	positions := make([]uint64, len(mountains))
	for i, m := range mountains {
		positions[i] = m.peakPos
	}
	return positions
}

// indexHeight returns the height of the element at the given 0-indexed
// position within its complete binary subtree (0 for a leaf). This is
// the standard MMR "jump to the top of the next mountain" algorithm
// used by Grin's PMMR and ported to our element numbering.
func indexHeight(pos uint64) uint64 {
	p := pos + 1
	for !isAllOnes(p) {
		top := uint64(1) << (bitLength(p) - 1)
		p = p - top + 1
	}
	return bitLength(p) - 1
}
