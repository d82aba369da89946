package mmr

import (
	"errors"
	"fmt"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// ErrProofShapeMismatch is returned when a proof's sibling or peak
// count does not match what the claimed leaf_count/leaf_index imply.
var ErrProofShapeMismatch = errors.New("mmr: proof shape does not match leaf_count/leaf_index")

// ErrProofMismatch is returned when a structurally well-formed proof
// does not reconstruct the claimed peak.
var ErrProofMismatch = errors.New("mmr: proof does not reconstruct the claimed peak")

// InclusionProof is a compressed Merkle inclusion proof for a single
// leaf (block digest) against the MMR's peaks (§4.2 BlockInclusionProof).
// It lets a verifier without access to the full tree confirm that a
// block's digest occupies a specific leaf slot, by recombining
// SiblingHashes up to the owning peak and checking that peak against
// PeakHashes.
type InclusionProof struct {
	LeafIndex     uint64
	LeafCount     uint64
	SiblingHashes []chainheader.Digest
	PeakHashes    []chainheader.Digest
}

// pathStep is one hop on the way from a leaf up to its mountain's
// peak: the sibling's element position, and whether that sibling must
// be combined as the left argument.
type pathStep struct {
	siblingPos   uint64
	siblingOnLeft bool
}

// siblingsPath walks from the element at pos up to the top of its
// mountain, bounded by elementsCount (so historical proofs against a
// smaller MMR size stop at that size's peak rather than a later,
// bigger one). It is pure position arithmetic — it does not touch any
// stored hash. Ported from the standard MMR "merkle proof" climb (as
// used by Grin's PMMR): at each level, a position's sibling lies to
// its left if indexHeight(pos+1) is greater than indexHeight(pos)
// (pos+1 is then the parent, so pos is itself the right child of its
// pair), and to the right otherwise.
func siblingsPath(pos uint64, elementsCount uint64) (steps []pathStep, peakPos uint64) {
	current := pos
	for {
		height := indexHeight(current)
		var siblingPos, parentPos uint64
		var siblingOnLeft bool
		if indexHeight(current+1) > height {
			siblingOnLeft = true
			siblingPos = current - subtreeElementCount(height)
			parentPos = current + 1
		} else {
			siblingOnLeft = false
			siblingPos = current + subtreeElementCount(height)
			parentPos = siblingPos + 1
		}
		if parentPos >= elementsCount {
			return steps, current
		}
		steps = append(steps, pathStep{siblingPos: siblingPos, siblingOnLeft: siblingOnLeft})
		current = parentPos
	}
}

// verifyInclusion recombines leafDigest with proof.SiblingHashes along
// the position-derived sibling path and checks the result against the
// claimed peak in proof.PeakHashes (§4.2 verify_proof). It reconstructs
// only the path arithmetic from proof.LeafCount/LeafIndex — it does not
// require access to the live tree or node store.
func verifyInclusion(hasher Hasher, leafDigest chainheader.Digest, proof InclusionProof) error {
	elementsCount := elementsCountFromLeafCount(proof.LeafCount)
	leafPos := elementPositionOfLeaf(proof.LeafIndex)

	steps, peakPos := siblingsPath(leafPos, elementsCount)
	if len(steps) != len(proof.SiblingHashes) {
		return fmt.Errorf("%w: expected %d siblings, got %d", ErrProofShapeMismatch, len(steps), len(proof.SiblingHashes))
	}

	mountains := decomposeIntoMountains(elementsCount)
	if len(mountains) != len(proof.PeakHashes) {
		return fmt.Errorf("%w: expected %d peaks, got %d", ErrProofShapeMismatch, len(mountains), len(proof.PeakHashes))
	}

	peakIdx := -1
	for i, m := range mountains {
		if m.peakPos == peakPos {
			peakIdx = i
			break
		}
	}
	if peakIdx == -1 {
		return fmt.Errorf("%w: leaf's mountain is not among the claimed peaks", ErrProofShapeMismatch)
	}

	current := leafDigest
	for i, step := range steps {
		sibling := proof.SiblingHashes[i]
		if step.siblingOnLeft {
			current = hasher.Combine(sibling, current)
		} else {
			current = hasher.Combine(current, sibling)
		}
	}

	if current != proof.PeakHashes[peakIdx] {
		return ErrProofMismatch
	}
	return nil
}
