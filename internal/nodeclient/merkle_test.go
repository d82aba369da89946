package nodeclient

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

func leafDigest(b byte) chainheader.Digest {
	var d chainheader.Digest
	d[31] = b
	return d
}

func merkleRoot(leaves []chainheader.Digest) chainheader.Digest {
	level := append([]chainheader.Digest(nil), leaves...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainheader.Digest, len(level)/2)
		for i := range next {
			next[i] = doubleSHA256Pair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}

func TestComputeMerkleBranchReconstructsRoot(t *testing.T) {
	leaves := []chainheader.Digest{leafDigest(1), leafDigest(2), leafDigest(3), leafDigest(4), leafDigest(5)}
	root := merkleRoot(leaves)

	for i, target := range leaves {
		branch, err := computeMerkleBranch(leaves, target)
		require.NoError(t, err)
		require.Equal(t, uint32(i), branch.Index)
		require.Equal(t, uint32(len(leaves)), branch.NumTx)

		got := target
		pos := i
		for _, sibling := range branch.Siblings {
			if pos%2 == 0 {
				got = doubleSHA256Pair(got, sibling)
			} else {
				got = doubleSHA256Pair(sibling, got)
			}
			pos /= 2
		}
		require.Equal(t, root, got, "leaf %d must climb to the block's Merkle root", i)
	}
}

func TestComputeMerkleBranchSingleLeaf(t *testing.T) {
	leaves := []chainheader.Digest{leafDigest(42)}
	branch, err := computeMerkleBranch(leaves, leaves[0])
	require.NoError(t, err)
	require.Empty(t, branch.Siblings)
	require.Equal(t, uint32(0), branch.Index)
}

func TestComputeMerkleBranchUnknownTxid(t *testing.T) {
	leaves := []chainheader.Digest{leafDigest(1), leafDigest(2)}
	_, err := computeMerkleBranch(leaves, leafDigest(99))
	require.Error(t, err)
}
