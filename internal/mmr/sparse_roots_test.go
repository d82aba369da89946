package mmr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

func someDigest(t *testing.T, b byte) chainheader.Digest {
	t.Helper()
	var raw [32]byte
	for i := range raw {
		raw[i] = b
	}
	d, err := chainheader.DigestFromBytes(raw[:])
	require.NoError(t, err)
	return d
}

// TestSparseRootsFiveIdenticalLeaves reproduces the shape of the
// five-identical-leaf scenario: roots ordered height-0 → height-top
// must be [L, 0, R2, 0] with R2 the height-2 peak over four L leaves,
// and block_height == 4.
func TestSparseRootsFiveIdenticalLeaves(t *testing.T) {
	hasher := Blake2sHasher{}
	l := someDigest(t, 0xab)

	store := NewMemoryNodeStore()
	acc := NewAccumulator(store, hasher)
	for i := 0; i < 5; i++ {
		require.NoError(t, acc.Append(l))
	}
	require.Equal(t, uint64(5), acc.BlockCount())

	roots, err := acc.SparseRoots()
	require.NoError(t, err)
	require.Equal(t, uint32(4), roots.BlockHeight)
	require.Len(t, roots.Roots, 4)

	pair := hasher.Combine(l, l)
	r2 := hasher.Combine(pair, pair)

	require.Equal(t, l, roots.Roots[0])
	require.True(t, roots.Roots[1].IsZero())
	require.Equal(t, r2, roots.Roots[2])
	require.True(t, roots.Roots[3].IsZero())
}

func TestSparseRootsEmptyMMR(t *testing.T) {
	store := NewMemoryNodeStore()
	acc := NewAccumulator(store, Blake2sHasher{})
	roots, err := acc.SparseRoots()
	require.NoError(t, err)
	require.Equal(t, uint32(0), roots.BlockHeight)
	require.Len(t, roots.Roots, 1)
	require.True(t, roots.Roots[0].IsZero())
}

func TestSparseRootsSingleLeaf(t *testing.T) {
	store := NewMemoryNodeStore()
	acc := NewAccumulator(store, Blake2sHasher{})
	l := someDigest(t, 0x01)
	require.NoError(t, acc.Append(l))

	roots, err := acc.SparseRoots()
	require.NoError(t, err)
	require.Equal(t, uint32(0), roots.BlockHeight)
	require.Equal(t, []chainheader.Digest{l, chainheader.ZeroDigest}, roots.Roots)
}

func TestSparseRootsTwoLeaves(t *testing.T) {
	hasher := Blake2sHasher{}
	store := NewMemoryNodeStore()
	acc := NewAccumulator(store, hasher)
	l := someDigest(t, 0x02)
	require.NoError(t, acc.Append(l))
	require.NoError(t, acc.Append(l))

	roots, err := acc.SparseRoots()
	require.NoError(t, err)
	require.Equal(t, uint32(1), roots.BlockHeight)
	require.Equal(t, []chainheader.Digest{chainheader.ZeroDigest, hasher.Combine(l, l), chainheader.ZeroDigest}, roots.Roots)
}
