package mmr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestElementsCountFromLeafCount(t *testing.T) {
	cases := map[uint64]uint64{
		0:  0,
		1:  1,
		2:  3,
		3:  4,
		4:  7,
		5:  8,
		15: 26,
	}
	for leafCount, want := range cases {
		require.Equal(t, want, elementsCountFromLeafCount(leafCount), "leafCount=%d", leafCount)
	}
}

func TestLeafCountFromElementsCountInvertsForward(t *testing.T) {
	for leafCount := uint64(0); leafCount < 200; leafCount++ {
		elementsCount := elementsCountFromLeafCount(leafCount)
		require.Equal(t, leafCount, leafCountFromElementsCount(elementsCount), "elementsCount=%d", elementsCount)
	}
}

func TestIndexHeightKnownPositions(t *testing.T) {
	cases := map[uint64]uint64{
		0:  0,
		1:  0,
		2:  1,
		3:  0,
		4:  0,
		5:  1,
		6:  2,
		7:  0,
		8:  0,
		9:  1,
		10: 0,
	}
	for pos, want := range cases {
		require.Equal(t, want, indexHeight(pos), "pos=%d", pos)
	}
}

func TestDecomposeIntoMountainsFiveLeaves(t *testing.T) {
	elementsCount := elementsCountFromLeafCount(5)
	mountains := decomposeIntoMountains(elementsCount)
	require.Len(t, mountains, 2)
	require.Equal(t, mountain{height: 2, peakPos: 6}, mountains[0])
	require.Equal(t, mountain{height: 0, peakPos: 7}, mountains[1])
}
