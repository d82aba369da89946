package spvclient

import (
	"encoding/json"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

func testDigest(b byte) chainheader.Digest {
	var d chainheader.Digest
	for i := range d {
		d[i] = b
	}
	return d
}

func TestHeaderWireToHeaderBuildsBitcoinHeader(t *testing.T) {
	w := headerWire{
		Lineage:     chainheader.BitcoinLineage,
		Version:     1,
		PrevHash:    testDigest(1),
		MerkleRoot:  testDigest(2),
		BlockTime:   100,
		CompactBits: 0x1d00ffff,
		Nonce:       7,
		Hash:        testDigest(3),
	}
	h, err := w.toHeader()
	require.NoError(t, err)
	btc, ok := h.(*chainheader.BtcHeader)
	require.True(t, ok)
	require.Equal(t, uint32(7), btc.Nonce)
	require.Equal(t, testDigest(3), btc.Hash)
}

func TestHeaderWireToHeaderBuildsZcashHeader(t *testing.T) {
	w := headerWire{
		Lineage:          chainheader.ZcashLineage,
		Version:          4,
		PrevHash:         testDigest(1),
		MerkleRoot:       testDigest(2),
		FinalSaplingRoot: testDigest(4),
		BlockTime:        100,
		CompactBits:      0x1d00ffff,
		NonceBytes:       testDigest(5),
		Solution:         []uint32{1, 2, 3},
		Hash:             testDigest(3),
	}
	h, err := w.toHeader()
	require.NoError(t, err)
	zec, ok := h.(*chainheader.ZecHeader)
	require.True(t, ok)
	require.Equal(t, testDigest(4), zec.FinalSaplingRoot)
	require.Equal(t, []uint32{1, 2, 3}, zec.Solution)
}

func TestHeaderWireToHeaderRejectsUnknownLineage(t *testing.T) {
	_, err := headerWire{Lineage: 99}.toHeader()
	require.Error(t, err)
}

func TestBlockInclusionProofWireRoundTripsFields(t *testing.T) {
	w := blockInclusionProofWire{
		BlockHeight:   10,
		LeafIndex:     3,
		LeafCount:     11,
		PeakHashes:    []chainheader.Digest{testDigest(1)},
		SiblingHashes: []chainheader.Digest{testDigest(2), testDigest(3)},
	}
	p := w.toProof()
	require.Equal(t, uint32(10), p.BlockHeight)
	require.Equal(t, uint64(3), p.LeafIndex)
	require.Len(t, p.SiblingHashes, 2)
}

func TestTransactionProofWireRoundTripsFields(t *testing.T) {
	w := transactionProofWire{
		TxID:      testDigest(9),
		BlockHash: testDigest(8),
		Siblings:  []chainheader.Digest{testDigest(1)},
		Index:     2,
		NumTx:     5,
	}
	b := w.toBranch()
	require.Equal(t, testDigest(9), b.TxID)
	require.Equal(t, uint32(5), b.NumTx)
}

func TestDecodeRejectsMalformedRecursiveProofBytes(t *testing.T) {
	recursive, err := json.Marshal(recursiveProofWire{
		PublicOutput: []string{"1", "2"},
		Proof:        []byte("not a real groth16 proof"),
	})
	require.NoError(t, err)

	body, err := json.Marshal(compressedSpvProofWire{
		ChainStateProof: recursive,
		BlockHeader:     headerWire{Lineage: chainheader.BitcoinLineage, Hash: testDigest(1)},
		Transaction:     "deadbeef",
	})
	require.NoError(t, err)

	vk := groth16.NewVerifyingKey(ecc.BN254)
	_, err = Decode(body, vk)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode groth16 proof")
}

func TestDecodeRejectsMalformedTransactionHex(t *testing.T) {
	recursive, err := json.Marshal(recursiveProofWire{PublicOutput: nil, Proof: nil})
	require.NoError(t, err)

	body, err := json.Marshal(compressedSpvProofWire{
		ChainStateProof: recursive,
		BlockHeader:     headerWire{Lineage: chainheader.BitcoinLineage, Hash: testDigest(1)},
		Transaction:     "not-hex",
	})
	require.NoError(t, err)

	vk := groth16.NewVerifyingKey(ecc.BN254)
	_, err = Decode(body, vk)
	require.Error(t, err)
}
