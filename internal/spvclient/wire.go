package spvclient

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"

	"github.com/chainbridge/powbridge/internal/argadapter"
	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
	"github.com/chainbridge/powbridge/internal/nodeclient"
	"github.com/chainbridge/powbridge/internal/verifier"
)

// headerWire mirrors internal/rpcserver's own headerToWire output.
// Built independently rather than imported from internal/rpcserver or
// internal/prover: each side of a wire contract keeps its own decode,
// the same deliberate non-sharing already used between
// internal/prover's bridgeclient.go and internal/rpcserver's wire.go.
type headerWire struct {
	Lineage          chainheader.Lineage `json:"lineage"`
	Version          uint32              `json:"version"`
	PrevHash         chainheader.Digest  `json:"prev_hash"`
	MerkleRoot       chainheader.Digest  `json:"merkle_root"`
	FinalSaplingRoot chainheader.Digest  `json:"final_sapling_root,omitempty"`
	BlockTime        uint32              `json:"block_time"`
	CompactBits      uint32              `json:"compact_bits"`
	Nonce            uint32              `json:"nonce,omitempty"`
	NonceBytes       chainheader.Digest  `json:"nonce_bytes,omitempty"`
	Solution         []uint32            `json:"solution,omitempty"`
	Hash             chainheader.Digest  `json:"hash"`
}

func (w headerWire) toHeader() (chainheader.Header, error) {
	switch w.Lineage {
	case chainheader.BitcoinLineage:
		return &chainheader.BtcHeader{
			Version:     w.Version,
			PrevHash:    w.PrevHash,
			MerkleRoot:  w.MerkleRoot,
			BlockTime:   w.BlockTime,
			CompactBits: w.CompactBits,
			Nonce:       w.Nonce,
			Hash:        w.Hash,
		}, nil
	case chainheader.ZcashLineage:
		return &chainheader.ZecHeader{
			Version:          w.Version,
			PrevHash:         w.PrevHash,
			MerkleRoot:       w.MerkleRoot,
			FinalSaplingRoot: w.FinalSaplingRoot,
			BlockTime:        w.BlockTime,
			CompactBits:      w.CompactBits,
			Nonce:            [32]byte(w.NonceBytes),
			Solution:         w.Solution,
			Hash:             w.Hash,
		}, nil
	default:
		return nil, fmt.Errorf("spv-client: unknown header lineage %d", w.Lineage)
	}
}

type blockInclusionProofWire struct {
	BlockHeight   uint32               `json:"block_height"`
	LeafIndex     uint64               `json:"leaf_index"`
	LeafCount     uint64               `json:"leaf_count"`
	PeakHashes    []chainheader.Digest `json:"peak_hashes"`
	SiblingHashes []chainheader.Digest `json:"sibling_hashes"`
}

func (w blockInclusionProofWire) toProof() verifier.BlockInclusionProof {
	return verifier.BlockInclusionProof{
		BlockHeight:   w.BlockHeight,
		LeafIndex:     w.LeafIndex,
		LeafCount:     w.LeafCount,
		PeakHashes:    w.PeakHashes,
		SiblingHashes: w.SiblingHashes,
	}
}

type transactionProofWire struct {
	TxID      chainheader.Digest   `json:"txid"`
	BlockHash chainheader.Digest   `json:"block_hash"`
	Siblings  []chainheader.Digest `json:"siblings"`
	Index     uint32               `json:"index"`
	NumTx     uint32               `json:"num_tx"`
}

func (w transactionProofWire) toBranch() nodeclient.MerkleBranch {
	return nodeclient.MerkleBranch{
		TxID:      w.TxID,
		BlockHash: w.BlockHash,
		Siblings:  w.Siblings,
		Index:     w.Index,
		NumTx:     w.NumTx,
	}
}

// recursiveProofWire is the JSON encoding of a verifier.RecursiveProof:
// the decoded STARK public-output felt vector as decimal strings, plus
// the groth16 proof serialized with gnark's own binary WriteTo/ReadFrom
// codec (the same io-based (de)serialization the teacher uses to load
// its proving/verification keys from disk), base64-wrapped by Go's
// default []byte JSON encoding. The verifying key is not part of the
// wire payload: it is a fixed trusted-setup artifact compiled into
// both the prover and the verifier, not per-proof data.
type recursiveProofWire struct {
	PublicOutput []string `json:"public_output"`
	Proof        []byte   `json:"proof"`
}

func (w recursiveProofWire) toRecursiveProof(vk groth16.VerifyingKey) (verifier.RecursiveProof, error) {
	output := make([]argadapter.Felt, len(w.PublicOutput))
	for i, s := range w.PublicOutput {
		if _, err := output[i].SetString(s); err != nil {
			return verifier.RecursiveProof{}, fmt.Errorf("spv-client: public_output[%d] %q is not a valid field element: %w", i, s, err)
		}
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(w.Proof)); err != nil {
		return verifier.RecursiveProof{}, fmt.Errorf("spv-client: decode groth16 proof: %w", err)
	}

	return verifier.RecursiveProof{PublicOutput: output, Proof: proof, VerifyingKey: vk}, nil
}

// compressedSpvProofWire is the client-side decode of GET
// /compressed_spv_proof/{txid}'s response body (§6).
type compressedSpvProofWire struct {
	ChainState       chainstate.ChainState   `json:"chain_state"`
	ChainStateProof  json.RawMessage         `json:"chain_state_proof"`
	BlockHeader      headerWire              `json:"block_header"`
	BlockHeight      uint32                  `json:"block_height"`
	BlockHeaderProof blockInclusionProofWire `json:"block_header_proof"`
	Transaction      string                  `json:"transaction"`
	TransactionProof transactionProofWire    `json:"transaction_proof"`
}

// Decode parses a GET /compressed_spv_proof/{txid} response body into
// a verifier.CompressedSpvProof ready for verifier.Verifier.Verify,
// using vk as the fixed recursive-proof verifying key (not carried on
// the wire).
func Decode(body []byte, vk groth16.VerifyingKey) (verifier.CompressedSpvProof, error) {
	var wire compressedSpvProofWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return verifier.CompressedSpvProof{}, fmt.Errorf("spv-client: decode compressed SPV proof: %w", err)
	}

	header, err := wire.BlockHeader.toHeader()
	if err != nil {
		return verifier.CompressedSpvProof{}, err
	}

	var recursiveWire recursiveProofWire
	if err := json.Unmarshal(wire.ChainStateProof, &recursiveWire); err != nil {
		return verifier.CompressedSpvProof{}, fmt.Errorf("spv-client: decode chain_state_proof: %w", err)
	}
	recursiveProof, err := recursiveWire.toRecursiveProof(vk)
	if err != nil {
		return verifier.CompressedSpvProof{}, err
	}

	tx, err := hex.DecodeString(wire.Transaction)
	if err != nil {
		return verifier.CompressedSpvProof{}, fmt.Errorf("spv-client: decode transaction hex: %w", err)
	}

	return verifier.CompressedSpvProof{
		ChainState:       wire.ChainState,
		ChainStateProof:  recursiveProof,
		BlockHeader:      header,
		BlockHeight:      wire.BlockHeight,
		BlockHeaderProof: wire.BlockHeaderProof.toProof(),
		Transaction:      tx,
		TransactionProof: wire.TransactionProof.toBranch(),
	}, nil
}
