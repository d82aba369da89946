package nodeclient

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// rpcBlockHeader is the shape of a Bitcoin/Zcash Core
// `getblockheader <hash> true` response, trimmed to the fields the
// chain-state transition and MMR leaf hash need (§3, §4.1). Zcash
// lineage adds finalsaplingroot/solution on top of the Bitcoin fields.
type rpcBlockHeader struct {
	Hash              string `json:"hash"`
	Height            uint32 `json:"height"`
	Version           uint32 `json:"version"`
	PreviousBlockHash string `json:"previousblockhash"`
	MerkleRoot        string `json:"merkleroot"`
	Time              uint32 `json:"time"`
	Bits              string `json:"bits"`

	// Bitcoin-lineage nonce is a plain number; Zcash-lineage nonce is a
	// 32-byte hex string. Both are captured raw and interpreted by the
	// caller, which already knows the lineage it asked for.
	NonceRaw         interface{} `json:"nonce"`
	Solution         string      `json:"solution,omitempty"`
	FinalSaplingRoot string      `json:"finalsaplingroot,omitempty"`
}

func parseCompactBits(bits string) (uint32, error) {
	v, err := strconv.ParseUint(bits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("nodeclient: parse bits %q: %w", bits, err)
	}
	return uint32(v), nil
}

func parseDigestHex(s string) (chainheader.Digest, error) {
	d, err := chainheader.DigestFromHex(s)
	if err != nil {
		return chainheader.Digest{}, fmt.Errorf("nodeclient: parse digest %q: %w", s, err)
	}
	return d, nil
}

func (h *rpcBlockHeader) toHeader(lineage chainheader.Lineage) (chainheader.Header, error) {
	hash, err := parseDigestHex(h.Hash)
	if err != nil {
		return nil, err
	}
	prevHash := chainheader.ZeroDigest
	if h.PreviousBlockHash != "" {
		prevHash, err = parseDigestHex(h.PreviousBlockHash)
		if err != nil {
			return nil, err
		}
	}
	merkleRoot, err := parseDigestHex(h.MerkleRoot)
	if err != nil {
		return nil, err
	}
	bits, err := parseCompactBits(h.Bits)
	if err != nil {
		return nil, err
	}

	switch lineage {
	case chainheader.BitcoinLineage:
		nonce, ok := h.NonceRaw.(float64)
		if !ok {
			return nil, fmt.Errorf("nodeclient: bitcoin-lineage header has non-numeric nonce")
		}
		return &chainheader.BtcHeader{
			Version:     h.Version,
			PrevHash:    prevHash,
			MerkleRoot:  merkleRoot,
			BlockTime:   h.Time,
			CompactBits: bits,
			Nonce:       uint32(nonce),
			Hash:        hash,
		}, nil
	case chainheader.ZcashLineage:
		nonceStr, ok := h.NonceRaw.(string)
		if !ok {
			return nil, fmt.Errorf("nodeclient: zcash-lineage header has non-string nonce")
		}
		nonceBytes, err := hex.DecodeString(nonceStr)
		if err != nil || len(nonceBytes) != 32 {
			return nil, fmt.Errorf("nodeclient: zcash-lineage nonce must be 32 bytes hex")
		}
		saplingRoot, err := parseDigestHex(h.FinalSaplingRoot)
		if err != nil {
			return nil, err
		}
		solutionBytes, err := hex.DecodeString(h.Solution)
		if err != nil {
			return nil, fmt.Errorf("nodeclient: parse equihash solution: %w", err)
		}
		solution := make([]uint32, 0, len(solutionBytes)/4)
		for i := 0; i+4 <= len(solutionBytes); i += 4 {
			solution = append(solution, uint32(solutionBytes[i])<<24|uint32(solutionBytes[i+1])<<16|uint32(solutionBytes[i+2])<<8|uint32(solutionBytes[i+3]))
		}
		var nonce [32]byte
		copy(nonce[:], nonceBytes)
		return &chainheader.ZecHeader{
			Version:          h.Version,
			PrevHash:         prevHash,
			MerkleRoot:       merkleRoot,
			FinalSaplingRoot: saplingRoot,
			BlockTime:        h.Time,
			CompactBits:      bits,
			Nonce:            nonce,
			Solution:         solution,
			Hash:             hash,
		}, nil
	default:
		return nil, fmt.Errorf("nodeclient: unknown lineage %d", lineage)
	}
}

func decodeHexBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("nodeclient: decode hex payload: %w", err)
	}
	return b, nil
}

// rpcVerboseBlock is the shape of `getblock <hash> 1`: enough to
// extract the ordered txid list for an on-demand Merkle branch
// computation (§6's "Merkle branches" contract).
type rpcVerboseBlock struct {
	Hash string   `json:"hash"`
	Tx   []string `json:"tx"`
}
