package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
	"github.com/chainbridge/powbridge/internal/mmr"
)

// BridgeClient is the prover driver's only dependency on the rest of
// the bridge: the read-only RPC surface of §6, narrowed to exactly
// what §4.9 step 3b needs. Grounded the same way
// internal/nodeclient.Client keeps the full node opaque behind a
// narrow interface, generalized from certenIO-certen-validator's
// pkg/accumulate.Client ("the ONLY interface ... code should depend on
// for [network] integration").
type BridgeClient interface {
	// ChainStateAt fetches GET /chain-state/{h}.
	ChainStateAt(ctx context.Context, height uint32) (chainstate.ChainState, error)
	// BlockHeaders fetches GET /headers?offset=&size=.
	BlockHeaders(ctx context.Context, offset uint32, size uint32) ([]chainheader.Header, error)
	// SparseRootsAt fetches GET /roots?chain_height=.
	SparseRootsAt(ctx context.Context, chainHeight uint32) (mmr.SparseRoots, error)
}

// HTTPBridgeClient is the production BridgeClient, talking JSON over
// plain net/http to a bridge-node's RPC server (§6's HTTP RPC table).
// Unlike internal/nodeclient's go-ethereum-backed JSON-RPC client, the
// bridge's own RPC surface is a plain REST+JSON API of the driver's
// own design, so a bare http.Client is the right tool here — no
// JSON-RPC framing library has anything to grip onto.
type HTTPBridgeClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPBridgeClient returns a client against a bridge-node's RPC
// base URL (e.g. "http://127.0.0.1:8080").
func NewHTTPBridgeClient(baseURL string, timeout time.Duration) *HTTPBridgeClient {
	return &HTTPBridgeClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *HTTPBridgeClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("prover: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return fmt.Errorf("prover: GET %s: status %d: %s", path, resp.StatusCode, buf.String())
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ChainStateAt implements BridgeClient.
func (c *HTTPBridgeClient) ChainStateAt(ctx context.Context, height uint32) (chainstate.ChainState, error) {
	var state chainstate.ChainState
	err := c.getJSON(ctx, fmt.Sprintf("/chain-state/%d", height), &state)
	return state, err
}

// headerWire is the JSON shape returned by GET /headers — a lineage
// tag plus the union of Bitcoin/Zcash header fields, since
// chainheader.Header is an interface and cannot be decoded directly.
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
		return nil, fmt.Errorf("prover: unknown header lineage %d", w.Lineage)
	}
}

// BlockHeaders implements BridgeClient.
func (c *HTTPBridgeClient) BlockHeaders(ctx context.Context, offset uint32, size uint32) ([]chainheader.Header, error) {
	var wire []headerWire
	if err := c.getJSON(ctx, fmt.Sprintf("/headers?offset=%d&size=%d", offset, size), &wire); err != nil {
		return nil, err
	}
	headers := make([]chainheader.Header, len(wire))
	for i, w := range wire {
		h, err := w.toHeader()
		if err != nil {
			return nil, err
		}
		headers[i] = h
	}
	return headers, nil
}

// SparseRootsAt implements BridgeClient, rebuilding each digest from
// the {hi, lo} 128-bit halves GET /roots returns.
func (c *HTTPBridgeClient) SparseRootsAt(ctx context.Context, chainHeight uint32) (mmr.SparseRoots, error) {
	var wire struct {
		BlockHeight uint32                      `json:"block_height"`
		Roots       []struct{ Hi, Lo *big.Int } `json:"roots"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/roots?chain_height=%d", chainHeight), &wire); err != nil {
		return mmr.SparseRoots{}, err
	}
	roots := make([]chainheader.Digest, len(wire.Roots))
	for i, r := range wire.Roots {
		if r.Hi == nil || r.Lo == nil || r.Hi.Sign() < 0 || r.Lo.Sign() < 0 || r.Hi.BitLen() > 128 || r.Lo.BitLen() > 128 {
			return mmr.SparseRoots{}, fmt.Errorf("prover: malformed sparse root %d", i)
		}
		r.Hi.FillBytes(roots[i][:16])
		r.Lo.FillBytes(roots[i][16:])
	}
	return mmr.SparseRoots{BlockHeight: wire.BlockHeight, Roots: roots}, nil
}
