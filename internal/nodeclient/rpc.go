package nodeclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// basicAuthTransport injects HTTP basic auth into every request, the
// standard Bitcoin/Zcash Core RPC authentication scheme.
type basicAuthTransport struct {
	user, password string
	base           http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.user, t.password)
	return t.base.RoundTrip(req)
}

// HTTPClient is the concrete Client implementation over a Bitcoin/
// Zcash Core-style JSON-RPC HTTP endpoint. It reuses
// go-ethereum's generic JSON-RPC transport (`rpc.Client.CallContext`)
// rather than hand-rolling request/response framing — the wire
// protocol (JSON-RPC 2.0 over HTTP with basic auth) is the same shape
// regardless of which node software speaks it, and go-ethereum already
// implements it correctly with the retry-friendly context plumbing
// this package's withRetry wraps around it.
type HTTPClient struct {
	cfg    Config
	rpc    *gethrpc.Client
	lineage chainheader.Lineage
}

// NewHTTPClient dials the configured endpoint. lineage fixes which
// header shape (Bitcoin or Zcash) this client decodes — a single
// bridge deployment targets one chain family at a time (§3).
func NewHTTPClient(cfg Config, lineage chainheader.Lineage) (*HTTPClient, error) {
	httpClient := &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &basicAuthTransport{
			user:     cfg.User,
			password: cfg.Password,
			base:     http.DefaultTransport,
		},
	}
	client, err := gethrpc.DialHTTPWithClient(cfg.Endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("nodeclient: dial %s: %w", cfg.Endpoint, err)
	}
	return &HTTPClient{cfg: cfg, rpc: client, lineage: lineage}, nil
}

// Close releases the underlying RPC connection.
func (c *HTTPClient) Close() {
	c.rpc.Close()
}

// call wraps a single JSON-RPC round trip, tagging transport failures
// and HTTP 5xx responses as retryable (§7: "transport errors ...
// retried with exponential backoff"); a JSON-RPC error object, an HTTP
// 4xx response, or a response that cannot be decoded is treated as an
// application error and never retried.
func (c *HTTPClient) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	err := c.rpc.CallContext(ctx, result, method, args...)
	if err == nil {
		return nil
	}
	if _, ok := err.(gethrpc.Error); ok {
		// The node answered with a JSON-RPC error object: an
		// application-level failure (bad txid, unknown height), not a
		// transport fault.
		return err
	}
	var httpErr gethrpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode < 500 {
		return err
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return err
	}
	return retryable(err)
}

func (c *HTTPClient) GetTipHeight(ctx context.Context) (uint32, error) {
	var height uint32
	err := withRetry(ctx, c.cfg, func(ctx context.Context) error {
		return c.call(ctx, &height, "getblockcount")
	})
	if err != nil {
		return 0, fmt.Errorf("nodeclient: getblockcount: %w", err)
	}
	return height, nil
}

func (c *HTTPClient) GetBlockHeader(ctx context.Context, lineage chainheader.Lineage, height uint32) (BlockHeader, error) {
	var hash string
	err := withRetry(ctx, c.cfg, func(ctx context.Context) error {
		return c.call(ctx, &hash, "getblockhash", height)
	})
	if err != nil {
		return BlockHeader{}, fmt.Errorf("nodeclient: getblockhash(%d): %w", height, err)
	}

	var raw rpcBlockHeader
	err = withRetry(ctx, c.cfg, func(ctx context.Context) error {
		return c.call(ctx, &raw, "getblockheader", hash, true)
	})
	if err != nil {
		return BlockHeader{}, fmt.Errorf("nodeclient: getblockheader(%s): %w", hash, err)
	}

	header, err := raw.toHeader(lineage)
	if err != nil {
		return BlockHeader{}, err
	}
	return BlockHeader{Height: height, Hash: header.CanonicalHash(), Header: header}, nil
}

// WaitForBlockHeader polls the node's tip height until it is at least
// height+lag, then fetches the header at height (§4.4 step 1).
func (c *HTTPClient) WaitForBlockHeader(ctx context.Context, lineage chainheader.Lineage, height uint32, lag uint32) (BlockHeader, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		tip, err := c.GetTipHeight(ctx)
		if err != nil {
			return BlockHeader{}, err
		}
		if tip >= height+lag {
			return c.GetBlockHeader(ctx, lineage, height)
		}

		select {
		case <-ctx.Done():
			return BlockHeader{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *HTTPClient) GetRawTransaction(ctx context.Context, txid chainheader.Digest) ([]byte, error) {
	idHex := txid.Hex()[2:] // Bitcoin-style RPC wants bare hex, no 0x
	var rawHex string
	err := withRetry(ctx, c.cfg, func(ctx context.Context) error {
		return c.call(ctx, &rawHex, "getrawtransaction", idHex)
	})
	if err != nil {
		return nil, fmt.Errorf("nodeclient: getrawtransaction(%s): %w", idHex, err)
	}
	return decodeHexBytes(rawHex)
}

func (c *HTTPClient) GetMerkleBranch(ctx context.Context, txid chainheader.Digest) (MerkleBranch, error) {
	idHex := txid.Hex()[2:]
	var txInfo struct {
		BlockHash string `json:"blockhash"`
	}
	err := withRetry(ctx, c.cfg, func(ctx context.Context) error {
		return c.call(ctx, &txInfo, "getrawtransaction", idHex, true)
	})
	if err != nil {
		return MerkleBranch{}, fmt.Errorf("nodeclient: getrawtransaction(%s, verbose): %w", idHex, err)
	}
	if txInfo.BlockHash == "" {
		return MerkleBranch{}, fmt.Errorf("nodeclient: transaction %s is unconfirmed", idHex)
	}

	var block rpcVerboseBlock
	err = withRetry(ctx, c.cfg, func(ctx context.Context) error {
		return c.call(ctx, &block, "getblock", txInfo.BlockHash, 1)
	})
	if err != nil {
		return MerkleBranch{}, fmt.Errorf("nodeclient: getblock(%s): %w", txInfo.BlockHash, err)
	}

	txids := make([]chainheader.Digest, len(block.Tx))
	for i, s := range block.Tx {
		d, err := parseDigestHex(s)
		if err != nil {
			return MerkleBranch{}, err
		}
		txids[i] = d
	}

	branch, err := computeMerkleBranch(txids, txid)
	if err != nil {
		return MerkleBranch{}, err
	}
	blockHash, err := parseDigestHex(block.Hash)
	if err != nil {
		return MerkleBranch{}, err
	}
	branch.BlockHash = blockHash
	return branch, nil
}

var _ Client = (*HTTPClient)(nil)
