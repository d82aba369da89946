// Package spvclient is the `spv-client` CLI's only dependency on the
// bridge's RPC surface: a narrow HTTP client for GET
// /compressed_spv_proof/{txid} (§6), plus the wire decode that turns
// the response into the verifier package's CompressedSpvProof.
package spvclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client fetches a compressed SPV proof from a bridge-node's read-only
// RPC surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client against baseURL (e.g. "http://127.0.0.1:8080").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// FetchCompressedProof retrieves the raw JSON body of
// GET /compressed_spv_proof/{txid}, left undecoded so the CLI's
// `fetch` command can write it to --proof-path byte-for-byte.
func (c *Client) FetchCompressedProof(ctx context.Context, txid string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/compressed_spv_proof/"+txid, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spv-client: GET compressed_spv_proof: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("spv-client: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		buf.Write(body)
		return nil, fmt.Errorf("spv-client: GET compressed_spv_proof: status %d: %s", resp.StatusCode, buf.String())
	}
	return body, nil
}
