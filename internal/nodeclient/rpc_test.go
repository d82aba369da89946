package nodeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

type jsonrpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode serves a minimal Bitcoin Core-shaped JSON-RPC surface
// sufficient to drive HTTPClient end to end over HTTP.
func fakeNode(t *testing.T, tipHeight uint32) *httptest.Server {
	t.Helper()
	genesisHash := "00000000000000000000000000000000000000000000000000000000000000aa"
	blockHash := "00000000000000000000000000000000000000000000000000000000000000bb"
	txid := "00000000000000000000000000000000000000000000000000000000000000cc"

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "rpcuser", user)
		require.Equal(t, "rpcpass", pass)

		var req jsonrpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		switch req.Method {
		case "getblockcount":
			result = tipHeight
		case "getblockhash":
			result = blockHash
		case "getblockheader":
			result = map[string]interface{}{
				"hash":              blockHash,
				"height":            5,
				"version":           1,
				"previousblockhash": genesisHash,
				"merkleroot":        "00000000000000000000000000000000000000000000000000000000000000aa",
				"time":              1231006505,
				"bits":              "1d00ffff",
				"nonce":             2083236893,
			}
		case "getrawtransaction":
			if len(req.Params) > 1 {
				result = map[string]interface{}{"blockhash": blockHash}
			} else {
				result = "deadbeef"
			}
		case "getblock":
			result = map[string]interface{}{
				"hash": blockHash,
				"tx": []string{
					txid,
					"00000000000000000000000000000000000000000000000000000000000000dd",
				},
			}
		default:
			http.Error(w, "unknown method "+req.Method, http.StatusInternalServerError)
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      json.RawMessage(req.ID),
			"result":  result,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func testClient(t *testing.T, endpoint string) *HTTPClient {
	cfg := DefaultConfig(endpoint, "rpcuser", "rpcpass")
	cfg.PollInterval = time.Millisecond
	cfg.RequestTimeout = 5 * time.Second
	client, err := NewHTTPClient(cfg, chainheader.BitcoinLineage)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestHTTPClientGetTipHeight(t *testing.T) {
	server := fakeNode(t, 100)
	defer server.Close()
	client := testClient(t, server.URL)

	height, err := client.GetTipHeight(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(100), height)
}

func TestHTTPClientGetBlockHeader(t *testing.T) {
	server := fakeNode(t, 100)
	defer server.Close()
	client := testClient(t, server.URL)

	bh, err := client.GetBlockHeader(context.Background(), chainheader.BitcoinLineage, 5)
	require.NoError(t, err)
	require.Equal(t, uint32(5), bh.Height)
	require.Equal(t, chainheader.BitcoinLineage, bh.Header.Lineage())
}

func TestHTTPClientWaitForBlockHeaderReturnsOnceTipClears(t *testing.T) {
	server := fakeNode(t, 10)
	defer server.Close()
	client := testClient(t, server.URL)

	bh, err := client.WaitForBlockHeader(context.Background(), chainheader.BitcoinLineage, 5, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(5), bh.Height)
}

func TestHTTPClientGetMerkleBranch(t *testing.T) {
	server := fakeNode(t, 100)
	defer server.Close()
	client := testClient(t, server.URL)

	txid, err := chainheader.DigestFromHex("00000000000000000000000000000000000000000000000000000000000000cc")
	require.NoError(t, err)

	branch, err := client.GetMerkleBranch(context.Background(), txid)
	require.NoError(t, err)
	require.Equal(t, uint32(0), branch.Index)
	require.Equal(t, uint32(2), branch.NumTx)
	require.Len(t, branch.Siblings, 1)
}

func TestHTTPClientGetRawTransaction(t *testing.T) {
	server := fakeNode(t, 100)
	defer server.Close()
	client := testClient(t, server.URL)

	txid, err := chainheader.DigestFromHex("00000000000000000000000000000000000000000000000000000000000000cc")
	require.NoError(t, err)

	raw, err := client.GetRawTransaction(context.Background(), txid)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, raw)
}
