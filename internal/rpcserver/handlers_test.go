package rpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
	"github.com/chainbridge/powbridge/internal/mmr"
	"github.com/chainbridge/powbridge/internal/nodeclient"
)

type fakeStore struct {
	*mmr.MemoryNodeStore
	headers      map[uint32]chainheader.Header
	heightByHash map[chainheader.Digest]uint32
	chainStates  map[uint32]chainstate.ChainState
	leafCount    uint64
	latestHeight uint32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		MemoryNodeStore: mmr.NewMemoryNodeStore(),
		headers:         map[uint32]chainheader.Header{},
		heightByHash:    map[chainheader.Digest]uint32{},
		chainStates:     map[uint32]chainstate.ChainState{},
	}
}

func (s *fakeStore) GetBlockHeaders(start uint32, n uint32) ([]chainheader.Header, error) {
	out := make([]chainheader.Header, 0, n)
	for i := uint32(0); i < n; i++ {
		h, ok := s.headers[start+i]
		if !ok {
			return nil, fmt.Errorf("height %d not indexed", start+i)
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *fakeStore) GetBlockHeight(hash chainheader.Digest) (uint32, error) {
	h, ok := s.heightByHash[hash]
	if !ok {
		return 0, fmt.Errorf("hash not indexed")
	}
	return h, nil
}

func (s *fakeStore) GetChainState(height uint32) (chainstate.ChainState, error) {
	cs, ok := s.chainStates[height]
	if !ok {
		return chainstate.ChainState{}, fmt.Errorf("height %d not indexed", height)
	}
	return cs, nil
}

func (s *fakeStore) GetLatestChainStateHeight() (uint32, error) { return s.latestHeight, nil }
func (s *fakeStore) GetMMRLeafCount() (uint64, error)           { return s.leafCount, nil }

type fakeClient struct {
	branches map[chainheader.Digest]nodeclient.MerkleBranch
	rawTxs   map[chainheader.Digest][]byte
}

func (f *fakeClient) WaitForBlockHeader(ctx context.Context, lineage chainheader.Lineage, height uint32, lag uint32) (nodeclient.BlockHeader, error) {
	return nodeclient.BlockHeader{}, fmt.Errorf("not implemented")
}
func (f *fakeClient) GetBlockHeader(ctx context.Context, lineage chainheader.Lineage, height uint32) (nodeclient.BlockHeader, error) {
	return nodeclient.BlockHeader{}, fmt.Errorf("not implemented")
}
func (f *fakeClient) GetTipHeight(ctx context.Context) (uint32, error) { return 0, nil }
func (f *fakeClient) GetRawTransaction(ctx context.Context, txid chainheader.Digest) ([]byte, error) {
	tx, ok := f.rawTxs[txid]
	if !ok {
		return nil, fmt.Errorf("unknown txid")
	}
	return tx, nil
}
func (f *fakeClient) GetMerkleBranch(ctx context.Context, txid chainheader.Digest) (nodeclient.MerkleBranch, error) {
	b, ok := f.branches[txid]
	if !ok {
		return nodeclient.MerkleBranch{}, fmt.Errorf("unknown txid")
	}
	return b, nil
}

type fakeProofSource struct {
	payload      []byte
	provenHeight uint32
	gzipped      bool
	err          error
}

func (f *fakeProofSource) Latest(ctx context.Context) ([]byte, uint32, bool, error) {
	return f.payload, f.provenHeight, f.gzipped, f.err
}

func testDigest(b byte) chainheader.Digest {
	var d chainheader.Digest
	d[31] = b
	return d
}

func newTestHandlers(t *testing.T) (*handlers, *fakeStore, *fakeClient) {
	st := newFakeStore()
	acc := mmr.NewAccumulator(st.MemoryNodeStore, mmr.Blake2sHasher{})
	for i := 0; i < 3; i++ {
		require.NoError(t, acc.Append(testDigest(byte(i))))
		st.headers[uint32(i)] = &chainheader.BtcHeader{
			Version: 1, PrevHash: chainheader.ZeroDigest, MerkleRoot: chainheader.ZeroDigest,
			BlockTime: 1231006505 + uint32(i), CompactBits: 0x1d00ffff, Nonce: uint32(i), Hash: testDigest(byte(i)),
		}
		st.heightByHash[testDigest(byte(i))] = uint32(i)
		st.chainStates[uint32(i)] = chainstate.ChainState{BlockHeight: uint32(i), BestBlockHash: testDigest(byte(i))}
	}
	st.leafCount = acc.BlockCount()
	st.latestHeight = 2

	client := &fakeClient{
		branches: map[chainheader.Digest]nodeclient.MerkleBranch{},
		rawTxs:   map[chainheader.Digest][]byte{},
	}
	txid := testDigest(0x42)
	client.branches[txid] = nodeclient.MerkleBranch{TxID: txid, BlockHash: testDigest(1), Siblings: nil, Index: 0, NumTx: 1}
	client.rawTxs[txid] = []byte("raw transaction bytes")

	h := &handlers{
		store:       st,
		client:      client,
		hasher:      mmr.Blake2sHasher{},
		proofSource: &fakeProofSource{payload: []byte(`{"timestamp":"now","chainstate":{},"proof":{}}`), provenHeight: 2},
		lineage:     chainheader.BitcoinLineage,
	}
	return h, st, client
}

func TestHandleHeadReturnsLatestChainStateHeight(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/head", nil)
	rr := httptest.NewRecorder()
	h.handleHead(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]uint32
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, uint32(2), body["head"])
}

func TestHandleHeadersReturnsWireShape(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/headers?offset=0&size=2", nil)
	rr := httptest.NewRecorder()
	h.handleHeaders(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var wire []headerWire
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &wire))
	require.Len(t, wire, 2)
	require.Equal(t, chainheader.BitcoinLineage, wire[0].Lineage)
}

func TestHandleBlockHeaderNotIndexedReturns404(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/block-header/99", nil)
	rr := httptest.NewRecorder()
	h.handleBlockHeader(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleRootsReturnsHiLoPairs(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/roots?chain_height=2", nil)
	rr := httptest.NewRecorder()
	h.handleRoots(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var wire sparseRootsWire
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &wire))
	require.NotEmpty(t, wire.Roots)
	require.Contains(t, rr.Body.String(), `"hi"`)
	require.NotContains(t, rr.Body.String(), `"hi":"`)
}

func TestHandleBlockInclusionProofAcceptsHashOrHeight(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	reqByHeight := httptest.NewRequest(http.MethodGet, "/block-inclusion-proof/1?chain_height=2", nil)
	rrByHeight := httptest.NewRecorder()
	h.handleBlockInclusionProof(rrByHeight, reqByHeight)
	require.Equal(t, http.StatusOK, rrByHeight.Code)

	reqByHash := httptest.NewRequest(http.MethodGet, "/block-inclusion-proof/"+testDigest(1).Hex()+"?chain_height=2", nil)
	rrByHash := httptest.NewRecorder()
	h.handleBlockInclusionProof(rrByHash, reqByHash)
	require.Equal(t, http.StatusOK, rrByHash.Code)
	require.JSONEq(t, rrByHeight.Body.String(), rrByHash.Body.String())
}

func TestHandleTransactionProofRejectsMalformedTxid(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/transaction-proof/not-hex", nil)
	rr := httptest.NewRecorder()
	h.handleTransactionProof(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleTransactionProofReturnsBranch(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	txid := testDigest(0x42)
	req := httptest.NewRequest(http.MethodGet, "/transaction-proof/"+txid.Hex(), nil)
	rr := httptest.NewRecorder()
	h.handleTransactionProof(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var wire transactionProofWire
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &wire))
	require.Equal(t, txid, wire.TxID)
}

func TestHandleCompressedSPVProofAssemblesAllParts(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	txid := testDigest(0x42)
	req := httptest.NewRequest(http.MethodGet, "/compressed_spv_proof/"+txid.Hex(), nil)
	rr := httptest.NewRecorder()
	h.handleCompressedSPVProof(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var wire compressedSpvProofWire
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &wire))
	require.Equal(t, uint32(1), wire.BlockHeight)
	require.NotEmpty(t, wire.Transaction)
	require.NotEmpty(t, wire.ChainStateProof)
}

func TestHandleRecentProofForwardsGzipContentEncoding(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	h.proofSource = &fakeProofSource{payload: []byte(`{"ok":true}`), provenHeight: 2, gzipped: true}

	req := httptest.NewRequest(http.MethodGet, "/chainstate-proof/recent_proof", nil)
	rr := httptest.NewRecorder()
	h.handleRecentProof(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
}

func TestMethodNotAllowedOnNonGetRequests(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/head", nil)
	rr := httptest.NewRecorder()
	h.handleHead(rr, req)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
