package rpcserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/mmr"
	"github.com/chainbridge/powbridge/internal/nodeclient"
)

// handlers holds the dependencies every §6 endpoint needs, mirroring
// the teacher's per-group handler struct (e.g. ProofHandlers) rather
// than one god object.
type handlers struct {
	store       Store
	client      nodeclient.Client
	hasher      mmr.Hasher
	proofSource ProofSource
	lineage     chainheader.Lineage
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("/head", h.handleHead)
	mux.HandleFunc("/headers", h.handleHeaders)
	mux.HandleFunc("/block-header/", h.handleBlockHeader)
	mux.HandleFunc("/chain-state/", h.handleChainState)
	mux.HandleFunc("/roots", h.handleRoots)
	mux.HandleFunc("/block-inclusion-proof/", h.handleBlockInclusionProof)
	mux.HandleFunc("/transaction-proof/", h.handleTransactionProof)
	mux.HandleFunc("/compressed_spv_proof/", h.handleCompressedSPVProof)
	mux.HandleFunc("/chainstate-proof/recent_proof", h.handleRecentProof)
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *handlers) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{"code": code, "message": message})
}

func pathSuffix(r *http.Request, prefix string) string {
	return strings.TrimPrefix(r.URL.Path, prefix)
}

func parseHeight(s string) (uint32, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// GET /head
func (h *handlers) handleHead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	height, err := h.store.GetLatestChainStateHeight()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]uint32{"head": height})
}

// GET /headers?offset=&size=
func (h *handlers) handleHeaders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	offset, ok := parseHeight(r.URL.Query().Get("offset"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "INVALID_OFFSET", "offset must be a non-negative integer")
		return
	}
	size, ok := parseHeight(r.URL.Query().Get("size"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "INVALID_SIZE", "size must be a non-negative integer")
		return
	}

	headers, err := h.store.GetBlockHeaders(offset, size)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NOT_INDEXED", err.Error())
		return
	}

	wire := make([]headerWire, len(headers))
	for i, hdr := range headers {
		wv, err := headerToWire(hdr)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
			return
		}
		wire[i] = wv
	}
	h.writeJSON(w, http.StatusOK, wire)
}

// GET /block-header/{h}
func (h *handlers) handleBlockHeader(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	height, ok := parseHeight(pathSuffix(r, "/block-header/"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "INVALID_HEIGHT", "height must be a non-negative integer")
		return
	}
	headers, err := h.store.GetBlockHeaders(height, 1)
	if err != nil || len(headers) == 0 {
		h.writeError(w, http.StatusNotFound, "NOT_INDEXED", "height not yet indexed")
		return
	}
	wv, err := headerToWire(headers[0])
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, wv)
}

// GET /chain-state/{h}
func (h *handlers) handleChainState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	height, ok := parseHeight(pathSuffix(r, "/chain-state/"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "INVALID_HEIGHT", "height must be a non-negative integer")
		return
	}
	state, err := h.store.GetChainState(height)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NOT_INDEXED", "height not yet indexed")
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

// GET /roots?chain_height=
func (h *handlers) handleRoots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	chainHeight, ok := parseHeight(r.URL.Query().Get("chain_height"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "INVALID_CHAIN_HEIGHT", "chain_height must be a non-negative integer")
		return
	}

	acc, err := h.restoreAccumulator()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	sr, err := acc.SparseRootsAt(uint64(chainHeight) + 1)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NOT_INDEXED", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, sparseRootsToWire(sr))
}

// GET /block-inclusion-proof/{h_or_hash}?chain_height=
func (h *handlers) handleBlockInclusionProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	chainHeight, ok := parseHeight(r.URL.Query().Get("chain_height"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "INVALID_CHAIN_HEIGHT", "chain_height must be a non-negative integer")
		return
	}

	blockHeight, err := h.resolveHeight(pathSuffix(r, "/block-inclusion-proof/"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_HEIGHT_OR_HASH", err.Error())
		return
	}

	acc, err := h.restoreAccumulator()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	proof, err := acc.GenerateProof(uint64(blockHeight), uint64(chainHeight)+1)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NOT_INDEXED", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, inclusionProofToWire(blockHeight, proof))
}

// GET /transaction-proof/{txid}
func (h *handlers) handleTransactionProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	txid, err := chainheader.DigestFromHex(pathSuffix(r, "/transaction-proof/"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_TXID", "txid must be a 32-byte hex string")
		return
	}
	branch, err := h.client.GetMerkleBranch(r.Context(), txid)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, merkleBranchToWire(branch))
}

// GET /compressed_spv_proof/{txid}
func (h *handlers) handleCompressedSPVProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	txid, err := chainheader.DigestFromHex(pathSuffix(r, "/compressed_spv_proof/"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_TXID", "txid must be a 32-byte hex string")
		return
	}

	ctx := r.Context()
	branch, err := h.client.GetMerkleBranch(ctx, txid)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	rawTx, err := h.client.GetRawTransaction(ctx, txid)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	blockHeight, err := h.store.GetBlockHeight(branch.BlockHash)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NOT_INDEXED", err.Error())
		return
	}
	headers, err := h.store.GetBlockHeaders(blockHeight, 1)
	if err != nil || len(headers) == 0 {
		h.writeError(w, http.StatusNotFound, "NOT_INDEXED", "block not yet indexed")
		return
	}
	headerWireVal, err := headerToWire(headers[0])
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	proofBytes, provenHeight, _, err := h.proofSource.Latest(ctx)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "NO_CACHED_PROOF", err.Error())
		return
	}
	chainState, err := h.store.GetChainState(provenHeight)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}

	acc, err := h.restoreAccumulator()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	blockProof, err := acc.GenerateProof(uint64(blockHeight), uint64(provenHeight)+1)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NOT_INDEXED", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, compressedSpvProofWire{
		ChainState:       chainState,
		ChainStateProof:  proofBytes,
		BlockHeader:      headerWireVal,
		BlockHeight:      blockHeight,
		BlockHeaderProof: inclusionProofToWire(blockHeight, blockProof),
		Transaction:      bytesToHex(rawTx),
		TransactionProof: merkleBranchToWire(branch),
	})
}

// GET /chainstate-proof/recent_proof
func (h *handlers) handleRecentProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}
	payload, _, gzipped, err := h.proofSource.Latest(r.Context())
	if err != nil {
		h.writeError(w, http.StatusNotFound, "NO_CACHED_PROOF", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if gzipped {
		w.Header().Set("Content-Encoding", "gzip")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// restoreAccumulator reconstructs a read-only mmr.Accumulator view
// over the full committed store, matching the indexer's own use of
// mmr.RestoreAccumulator to resume from durable state (§4.4).
func (h *handlers) restoreAccumulator() (*mmr.Accumulator, error) {
	leafCount, err := h.store.GetMMRLeafCount()
	if err != nil {
		return nil, err
	}
	return mmr.RestoreAccumulator(h.store, h.hasher, leafCount), nil
}

// resolveHeight accepts either a decimal height or a 32-byte hex block
// hash (§6's "{h_or_hash}"), resolving a hash through the store's
// hash-to-height index.
func (h *handlers) resolveHeight(s string) (uint32, error) {
	if height, ok := parseHeight(s); ok {
		return height, nil
	}
	hash, err := chainheader.DigestFromHex(s)
	if err != nil {
		return 0, err
	}
	return h.store.GetBlockHeight(hash)
}
