// Package nodeclient defines the opaque full-node RPC contract of §6:
// a fetcher of headers, blocks, transactions, and Merkle branches, with
// retry. The rest of the bridge treats the concrete full-node protocol
// (Bitcoin/Zcash Core JSON-RPC) as a black box behind this interface —
// grounded on certenIO-certen-validator's accumulate-lite-client-2
// liteclient/backend.DataBackend, which plays the same "opaque external
// data source behind a narrow interface" role for the Accumulate
// network.
package nodeclient

import (
	"context"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// BlockHeader is the header plus the node-supplied canonical hash and
// height the indexer needs per tick.
type BlockHeader struct {
	Height uint32
	Hash   chainheader.Digest
	Header chainheader.Header
}

// MerkleBranch is a transaction's inclusion path within its block, in
// the shape a partial-Merkle-block reconstruction needs (§4.8 step 2):
// the sibling hashes from the transaction's leaf up to (but not
// including) the block's Merkle root, and the transaction's leaf index.
type MerkleBranch struct {
	TxID      chainheader.Digest
	BlockHash chainheader.Digest
	Siblings  []chainheader.Digest
	Index     uint32
	NumTx     uint32
}

// Client is the full-node RPC contract. Every method blocks until it
// has an answer or ctx is done; retries for transport/5xx errors are
// the implementation's responsibility, not the caller's (§5 Timeouts).
type Client interface {
	// WaitForBlockHeader blocks until the node reports a tip at least
	// height+lag, then returns the header and hash at height (§4.4 step 1).
	WaitForBlockHeader(ctx context.Context, lineage chainheader.Lineage, height uint32, lag uint32) (BlockHeader, error)

	// GetBlockHeader fetches a single header by height without waiting.
	GetBlockHeader(ctx context.Context, lineage chainheader.Lineage, height uint32) (BlockHeader, error)

	// GetTipHeight returns the node's current best height.
	GetTipHeight(ctx context.Context) (uint32, error)

	// GetRawTransaction fetches a transaction's serialized bytes by txid.
	GetRawTransaction(ctx context.Context, txid chainheader.Digest) ([]byte, error)

	// GetMerkleBranch fetches the Merkle inclusion path for a
	// transaction within its confirming block (§4.8 step 2 input).
	GetMerkleBranch(ctx context.Context, txid chainheader.Digest) (MerkleBranch, error)
}
