package indexer

import "github.com/chainbridge/powbridge/internal/chainheader"

// Config bundles the per-chain knobs the Indexer needs beyond its
// Store/Client/Params dependencies (§4.4).
type Config struct {
	// Lineage selects which header/RPC shape the node client decodes.
	Lineage chainheader.Lineage

	// Lag is the finality heuristic of §4.4: the indexer only ingests
	// height h once the node's reported tip is at least h+Lag. The
	// indexer does not detect reorgs; Lag is the caller's only defense
	// against one.
	Lag uint32
}
