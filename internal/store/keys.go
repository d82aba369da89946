// Package store implements the durable KV store of §4.3: a single
// cometbft-db-backed engine holding the MMR node table, the block
// header table, and the chain-state table, with an explicit
// begin()/commit() transactional boundary. Grounded on
// certenIO-certen-validator's pkg/kvdb/adapter.go (the dbm.DB wrapper)
// and pkg/ledger/store.go (the key-layout and JSON-marshal-per-row
// convention), generalized from a single-ledger schema to the three
// logical tables §4.3 names.
package store

import "encoding/binary"

// Key prefixes for the three logical tables of §4.3, namespaced so a
// single cometbft-db instance can hold all of them (mirroring the
// teacher's "sysledger:"/"anchorledger:" prefix convention).
var (
	prefixHeader       = []byte("hdr:h:")    // + big-endian height -> encoded Header
	prefixHashIndex    = []byte("hdr:hash:") // + hash bytes -> big-endian height
	prefixChainState   = []byte("state:h:")  // + big-endian height -> JSON ChainState
	prefixMMRNode      = []byte("mmr:n:")    // + big-endian position -> 32-byte digest
	keyLatestStateHeight = []byte("state:latest")
	keyMMRLeafCount      = []byte("mmr:leafcount")
)

func heightKey(prefix []byte, height uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, height)
	return append(append([]byte(nil), prefix...), b...)
}

func positionKey(prefix []byte, pos uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, pos)
	return append(append([]byte(nil), prefix...), b...)
}

func hashKey(prefix []byte, hash []byte) []byte {
	return append(append([]byte(nil), prefix...), hash...)
}
