package mmr

import "github.com/chainbridge/powbridge/internal/chainheader"

// NodeStore is the persistence contract the live MMR depends on: a
// position-addressed map from element position to digest. internal/store
// implements this over the durable KV engine (§4.3's mmr node table);
// tests use an in-memory map.
type NodeStore interface {
	GetNode(pos uint64) (chainheader.Digest, bool, error)
	PutNode(pos uint64, digest chainheader.Digest) error
}

// MemoryNodeStore is a NodeStore backed by a plain map, used by tests;
// the indexer writes through internal/store's durable node table.
type MemoryNodeStore struct {
	nodes map[uint64]chainheader.Digest
}

// NewMemoryNodeStore returns an empty MemoryNodeStore.
func NewMemoryNodeStore() *MemoryNodeStore {
	return &MemoryNodeStore{nodes: make(map[uint64]chainheader.Digest)}
}

// GetNode implements NodeStore.
func (s *MemoryNodeStore) GetNode(pos uint64) (chainheader.Digest, bool, error) {
	d, ok := s.nodes[pos]
	return d, ok, nil
}

// PutNode implements NodeStore.
func (s *MemoryNodeStore) PutNode(pos uint64, digest chainheader.Digest) error {
	s.nodes[pos] = digest
	return nil
}
