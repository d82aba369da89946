package chainstate

import (
	"fmt"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// Store is the persistence contract the Manager depends on (§4.1,
// §4.3). It is a narrow view over the durable store so this package
// never imports internal/store directly — the indexer wires the two
// together, keeping the Manager a pure function of its Store argument.
type Store interface {
	AddBlockHeader(height uint32, header chainheader.Header) error
	AddChainState(height uint32, state ChainState) error
	GetChainState(height uint32) (ChainState, error)
}

// Manager drives the chain-state transition rule against a durable
// Store, retaining the current state in memory so callers (the
// indexer) don't pay a store round-trip per read (§4.1 contract).
type Manager struct {
	params  Params
	store   Store
	current ChainState
}

// Restore loads the Manager's in-memory current state from height-1 in
// the store (or the chain's genesis state, if height is 0), mirroring
// §4.1's restore(height) -> ChainState contract.
func Restore(params Params, store Store, height uint32) (*Manager, error) {
	if height == 0 {
		return &Manager{params: params, store: store, current: params.Genesis}, nil
	}
	state, err := store.GetChainState(height - 1)
	if err != nil {
		return nil, fmt.Errorf("chainstate: restore at height %d: %w", height, err)
	}
	return &Manager{params: params, store: store, current: state}, nil
}

// Current returns the manager's in-memory current chain state.
func (m *Manager) Current() ChainState {
	return m.current.Clone()
}

// Update computes the successor of the manager's current state for
// the given header, persists both the header and the derived state
// through the Store (§4.1 contract — the caller is expected to have
// already opened a transaction on the underlying store), and retains
// the successor as the new current state.
func (m *Manager) Update(height uint32, header chainheader.Header) error {
	var next ChainState
	if height == 0 {
		next = m.params.Genesis.Clone()
	} else {
		var err error
		next, err = Transition(m.params, m.current, height, header)
		if err != nil {
			return err
		}
	}

	if err := m.store.AddBlockHeader(height, header); err != nil {
		return fmt.Errorf("chainstate: persist header at height %d: %w", height, err)
	}
	if err := m.store.AddChainState(height, next); err != nil {
		return fmt.Errorf("chainstate: persist state at height %d: %w", height, err)
	}

	m.current = next
	return nil
}
