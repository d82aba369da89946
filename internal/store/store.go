package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
)

// ErrNotFound is returned by the point lookups when the requested row
// has never been written.
var ErrNotFound = errors.New("store: not found")

// ErrNoOpenTransaction is returned by Commit when called without a
// preceding Begin.
var ErrNoOpenTransaction = errors.New("store: no open transaction")

// ErrTransactionInProgress is returned by Begin when a transaction is
// already open; the store is single-writer (§4.3) so transactions never
// nest.
var ErrTransactionInProgress = errors.New("store: transaction already in progress")

// Store is the durable KV engine of §4.3: one cometbft-db instance
// holding the block-header table, the chain-state table, and the MMR
// node table, plus an explicit begin()/commit() transactional boundary
// so an indexer update writes the header row and the chain-state row
// for a height atomically, or neither. Grounded on
// certenIO-certen-validator's pkg/kvdb.KVAdapter (the dbm.DB wrapper)
// and pkg/ledger.LedgerStore (the key-layout/JSON-per-row convention),
// generalized here from a single ledger schema to the three logical
// tables §4.3 names and from direct SetSync calls to a batched
// transaction.
type Store struct {
	db dbm.DB

	mu    sync.Mutex
	batch dbm.Batch // non-nil while a transaction is open
}

// Open constructs a Store over the given cometbft-db backend. The
// caller chooses the concrete backend (goleveldb for a durable
// single-process deployment, memdb for tests), mirroring §4.3's
// single_atomic_writer(path, namespace) contract — namespacing is left
// to the caller's choice of db name/directory, since cometbft-db
// already isolates backends by file path.
func Open(db dbm.DB) *Store {
	return &Store{db: db}
}

// Begin opens a transaction: subsequent writes accumulate in a batch
// instead of hitting the backend directly, until Commit flushes them
// together. The store is single-writer (§4.3), so Begin fails if a
// transaction is already open.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch != nil {
		return ErrTransactionInProgress
	}
	s.batch = s.db.NewBatch()
	return nil
}

// Commit flushes the open transaction's writes to the backend in a
// single batch write, so the header row and chain-state row for a
// height become visible together or not at all (§4.3: "A committed
// transaction includes both the chain-state row and the header row for
// the same height, or neither").
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch == nil {
		return ErrNoOpenTransaction
	}
	b := s.batch
	s.batch = nil
	defer b.Close()
	if err := b.WriteSync(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Rollback discards the open transaction's accumulated writes without
// touching the backend.
func (s *Store) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch == nil {
		return ErrNoOpenTransaction
	}
	b := s.batch
	s.batch = nil
	return b.Close()
}

// set writes through the open batch if a transaction is in progress,
// or directly (durably) otherwise.
func (s *Store) set(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch != nil {
		return s.batch.Set(key, value)
	}
	return s.db.SetSync(key, value)
}

func (s *Store) get(key []byte) ([]byte, error) {
	return s.db.Get(key)
}

// AddBlockHeader implements chainstate.Store: it persists the header
// row at height and the hash->height index row used by GetBlockHeight.
func (s *Store) AddBlockHeader(height uint32, header chainheader.Header) error {
	encoded, err := encodeHeader(header)
	if err != nil {
		return err
	}
	if err := s.set(heightKey(prefixHeader, height), encoded); err != nil {
		return fmt.Errorf("store: add block header at %d: %w", height, err)
	}
	hash := header.CanonicalHash()
	heightBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(heightBytes, height)
	if err := s.set(hashKey(prefixHashIndex, hash.Bytes()), heightBytes); err != nil {
		return fmt.Errorf("store: index block header at %d: %w", height, err)
	}
	return nil
}

// GetBlockHeaders returns up to n consecutive headers starting at
// startHeight, in ascending height order, stopping early if the store
// runs out of contiguous rows (§4.3/§6 GetBlockHeaders(start_h, n)).
func (s *Store) GetBlockHeaders(startHeight uint32, n uint32) ([]chainheader.Header, error) {
	headers := make([]chainheader.Header, 0, n)
	for i := uint32(0); i < n; i++ {
		raw, err := s.get(heightKey(prefixHeader, startHeight+i))
		if err != nil {
			return nil, fmt.Errorf("store: get block headers from %d: %w", startHeight, err)
		}
		if raw == nil {
			break
		}
		header, err := decodeHeader(raw)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}
	return headers, nil
}

// GetBlockHeight returns the height indexed for a given block hash.
func (s *Store) GetBlockHeight(hash chainheader.Digest) (uint32, error) {
	raw, err := s.get(hashKey(prefixHashIndex, hash.Bytes()))
	if err != nil {
		return 0, fmt.Errorf("store: get block height for %s: %w", hash.Hex(), err)
	}
	if raw == nil {
		return 0, ErrNotFound
	}
	return binary.BigEndian.Uint32(raw), nil
}

// AddChainState implements chainstate.Store: it persists the
// chain-state row at height and advances the latest-state-height
// marker when height is a new high water mark.
func (s *Store) AddChainState(height uint32, state chainstate.ChainState) error {
	encoded, err := encodeChainState(state)
	if err != nil {
		return err
	}
	if err := s.set(heightKey(prefixChainState, height), encoded); err != nil {
		return fmt.Errorf("store: add chain state at %d: %w", height, err)
	}

	latest, err := s.GetLatestChainStateHeight()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, ErrNotFound) || height >= latest {
		heightBytes := make([]byte, 4)
		binary.BigEndian.PutUint32(heightBytes, height)
		if err := s.set(keyLatestStateHeight, heightBytes); err != nil {
			return fmt.Errorf("store: advance latest chain state height: %w", err)
		}
	}
	return nil
}

// GetChainState implements chainstate.Store.
func (s *Store) GetChainState(height uint32) (chainstate.ChainState, error) {
	raw, err := s.get(heightKey(prefixChainState, height))
	if err != nil {
		return chainstate.ChainState{}, fmt.Errorf("store: get chain state at %d: %w", height, err)
	}
	if raw == nil {
		return chainstate.ChainState{}, ErrNotFound
	}
	return decodeChainState(raw)
}

// GetLatestChainStateHeight returns the highest height ever committed
// through AddChainState.
func (s *Store) GetLatestChainStateHeight() (uint32, error) {
	raw, err := s.get(keyLatestStateHeight)
	if err != nil {
		return 0, fmt.Errorf("store: get latest chain state height: %w", err)
	}
	if raw == nil {
		return 0, ErrNotFound
	}
	return binary.BigEndian.Uint32(raw), nil
}

// GetNode implements mmr.NodeStore over the durable MMR node table.
func (s *Store) GetNode(pos uint64) (chainheader.Digest, bool, error) {
	raw, err := s.get(positionKey(prefixMMRNode, pos))
	if err != nil {
		return chainheader.Digest{}, false, fmt.Errorf("store: get mmr node at %d: %w", pos, err)
	}
	if raw == nil {
		return chainheader.Digest{}, false, nil
	}
	digest, err := chainheader.DigestFromBytes(raw)
	if err != nil {
		return chainheader.Digest{}, false, fmt.Errorf("store: decode mmr node at %d: %w", pos, err)
	}
	return digest, true, nil
}

// PutNode implements mmr.NodeStore.
func (s *Store) PutNode(pos uint64, digest chainheader.Digest) error {
	if err := s.set(positionKey(prefixMMRNode, pos), digest.Bytes()); err != nil {
		return fmt.Errorf("store: put mmr node at %d: %w", pos, err)
	}
	return nil
}

// GetMMRLeafCount returns the leaf count bookkeeping value the
// accumulator persists alongside its node table, so a restarted
// indexer can rebuild an in-memory mmr.Accumulator via
// mmr.RestoreAccumulator without rescanning the node table.
func (s *Store) GetMMRLeafCount() (uint64, error) {
	raw, err := s.get(keyMMRLeafCount)
	if err != nil {
		return 0, fmt.Errorf("store: get mmr leaf count: %w", err)
	}
	if raw == nil {
		return 0, nil
	}
	return binary.BigEndian.Uint64(raw), nil
}

// SetMMRLeafCount persists the accumulator's leaf count bookkeeping value.
func (s *Store) SetMMRLeafCount(leafCount uint64) error {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, leafCount)
	if err := s.set(keyMMRLeafCount, b); err != nil {
		return fmt.Errorf("store: set mmr leaf count: %w", err)
	}
	return nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.db.Close()
}
