package store

import (
	"encoding/json"
	"fmt"

	"github.com/chainbridge/powbridge/internal/chainstate"
)

// chainStateRecord is the JSON-on-the-wire shape of chainstate.ChainState,
// following the same per-row json.Marshal convention header_codec.go uses.
type chainStateRecord = chainstate.ChainState

func encodeChainState(state chainstate.ChainState) ([]byte, error) {
	b, err := json.Marshal(chainStateRecord(state))
	if err != nil {
		return nil, fmt.Errorf("store: encode chain state: %w", err)
	}
	return b, nil
}

func decodeChainState(b []byte) (chainstate.ChainState, error) {
	var rec chainStateRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return chainstate.ChainState{}, fmt.Errorf("store: decode chain state: %w", err)
	}
	return chainstate.ChainState(rec), nil
}
