package store

import (
	"encoding/json"
	"fmt"

	"github.com/chainbridge/powbridge/internal/chainheader"
)

// headerRecord is the tagged-variant JSON encoding of chainheader.Header,
// following the teacher's json.Marshal-per-row convention
// (pkg/ledger/store.go) rather than a binary format — headers are
// small and this keeps the store debuggable with a plain KV browser.
type headerRecord struct {
	Lineage chainheader.Lineage `json:"lineage"`
	Btc     *chainheader.BtcHeader `json:"btc,omitempty"`
	Zec     *chainheader.ZecHeader `json:"zec,omitempty"`
}

func encodeHeader(header chainheader.Header) ([]byte, error) {
	rec := headerRecord{Lineage: header.Lineage()}
	switch h := header.(type) {
	case *chainheader.BtcHeader:
		rec.Btc = h
	case *chainheader.ZecHeader:
		rec.Zec = h
	default:
		return nil, fmt.Errorf("store: unsupported header type %T", header)
	}
	return json.Marshal(rec)
}

func decodeHeader(b []byte) (chainheader.Header, error) {
	var rec headerRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("store: decode header: %w", err)
	}
	switch rec.Lineage {
	case chainheader.BitcoinLineage:
		if rec.Btc == nil {
			return nil, fmt.Errorf("store: bitcoin-lineage header record missing btc payload")
		}
		return rec.Btc, nil
	case chainheader.ZcashLineage:
		if rec.Zec == nil {
			return nil, fmt.Errorf("store: zcash-lineage header record missing zec payload")
		}
		return rec.Zec, nil
	default:
		return nil, fmt.Errorf("store: unknown header lineage %d", rec.Lineage)
	}
}
