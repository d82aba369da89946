package rpcserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// ProofSource abstracts where /chainstate-proof/recent_proof and
// /compressed_spv_proof/{txid} get their cached recursive proof from
// (§4.9's proof output directory, or -- for a deployment that proves
// elsewhere -- the same remote snapshot bucket internal/prover writes
// to). Payload is the raw recent_proof JSON object's bytes; gzipped
// reports whether it is already gzip-Content-Encoded, so the HTTP
// handler can forward it unchanged (§6: "may be gzip-encoded").
type ProofSource interface {
	Latest(ctx context.Context) (payload []byte, provenHeight uint32, gzipped bool, err error)
}

var rpcBatchDirPattern = regexp.MustCompile(`^batch_(\d+)_to_(\d+)$`)

// LocalProofSource reads the highest-numbered completed batch
// directory under a §4.9 proof output directory -- the same layout
// internal/prover's Driver produces -- and serves its proof.json
// uncompressed.
type LocalProofSource struct {
	outputDir string
}

func NewLocalProofSource(outputDir string) *LocalProofSource {
	return &LocalProofSource{outputDir: outputDir}
}

func (s *LocalProofSource) Latest(ctx context.Context) ([]byte, uint32, bool, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, 0, false, fmt.Errorf("rpcserver: read proof output dir: %w", err)
	}

	var bestEnd uint32
	var bestDir string
	found := false
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := rpcBatchDirPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		end, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			continue
		}
		dir := filepath.Join(s.outputDir, e.Name())
		if _, err := os.Stat(filepath.Join(dir, proofFileName)); err != nil {
			continue
		}
		if !found || uint32(end) > bestEnd {
			bestEnd = uint32(end)
			bestDir = dir
			found = true
		}
	}
	if !found {
		return nil, 0, false, fmt.Errorf("rpcserver: no completed proof batch found in %s", s.outputDir)
	}

	payload, err := os.ReadFile(filepath.Join(bestDir, proofFileName))
	if err != nil {
		return nil, 0, false, fmt.Errorf("rpcserver: read %s: %w", bestDir, err)
	}
	return payload, bestEnd, false, nil
}

const proofFileName = "proof.json"
