package prover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ProverRunner abstracts invoking the external STARK prover binary
// over a single batch's task descriptor, keeping Driver's control flow
// free of exec.Cmd plumbing (the same narrow-interface-over-a-
// subprocess shape as internal/verifier.RecursiveProofVerifier does
// for the recursive-STARK check).
type ProverRunner interface {
	// Run invokes the prover against programInputPath (the
	// program-input.json descriptor of §6) with its working directory
	// set to batchDir, returning an error if the process exits
	// non-zero (§4.9 "Prover non-zero exit is fatal to the run"). On
	// success the batch's proof is at batchDir/proof.json, which
	// Driver reads back as the next batch's predecessor.
	Run(ctx context.Context, executable string, proverParamsFile string, batchDir string, programInputPath string) error
}

// ExecRunner is the production ProverRunner: it shells out to the
// configured prover executable and renames the first
// proof_*_success* artifact it produces to proof.json (§4.9 step 3d).
type ExecRunner struct{}

// Run implements ProverRunner.
func (ExecRunner) Run(ctx context.Context, executable string, proverParamsFile string, batchDir string, programInputPath string) error {
	args := []string{programInputPath}
	if proverParamsFile != "" {
		args = append(args, proverParamsFile)
	}

	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = batchDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("prover: %s exited: %w: %s", executable, err, output)
	}

	return renameSuccessProof(batchDir)
}

// renameSuccessProof finds the prover's proof_*_success* output file
// in batchDir and renames it to proof.json (§4.9 step 3d).
func renameSuccessProof(batchDir string) error {
	entries, err := os.ReadDir(batchDir)
	if err != nil {
		return fmt.Errorf("prover: read batch dir %s: %w", batchDir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if matchesSuccessProofName(e.Name()) {
			src := filepath.Join(batchDir, e.Name())
			dst := filepath.Join(batchDir, proofFileName)
			if err := os.Rename(src, dst); err != nil {
				return fmt.Errorf("prover: rename %s to %s: %w", src, dst, err)
			}
			return nil
		}
	}
	return fmt.Errorf("prover: no proof_*_success* output found in %s", batchDir)
}

func matchesSuccessProofName(name string) bool {
	const prefix = "proof_"
	const marker = "success"
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return false
	}
	for i := 0; i+len(marker) <= len(name); i++ {
		if name[i:i+len(marker)] == marker {
			return true
		}
	}
	return false
}
