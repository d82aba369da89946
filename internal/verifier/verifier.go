// Package verifier implements §4.8's compressed-SPV-proof check: six
// ordered steps composing a transaction Merkle proof, a block-MMR
// inclusion proof, and a recursive STARK proof over the chain state,
// grounded on
// original_source/zoro-spv-verify/src/verify.rs's
// verify_full_inclusion_proof_with_options.
package verifier

import (
	"errors"
	"fmt"

	"github.com/chainbridge/powbridge/internal/argadapter"
	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
	"github.com/chainbridge/powbridge/internal/decoder"
	"github.com/chainbridge/powbridge/internal/digest"
	"github.com/chainbridge/powbridge/internal/mmr"
	"github.com/chainbridge/powbridge/internal/nodeclient"
)

// Step names a failed verification stage (§4.8: "typed error on first
// failed step").
type Step string

const (
	StepSanity          Step = "sanity"
	StepTransaction     Step = "transaction_inclusion"
	StepBlockInclusion  Step = "block_inclusion"
	StepChainState      Step = "chain_state_inclusion"
	StepRootEquality    Step = "root_equality"
	StepWorkPolicy      Step = "work_policy"
)

// StepError reports which of §4.8's six steps failed and why.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("verifier: %s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

func fail(step Step, err error) error {
	return &StepError{Step: step, Err: err}
}

// Verifier runs §4.8's compressed-SPV-proof check against a fixed
// Config and a RecursiveProofVerifier for the opaque recursive-STARK
// check.
type Verifier struct {
	cfg       Config
	lineage   chainheader.Lineage
	recursive RecursiveProofVerifier
	hasher    mmr.Hasher
}

// New constructs a Verifier. lineage selects which chain-state digest
// word layout §4.6 uses (Bitcoin or Zcash).
func New(cfg Config, lineage chainheader.Lineage, recursive RecursiveProofVerifier) *Verifier {
	return &Verifier{cfg: cfg, lineage: lineage, recursive: recursive, hasher: mmr.Blake2sHasher{}}
}

// Verify runs the six ordered checks of §4.8 against proof, short-
// circuiting and returning a *StepError on the first failure.
// devMode relaxes the sanity check (step 1) and the root-equality
// check (step 5), matching §4.8's "If not dev_mode" clauses; opts
// additionally allows skipping the block-inclusion or chain-state
// checks entirely (mirroring VerifyOptions), independent of devMode.
func (v *Verifier) Verify(proof CompressedSpvProof, devMode bool, opts Options) error {
	if !devMode {
		if err := v.checkSanity(proof); err != nil {
			return err
		}
	}

	if err := v.checkTransactionInclusion(proof); err != nil {
		return err
	}

	var rBlock [32]byte
	if !opts.SkipBlockProof {
		root, err := v.checkBlockInclusion(proof)
		if err != nil {
			return err
		}
		rBlock = root
	}

	var rChain [32]byte
	if !opts.SkipChainProof {
		root, err := v.checkChainStateInclusion(proof)
		if err != nil {
			return err
		}
		rChain = root
	}

	if !devMode && !opts.SkipBlockProof && !opts.SkipChainProof {
		if rBlock != rChain {
			return fail(StepRootEquality, fmt.Errorf("block mmr root %x != chain state mmr root %x", rBlock, rChain))
		}
	}

	if err := v.checkWorkPolicy(proof); err != nil {
		return err
	}

	return nil
}

// checkSanity implements §4.8 step 1.
func (v *Verifier) checkSanity(proof CompressedSpvProof) error {
	expected := proof.ChainState.BlockHeight + 1
	if uint64(expected) != proof.BlockHeaderProof.LeafCount {
		return fail(StepSanity, fmt.Errorf("leaf_count %d != block_height+1 (%d)", proof.BlockHeaderProof.LeafCount, expected))
	}
	return nil
}

// checkTransactionInclusion implements §4.8 step 2: reconstruct the
// transaction's path to the block's Merkle root and confirm the leaf
// the branch names is indeed hash(transaction).
func (v *Verifier) checkTransactionInclusion(proof CompressedSpvProof) error {
	txid := nodeclient.HashTransaction(proof.Transaction)
	if txid != proof.TransactionProof.TxID {
		return fail(StepTransaction, fmt.Errorf("transaction hash %s does not match proof's claimed txid %s", txid.Hex(), proof.TransactionProof.TxID.Hex()))
	}
	if err := nodeclient.VerifyMerkleBranch(txid, proof.TransactionProof, proof.BlockHeader.MerkleRootHash()); err != nil {
		return fail(StepTransaction, err)
	}
	return nil
}

// checkBlockInclusion implements §4.8 step 3: build an ephemeral MMR
// from the proof's peaks, verify the leaf's inclusion proof against
// it, and fold the peaks down to R_block.
func (v *Verifier) checkBlockInclusion(proof CompressedSpvProof) ([32]byte, error) {
	leafDigest := proof.BlockHeader.CanonicalHash()
	if err := mmr.VerifyProof(v.hasher, leafDigest, proof.BlockHeaderProof.asMMRProof()); err != nil {
		return [32]byte{}, fail(StepBlockInclusion, err)
	}

	root, err := mmr.RootHashFromPeaks(v.hasher, proof.BlockHeaderProof.PeakHashes, proof.BlockHeaderProof.LeafCount)
	if err != nil {
		return [32]byte{}, fail(StepBlockInclusion, err)
	}
	return [32]byte(root), nil
}

// checkChainStateInclusion implements §4.8 step 4: decode the
// recursive proof's public output, check every field against v.cfg
// and proof.ChainState, invoke the recursive verifier, and return the
// decoded block_mmr_hash as R_chain.
func (v *Verifier) checkChainStateInclusion(proof CompressedSpvProof) ([32]byte, error) {
	adapterCfg := argadapter.Config{U256Variant: v.cfg.U256Variant, TaskOutputSize: v.cfg.TaskOutputSize}

	output, err := decoder.Decode(proof.ChainStateProof.PublicOutput, adapterCfg)
	if err != nil {
		return [32]byte{}, fail(StepChainState, err)
	}

	if output.NTasks != 1 {
		return [32]byte{}, fail(StepChainState, fmt.Errorf("n_tasks must be 1, got %d", output.NTasks))
	}
	if int(output.TaskOutputSize) != v.cfg.TaskOutputSize {
		return [32]byte{}, fail(StepChainState, fmt.Errorf("task_output_size %d != configured %d", output.TaskOutputSize, v.cfg.TaskOutputSize))
	}
	if output.TaskProgramHash != v.cfg.TaskProgramHash {
		return [32]byte{}, fail(StepChainState, fmt.Errorf("task_program_hash %s != configured %s", output.TaskProgramHash.Hex(), v.cfg.TaskProgramHash.Hex()))
	}
	if output.TaskResult.ProgramHash != v.cfg.TaskProgramHash {
		return [32]byte{}, fail(StepChainState, fmt.Errorf("task result program_hash %s != task_program_hash %s", output.TaskResult.ProgramHash.Hex(), output.TaskProgramHash.Hex()))
	}
	if output.TaskResult.BootloaderHash != v.cfg.BootloaderHash {
		return [32]byte{}, fail(StepChainState, fmt.Errorf("bootloader_hash %s != configured %s", output.TaskResult.BootloaderHash.Hex(), v.cfg.BootloaderHash.Hex()))
	}

	expectedHash, err := digest.ChainState(v.lineage, proof.ChainState)
	if err != nil {
		return [32]byte{}, fail(StepChainState, err)
	}
	if output.TaskResult.ChainStateHash != expectedHash {
		return [32]byte{}, fail(StepChainState, fmt.Errorf("chain_state_hash %s != blake2s_digest(chain_state) %s", output.TaskResult.ChainStateHash.Hex(), expectedHash.Hex()))
	}

	if err := v.recursive.Verify(proof.ChainStateProof); err != nil {
		return [32]byte{}, fail(StepChainState, err)
	}

	if !output.TaskResult.HasBlockMMRHash {
		return [32]byte{}, fail(StepChainState, errors.New("bootloader output omits block_mmr_hash"))
	}
	return [32]byte(output.TaskResult.BlockMMRHash), nil
}

// checkWorkPolicy implements §4.8 step 6.
func (v *Verifier) checkWorkPolicy(proof CompressedSpvProof) error {
	lowerBound := subchainWorkLowerBound(proof.BlockHeight, proof.ChainState.BlockHeight, proof.ChainState.CurrentTarget.BigInt(), uint32(chainstate.BlocksPerEpoch))
	minWork := v.cfg.minWorkInt()
	if lowerBound.Cmp(minWork) < 0 {
		return fail(StepWorkPolicy, fmt.Errorf("lower-bound work %s < min_work %s", lowerBound.String(), minWork.String()))
	}
	return nil
}
