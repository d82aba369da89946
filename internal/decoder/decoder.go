// Package decoder implements the STARK bootloader output decoder of
// §4.7: the counterpart to internal/argadapter, turning the prover's
// raw public-output felt vector back into a structured record the
// verifier can check against a claimed chain state and MMR root.
// Grounded on
// original_source/raito-spv-verify/src/proof.rs's BootloaderOutput::decode
// and TaskResult::decode.
package decoder

import (
	"errors"
	"fmt"

	"github.com/chainbridge/powbridge/internal/argadapter"
	"github.com/chainbridge/powbridge/internal/chainheader"
)

// ErrTruncatedOutput is returned when the felt vector runs out before
// the layout of §4.7 is fully consumed.
var ErrTruncatedOutput = errors.New("decoder: public output vector is too short")

// ErrUnexpectedTaskCount is returned when n_tasks != 1.
var ErrUnexpectedTaskCount = errors.New("decoder: n_tasks must equal 1")

// ErrUnexpectedOutputSize is returned when task_output_size does not
// match the configured variant.
var ErrUnexpectedOutputSize = errors.New("decoder: task_output_size does not match configured variant")

// TaskResult is the guest program's attested outputs (§4.7 step 4):
// the chain-state digest and (variant-dependent) block-MMR root it
// computed, plus the bootloader/program hashes identifying which
// guest binary produced them.
type TaskResult struct {
	ChainStateHash chainheader.Digest
	BlockMMRHash   chainheader.Digest // zero value when the variant omits it
	HasBlockMMRHash bool
	BootloaderHash chainheader.Digest
	ProgramHash    chainheader.Digest
}

// BootloaderOutput is the fully decoded public output (§4.7 contract).
type BootloaderOutput struct {
	NTasks          uint32
	TaskOutputSize  uint32
	TaskProgramHash chainheader.Digest
	TaskResult      TaskResult
}

// Decode parses a prover's public-output felt vector per §4.7's fixed
// layout. cfg.TaskOutputSize selects whether block_mmr_hash is present
// (8) or omitted (6); any other value is rejected up front.
func Decode(output []argadapter.Felt, cfg argadapter.Config) (BootloaderOutput, error) {
	if cfg.TaskOutputSize != 6 && cfg.TaskOutputSize != 8 {
		return BootloaderOutput{}, fmt.Errorf("decoder: unsupported task_output_size %d", cfg.TaskOutputSize)
	}

	r := &reader{felts: output}

	nTasks, err := r.nextU32()
	if err != nil {
		return BootloaderOutput{}, err
	}
	if nTasks != 1 {
		return BootloaderOutput{}, fmt.Errorf("%w: got %d", ErrUnexpectedTaskCount, nTasks)
	}

	taskOutputSize, err := r.nextU32()
	if err != nil {
		return BootloaderOutput{}, err
	}
	if int(taskOutputSize) != cfg.TaskOutputSize {
		return BootloaderOutput{}, fmt.Errorf("%w: configured %d, got %d", ErrUnexpectedOutputSize, cfg.TaskOutputSize, taskOutputSize)
	}

	taskProgramHash, err := r.nextTruncatedHash()
	if err != nil {
		return BootloaderOutput{}, err
	}

	chainStateHash, err := r.nextLoHiDigest()
	if err != nil {
		return BootloaderOutput{}, err
	}

	result := TaskResult{ChainStateHash: chainStateHash}
	if cfg.TaskOutputSize == 8 {
		blockMMRHash, err := r.nextLoHiDigest()
		if err != nil {
			return BootloaderOutput{}, err
		}
		result.BlockMMRHash = blockMMRHash
		result.HasBlockMMRHash = true
	}

	bootloaderHash, err := r.nextTruncatedHash()
	if err != nil {
		return BootloaderOutput{}, err
	}
	result.BootloaderHash = bootloaderHash

	programHash, err := r.nextTruncatedHash()
	if err != nil {
		return BootloaderOutput{}, err
	}
	result.ProgramHash = programHash

	return BootloaderOutput{
		NTasks:          nTasks,
		TaskOutputSize:  taskOutputSize,
		TaskProgramHash: taskProgramHash,
		TaskResult:      result,
	}, nil
}

// reader walks a felt slice, consuming one logical field at a time.
type reader struct {
	felts []argadapter.Felt
	pos   int
}

func (r *reader) next() (argadapter.Felt, error) {
	if r.pos >= len(r.felts) {
		return argadapter.Felt{}, ErrTruncatedOutput
	}
	f := r.felts[r.pos]
	r.pos++
	return f, nil
}

func (r *reader) nextU32() (uint32, error) {
	f, err := r.next()
	if err != nil {
		return 0, err
	}
	return uint32(f.Uint64()), nil
}

// nextTruncatedHash reads a single felt and reinterprets its 32-byte
// big-endian representation directly as a digest (§4.7: "1 felt,
// interpreted as 32-byte big-endian truncated hash").
func (r *reader) nextTruncatedHash() (chainheader.Digest, error) {
	f, err := r.next()
	if err != nil {
		return chainheader.Digest{}, err
	}
	bytes := f.Bytes()
	return chainheader.DigestFromBytes(bytes[:])
}

// nextLoHiDigest reads a (lo, hi) felt pair and reconstructs the
// 32-byte big-endian digest they split (§4.7 steps for
// chain_state_hash/block_mmr_hash — always lo-then-hi, independent of
// the argument adapter's configurable U256 variant).
func (r *reader) nextLoHiDigest() (chainheader.Digest, error) {
	loFelt, err := r.next()
	if err != nil {
		return chainheader.Digest{}, err
	}
	hiFelt, err := r.next()
	if err != nil {
		return chainheader.Digest{}, err
	}

	loBytes := loFelt.Bytes()
	hiBytes := hiFelt.Bytes()

	var combined [32]byte
	copy(combined[:16], hiBytes[16:32])
	copy(combined[16:], loBytes[16:32])

	return chainheader.DigestFromBytes(combined[:])
}
