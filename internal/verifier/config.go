package verifier

import (
	"math/big"

	"github.com/chainbridge/powbridge/internal/argadapter"
	"github.com/chainbridge/powbridge/internal/chainheader"
)

// Config mirrors zoro-spv-verify/src/verify.rs's VerifierConfig: the
// policy knobs that bound what a proof must satisfy, independent of
// the proof's own content (§4.8 contract).
type Config struct {
	// MinWork is the minimum cumulative work (§4.8 step 6) required on
	// top of the target block, as a decimal string matching the
	// original's wire convention.
	MinWork string
	// BootloaderHash is the expected bootloader program hash (hex).
	BootloaderHash chainheader.Digest
	// TaskProgramHash is the expected payload program hash (hex).
	TaskProgramHash chainheader.Digest
	// TaskOutputSize selects the §4.7 decoder variant (6 or 8).
	TaskOutputSize int
	// U256Variant selects which half-ordering the adapter used; needed
	// only if a caller re-derives a digest from raw felts outside the
	// decoder, carried here for parity with argadapter.Config.
	U256Variant argadapter.U256Variant
	// MinConfirmations is the minimum block-height distance between
	// the target block and the chain-state tip. Verify does not read
	// it; the confirmation policy Verify applies is the MinWork bound
	// of step 6.
	MinConfirmations uint32
}

// minWorkInt parses MinWork into a big.Int, panicking on a malformed
// config value -- the same "config is a startup invariant, not
// per-request input" treatment the rest of the bridge gives its
// compile-time/config constants.
func (c Config) minWorkInt() *big.Int {
	v, ok := new(big.Int).SetString(c.MinWork, 10)
	if !ok {
		panic("verifier: MinWork is not a valid decimal integer: " + c.MinWork)
	}
	return v
}

// DefaultConfig matches zoro-spv-verify's Default impl: MinWork of
// 6 * 2^78 (six blocks at a per-block work of 2^78), MinConfirmations
// 6, task_output_size 6 (no block_mmr_hash pair).
func DefaultConfig() Config {
	bootloaderHash, err := chainheader.DigestFromHex("0x0060ec1c80d746256f8c8d5dc53d83a3802523785a854f8d51be0b68e25735c8")
	if err != nil {
		panic(err)
	}
	taskProgramHash, err := chainheader.DigestFromHex("0x009a4925039ebb547c27335f40168be7b9d3e8e897db0729a38b8160da53724a")
	if err != nil {
		panic(err)
	}
	return Config{
		MinWork:          "1813388729421943762059264", // 6 * 2^78
		BootloaderHash:   bootloaderHash,
		TaskProgramHash:  taskProgramHash,
		TaskOutputSize:   6,
		U256Variant:      argadapter.HiThenLo,
		MinConfirmations: 6,
	}
}

// Options mirrors zoro-spv-verify/src/verify.rs's VerifyOptions: per-
// call overrides used by tests (spv-client passes none), kept
// additive to (not a replacement for) devMode's own relaxations
// (SPEC_FULL.md §C.2).
type Options struct {
	SkipChainProof bool
	SkipBlockProof bool
}
