package decoder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/argadapter"
	"github.com/chainbridge/powbridge/internal/chainheader"
)

func digestToLoHiFelts(t *testing.T, d chainheader.Digest) (lo, hi argadapter.Felt) {
	t.Helper()
	raw := d.Bytes()
	var hiBytes, loBytes [32]byte
	copy(hiBytes[16:], raw[:16])
	copy(loBytes[16:], raw[16:])
	hi.SetBytes(hiBytes[:])
	lo.SetBytes(loBytes[:])
	return lo, hi
}

func feltFromU32(t *testing.T, n uint32) argadapter.Felt {
	t.Helper()
	var f argadapter.Felt
	f.SetUint64(uint64(n))
	return f
}

func feltFromDigest(t *testing.T, d chainheader.Digest) argadapter.Felt {
	t.Helper()
	var f argadapter.Felt
	f.SetBytes(d.Bytes())
	return f
}

// TestDecodeBootloaderOutputEightWord reproduces Scenario 4 of §8:
// [1, 8, task_program_hash, cs_lo, cs_hi, mmr_lo, mmr_hi, boot_hash, prog_hash].
func TestDecodeBootloaderOutputEightWord(t *testing.T) {
	taskProgramHash := someDigest(t, 0x11)
	chainStateHash := someDigest(t, 0x22)
	blockMMRHash := someDigest(t, 0x33)
	bootloaderHash := someDigest(t, 0x44)
	programHash := someDigest(t, 0x55)

	csLo, csHi := digestToLoHiFelts(t, chainStateHash)
	mmrLo, mmrHi := digestToLoHiFelts(t, blockMMRHash)

	output := []argadapter.Felt{
		feltFromU32(t, 1),
		feltFromU32(t, 8),
		feltFromDigest(t, taskProgramHash),
		csLo, csHi,
		mmrLo, mmrHi,
		feltFromDigest(t, bootloaderHash),
		feltFromDigest(t, programHash),
	}

	cfg := argadapter.Config{U256Variant: argadapter.HiThenLo, TaskOutputSize: 8}
	decoded, err := Decode(output, cfg)
	require.NoError(t, err)

	require.Equal(t, uint32(1), decoded.NTasks)
	require.Equal(t, uint32(8), decoded.TaskOutputSize)
	require.Equal(t, taskProgramHash, decoded.TaskProgramHash)
	require.Equal(t, chainStateHash, decoded.TaskResult.ChainStateHash)
	require.True(t, decoded.TaskResult.HasBlockMMRHash)
	require.Equal(t, blockMMRHash, decoded.TaskResult.BlockMMRHash)
	require.Equal(t, bootloaderHash, decoded.TaskResult.BootloaderHash)
	require.Equal(t, programHash, decoded.TaskResult.ProgramHash)
}

func TestDecodeBootloaderOutputSixWordOmitsBlockMMRHash(t *testing.T) {
	taskProgramHash := someDigest(t, 0x01)
	chainStateHash := someDigest(t, 0x02)
	bootloaderHash := someDigest(t, 0x03)
	programHash := someDigest(t, 0x04)

	csLo, csHi := digestToLoHiFelts(t, chainStateHash)

	output := []argadapter.Felt{
		feltFromU32(t, 1),
		feltFromU32(t, 6),
		feltFromDigest(t, taskProgramHash),
		csLo, csHi,
		feltFromDigest(t, bootloaderHash),
		feltFromDigest(t, programHash),
	}

	cfg := argadapter.Config{U256Variant: argadapter.HiThenLo, TaskOutputSize: 6}
	decoded, err := Decode(output, cfg)
	require.NoError(t, err)
	require.False(t, decoded.TaskResult.HasBlockMMRHash)
}

func TestDecodeRejectsWrongTaskCount(t *testing.T) {
	output := []argadapter.Felt{feltFromU32(t, 2), feltFromU32(t, 8)}
	_, err := Decode(output, argadapter.DefaultConfig())
	require.ErrorIs(t, err, ErrUnexpectedTaskCount)
}

func TestDecodeRejectsTruncatedOutput(t *testing.T) {
	output := []argadapter.Felt{feltFromU32(t, 1)}
	_, err := Decode(output, argadapter.DefaultConfig())
	require.ErrorIs(t, err, ErrTruncatedOutput)
}

func TestDecodeRejectsMismatchedOutputSize(t *testing.T) {
	output := []argadapter.Felt{feltFromU32(t, 1), feltFromU32(t, 6)}
	_, err := Decode(output, argadapter.DefaultConfig()) // DefaultConfig expects 8
	require.ErrorIs(t, err, ErrUnexpectedOutputSize)
}

// someDigest returns a distinct digest whose numeric value is well
// under the bn254 scalar field modulus, so reinterpreting it as a
// felt (or felt pair) and back round-trips exactly.
func someDigest(t *testing.T, b byte) chainheader.Digest {
	t.Helper()
	var raw [32]byte
	raw[30] = b
	raw[31] = b
	d, err := chainheader.DigestFromBytes(raw[:])
	require.NoError(t, err)
	return d
}
