package prover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/chainbridge/powbridge/internal/argadapter"
	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
	"github.com/chainbridge/powbridge/internal/mmr"
)

type fakeBridgeClient struct {
	params chainstate.Params
}

func (f *fakeBridgeClient) ChainStateAt(ctx context.Context, height uint32) (chainstate.ChainState, error) {
	state := f.params.Genesis
	state.BlockHeight = height
	return state, nil
}

func (f *fakeBridgeClient) BlockHeaders(ctx context.Context, offset uint32, size uint32) ([]chainheader.Header, error) {
	headers := make([]chainheader.Header, size)
	for i := range headers {
		var h chainheader.Digest
		h[31] = byte(offset) + byte(i)
		headers[i] = &chainheader.BtcHeader{
			Version:     1,
			PrevHash:    chainheader.ZeroDigest,
			MerkleRoot:  chainheader.ZeroDigest,
			BlockTime:   1231006505 + offset + uint32(i),
			CompactBits: 0x1d00ffff,
			Nonce:       offset + uint32(i),
			Hash:        h,
		}
	}
	return headers, nil
}

func (f *fakeBridgeClient) SparseRootsAt(ctx context.Context, chainHeight uint32) (mmr.SparseRoots, error) {
	return mmr.SparseRoots{BlockHeight: chainHeight, Roots: []chainheader.Digest{chainheader.ZeroDigest}}, nil
}

type fakeRunner struct {
	runs int
}

// Run writes a fake proof_*_success artifact instead of actually
// invoking a prover binary, then renames it to proof.json as
// ExecRunner does.
func (r *fakeRunner) Run(ctx context.Context, executable string, proverParamsFile string, batchDir string, programInputPath string) error {
	r.runs++
	if err := os.WriteFile(filepath.Join(batchDir, "proof_0_success_0"), []byte(`{"fake":true}`), 0o644); err != nil {
		return err
	}
	return renameSuccessProof(batchDir)
}

func TestDriverProveRunsSequentialBatches(t *testing.T) {
	dir := t.TempDir()
	client := &fakeBridgeClient{params: chainstate.BitcoinMainnetParams()}
	runner := &fakeRunner{}
	driver := NewDriver(client, runner, nil, chainheader.BitcoinLineage, argadapter.DefaultConfig(), zerolog.Nop())

	params := Params{
		StartHeight: 0,
		TotalBlocks: 6,
		StepSize:    2,
		OutputDir:   dir,
		Executable:  "/bin/true",
	}

	require.NoError(t, driver.Prove(context.Background(), params))
	require.Equal(t, 3, runner.runs)

	for _, name := range []string{"batch_0_to_2", "batch_2_to_4", "batch_4_to_6"} {
		require.FileExists(t, filepath.Join(dir, name, proofFileName))
		require.NoFileExists(t, filepath.Join(dir, name, argumentsFileName), "temp files must be cleaned up by default")
	}
}

func TestDriverProveKeepsTempFilesWhenRequested(t *testing.T) {
	dir := t.TempDir()
	client := &fakeBridgeClient{params: chainstate.BitcoinMainnetParams()}
	runner := &fakeRunner{}
	driver := NewDriver(client, runner, nil, chainheader.BitcoinLineage, argadapter.DefaultConfig(), zerolog.Nop())

	params := Params{
		StartHeight:   0,
		TotalBlocks:   2,
		StepSize:      2,
		OutputDir:     dir,
		Executable:    "/bin/true",
		KeepTempFiles: true,
	}

	require.NoError(t, driver.Prove(context.Background(), params))
	require.FileExists(t, filepath.Join(dir, "batch_0_to_2", argumentsFileName))
	require.FileExists(t, filepath.Join(dir, "batch_0_to_2", programInputFileName))
}

func TestDriverProveResumesFromExistingBatchDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "batch_0_to_2"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch_0_to_2", proofFileName), []byte(`{}`), 0o644))

	client := &fakeBridgeClient{params: chainstate.BitcoinMainnetParams()}
	runner := &fakeRunner{}
	driver := NewDriver(client, runner, nil, chainheader.BitcoinLineage, argadapter.DefaultConfig(), zerolog.Nop())

	params := Params{
		StartHeight: 0,
		TotalBlocks: 4,
		StepSize:    2,
		OutputDir:   dir,
		Executable:  "/bin/true",
	}

	require.NoError(t, driver.Prove(context.Background(), params))
	require.Equal(t, 1, runner.runs, "only the un-proven batch_2_to_4 range should run")
	require.FileExists(t, filepath.Join(dir, "batch_2_to_4", proofFileName))
}

func TestScanCompletedBatchesIgnoresIncompleteDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "batch_0_to_2"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "batch_2_to_4"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch_0_to_2", proofFileName), []byte(`{}`), 0o644))

	batches, err := scanCompletedBatches(dir)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, uint32(0), batches[0].start)
	require.Equal(t, uint32(2), batches[0].end)
}

func TestFindPredecessorProofMatchesEndHeight(t *testing.T) {
	batches := []batchRange{{start: 0, end: 2, dir: "/a"}, {start: 2, end: 4, dir: "/b"}}
	path, ok := findPredecessorProof(batches, 4)
	require.True(t, ok)
	require.Equal(t, filepath.Join("/b", proofFileName), path)

	_, ok = findPredecessorProof(batches, 99)
	require.False(t, ok)
}
