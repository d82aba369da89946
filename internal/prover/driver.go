package prover

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/chainbridge/powbridge/internal/argadapter"
	"github.com/chainbridge/powbridge/internal/chainheader"
)

// programInputDescriptor is the §6 "Prover task descriptor"
// (program-input.json) layout, fixed by the Cairo bootloader's own
// task schema.
type programInputDescriptor struct {
	SinglePage bool                `json:"single_page"`
	Tasks      []programInputTask  `json:"tasks"`
}

type programInputTask struct {
	Type                string `json:"type"`
	Path                string `json:"path"`
	ProgramHashFunction string `json:"program_hash_function"`
	UserArgsFile        string `json:"user_args_file"`
}

// Driver runs §4.9's batch loop against a BridgeClient, a
// ProverRunner, and (optionally) a SnapshotClient.
type Driver struct {
	client   BridgeClient
	runner   ProverRunner
	snapshot *SnapshotClient
	lineage  chainheader.Lineage
	argCfg   argadapter.Config
	logger   zerolog.Logger
}

// NewDriver constructs a Driver. snapshot may be nil when neither
// LoadFromGCS nor SaveToGCS is set.
func NewDriver(client BridgeClient, runner ProverRunner, snapshot *SnapshotClient, lineage chainheader.Lineage, argCfg argadapter.Config, logger zerolog.Logger) *Driver {
	return &Driver{client: client, runner: runner, snapshot: snapshot, lineage: lineage, argCfg: argCfg, logger: logger}
}

// Prove runs the full §4.9 batch loop.
func (d *Driver) Prove(ctx context.Context, params Params) error {
	if err := os.MkdirAll(params.OutputDir, 0o755); err != nil {
		return fmt.Errorf("prover: create output dir %s: %w", params.OutputDir, err)
	}

	start := params.StartHeight
	if params.LoadFromGCS && d.snapshot != nil {
		height, err := d.snapshot.DownloadRecentProvenHeight(ctx)
		if err != nil {
			return fmt.Errorf("prover: seed resume height from snapshot: %w", err)
		}
		start = height
		d.logger.Info().Uint32("height", start).Msg("resumed from remote snapshot")
	}

	batches, err := scanCompletedBatches(params.OutputDir)
	if err != nil {
		return err
	}
	if highest, ok := highestCompletedBatch(batches); ok && highest.end > start {
		start = highest.end
		d.logger.Info().Uint32("height", start).Msg("resumed from local batch directory")
	}

	var lastBatchDir string
	end := start
	for end < params.StartHeight+params.TotalBlocks {
		batchStart := end
		batchEnd := batchStart + params.StepSize
		if err := d.runBatch(ctx, params, batches, batchStart, batchEnd); err != nil {
			return fmt.Errorf("prover: batch %s: %w", batchDirName(batchStart, batchEnd), err)
		}
		batches = append(batches, batchRange{start: batchStart, end: batchEnd, dir: filepath.Join(params.OutputDir, batchDirName(batchStart, batchEnd))})
		lastBatchDir = filepath.Join(params.OutputDir, batchDirName(batchStart, batchEnd))
		end = batchEnd
	}

	if params.SaveToGCS && d.snapshot != nil && lastBatchDir != "" {
		if err := d.uploadTerminalProof(ctx, lastBatchDir, end); err != nil {
			return err
		}
	}
	return nil
}

// runBatch implements §4.9 step 3 for a single batch.
func (d *Driver) runBatch(ctx context.Context, params Params, priorBatches []batchRange, start, end uint32) error {
	batchDir := filepath.Join(params.OutputDir, batchDirName(start, end))
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		return fmt.Errorf("create batch dir: %w", err)
	}
	if !params.KeepTempFiles {
		defer d.cleanupTempFiles(batchDir)
	}

	predecessorProof, hasPredecessor := findPredecessorProof(priorBatches, start)

	chainState, err := d.client.ChainStateAt(ctx, start)
	if err != nil {
		return fmt.Errorf("query chain state at %d: %w", start, err)
	}
	headers, err := d.client.BlockHeaders(ctx, start+1, end-start)
	if err != nil {
		return fmt.Errorf("query headers [%d, %d]: %w", start+1, end, err)
	}
	sparseRoots, err := d.client.SparseRootsAt(ctx, end)
	if err != nil {
		return fmt.Errorf("query sparse roots at %d: %w", end, err)
	}

	var predecessorBytes []byte
	if hasPredecessor {
		predecessorBytes, err = os.ReadFile(predecessorProof)
		if err != nil {
			return fmt.Errorf("read predecessor proof %s: %w", predecessorProof, err)
		}
	}

	blocks := make([]argadapter.BlockInput, len(headers))
	for i, h := range headers {
		blocks[i] = argadapter.BlockInput{Header: h}
	}

	felts, err := argadapter.ToRunnerArgs(argadapter.Input{
		Lineage:        d.lineage,
		ChainState:     chainState,
		Blocks:         blocks,
		BlockMMRRoots:  sparseRoots.Roots,
		RecursiveProof: predecessorBytes,
	}, d.argCfg)
	if err != nil {
		return fmt.Errorf("serialize arguments: %w", err)
	}

	argumentsPath := filepath.Join(batchDir, argumentsFileName)
	if err := writeArgumentsFile(argumentsPath, felts); err != nil {
		return err
	}

	programInputPath := filepath.Join(batchDir, programInputFileName)
	descriptor := programInputDescriptor{
		SinglePage: true,
		Tasks: []programInputTask{{
			Type:                "Cairo1Executable",
			Path:                params.Executable,
			ProgramHashFunction: "blake",
			UserArgsFile:        argumentsPath,
		}},
	}
	if err := writeJSONFile(programInputPath, descriptor); err != nil {
		return err
	}

	d.logger.Info().Str("batch", batchDirName(start, end)).Msg("invoking prover")
	if err := d.runner.Run(ctx, params.Executable, params.ProverParamsFile, batchDir, programInputPath); err != nil {
		return fmt.Errorf("prover run: %w", err)
	}

	return nil
}

func (d *Driver) cleanupTempFiles(batchDir string) {
	for _, name := range []string{argumentsFileName, programInputFileName} {
		if err := os.Remove(filepath.Join(batchDir, name)); err != nil && !os.IsNotExist(err) {
			d.logger.Warn().Err(err).Str("file", name).Msg("failed to clean up temp file")
		}
	}
}

func (d *Driver) uploadTerminalProof(ctx context.Context, lastBatchDir string, height uint32) error {
	proofBytes, err := os.ReadFile(filepath.Join(lastBatchDir, proofFileName))
	if err != nil {
		return fmt.Errorf("prover: read terminal proof: %w", err)
	}
	chainState, err := d.client.ChainStateAt(ctx, height)
	if err != nil {
		return fmt.Errorf("prover: query terminal chain state: %w", err)
	}

	if err := d.snapshot.UploadRecentProof(ctx, Snapshot{ChainState: chainState, Proof: proofBytes}); err != nil {
		return err
	}
	return d.snapshot.UploadRecentProvenHeight(ctx, height)
}

func writeArgumentsFile(path string, felts []argadapter.Felt) error {
	strs := make([]string, len(felts))
	for i, f := range felts {
		strs[i] = f.String()
	}
	return writeJSONFile(path, strs)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("prover: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("prover: write %s: %w", path, err)
	}
	return nil
}
