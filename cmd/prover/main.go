// Command prover runs the §4.9 batch-proving driver as a one-shot
// task: `prover prove` reads committed chain state through the bridge
// node's read-only RPC surface and invokes an external STARK prover
// binary per batch.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainbridge/powbridge/internal/argadapter"
	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/config"
	"github.com/chainbridge/powbridge/internal/logging"
	"github.com/chainbridge/powbridge/internal/prover"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "prover: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd wires the §6 CLI surface with cobra/pflag -- the
// dependency already present through the teacher's own stack
// (cometbft pulls in spf13/cobra and spf13/pflag) but never imported
// by the teacher's own single-binary, subcommand-free main.go. This
// binary's one "prove" action gets its own flag set here so
// later subcommands (batch replay, dry-run) have a natural home
// without reworking the entry point.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prover",
		Short:         "Batch-prove committed chain state against a bridge-node's RPC surface",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProveCmd())
	return root
}

func newProveCmd() *cobra.Command {
	var (
		configFile       string
		bridgeRPCHost    string
		loadFromGCS      bool
		saveToGCS        bool
		gcsBucket        string
		totalBlocks      uint32
		stepSize         uint32
		startHeight      uint32
		outputDir        string
		executable       string
		proverParamsFile string
		keepTempFiles    bool
		logLevel         string
	)

	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Prove a contiguous range of blocks in fixed-size batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProve(cmd.Context(), proveFlags{
				configFile:       configFile,
				bridgeRPCHost:    bridgeRPCHost,
				loadFromGCS:      loadFromGCS,
				saveToGCS:        saveToGCS,
				gcsBucket:        gcsBucket,
				totalBlocks:      totalBlocks,
				stepSize:         stepSize,
				startHeight:      startHeight,
				outputDir:        outputDir,
				executable:       executable,
				proverParamsFile: proverParamsFile,
				keepTempFiles:    keepTempFiles,
				logLevel:         logLevel,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "optional YAML config file")
	flags.StringVar(&bridgeRPCHost, "bridge-rpc-host", "", "bridge-node read-only RPC base URL")
	flags.BoolVar(&loadFromGCS, "load-from-gcs", false, "seed the resume height from a snapshot before scanning output-dir")
	flags.BoolVar(&saveToGCS, "save-to-gcs", false, "upload the terminal proof and recent proven height on success")
	flags.StringVar(&gcsBucket, "gcs-bucket", "", "snapshot bucket used by --load-from-gcs/--save-to-gcs")
	flags.Uint32Var(&totalBlocks, "total-blocks", 0, "total number of blocks to process across this run")
	flags.Uint32Var(&stepSize, "step-size", 0, "number of blocks per batch")
	flags.Uint32Var(&startHeight, "start-height", 0, "first batch's starting height when no prior batch is found")
	flags.StringVar(&outputDir, "output-dir", "", "directory holding one batch_<start>_to_<end> subdirectory per batch")
	flags.StringVar(&executable, "executable", "", "path to the prover binary invoked per batch")
	flags.StringVar(&proverParamsFile, "prover-params-file", "", "optional extra proving-parameters argument passed to the prover binary")
	flags.BoolVar(&keepTempFiles, "keep-temp-files", false, "disable per-batch temporary file cleanup")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

type proveFlags struct {
	configFile       string
	bridgeRPCHost    string
	loadFromGCS      bool
	saveToGCS        bool
	gcsBucket        string
	totalBlocks      uint32
	stepSize         uint32
	startHeight      uint32
	outputDir        string
	executable       string
	proverParamsFile string
	keepTempFiles    bool
	logLevel         string
}

func runProve(ctx context.Context, f proveFlags) error {
	cfg, err := config.LoadProverConfig(f.configFile)
	if err != nil {
		return err
	}
	if f.bridgeRPCHost != "" {
		cfg.BridgeRPCHost = f.bridgeRPCHost
	}
	if f.loadFromGCS {
		cfg.LoadFromGCS = true
	}
	if f.saveToGCS {
		cfg.SaveToGCS = true
	}
	if f.gcsBucket != "" {
		cfg.GCSBucket = f.gcsBucket
	}
	if f.totalBlocks != 0 {
		cfg.TotalBlocks = f.totalBlocks
	}
	if f.stepSize != 0 {
		cfg.StepSize = f.stepSize
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.executable != "" {
		cfg.Executable = f.executable
	}
	if f.proverParamsFile != "" {
		cfg.ProverParamsFile = f.proverParamsFile
	}
	if f.keepTempFiles {
		cfg.KeepTempFiles = true
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewZerolog(cfg.LogLevel, true)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var snapshot *prover.SnapshotClient
	if cfg.LoadFromGCS || cfg.SaveToGCS {
		snapshot, err = prover.NewSnapshotClient(ctx, cfg.GCSBucket, "")
		if err != nil {
			return fmt.Errorf("open snapshot client: %w", err)
		}
	}

	client := prover.NewHTTPBridgeClient(cfg.BridgeRPCHost, cfg.RPCTimeout)
	driver := prover.NewDriver(client, prover.ExecRunner{}, snapshot, chainheader.BitcoinLineage, argadapter.DefaultConfig(), logger)

	params := prover.Params{
		StartHeight:      f.startHeight,
		TotalBlocks:      cfg.TotalBlocks,
		StepSize:         cfg.StepSize,
		OutputDir:        cfg.OutputDir,
		Executable:       cfg.Executable,
		ProverParamsFile: cfg.ProverParamsFile,
		KeepTempFiles:    cfg.KeepTempFiles,
		LoadFromGCS:      cfg.LoadFromGCS,
		SaveToGCS:        cfg.SaveToGCS,
		GCSBucket:        cfg.GCSBucket,
	}

	start := time.Now()
	if err := driver.Prove(ctx, params); err != nil {
		return fmt.Errorf("prove: %w", err)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Uint32("total_blocks", cfg.TotalBlocks).Msg("prover run complete")
	return nil
}
