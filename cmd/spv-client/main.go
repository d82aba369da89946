// Command spv-client is the reference light-client driver of §6:
// `fetch` retrieves a compressed SPV proof for a transaction from a
// bridge-node's RPC surface and saves it to disk; `verify` checks a
// saved proof against §4.8's verifier contract.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/config"
	"github.com/chainbridge/powbridge/internal/logging"
	"github.com/chainbridge/powbridge/internal/spvclient"
	"github.com/chainbridge/powbridge/internal/verifier"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "spv-client: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "spv-client",
		Short:         "Fetch and verify compressed SPV proofs from a bridge-node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(), newVerifyCmd())
	return root
}

func newFetchCmd() *cobra.Command {
	var (
		configFile       string
		bridgeRPCHost    string
		txid             string
		proofPath        string
		verifyAfter      bool
		dev              bool
		verifyingKeyFile string
		logLevel         string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a transaction's compressed SPV proof and save it to --proof-path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if txid == "" || proofPath == "" {
				return fmt.Errorf("fetch requires --txid and --proof-path")
			}

			cfg, err := config.LoadSPVClientConfig(configFile)
			if err != nil {
				return err
			}
			if bridgeRPCHost != "" {
				cfg.BridgeRPCHost = bridgeRPCHost
			}
			cfg.TxID = txid
			cfg.ProofPath = proofPath
			cfg.Verify = verifyAfter
			if dev {
				cfg.Dev = true
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.NewZerolog(cfg.LogLevel, true)

			client := spvclient.New(cfg.BridgeRPCHost, cfg.RPCTimeout)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RPCTimeout)
			defer cancel()

			body, err := client.FetchCompressedProof(ctx, cfg.TxID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(cfg.ProofPath, body, 0o644); err != nil {
				return fmt.Errorf("spv-client: write %s: %w", cfg.ProofPath, err)
			}
			logger.Info().Str("txid", cfg.TxID).Str("proof_path", cfg.ProofPath).Msg("fetched compressed SPV proof")

			if !cfg.Verify {
				return nil
			}
			return verifyProofFile(cfg.ProofPath, cfg.Dev, verifyingKeyFile, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "optional YAML config file")
	flags.StringVar(&bridgeRPCHost, "bridge-rpc-host", "", "bridge-node read-only RPC base URL")
	flags.StringVar(&txid, "txid", "", "transaction id to fetch a compressed SPV proof for")
	flags.StringVar(&proofPath, "proof-path", "", "file path the fetched proof is written to")
	flags.BoolVar(&verifyAfter, "verify", false, "verify the fetched proof immediately after saving it")
	flags.BoolVar(&dev, "dev", false, "relax chain-proof/block-proof checks for local development chains")
	flags.StringVar(&verifyingKeyFile, "verifying-key-file", "", "groth16 verifying key file, required with --verify")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func newVerifyCmd() *cobra.Command {
	var (
		configFile       string
		proofPath        string
		dev              bool
		verifyingKeyFile string
		logLevel         string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a previously fetched compressed SPV proof",
		RunE: func(cmd *cobra.Command, args []string) error {
			if proofPath == "" {
				return fmt.Errorf("verify requires --proof-path")
			}

			cfg, err := config.LoadSPVClientConfig(configFile)
			if err != nil {
				return err
			}
			cfg.ProofPath = proofPath
			cfg.Verify = true
			if dev {
				cfg.Dev = true
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.NewZerolog(cfg.LogLevel, true)
			return verifyProofFile(cfg.ProofPath, cfg.Dev, verifyingKeyFile, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "optional YAML config file")
	flags.StringVar(&proofPath, "proof-path", "", "file path of a previously fetched proof")
	flags.BoolVar(&dev, "dev", false, "relax chain-proof/block-proof checks for local development chains")
	flags.StringVar(&verifyingKeyFile, "verifying-key-file", "", "groth16 verifying key file")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func verifyProofFile(proofPath string, dev bool, verifyingKeyFile string, logger zerolog.Logger) error {
	if verifyingKeyFile == "" {
		return fmt.Errorf("spv-client: --verifying-key-file is required to verify a proof")
	}

	body, err := os.ReadFile(proofPath)
	if err != nil {
		return fmt.Errorf("spv-client: read %s: %w", proofPath, err)
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	vkFile, err := os.Open(verifyingKeyFile)
	if err != nil {
		return fmt.Errorf("spv-client: open verifying key %s: %w", verifyingKeyFile, err)
	}
	defer vkFile.Close()
	if _, err := vk.ReadFrom(vkFile); err != nil {
		return fmt.Errorf("spv-client: decode verifying key: %w", err)
	}

	proof, err := spvclient.Decode(body, vk)
	if err != nil {
		return err
	}

	v := verifier.New(verifier.DefaultConfig(), chainheader.BitcoinLineage, verifier.GnarkVerifier{})
	if err := v.Verify(proof, dev, verifier.Options{}); err != nil {
		return fmt.Errorf("spv-client: proof rejected: %w", err)
	}

	logger.Info().Uint32("block_height", proof.BlockHeight).Msg("compressed SPV proof verified")
	result, _ := json.Marshal(struct {
		Verified    bool   `json:"verified"`
		BlockHeight uint32 `json:"block_height"`
	}{Verified: true, BlockHeight: proof.BlockHeight})
	fmt.Fprintln(os.Stdout, string(result))
	return nil
}
