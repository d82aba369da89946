// Package config loads the three CLI entry points' configuration the
// way pkg/config/config.go does in the teacher: struct defaults, then
// an optional YAML file, then environment variables (which override
// both), with a Validate method that accumulates every missing required
// field into one error instead of failing on the first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BridgeNodeConfig is the `bridge-node` CLI's configuration (§6 CLI
// surface): full-node connection, MMR persistence, and RPC listen
// settings.
type BridgeNodeConfig struct {
	RPCHost      string `yaml:"rpc_host"`
	BitcoinRPC   string `yaml:"bitcoin_rpc"`
	UserPwd      string `yaml:"userpwd"`
	MMRDBPath    string `yaml:"mmr_db_path"`
	MMRRootsDir  string `yaml:"mmr_roots_dir"`
	MMRShardSize int    `yaml:"mmr_shard_size"`
	MMRBlockLag  uint32 `yaml:"mmr_block_lag"`
	LogLevel     string `yaml:"log_level"`
}

// DefaultBridgeNodeConfig matches the teacher's "safe defaults, no
// default for anything security- or connectivity-sensitive" split.
func DefaultBridgeNodeConfig() BridgeNodeConfig {
	return BridgeNodeConfig{
		RPCHost:      ":8080",
		MMRDBPath:    "./data/bridge.db",
		MMRRootsDir:  "./data/mmr-roots",
		MMRShardSize: 4096,
		MMRBlockLag:  1,
		LogLevel:     "info",
	}
}

// LoadBridgeNodeConfig builds a BridgeNodeConfig from defaults,
// an optional YAML overlay, then environment variables, in that
// ascending precedence order: an environment variable that is set
// overrides the YAML value. CLI flags, the highest-precedence layer,
// are applied by the caller after Load returns, by assigning over the
// returned struct's fields.
func LoadBridgeNodeConfig(yamlPath string) (BridgeNodeConfig, error) {
	cfg := DefaultBridgeNodeConfig()
	if err := overlayYAML(yamlPath, &cfg); err != nil {
		return BridgeNodeConfig{}, err
	}

	cfg.RPCHost = getEnv("RPC_HOST", cfg.RPCHost)
	cfg.BitcoinRPC = getEnv("BITCOIN_RPC", cfg.BitcoinRPC)
	cfg.UserPwd = getEnv("BITCOIN_RPC_USERPWD", cfg.UserPwd)
	cfg.MMRDBPath = getEnv("MMR_DB_PATH", cfg.MMRDBPath)
	cfg.MMRRootsDir = getEnv("MMR_ROOTS_DIR", cfg.MMRRootsDir)
	cfg.MMRShardSize = getEnvInt("MMR_SHARD_SIZE", cfg.MMRShardSize)
	cfg.MMRBlockLag = uint32(getEnvInt("MMR_BLOCK_LAG", int(cfg.MMRBlockLag)))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	return cfg, nil
}

// Validate reports every missing required field at once, teacher
// style (pkg/config/config.go's Validate accumulates a []string
// before returning a single joined error).
func (c BridgeNodeConfig) Validate() error {
	var problems []string
	if c.BitcoinRPC == "" {
		problems = append(problems, "bitcoin_rpc (--bitcoin-rpc / BITCOIN_RPC) is required")
	}
	if c.UserPwd == "" {
		problems = append(problems, "userpwd (--userpwd / BITCOIN_RPC_USERPWD) is required")
	}
	if c.MMRDBPath == "" {
		problems = append(problems, "mmr_db_path (--mmr-db-path / MMR_DB_PATH) is required")
	}
	if c.MMRShardSize <= 0 {
		problems = append(problems, "mmr_shard_size must be positive")
	}
	return joinProblems("bridge-node", problems)
}

// ProverConfig is the `prover prove` CLI's configuration (§6 CLI
// surface, §4.9's Params).
type ProverConfig struct {
	LoadFromGCS      bool   `yaml:"load_from_gcs"`
	SaveToGCS        bool   `yaml:"save_to_gcs"`
	GCSBucket        string `yaml:"gcs_bucket"`
	TotalBlocks      uint32 `yaml:"total_blocks"`
	StepSize         uint32 `yaml:"step_size"`
	OutputDir        string `yaml:"output_dir"`
	Executable       string `yaml:"executable"`
	ProverParamsFile string `yaml:"prover_params_file"`
	KeepTempFiles    bool   `yaml:"keep_temp_files"`
	BridgeRPCHost    string `yaml:"bridge_rpc_host"`
	RPCTimeout       time.Duration `yaml:"rpc_timeout"`
	LogLevel         string `yaml:"log_level"`
}

// DefaultProverConfig mirrors internal/prover's own DefaultConfig-style
// defaults (step size and output directory chosen for a single-machine
// development run).
func DefaultProverConfig() ProverConfig {
	return ProverConfig{
		StepSize:   16,
		OutputDir:  "./data/proofs",
		RPCTimeout: 30 * time.Second,
		LogLevel:   "info",
	}
}

// LoadProverConfig builds a ProverConfig the same way
// LoadBridgeNodeConfig does: defaults, YAML overlay, then environment.
func LoadProverConfig(yamlPath string) (ProverConfig, error) {
	cfg := DefaultProverConfig()
	if err := overlayYAML(yamlPath, &cfg); err != nil {
		return ProverConfig{}, err
	}

	cfg.LoadFromGCS = getEnvBool("PROVER_LOAD_FROM_GCS", cfg.LoadFromGCS)
	cfg.SaveToGCS = getEnvBool("PROVER_SAVE_TO_GCS", cfg.SaveToGCS)
	cfg.GCSBucket = getEnv("PROVER_GCS_BUCKET", cfg.GCSBucket)
	cfg.TotalBlocks = uint32(getEnvInt("PROVER_TOTAL_BLOCKS", int(cfg.TotalBlocks)))
	cfg.StepSize = uint32(getEnvInt("PROVER_STEP_SIZE", int(cfg.StepSize)))
	cfg.OutputDir = getEnv("PROVER_OUTPUT_DIR", cfg.OutputDir)
	cfg.Executable = getEnv("PROVER_EXECUTABLE", cfg.Executable)
	cfg.ProverParamsFile = getEnv("PROVER_PARAMS_FILE", cfg.ProverParamsFile)
	cfg.KeepTempFiles = getEnvBool("PROVER_KEEP_TEMP_FILES", cfg.KeepTempFiles)
	cfg.BridgeRPCHost = getEnv("BRIDGE_RPC_HOST", cfg.BridgeRPCHost)
	cfg.RPCTimeout = getEnvDuration("PROVER_RPC_TIMEOUT", cfg.RPCTimeout)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	return cfg, nil
}

// Validate reports every missing required field at once.
func (c ProverConfig) Validate() error {
	var problems []string
	if c.BridgeRPCHost == "" {
		problems = append(problems, "bridge_rpc_host (--bridge-rpc-host / BRIDGE_RPC_HOST) is required")
	}
	if c.Executable == "" {
		problems = append(problems, "executable (--executable / PROVER_EXECUTABLE) is required")
	}
	if c.OutputDir == "" {
		problems = append(problems, "output_dir (--output-dir / PROVER_OUTPUT_DIR) is required")
	}
	if c.StepSize == 0 {
		problems = append(problems, "step_size must be positive")
	}
	if (c.LoadFromGCS || c.SaveToGCS) && c.GCSBucket == "" {
		problems = append(problems, "gcs_bucket is required when load_from_gcs or save_to_gcs is set")
	}
	return joinProblems("prover", problems)
}

// SPVClientConfig is the `spv-client fetch`/`spv-client verify` CLI's
// configuration (§6 CLI surface).
type SPVClientConfig struct {
	BridgeRPCHost string        `yaml:"bridge_rpc_host"`
	RPCTimeout    time.Duration `yaml:"rpc_timeout"`
	TxID          string        `yaml:"txid"`
	ProofPath     string        `yaml:"proof_path"`
	Verify        bool          `yaml:"verify"`
	Dev           bool          `yaml:"dev"`
	LogLevel      string        `yaml:"log_level"`
}

// DefaultSPVClientConfig mirrors the bridge-node/prover default style.
func DefaultSPVClientConfig() SPVClientConfig {
	return SPVClientConfig{RPCTimeout: 30 * time.Second, LogLevel: "info"}
}

// LoadSPVClientConfig builds a SPVClientConfig from defaults, an
// optional YAML overlay, then environment variables.
func LoadSPVClientConfig(yamlPath string) (SPVClientConfig, error) {
	cfg := DefaultSPVClientConfig()
	if err := overlayYAML(yamlPath, &cfg); err != nil {
		return SPVClientConfig{}, err
	}

	cfg.BridgeRPCHost = getEnv("BRIDGE_RPC_HOST", cfg.BridgeRPCHost)
	cfg.RPCTimeout = getEnvDuration("SPV_CLIENT_RPC_TIMEOUT", cfg.RPCTimeout)
	cfg.Dev = getEnvBool("SPV_CLIENT_DEV", cfg.Dev)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	return cfg, nil
}

// Validate reports every missing required field at once. TxID and
// ProofPath are deliberately excluded: those are always supplied as
// required CLI flags on the fetch/verify subcommands themselves, never
// defaulted or environment-sourced.
func (c SPVClientConfig) Validate() error {
	var problems []string
	if c.BridgeRPCHost == "" && !c.Verify {
		problems = append(problems, "bridge_rpc_host (--bridge-rpc-host / BRIDGE_RPC_HOST) is required for fetch")
	}
	return joinProblems("spv-client", problems)
}

func joinProblems(component string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%s configuration invalid:\n  - %s", component, strings.Join(problems, "\n  - "))
}

// overlayYAML unmarshals path's contents over dst's existing field
// values when path is non-empty, leaving dst untouched (not an error)
// when no file was given -- the YAML layer is always optional.
func overlayYAML(path string, dst any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
