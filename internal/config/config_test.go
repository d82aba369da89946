package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadBridgeNodeConfigAppliesDefaultsThenEnv(t *testing.T) {
	t.Setenv("BITCOIN_RPC", "http://127.0.0.1:8332")
	t.Setenv("MMR_SHARD_SIZE", "2048")

	cfg, err := LoadBridgeNodeConfig("")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8332", cfg.BitcoinRPC)
	require.Equal(t, 2048, cfg.MMRShardSize)
	require.Equal(t, "./data/bridge.db", cfg.MMRDBPath, "unset fields keep their default")
}

func TestLoadBridgeNodeConfigYAMLOverlayPrecedesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bitcoin_rpc: http://from-yaml:8332\nmmr_shard_size: 99\n"), 0o644))

	t.Setenv("MMR_SHARD_SIZE", "2048")

	cfg, err := LoadBridgeNodeConfig(path)
	require.NoError(t, err)
	require.Equal(t, "http://from-yaml:8332", cfg.BitcoinRPC, "env var unset for this field, yaml value survives")
	require.Equal(t, 2048, cfg.MMRShardSize, "env var set for this field takes precedence over yaml")
}

func TestBridgeNodeConfigValidateAccumulatesAllProblems(t *testing.T) {
	cfg := BridgeNodeConfig{}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "bitcoin_rpc")
	require.Contains(t, err.Error(), "userpwd")
	require.Contains(t, err.Error(), "mmr_db_path")
}

func TestProverConfigValidateRequiresGCSBucketWhenGCSEnabled(t *testing.T) {
	cfg := DefaultProverConfig()
	cfg.BridgeRPCHost = "http://localhost:8080"
	cfg.Executable = "/usr/local/bin/prover"
	cfg.LoadFromGCS = true

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "gcs_bucket")
}

func TestProverConfigValidatePassesWithRequiredFields(t *testing.T) {
	cfg := DefaultProverConfig()
	cfg.BridgeRPCHost = "http://localhost:8080"
	cfg.Executable = "/usr/local/bin/prover"
	require.NoError(t, cfg.Validate())
}

func TestSPVClientConfigValidateSkipsBridgeRPCForVerify(t *testing.T) {
	cfg := DefaultSPVClientConfig()
	cfg.Verify = true
	require.NoError(t, cfg.Validate())
}

func TestSPVClientConfigValidateRequiresBridgeRPCForFetch(t *testing.T) {
	cfg := DefaultSPVClientConfig()
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "bridge_rpc_host")
}

func TestOverlayYAMLIsNoOpWithoutPath(t *testing.T) {
	cfg := DefaultProverConfig()
	before := cfg
	require.NoError(t, overlayYAML("", &cfg))
	require.Equal(t, before, cfg)
}
