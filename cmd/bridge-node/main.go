// Command bridge-node runs the indexer and the read-only HTTP RPC
// surface (§4.4, §6) as two long-lived cometbft-style services sharing
// one durable store.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
	"github.com/chainbridge/powbridge/internal/config"
	"github.com/chainbridge/powbridge/internal/indexer"
	"github.com/chainbridge/powbridge/internal/logging"
	"github.com/chainbridge/powbridge/internal/mmr"
	"github.com/chainbridge/powbridge/internal/nodeclient"
	"github.com/chainbridge/powbridge/internal/rpcserver"
	"github.com/chainbridge/powbridge/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridge-node: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "optional YAML config file")
		rpcHost     = flag.String("rpc-host", "", "HTTP RPC listen address, e.g. :8080")
		bitcoinRPC  = flag.String("bitcoin-rpc", "", "full-node JSON-RPC endpoint")
		userpwd     = flag.String("userpwd", "", "full-node RPC basic-auth credentials, user:password")
		mmrDBPath   = flag.String("mmr-db-path", "", "store database directory")
		mmrRootsDir = flag.String("mmr-roots-dir", "", "directory scanned for batch_<start>_to_<end>/proof.json to serve the cached recursive proof")
		mmrShard    = flag.Int("mmr-shard-size", 0, "MMR node-table shard size")
		mmrBlockLag = flag.Uint("mmr-block-lag", 0, "confirmations to wait before indexing a height")
		logLevel    = flag.String("log-level", "", "log level: debug, info, warn, error")
	)
	flag.Parse()

	cfg, err := config.LoadBridgeNodeConfig(*configFile)
	if err != nil {
		return err
	}
	if *rpcHost != "" {
		cfg.RPCHost = *rpcHost
	}
	if *bitcoinRPC != "" {
		cfg.BitcoinRPC = *bitcoinRPC
	}
	if *userpwd != "" {
		cfg.UserPwd = *userpwd
	}
	if *mmrDBPath != "" {
		cfg.MMRDBPath = *mmrDBPath
	}
	if *mmrRootsDir != "" {
		cfg.MMRRootsDir = *mmrRootsDir
	}
	if *mmrShard != 0 {
		cfg.MMRShardSize = *mmrShard
	}
	if *mmrBlockLag != 0 {
		cfg.MMRBlockLag = uint32(*mmrBlockLag)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	user, password := splitUserpwd(cfg.UserPwd)
	logger := logging.NewZerolog(cfg.LogLevel, true)

	dbDir := filepath.Dir(cfg.MMRDBPath)
	dbName := filepath.Base(cfg.MMRDBPath)
	db, err := dbm.NewGoLevelDB(dbName, dbDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	st := store.Open(db)

	client, err := nodeclient.NewHTTPClient(nodeclient.DefaultConfig(cfg.BitcoinRPC, user, password), chainheader.BitcoinLineage)
	if err != nil {
		return fmt.Errorf("dial full node: %w", err)
	}
	defer client.Close()

	idx := indexer.New(
		logging.NewCometBridge(logger, "indexer"),
		client, st, chainstate.BitcoinMainnetParams(),
		indexer.Config{Lineage: chainheader.BitcoinLineage, Lag: cfg.MMRBlockLag},
	)

	proofSource := rpcserver.NewLocalProofSource(cfg.MMRRootsDir)
	rpcCfg := rpcserver.DefaultConfig()
	rpcCfg.ListenAddr = cfg.RPCHost
	srv := rpcserver.New(
		logging.NewCometBridge(logger, "rpc"),
		st, client, mmr.Blake2sHasher{}, proofSource, chainheader.BitcoinLineage, rpcCfg,
	)

	if err := idx.Start(); err != nil {
		return fmt.Errorf("start indexer: %w", err)
	}
	defer idx.Stop()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start rpc server: %w", err)
	}
	defer srv.Stop()

	logger.Info().Str("rpc_host", cfg.RPCHost).Msg("bridge-node running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")
	return nil
}

func splitUserpwd(s string) (user, password string) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}
