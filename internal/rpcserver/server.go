// Package rpcserver implements §6's read-only HTTP RPC surface: a thin
// JSON façade over the chain-state store and MMR accumulator the
// indexer commits to, plus the two full-node-backed endpoints
// (transaction Merkle branch and raw transaction bytes) the light
// client cannot get anywhere else. Grounded on the teacher's
// pkg/server handler style (manual path parsing over net/http's
// ServeMux, a small per-handler-group struct, writeJSON/writeError
// helpers) and on internal/indexer's cometbft service.BaseService
// lifecycle, generalized here from a single background task to a
// long-lived HTTP listener (SPEC_FULL.md's domain-stack table).
package rpcserver

import (
	"context"
	"net"
	"net/http"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/libs/service"

	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
	"github.com/chainbridge/powbridge/internal/mmr"
	"github.com/chainbridge/powbridge/internal/nodeclient"
	"github.com/chainbridge/powbridge/internal/store"
)

// Store is the read-only persistence contract handlers depend on: the
// union of mmr.NodeStore (to restore an ephemeral accumulator for
// proof generation) and the chain-state/header lookups §6's endpoints
// need.
type Store interface {
	mmr.NodeStore

	GetBlockHeaders(startHeight uint32, n uint32) ([]chainheader.Header, error)
	GetBlockHeight(hash chainheader.Digest) (uint32, error)
	GetChainState(height uint32) (chainstate.ChainState, error)
	GetLatestChainStateHeight() (uint32, error)
	GetMMRLeafCount() (uint64, error)
}

var _ Store = (*store.Store)(nil)

// Config bundles the listen address and request timeout for the
// http.Server OnStart constructs.
type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig matches the teacher's server defaults: generous but
// finite timeouts so a slow client cannot pin a handler goroutine
// forever.
func DefaultConfig() Config {
	return Config{ListenAddr: ":8080", ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second}
}

// Server is a cometbft-style Service wrapping an http.Server over §6's
// handler set.
type Server struct {
	service.BaseService

	cfg      Config
	handlers *handlers
	http     *http.Server
}

// New constructs a Server. store is read-only; client serves the two
// full-node-backed endpoints; proofSource serves the cached recursive
// proof. The returned value must be started with Start() before it
// listens.
func New(logger cmtlog.Logger, st Store, client nodeclient.Client, hasher mmr.Hasher, proofSource ProofSource, lineage chainheader.Lineage, cfg Config) *Server {
	s := &Server{
		cfg: cfg,
		handlers: &handlers{
			store: st, client: client, hasher: hasher, proofSource: proofSource, lineage: lineage,
		},
	}
	s.BaseService = *service.NewBaseService(logger, "RPCServer", s)
	return s
}

// OnStart implements service.Service: it binds the listener and serves
// in a background goroutine.
func (s *Server) OnStart() error {
	mux := http.NewServeMux()
	s.handlers.register(mux)
	s.http = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	ln, err := newListener(s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.Logger.Error("rpc server exited", "err", err)
		}
	}()
	return nil
}

// OnStop implements service.Service: it gracefully shuts down the
// HTTP listener.
func (s *Server) OnStop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.Logger.Error("rpc server shutdown", "err", err)
	}
}

func newListener(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
