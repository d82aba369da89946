// Package logging bridges this module's ambient zerolog logger to
// cometbft/libs/log.Logger, the interface service.BaseService (and
// therefore internal/indexer and internal/rpcserver) requires. The
// rest of the bridge only ever constructs and configures a
// zerolog.Logger directly (SPEC_FULL.md's ambient-stack "one logger
// per long-lived task, each tagged with a component field"); this
// package is the one seam where that logger is handed to a
// cometbft-shaped component.
package logging

import (
	"os"
	"strings"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/rs/zerolog"
)

// NewZerolog constructs the module's base zerolog.Logger, writing
// human-readable console output in development and JSON otherwise,
// gated by level.
func NewZerolog(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// CometBridge adapts a zerolog.Logger to cometbft/libs/log.Logger.
type CometBridge struct {
	logger zerolog.Logger
}

var _ cmtlog.Logger = CometBridge{}

// NewCometBridge wraps logger, tagging every record with component
// (indexer/rpc/prover -- SPEC_FULL.md's "component field" convention).
func NewCometBridge(logger zerolog.Logger, component string) CometBridge {
	return CometBridge{logger: logger.With().Str("component", component).Logger()}
}

func (b CometBridge) Debug(msg string, keyvals ...interface{}) {
	withKeyvals(b.logger.Debug(), keyvals).Msg(msg)
}

func (b CometBridge) Info(msg string, keyvals ...interface{}) {
	withKeyvals(b.logger.Info(), keyvals).Msg(msg)
}

func (b CometBridge) Error(msg string, keyvals ...interface{}) {
	withKeyvals(b.logger.Error(), keyvals).Msg(msg)
}

// With returns a new Logger with keyvals attached to every subsequent
// record, matching cometbft/libs/log.Logger's With contract.
func (b CometBridge) With(keyvals ...interface{}) cmtlog.Logger {
	ctx := b.logger.With()
	for i := 0; i+1 < len(keyvals); i += 2 {
		ctx = ctx.Interface(keyString(keyvals[i]), keyvals[i+1])
	}
	return CometBridge{logger: ctx.Logger()}
}

func withKeyvals(e *zerolog.Event, keyvals []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keyvals); i += 2 {
		e = e.Interface(keyString(keyvals[i]), keyvals[i+1])
	}
	return e
}

func keyString(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return "field"
}
