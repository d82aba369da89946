package nodeclient

import "time"

// Config holds the connection and retry parameters for an HTTPClient,
// following the teacher's flat config-struct convention (MaxRetries,
// RetryDelay, Timeout fields alongside connection target — see
// accumulate-lite-client-2's ProofConfig).
type Config struct {
	Endpoint string
	User     string
	Password string

	// RequestTimeout bounds a single RPC round trip (§5 Timeouts).
	RequestTimeout time.Duration
	// MaxRetries bounds the number of retries for transport and
	// 5xx-class errors; application errors (4xx, parse failures) never
	// retry (§5 Timeouts, §7 Error Handling).
	MaxRetries int
	// RetryBaseDelay is the first backoff delay; each subsequent retry
	// doubles it (exponential backoff, §5 Timeouts).
	RetryBaseDelay time.Duration
	// PollInterval is how often WaitForBlockHeader re-checks the tip
	// height while waiting for lag to clear.
	PollInterval time.Duration
}

// DefaultConfig returns reasonable defaults for a Bitcoin/Zcash Core
// JSON-RPC endpoint reachable over a local or private network link.
func DefaultConfig(endpoint, user, password string) Config {
	return Config{
		Endpoint:       endpoint,
		User:           user,
		Password:       password,
		RequestTimeout: 10 * time.Second,
		MaxRetries:     5,
		RetryBaseDelay: 250 * time.Millisecond,
		PollInterval:   2 * time.Second,
	}
}
