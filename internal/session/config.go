package session

import (
	"time"

	"media-explorer/internal/retry"
	"media-explorer/internal/startup"
)

// Config tunes a Session.
type Config struct {
	// FetchLimit is the page size of list and search requests.
	FetchLimit int
	// PollInterval is the delay between directory status polls.
	PollInterval time.Duration
	// RequestTimeout bounds each status poll.
	RequestTimeout time.Duration
	// BatchBackoff delays refetching a failed page. A zero Config refetches
	// on the next read.
	BatchBackoff retry.Config
	// StartRetry governs the initial directory listing.
	StartRetry retry.Config
	// SimilarityTTL is how long similarity results are memoized. Zero
	// disables the memo.
	SimilarityTTL time.Duration
}

// DefaultConfig returns the settings used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		FetchLimit:     100,
		PollInterval:   time.Second,
		RequestTimeout: 30 * time.Second,
		BatchBackoff: retry.Config{
			MaxRetries:     -1,
			InitialBackoff: 250 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
		},
		StartRetry:    retry.Constant(500 * time.Millisecond),
		SimilarityTTL: 5 * time.Minute,
	}
}

// ConfigFrom maps the application configuration onto a session Config.
func ConfigFrom(cfg *startup.Config) Config {
	c := DefaultConfig()
	c.FetchLimit = cfg.FetchLimit
	c.PollInterval = cfg.PollInterval
	c.RequestTimeout = cfg.RequestTimeout
	c.BatchBackoff.InitialBackoff = cfg.BatchBackoffInitial
	c.BatchBackoff.MaxBackoff = cfg.BatchBackoffMax
	c.SimilarityTTL = cfg.SimilarityCacheTTL
	return c
}
