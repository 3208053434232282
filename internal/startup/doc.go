// Package startup handles client initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded by [LoadConfig] from environment variables, optionally
// layered over a YAML file named by CONFIG_FILE. The environment always wins.
//
//   - SERVER_URL: Base URL of the indexing service (default: http://127.0.0.1:8000)
//   - POLL_INTERVAL: Delay between directory status polls (default: 1s)
//   - FETCH_LIMIT: Batch size for paginated reads (default: 100)
//   - REQUEST_TIMEOUT: Per-request timeout (default: 30s)
//   - REQUEST_RATE: Outbound requests per second, 0 disables limiting (default: 20)
//   - BATCH_BACKOFF_INITIAL, BATCH_BACKOFF_MAX: Backoff after a failed batch
//     fetch (default: 250ms, 5s). Zero disables backoff.
//   - SETTINGS_DIR: Directory holding settings.db (default: $HOME/.media-explorer)
//   - METRICS_ENABLED, METRICS_PORT: Local Prometheus endpoint (default: false, 9464)
//   - SIMILARITY_CACHE_TTL: Lifetime of memoized similarity results (default: 5m)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// The YAML keys are the lower-case forms of the variables above:
//
//	server_url: http://indexer.local:8000
//	poll_interval: 2s
//	fetch_limit: "200"
//
// # Lifecycle Logging
//
// PrintBanner, LogSettingsInit, LogSessionInit, LogServerStarted and the
// LogShutdown* helpers produce the sectioned startup and shutdown output.
package startup
