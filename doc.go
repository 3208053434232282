// Package main is the interactive media explorer, a terminal client for a
// local file-indexing and search service.
//
// # Application Lifecycle
//
//  1. Configuration Loading: environment variables over an optional
//     CONFIG_FILE (YAML)
//  2. Settings Store: opens the sqlite settings file in SETTINGS_DIR, or
//     falls back to in-memory settings
//  3. Session Start: lists registered directories, retrying until the
//     service answers, and opens the default directory once it is ready
//  4. Metrics: a collector samples session state; with METRICS_ENABLED a
//     local server exposes /metrics, /health, /readyz and /version
//  5. Shell: reads searches and commands from the terminal until /quit,
//     Ctrl-D or a signal
//  6. Shutdown: stops the collector, the metrics server and the session
//
// # Environment Variables
//
//   - SERVER_URL: indexing service address (default: http://127.0.0.1:8000)
//   - POLL_INTERVAL: directory status poll interval (default: 1s)
//   - FETCH_LIMIT: results per batch fetch (default: 100)
//   - REQUEST_TIMEOUT: per-request timeout (default: 30s)
//   - REQUEST_RATE: outbound requests per second, 0 disables (default: 20)
//   - BATCH_BACKOFF_INITIAL, BATCH_BACKOFF_MAX: delay before refetching a
//     failed batch (default: 250ms, 5s; 0 disables)
//   - SIMILARITY_CACHE_TTL: how long similarity results are reused (default: 5m)
//   - SETTINGS_DIR: settings database and log file (default: ~/.media-explorer)
//   - METRICS_ENABLED, METRICS_PORT: local status server (default: false, 9464)
//   - LOG_LEVEL, DEBUG: logging level
//
// While the shell owns the terminal, logs go to explorer.log in SETTINGS_DIR.
//
// # Related Packages
//
//   - [media-explorer/internal/session]: directory and viewer orchestration
//   - [media-explorer/internal/pagination]: lazily paged result cache
//   - [media-explorer/internal/poller]: directory status polling
//   - [media-explorer/internal/shell]: terminal front end
//   - [media-explorer/cmd/explorerctl]: scripting client
package main
