// Package metrics provides Prometheus instrumentation for the media-explorer client.
//
// All metrics are prefixed with "media_explorer_" and registered with the default
// registry through promauto, so importing the package is enough to expose them
// from any promhttp handler.
//
// # Metric Categories
//
// ## Remote API Metrics
//
// Outbound requests to the indexing service, recorded by the middleware package:
//   - APIRequestsTotal: Counter by method, normalized path and status
//   - APIRequestDuration: Histogram by method and normalized path
//   - APIRequestsInFlight: Gauge of outstanding requests
//   - APIRateLimitWaitDuration: Histogram of time spent waiting on the limiter
//
// ## Paginated Cache Metrics
//
// Reads and batch fetches, labelled by cache name. Recorded through CacheObserver:
//   - CacheReadsTotal: Counter by result (hit, miss, out_of_range)
//   - CacheBatchFetchesTotal: Counter by status (success, error, stale)
//   - CacheBatchFetchDuration: Histogram of batch fetch duration
//   - CacheBatchesInFlight: Gauge of outstanding batch fetches
//   - CacheBackoffSkipsTotal: Counter of reads suppressed by batch backoff
//   - CacheInitializationsTotal: Counter of provider switches by status
//
// ## Status Poller Metrics
//
//   - PollerPollsTotal: Counter by status (success, error, discarded)
//   - PollerPolling: Gauge, 1 while a poll chain is active
//   - PollerDirectories: Gauge of tracked directories by state
//
// ## History and Suggestion Metrics
//
//   - HistoryPushesTotal: Counter by kind (query, semantic)
//   - HistoryBackTotal: Counter of go-back navigations
//   - SuggestionRequestsTotal, SuggestionResults
//
// ## Retry Metrics
//
//   - RetryAttempts, RetrySuccess, RetryFailures: Counters by operation
//
// # Collector
//
// Collector samples a StatsProvider (normally the session) on an interval and
// publishes the session gauges. Start it after the session is constructed and
// Stop it during shutdown:
//
//	collector := metrics.NewCollector(sess, 15*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Initialization
//
// InitializeMetrics pre-populates label combinations so dashboards see zero
// values before the first event.
package metrics
