package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Remote API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_api_requests_total",
			Help: "Total number of requests sent to the indexing service",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_explorer_api_request_duration_seconds",
			Help:    "Round trip duration of requests to the indexing service",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	APIRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_explorer_api_requests_in_flight",
			Help: "Number of requests to the indexing service currently outstanding",
		},
	)

	APIRateLimitWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_explorer_api_rate_limit_wait_seconds",
			Help:    "Time spent waiting on the outbound request limiter",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

// Paginated cache metrics
var (
	CacheReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_cache_reads_total",
			Help: "Total number of index reads against a paginated cache",
		},
		[]string{"cache", "result"}, // "hit", "miss", "out_of_range"
	)

	CacheBatchFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_cache_batch_fetches_total",
			Help: "Total number of batch fetches issued by a paginated cache",
		},
		[]string{"cache", "status"}, // "success", "error", "stale"
	)

	CacheBatchFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_explorer_cache_batch_fetch_duration_seconds",
			Help:    "Duration of batch fetches issued by a paginated cache",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cache"},
	)

	CacheBatchesInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_explorer_cache_batches_in_flight",
			Help: "Number of batch fetches currently outstanding",
		},
		[]string{"cache"},
	)

	CacheBackoffSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_cache_backoff_skips_total",
			Help: "Reads that did not refetch a failed batch because its backoff had not elapsed",
		},
		[]string{"cache"},
	)

	CacheInitializationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_cache_initializations_total",
			Help: "Total number of cache initializations against a new provider",
		},
		[]string{"cache", "status"},
	)
)

// Status poller metrics
var (
	PollerPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_poller_polls_total",
			Help: "Total number of directory status polls",
		},
		[]string{"status"}, // "success", "error", "discarded"
	)

	PollerPolling = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_explorer_poller_polling",
			Help: "Whether the status poller is active (1 = polling, 0 = idle)",
		},
	)

	PollerDirectories = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_explorer_poller_directories",
			Help: "Tracked directories by initialization state",
		},
		[]string{"state"}, // "ready", "failed", "initializing"
	)
)

// History and suggestion metrics
var (
	HistoryPushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_history_pushes_total",
			Help: "Total number of actions pushed onto the navigation history",
		},
		[]string{"kind"}, // "query", "semantic"
	)

	HistoryBackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_explorer_history_back_total",
			Help: "Total number of go-back navigations",
		},
	)

	SuggestionRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_explorer_suggestion_requests_total",
			Help: "Total number of tag suggestion lookups",
		},
	)

	SuggestionResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_explorer_suggestion_results",
			Help:    "Number of suggestions returned per lookup",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)
)

// Retry metrics
var (
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_retry_attempts_total",
			Help: "Total number of retries of remote operations",
		},
		[]string{"operation"},
	)

	RetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_retry_success_total",
			Help: "Remote operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	RetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_retry_failures_total",
			Help: "Remote operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)
)

// Session gauges, refreshed by the Collector
var (
	SessionCachedItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_explorer_session_cached_items",
			Help: "Items currently present in the viewer cache",
		},
	)

	SessionTotalItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_explorer_session_total_items",
			Help: "Total items reported by the current data source",
		},
	)

	SessionHistoryDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_explorer_session_history_depth",
			Help: "Current depth of the navigation history",
		},
	)

	SessionSimilarityCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_explorer_session_similarity_cache_entries",
			Help: "Entries in the similarity result memo",
		},
	)
)

// Settings store metrics
var (
	SettingsQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_explorer_settings_queries_total",
			Help: "Settings store operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	SettingsQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_explorer_settings_query_duration_seconds",
			Help:    "Settings store operation latency",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"operation"},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_explorer_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
