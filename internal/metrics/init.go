package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(caches ...string) {
	for _, cache := range caches {
		for _, result := range []string{"hit", "miss", "out_of_range"} {
			CacheReadsTotal.WithLabelValues(cache, result)
		}
		for _, status := range []string{"success", "error", "stale"} {
			CacheBatchFetchesTotal.WithLabelValues(cache, status)
		}
		for _, status := range []string{"success", "error", "stale"} {
			CacheInitializationsTotal.WithLabelValues(cache, status)
		}
		CacheBatchFetchDuration.WithLabelValues(cache)
		CacheBatchesInFlight.WithLabelValues(cache)
		CacheBackoffSkipsTotal.WithLabelValues(cache)
	}

	for _, status := range []string{"success", "error", "discarded"} {
		PollerPollsTotal.WithLabelValues(status)
	}
	for _, state := range []string{"ready", "failed", "initializing"} {
		PollerDirectories.WithLabelValues(state)
	}

	for _, kind := range []string{"query", "semantic"} {
		HistoryPushesTotal.WithLabelValues(kind)
	}

	for _, op := range []string{"list_directories", "refresh_directories"} {
		RetryAttempts.WithLabelValues(op)
		RetrySuccess.WithLabelValues(op)
		RetryFailures.WithLabelValues(op)
	}

	for _, op := range []string{"get", "set"} {
		for _, status := range []string{"success", "error"} {
			SettingsQueryTotal.WithLabelValues(op, status)
		}
		SettingsQueryDuration.WithLabelValues(op)
	}
}
