package metrics

import "time"

// CacheObserver records paginated cache activity into the Prometheus
// collectors declared in metrics.go. It satisfies pagination.Observer; the
// interface lives in the pagination package so that package stays free of
// Prometheus.
type CacheObserver struct {
	name string
}

// NewCacheObserver creates an observer whose samples carry the given cache label.
func NewCacheObserver(name string) *CacheObserver {
	return &CacheObserver{name: name}
}

func (o *CacheObserver) ObserveRead(result string) {
	CacheReadsTotal.WithLabelValues(o.name, result).Inc()
}

func (o *CacheObserver) ObserveFetchStarted() {
	CacheBatchesInFlight.WithLabelValues(o.name).Inc()
}

func (o *CacheObserver) ObserveFetchFinished(duration time.Duration, stale bool, err error) {
	CacheBatchesInFlight.WithLabelValues(o.name).Dec()
	CacheBatchFetchDuration.WithLabelValues(o.name).Observe(duration.Seconds())
	CacheBatchFetchesTotal.WithLabelValues(o.name, fetchStatus(stale, err)).Inc()
}

func (o *CacheObserver) ObserveBackoffSkip() {
	CacheBackoffSkipsTotal.WithLabelValues(o.name).Inc()
}

func (o *CacheObserver) ObserveInitialize(stale bool, err error) {
	CacheInitializationsTotal.WithLabelValues(o.name, fetchStatus(stale, err)).Inc()
}

func fetchStatus(stale bool, err error) string {
	switch {
	case stale:
		return "stale"
	case err != nil:
		return "error"
	default:
		return "success"
	}
}
