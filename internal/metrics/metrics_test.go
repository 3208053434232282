package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestAPIMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"APIRequestsTotal", APIRequestsTotal},
		{"APIRequestDuration", APIRequestDuration},
		{"APIRequestsInFlight", APIRequestsInFlight},
		{"APIRateLimitWaitDuration", APIRateLimitWaitDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestCacheMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"CacheReadsTotal", CacheReadsTotal},
		{"CacheBatchFetchesTotal", CacheBatchFetchesTotal},
		{"CacheBatchFetchDuration", CacheBatchFetchDuration},
		{"CacheBatchesInFlight", CacheBatchesInFlight},
		{"CacheBackoffSkipsTotal", CacheBackoffSkipsTotal},
		{"CacheInitializationsTotal", CacheInitializationsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestPollerAndHistoryMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"PollerPollsTotal", PollerPollsTotal},
		{"PollerPolling", PollerPolling},
		{"PollerDirectories", PollerDirectories},
		{"HistoryPushesTotal", HistoryPushesTotal},
		{"HistoryBackTotal", HistoryBackTotal},
		{"SuggestionRequestsTotal", SuggestionRequestsTotal},
		{"SuggestionResults", SuggestionResults},
		{"RetryAttempts", RetryAttempts},
		{"RetrySuccess", RetrySuccess},
		{"RetryFailures", RetryFailures},
		{"AppInfo", AppInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsDoesNotPanic(_ *testing.T) {
	InitializeMetrics("viewer", "other")
	InitializeMetrics()
}

func TestCacheObserverRead(t *testing.T) {
	obs := NewCacheObserver("observer-read")
	before := counterValue(t, CacheReadsTotal.WithLabelValues("observer-read", "hit"))

	obs.ObserveRead("hit")
	obs.ObserveRead("hit")

	after := counterValue(t, CacheReadsTotal.WithLabelValues("observer-read", "hit"))
	if after-before != 2 {
		t.Errorf("hit counter delta = %v, want 2", after-before)
	}
}

func TestCacheObserverFetchLifecycle(t *testing.T) {
	const name = "observer-fetch"
	obs := NewCacheObserver(name)

	obs.ObserveFetchStarted()
	if got := gaugeValue(t, CacheBatchesInFlight.WithLabelValues(name)); got != 1 {
		t.Errorf("in-flight = %v, want 1", got)
	}

	obs.ObserveFetchFinished(10*time.Millisecond, false, errors.New("boom"))
	if got := gaugeValue(t, CacheBatchesInFlight.WithLabelValues(name)); got != 0 {
		t.Errorf("in-flight = %v, want 0", got)
	}
	if got := counterValue(t, CacheBatchFetchesTotal.WithLabelValues(name, "error")); got != 1 {
		t.Errorf("error fetches = %v, want 1", got)
	}
}

func TestFetchStatus(t *testing.T) {
	tests := []struct {
		name  string
		stale bool
		err   error
		want  string
	}{
		{"success", false, nil, "success"},
		{"error", false, errors.New("x"), "error"},
		{"stale wins over error", true, errors.New("x"), "stale"},
		{"stale", true, nil, "stale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fetchStatus(tt.stale, tt.err); got != tt.want {
				t.Errorf("fetchStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
