package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"media-explorer/internal/metrics"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are paths that should not be recorded
	SkipPaths []string
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{},
	}
}

// Metrics returns RoundTripper middleware that records Prometheus metrics for
// every outbound request. Transport failures are recorded with status "error".
func Metrics(config MetricsConfig) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					return next.RoundTrip(r)
				}
			}

			metrics.APIRequestsInFlight.Inc()
			defer metrics.APIRequestsInFlight.Dec()

			start := time.Now()
			resp, err := next.RoundTrip(r)
			duration := time.Since(start).Seconds()

			path := normalizePath(r.URL.Path)
			status := "error"
			if err == nil {
				status = strconv.Itoa(resp.StatusCode)
			}

			metrics.APIRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.APIRequestDuration.WithLabelValues(r.Method, path).Observe(duration)

			return resp, err
		})
	}
}

// normalizePath normalizes the path for metrics to avoid high cardinality.
// The remote API nests at most two static segments, so anything deeper is a
// caller-supplied name such as a directory in /directory/cancel-initialization/{name}.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}

		if i > 2 {
			parts[i] = "{name}"
			return strings.Join(parts[:i+1], "/")
		}
	}

	return path
}
