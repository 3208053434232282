// Package handlers serves the local status endpoints of the explorer:
// health, liveness and readiness probes, build information and Prometheus
// metrics. They are mounted on the metrics listener when METRICS_ENABLED is
// set.
package handlers
