// Package middleware provides http.RoundTripper middleware for the client that
// talks to the indexing service.
//
// It includes:
//   - Outbound request logging with control-character sanitization
//   - Prometheus request metrics with path normalization
//   - Chain, which composes middleware around a base transport
package middleware
