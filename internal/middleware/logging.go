package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"media-explorer/internal/logging"
)

// LoggingConfig holds configuration for the request logging middleware
type LoggingConfig struct {
	// SkipPaths are path prefixes that are never logged
	SkipPaths []string
	// SlowThreshold promotes successful requests slower than this to info. Zero disables.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns a sensible default configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{},
		SlowThreshold: 2 * time.Second,
	}
}

// Logger returns RoundTripper middleware that logs one line per outbound request:
//
//	date time method uri-stem uri-query status time-taken directory
//
// Successful requests log at debug, slow ones at info, and transport errors
// or 5xx responses at warn.
func Logger(config LoggingConfig) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if shouldSkip(r.URL.Path, config) {
				return next.RoundTrip(r)
			}

			start := time.Now()
			resp, err := next.RoundTrip(r)
			duration := time.Since(start)

			status := "-"
			if resp != nil {
				status = fmt.Sprintf("%d", resp.StatusCode)
			}
			line := formatLine(r, status, duration)

			switch {
			case err != nil:
				logging.Warn("%s error=%s", line, sanitizeLogField(err.Error()))
			case resp.StatusCode >= http.StatusInternalServerError:
				logging.Warn("%s", line)
			case config.SlowThreshold > 0 && duration > config.SlowThreshold:
				logging.Info("%s (slow)", line)
			default:
				logging.Debug("%s", line)
			}

			return resp, err
		})
	}
}

func formatLine(r *http.Request, status string, duration time.Duration) string {
	now := time.Now().UTC()

	method := sanitizeLogField(r.Method)
	uriStem := sanitizeLogField(r.URL.Path)

	uriQuery := sanitizeLogField(r.URL.RawQuery)
	if uriQuery == "" {
		uriQuery = "-"
	}

	directory := sanitizeLogField(r.Header.Get("X-Directory"))
	if directory == "" {
		directory = "-"
	} else {
		directory = escapeW3CField(directory)
	}

	return fmt.Sprintf("%s %s %s %s %s %s %d %s",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		method,
		uriStem,
		uriQuery,
		status,
		duration.Milliseconds(),
		directory,
	)
}

// sanitizeLogField removes control characters that could be used for log injection.
// This includes newlines, carriage returns, tabs, null bytes, and ANSI escape sequences.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r == '\x00':
			continue
		case r == '\x1b':
			continue
		case r < 0x20 && r != '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// escapeW3CField quotes a field containing spaces, tabs or quotes.
func escapeW3CField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		s = strings.ReplaceAll(s, "\"", "\"\"")
		return "\"" + s + "\""
	}
	return s
}
