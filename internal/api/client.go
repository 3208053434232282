package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"media-explorer/internal/logging"
	"media-explorer/internal/metrics"
	"media-explorer/internal/middleware"
	"media-explorer/internal/workers"

	"golang.org/x/time/rate"
)

// DirectoryHeader scopes file and access requests to one registered directory.
const DirectoryHeader = "X-Directory"

const maxErrorBody = 4 << 10

// Options configures a Client.
type Options struct {
	// BaseURL of the indexing service, e.g. http://127.0.0.1:8000.
	BaseURL string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration
	// RequestRate limits outbound requests per second. Zero disables limiting.
	RequestRate float64
	// Transport overrides the base transport. Logging and metrics middleware
	// are always layered on top.
	Transport http.RoundTripper
}

// Client is a typed client for the indexing service. It is safe for
// concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, &ValidationError{Operation: "new client", Field: "baseURL"}
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", opts.BaseURL)
	}

	conns := workers.ForIO(32)

	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxConnsPerHost = conns
		t.MaxIdleConnsPerHost = conns
		transport = t
	}

	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: middleware.Chain(transport,
				middleware.Metrics(middleware.DefaultMetricsConfig()),
				middleware.Logger(middleware.DefaultLoggingConfig()),
			),
		},
	}
	if opts.RequestRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestRate), conns)
	}

	logging.Debug("API client for %s (max %d connections, rate %v/s)", base, conns, opts.RequestRate)
	return c, nil
}

// BaseURL returns the service address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	directory string
	body      interface{}
}

func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	if c.limiter != nil {
		start := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", req.operation, err)
		}
		metrics.APIRateLimitWaitDuration.Observe(time.Since(start).Seconds())
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	if req.query != nil {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", req.operation, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", req.operation, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.directory != "" {
		httpReq.Header.Set(DirectoryHeader, req.directory)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", req.operation, ctxErr)
		}
		return &TransientError{Operation: req.operation, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{
			Operation:  req.operation,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return &TransientError{Operation: req.operation, Err: statusErr}
		}
		return statusErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &TransientError{Operation: req.operation, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
