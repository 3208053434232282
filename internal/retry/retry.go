package retry

import (
	"context"
	"errors"
	"time"

	"media-explorer/internal/logging"
	"media-explorer/internal/metrics"
)

// Config configures retry and backoff behavior for remote operations.
type Config struct {
	// MaxRetries bounds the number of retries after the first attempt.
	// A negative value retries until the context is done.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Retryable reports whether an error is worth another attempt.
	// If nil, every error is retried.
	Retryable func(error) bool
}

// DefaultConfig returns sensible defaults for short-lived remote calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// Constant returns a config that retries forever with a fixed delay.
func Constant(delay time.Duration) Config {
	return Config{
		MaxRetries:     -1,
		InitialBackoff: delay,
		MaxBackoff:     delay,
	}
}

// Enabled reports whether the config produces any delay at all.
func (c Config) Enabled() bool {
	return c.InitialBackoff > 0
}

// Delay returns the wait after the given number of consecutive failures.
// It doubles from InitialBackoff and is capped at MaxBackoff.
func (c Config) Delay(failures int) time.Duration {
	if !c.Enabled() || failures <= 0 {
		return 0
	}
	maxBackoff := c.MaxBackoff
	if maxBackoff < c.InitialBackoff {
		maxBackoff = c.InitialBackoff
	}
	backoff := c.InitialBackoff
	for i := 1; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

func (c Config) retryable(err error) bool {
	if c.Retryable == nil {
		return true
	}
	return c.Retryable(err)
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts
// MaxRetries, or ctx is done. op labels logs and metrics.
func Do(ctx context.Context, op string, config Config, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; config.MaxRetries < 0 || attempt <= config.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d", op, attempt)
				metrics.RetrySuccess.WithLabelValues(op).Inc()
			}
			return nil
		}
		lastErr = err

		// A timeout inside fn is retried; only the caller's context stops the loop.
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(err, ctxErr) {
				return err
			}
			return errors.Join(err, ctxErr)
		}
		if !config.retryable(err) {
			return err
		}

		// Don't sleep after the last attempt
		if config.MaxRetries >= 0 && attempt == config.MaxRetries {
			break
		}

		backoff := config.Delay(attempt + 1)
		metrics.RetryAttempts.WithLabelValues(op).Inc()
		logging.Debug("%s failed: %v, retrying in %v (attempt %d)", op, err, backoff, attempt+1)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}

	logging.Warn("%s failed after %d retries: %v", op, config.MaxRetries, lastErr)
	metrics.RetryFailures.WithLabelValues(op).Inc()
	return lastErr
}
