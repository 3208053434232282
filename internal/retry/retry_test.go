package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.Retryable != nil {
		t.Error("Retryable should be nil by default")
	}
}

func TestConstant(t *testing.T) {
	config := Constant(500 * time.Millisecond)

	if config.MaxRetries >= 0 {
		t.Errorf("MaxRetries = %d, want negative", config.MaxRetries)
	}
	for failures := 1; failures <= 5; failures++ {
		if got := config.Delay(failures); got != 500*time.Millisecond {
			t.Errorf("Delay(%d) = %v, want 500ms", failures, got)
		}
	}
}

func TestDelay(t *testing.T) {
	config := Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{20, time.Second},
	}

	for _, tt := range tests {
		if got := config.Delay(tt.failures); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func TestZeroConfigDisabled(t *testing.T) {
	var config Config
	if config.Enabled() {
		t.Error("zero Config should be disabled")
	}
	if got := config.Delay(3); got != 0 {
		t.Errorf("Delay(3) = %v, want 0", got)
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	config := Config{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	attempts := 0

	err := Do(context.Background(), "test_success", config, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	config := Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
	attempts := 0
	want := errors.New("always")

	err := Do(context.Background(), "test_exhaust", config, func(context.Context) error {
		attempts++
		return want
	})

	if !errors.Is(err, want) {
		t.Errorf("Do() error = %v, want %v", err, want)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	config := Config{
		MaxRetries:     5,
		InitialBackoff: time.Millisecond,
		Retryable:      func(err error) bool { return !errors.Is(err, permanent) },
	}
	attempts := 0

	err := Do(context.Background(), "test_permanent", config, func(context.Context) error {
		attempts++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("Do() error = %v, want permanent", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDoUnlimitedStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, "test_unlimited", Constant(time.Millisecond), func(context.Context) error {
		attempts++
		if attempts == 5 {
			cancel()
		}
		return errors.New("down")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if attempts != 5 {
		t.Errorf("attempts = %d, want 5", attempts)
	}
}

func TestDoRetriesTimeoutWhileContextLive(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), "test_timeout", Constant(time.Millisecond), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("list: %w", context.DeadlineExceeded)
		}
		return nil
	})

	if err != nil {
		t.Errorf("Do() error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoStopsWhenContextDoneDuringAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, "test_cancel", Constant(time.Millisecond), func(ctx context.Context) error {
		attempts++
		cancel()
		return fmt.Errorf("list: %w", ctx.Err())
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
