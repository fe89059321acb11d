package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_Success(t *testing.T) {
	config := DefaultRetryConfig()
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Retry() error = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_EventualSuccess(t *testing.T) {
	config := DefaultRetryConfig()
	config.BaseDelay = time.Millisecond
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Retry() error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	config := DefaultRetryConfig()
	config.MaxAttempts = 3
	config.BaseDelay = time.Millisecond
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		return errors.New("persistent error")
	})

	if err == nil {
		t.Error("Retry() expected error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_NonRetryableStopsEarly(t *testing.T) {
	fatal := errors.New("fatal")
	config := DefaultRetryConfig()
	config.BaseDelay = time.Millisecond
	config.RetryIf = func(err error) bool { return !errors.Is(err, fatal) }
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		return fatal
	})

	if !errors.Is(err, fatal) {
		t.Errorf("Retry() error = %v, want %v", err, fatal)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	config := DefaultRetryConfig()
	config.MaxAttempts = 10
	config.BaseDelay = 100 * time.Millisecond
	config.BackoffType = Fixed

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := Retry(ctx, config, func() error {
		return errors.New("keep trying")
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Retry() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestCalculateDelay_FixedAndUniform(t *testing.T) {
	fixed := &RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffType: Fixed}
	for attempt := 1; attempt < 5; attempt++ {
		if d := calculateDelay(fixed, attempt); d != 100*time.Millisecond {
			t.Errorf("fixed delay attempt %d = %v, want 100ms", attempt, d)
		}
	}

	uniform := &RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond, BackoffType: UniformRandom}
	for attempt := 1; attempt < 20; attempt++ {
		d := calculateDelay(uniform, attempt)
		if d < 100*time.Millisecond || d > 500*time.Millisecond {
			t.Errorf("uniform delay = %v, want within [100ms, 500ms]", d)
		}
	}
}
