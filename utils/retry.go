package utils

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

type BackoffType int

const (
	Linear BackoffType = iota
	Exponential
	ExponentialJitter
	Fixed
	UniformRandom
)

// RetryConfig drives both the lock-acquisition wait loop (Fixed backoff) and
// the transaction deadlock retry (UniformRandom between BaseDelay and
// MaxDelay). RetryIf decides whether an error is worth another attempt; a nil
// RetryIf retries everything.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	BackoffType BackoffType
	RetryIf     func(error) bool
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
		BackoffType: ExponentialJitter,
	}
}

func Retry(ctx context.Context, config *RetryConfig, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateDelay(config, attempt)):
			}
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if config.RetryIf != nil && !config.RetryIf(err) {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func calculateDelay(config *RetryConfig, attempt int) time.Duration {
	var delay time.Duration

	switch config.BackoffType {
	case Linear:
		delay = config.BaseDelay * time.Duration(attempt)
	case Exponential:
		delay = time.Duration(float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt-1)))
	case ExponentialJitter:
		base := time.Duration(float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt-1)))
		delay = base + time.Duration(rand.Float64()*float64(base)*0.1)
	case Fixed:
		delay = config.BaseDelay
	case UniformRandom:
		span := config.MaxDelay - config.BaseDelay
		if span <= 0 {
			delay = config.BaseDelay
		} else {
			delay = config.BaseDelay + time.Duration(rand.Int63n(int64(span)))
		}
	default:
		delay = config.BaseDelay
	}

	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	return delay
}
