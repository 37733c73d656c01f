package errors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	InitialWait time.Duration // Initial wait before first retry
	MaxWait     time.Duration // Maximum wait between retries
	Multiplier  float64       // Backoff multiplier (e.g., 2.0 for exponential)
}

// DefaultRetryConfig returns the backoff used for idempotent list reads.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 200 * time.Millisecond,
		MaxWait:     2 * time.Second,
		Multiplier:  2.0,
	}
}

// Retry executes fn with exponential backoff.
// Only transient failures are retried; anything else is returned immediately.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := RetryWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryWithResult executes fn with exponential backoff and returns its result.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	wait := cfg.InitialWait
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return zero, err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		wait = time.Duration(float64(wait) * cfg.Multiplier)
		if wait > cfg.MaxWait {
			wait = cfg.MaxWait
		}
	}

	return zero, fmt.Errorf("retry failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

func shouldRetry(err error) bool {
	var permErr *PermanentError
	if errors.As(err, &permErr) {
		return false
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return IsTransient(err)
}
