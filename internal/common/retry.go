package common

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimit marks a remote quota rejection. WithRetry waits the
	// longest delay after one.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries is returned once every attempt has failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryOptions configures WithRetry. Zero fields take the defaults of
// 3 attempts, 100ms first delay, 30s cap and doubling.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2
	}
	return o
}

// delay is the wait before attempt n+1, n counting from 1.
func (o RetryOptions) delay(n int, err error) time.Duration {
	if errors.Is(err, ErrRateLimit) {
		return o.MaxDelay
	}
	d := float64(o.InitialDelay)
	for i := 1; i < n; i++ {
		d *= o.Multiplier
		if d >= float64(o.MaxDelay) {
			return o.MaxDelay
		}
	}
	return time.Duration(d)
}

// RetryableError says explicitly whether Err is worth another attempt.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// Permanent wraps err so WithRetry returns it without retrying.
func Permanent(err error) error {
	return &RetryableError{Err: err}
}

// WithRetry runs operation until it succeeds, fails permanently, ctx ends
// or the attempts run out.
func WithRetry(ctx context.Context, operation func() error, opts RetryOptions) error {
	opts = opts.withDefaults()

	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		var re *RetryableError
		if errors.As(err, &re) && !re.Retryable {
			return err
		}
		if attempt == opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, attempt, err)
		}

		wait := opts.delay(attempt, err)
		LoggerFrom(ctx).Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
