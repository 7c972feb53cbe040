package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryOptions {
	return RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("flaky")
			}
			return nil
		}, fastRetry())
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return errors.New("down")
		}, fastRetry())
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		permanent := &RetryableError{Err: errors.New("bad request"), Retryable: false}
		err := WithRetry(context.Background(), func() error {
			calls++
			return permanent
		}, fastRetry())
		assert.Equal(t, permanent, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, func() error { return errors.New("down") },
			RetryOptions{MaxAttempts: 5, InitialDelay: time.Second})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPermanentStopsRetrying(t *testing.T) {
	calls := 0
	cause := errors.New("sheet not found")
	err := WithRetry(context.Background(), func() error {
		calls++
		return Permanent(cause)
	}, fastRetry())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, calls)
}

func TestRetryDelay(t *testing.T) {
	opts := RetryOptions{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}.withDefaults()

	tests := []struct {
		err     error
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 100 * time.Millisecond},
		{attempt: 2, want: 200 * time.Millisecond},
		{attempt: 4, want: 800 * time.Millisecond},
		{attempt: 5, want: time.Second},
		{attempt: 1, err: fmt.Errorf("quota: %w", ErrRateLimit), want: time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, opts.delay(tt.attempt, tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x")}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestUserError(t *testing.T) {
	err := NewUserError("could not save product", ErrDuplicateEntry)
	assert.Equal(t, "could not save product: duplicate entry", err.Error())
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "could not save product", ue.UserMessage)
}

func TestLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger(&buf, ParseLevel("warn"), "json")

	ctx := WithLogger(context.Background(), logger.With("request_id", "abc"))
	LogInfo(ctx, "hidden", nil)
	LogDebug(ctx, "also hidden", Fields{"id": 7})
	LogError(ctx, errors.New("boom"), "failed", Fields{"id": 7})

	out := buf.String()
	assert.NotContains(t, out, "hidden")

	var debug bytes.Buffer
	LogDebug(WithLogger(context.Background(), SetupLogger(&debug, slog.LevelDebug, "json")),
		"created automatic backup", Fields{"id": "auto-1"})
	assert.Contains(t, debug.String(), `"msg":"created automatic backup"`)
	assert.Contains(t, debug.String(), `"id":"auto-1"`)
	assert.Contains(t, out, `"request_id":"abc"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Same(t, slog.Default(), LoggerFrom(context.Background()))
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
