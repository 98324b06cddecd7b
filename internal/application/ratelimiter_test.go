package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/adapter/driven/memory"
)

type failingAttemptStore struct {
	err error
}

func (f *failingAttemptStore) Increment(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	limiter := NewRateLimiter(memory.NewAttemptStore(), testLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		status, err := limiter.CheckAndRecord(ctx, "ip:203.0.113.9", 5, 24*time.Hour)
		require.NoError(t, err)
		assert.True(t, status.Allowed, "attempt %d should be allowed", i+1)
		assert.Equal(t, int64(4-i), status.Remaining)
	}

	status, err := limiter.CheckAndRecord(ctx, "ip:203.0.113.9", 5, 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, status.Allowed, "the sixth attempt must be rejected")
	assert.Equal(t, int64(0), status.Remaining)
}

func TestRateLimiter_IdentifiersAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(memory.NewAttemptStore(), testLogger())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := limiter.CheckAndRecord(ctx, "ip:203.0.113.9", 5, 24*time.Hour)
		require.NoError(t, err)
	}

	status, err := limiter.CheckAndRecord(ctx, "ip:198.51.100.7", 5, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, status.Allowed, "a different identifier in the same window is unaffected")
}

func TestRateLimiter_NoSlidingResetWithinWindow(t *testing.T) {
	limiter := NewRateLimiter(memory.NewAttemptStore(), testLogger())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := limiter.CheckAndRecord(ctx, "wp_user:42", 5, 24*time.Hour)
		require.NoError(t, err)
	}

	// Once over the threshold the identifier stays blocked for the window.
	for i := 0; i < 3; i++ {
		status, err := limiter.CheckAndRecord(ctx, "wp_user:42", 5, 24*time.Hour)
		require.NoError(t, err)
		assert.False(t, status.Allowed)
	}
}

func TestRateLimiter_FailsClosedOnStorageError(t *testing.T) {
	store := &failingAttemptStore{err: errors.New("table missing")}
	limiter := NewRateLimiter(store, testLogger())

	status, err := limiter.CheckAndRecord(context.Background(), "ip:203.0.113.9", 5, 24*time.Hour)
	assert.False(t, status.Allowed, "an infrastructure error must never fail open")
	assert.ErrorContains(t, err, "table missing")
}
