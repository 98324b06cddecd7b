package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/port/driven"
)

// Status is the outcome of a rate limit check. Remaining is the number of
// further attempts the identifier has left in the current window.
type Status struct {
	Allowed   bool
	Remaining int64
}

// RateLimiter bounds verification attempts per identifier within a fixed
// window. It is independent of the token logic; callers consult it before
// trusting any verification result.
type RateLimiter struct {
	attempts driven.AttemptStore
	logger   *slog.Logger
}

// NewRateLimiter creates a RateLimiter over the given attempt store.
func NewRateLimiter(attempts driven.AttemptStore, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{attempts: attempts, logger: logger}
}

// CheckAndRecord counts this attempt against the identifier and reports
// whether it is still within maxAttempts for the window. Every inbound
// attempt must be recorded, valid or not. If the counter storage itself
// fails the limiter fails closed: it returns a denying Status alongside the
// error, so an infrastructure outage never opens the door to brute force.
func (l *RateLimiter) CheckAndRecord(ctx context.Context, identifier string, maxAttempts int64, window time.Duration) (Status, error) {
	count, err := l.attempts.Increment(ctx, identifier, window)
	if err != nil {
		l.logger.Error("attempt counter unavailable, denying", "identifier", identifier, "error", err)
		return Status{Allowed: false, Remaining: 0}, fmt.Errorf("record attempt for %q: %w", identifier, err)
	}

	remaining := maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}

	return Status{Allowed: count <= maxAttempts, Remaining: remaining}, nil
}
