package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AttemptStore = (*AttemptRepo)(nil)

// AttemptRepo is the SQLite implementation of the AttemptStore port
// interface. One row per identifier holds the attempt count and the end of
// its fixed window.
type AttemptRepo struct {
	db *DB
}

// NewAttemptRepo creates a new AttemptRepo backed by the given DB.
func NewAttemptRepo(db *DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Increment adds one attempt under the identifier and returns the resulting
// count. The whole read-modify-write is a single upsert on the writer
// connection, so concurrent attempts under one identifier are all counted.
// An expired window restarts at count 1 with a fresh window end.
func (r *AttemptRepo) Increment(ctx context.Context, identifier string, window time.Duration) (int64, error) {
	const query = `
		INSERT INTO rate_limits (identifier, attempts, window_ends_at)
		VALUES (?, 1, ?)
		ON CONFLICT(identifier) DO UPDATE SET
			attempts = CASE WHEN rate_limits.window_ends_at <= ? THEN 1 ELSE rate_limits.attempts + 1 END,
			window_ends_at = CASE WHEN rate_limits.window_ends_at <= ? THEN excluded.window_ends_at ELSE rate_limits.window_ends_at END
		RETURNING attempts
	`

	now := formatTime(time.Now().UTC())
	windowEnd := formatTime(time.Now().UTC().Add(window))

	var count int64
	err := r.db.Writer.QueryRowContext(ctx, query, identifier, windowEnd, now, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment attempts for %q: %w", identifier, err)
	}
	return count, nil
}

// DeleteExpiredBefore removes counters whose window ended before cutoff.
// Counters are small, so this is pure housekeeping to stop the table
// accumulating one row per identifier ever seen.
func (r *AttemptRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM rate_limits WHERE window_ends_at < ?`

	res, err := r.db.Writer.ExecContext(ctx, query, formatTime(cutoff.UTC()))
	if err != nil {
		return 0, fmt.Errorf("delete expired rate limit counters: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted rate limit counters: %w", err)
	}
	return count, nil
}
