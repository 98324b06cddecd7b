package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/model"
	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CodeStore = (*CodeRepo)(nil)

// CodeRepo is the SQLite implementation of the CodeStore port interface.
// Rows hold only the lookup hash, the verification hash, and the expiry;
// the plaintext secret never touches the database.
type CodeRepo struct {
	db *DB
}

// NewCodeRepo creates a new CodeRepo backed by the given DB.
func NewCodeRepo(db *DB) *CodeRepo {
	return &CodeRepo{db: db}
}

// Save stores the hashes for a freshly minted secret with expiry now+ttl.
// A lookup-hash collision replaces the prior row; the displaced code simply
// stops verifying, which is the accepted cost of keying on the hash.
func (r *CodeRepo) Save(ctx context.Context, userID int64, secret string, ttl time.Duration) error {
	const query = `INSERT OR REPLACE INTO autologin_codes (hash, userhash, expires_at) VALUES (?, ?, ?)`

	expiresAt := time.Now().UTC().Add(ttl)
	_, err := r.db.Writer.ExecContext(ctx, query,
		model.LookupHash(secret),
		model.VerificationHash(userID, secret),
		formatTime(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("save autologin code: %w", err)
	}
	return nil
}

// FetchAndConsume deletes the row for the secret and returns its stored
// verification hash. The single DELETE..RETURNING statement on the writer
// connection is atomic: of N concurrent calls presenting the same secret,
// exactly one gets the row back and the rest scan no rows. The row is
// removed even when it turns out to be expired.
func (r *CodeRepo) FetchAndConsume(ctx context.Context, secret string) (string, error) {
	const query = `DELETE FROM autologin_codes WHERE hash = ? RETURNING userhash, expires_at`

	var userHash, expiresAt string
	err := r.db.Writer.QueryRowContext(ctx, query, model.LookupHash(secret)).Scan(&userHash, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("consume autologin code: %w", err)
	}

	expiry, err := parseTime(expiresAt)
	if err != nil {
		return "", fmt.Errorf("parse expires_at: %w", err)
	}
	if !expiry.After(time.Now().UTC()) {
		return "", nil
	}

	return userHash, nil
}

// FetchValid returns the verification hash without deleting the row. Used
// only when single-use consumption has been explicitly disabled.
func (r *CodeRepo) FetchValid(ctx context.Context, secret string) (string, error) {
	const query = `SELECT userhash, expires_at FROM autologin_codes WHERE hash = ?`

	var userHash, expiresAt string
	err := r.db.Reader.QueryRowContext(ctx, query, model.LookupHash(secret)).Scan(&userHash, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch autologin code: %w", err)
	}

	expiry, err := parseTime(expiresAt)
	if err != nil {
		return "", fmt.Errorf("parse expires_at: %w", err)
	}
	if !expiry.After(time.Now().UTC()) {
		return "", nil
	}

	return userHash, nil
}

// DeleteExpiredBefore bulk-deletes rows whose expiry precedes cutoff and
// returns the number removed. The expires_at index keeps the sweep cheap.
func (r *CodeRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM autologin_codes WHERE expires_at < ?`

	res, err := r.db.Writer.ExecContext(ctx, query, formatTime(cutoff.UTC()))
	if err != nil {
		return 0, fmt.Errorf("delete expired autologin codes: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted autologin codes: %w", err)
	}
	return count, nil
}

// formatTime renders a UTC timestamp in the stored column format. RFC3339
// strings in UTC sort lexicographically in chronological order, so the
// expires_at comparison in DeleteExpiredBefore works directly in SQL.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
