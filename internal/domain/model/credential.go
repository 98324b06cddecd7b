package model

import "time"

// CredentialRecord is the persisted form of a minted token. Hash is the
// lookup hash (primary key), UserHash the verification hash, and ExpiresAt
// the absolute UTC instant after which the record is invalid even if never
// consumed. Records are immutable once written.
type CredentialRecord struct {
	Hash      string
	UserHash  string
	ExpiresAt time.Time
}

// Expired reports whether the record's expiry has passed at the given instant.
func (r CredentialRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
