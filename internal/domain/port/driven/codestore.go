// Package driven defines the port interfaces implemented by the storage
// adapters. Application services depend only on these interfaces; which
// backend is active is a composition-root decision.
package driven

import (
	"context"
	"time"
)

// CountUnknown is returned by DeleteExpiredBefore when the backend cannot
// report how many records it removed (the ephemeral backend expires entries
// on its own and has no meaningful count to give).
const CountUnknown int64 = -1

// CodeStore persists single-use, expiring autologin credentials. The store
// holds only hashes: the lookup hash keys the record and the verification
// hash is the stored value. Implementations must provide identical
// semantics; callers never depend on which backend is active.
type CodeStore interface {
	// Save computes the lookup and verification hashes for the secret and
	// stores the record with expiry now+ttl. A lookup-hash collision silently
	// overwrites the prior record.
	Save(ctx context.Context, userID int64, secret string, ttl time.Duration) error

	// FetchAndConsume looks up the record for the secret. A found record is
	// ALWAYS deleted, whether or not it has expired, so a given secret can
	// be presented at most once. Under concurrent identical calls exactly
	// one caller observes the verification hash; all others get "".
	// Returns ("", nil) when the record is missing or was found expired.
	FetchAndConsume(ctx context.Context, secret string) (string, error)

	// FetchValid is the multi-use variant: it expiry-checks but does not
	// delete. Only used when single-use consumption has been explicitly
	// disabled for a trusted high-volume flow.
	FetchValid(ctx context.Context, secret string) (string, error)

	// DeleteExpiredBefore bulk-deletes records whose expiry precedes cutoff
	// and returns the number removed, or CountUnknown when the backend
	// cannot count.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
