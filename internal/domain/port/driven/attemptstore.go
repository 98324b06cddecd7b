package driven

import (
	"context"
	"time"
)

// AttemptStore tracks verification attempt counts per identifier within a
// fixed window. Identifiers are opaque caller-chosen strings such as
// "ip:203.0.113.9" or "wp_user:42".
type AttemptStore interface {
	// Increment atomically adds one attempt under the identifier and returns
	// the resulting count. The first increment of a window creates the
	// counter with expiry now+window; an increment against an expired
	// counter starts a fresh window at count 1. Concurrent increments for
	// the same identifier must all be counted.
	Increment(ctx context.Context, identifier string, window time.Duration) (int64, error)
}
