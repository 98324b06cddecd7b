// Package memory is the ephemeral credential-store backend: a process-local
// TTL map with the same single-use semantics as the durable backend. State
// is lost on restart, which for short-lived login codes is an acceptable
// operational tradeoff when no database is wanted.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/model"
	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CodeStore = (*CodeStore)(nil)

// CodeStore is the in-memory implementation of the CodeStore port interface.
// A single mutex around the map makes fetch-and-delete atomic, which is what
// guarantees at-most-once consumption under concurrent identical requests.
type CodeStore struct {
	mu    sync.Mutex
	codes map[string]model.CredentialRecord
}

// NewCodeStore creates an empty in-memory code store.
func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[string]model.CredentialRecord)}
}

// Save stores the hashes for a freshly minted secret with expiry now+ttl.
// A lookup-hash collision silently overwrites the prior entry.
func (s *CodeStore) Save(_ context.Context, userID int64, secret string, ttl time.Duration) error {
	record := model.CredentialRecord{
		Hash:      model.LookupHash(secret),
		UserHash:  model.VerificationHash(userID, secret),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[record.Hash] = record
	return nil
}

// FetchAndConsume removes the entry for the secret, whether or not it has
// expired, then returns its verification hash if it was still valid.
func (s *CodeStore) FetchAndConsume(_ context.Context, secret string) (string, error) {
	key := model.LookupHash(secret)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.codes[key]
	if !ok {
		return "", nil
	}
	delete(s.codes, key)

	if record.Expired(time.Now().UTC()) {
		return "", nil
	}
	return record.UserHash, nil
}

// FetchValid returns the verification hash without removing the entry.
func (s *CodeStore) FetchValid(_ context.Context, secret string) (string, error) {
	key := model.LookupHash(secret)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.codes[key]
	if !ok || record.Expired(time.Now().UTC()) {
		return "", nil
	}
	return record.UserHash, nil
}

// DeleteExpiredBefore prunes entries whose expiry precedes cutoff but
// reports CountUnknown: the ephemeral backend also drops expired entries on
// read, so any count here would understate what actually expired and
// callers must not depend on it.
func (s *CodeStore) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, record := range s.codes {
		if record.ExpiresAt.Before(cutoff) {
			delete(s.codes, key)
		}
	}
	return driven.CountUnknown, nil
}

// Len reports the number of live entries. Test hook.
func (s *CodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}
