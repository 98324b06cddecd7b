package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AttemptStore = (*AttemptStore)(nil)

type attemptCounter struct {
	count     int64
	windowEnd time.Time
}

// AttemptStore is the in-memory implementation of the AttemptStore port
// interface. The mutex makes each increment a single atomic
// read-modify-write.
type AttemptStore struct {
	mu       sync.Mutex
	counters map[string]attemptCounter
}

// NewAttemptStore creates an empty in-memory attempt store.
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{counters: make(map[string]attemptCounter)}
}

// Increment adds one attempt under the identifier and returns the resulting
// count. An expired counter restarts at 1 with a fresh window end.
func (s *AttemptStore) Increment(_ context.Context, identifier string, window time.Duration) (int64, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.counters[identifier]
	if !ok || !counter.windowEnd.After(now) {
		counter = attemptCounter{count: 1, windowEnd: now.Add(window)}
	} else {
		counter.count++
	}
	s.counters[identifier] = counter

	return counter.count, nil
}

// DeleteExpiredBefore prunes counters whose window ended before cutoff.
// Counters only reset lazily on the next increment, so identifiers never
// seen again would otherwise sit in the map for the life of the process.
// The map keeps no deletion tally, so the count is always CountUnknown.
func (s *AttemptStore) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for identifier, counter := range s.counters {
		if counter.windowEnd.Before(cutoff) {
			delete(s.counters, identifier)
		}
	}

	return driven.CountUnknown, nil
}

// Len reports the number of live counters. Test hook.
func (s *AttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
