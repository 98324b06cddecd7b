// Package application contains use-case orchestration services.
package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/model"
	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/port/driven"
)

// ErrUserNotFound is returned when a token is requested for a user id that
// cannot identify anyone.
var ErrUserNotFound = errors.New("user not found")

// DefaultMintCacheCapacity bounds the in-process mint memoization when no
// explicit capacity is given.
const DefaultMintCacheCapacity = 128

// TokenService mints and verifies autologin tokens. It is the only
// component aware of both the token codec and the credential store.
type TokenService struct {
	store        driven.CodeStore
	secretLength int
	singleUse    bool

	mu   sync.Mutex
	memo *mintCache
}

// NewTokenService creates a TokenService over the given store. secretLength
// of 0 or less selects the default. singleUse should be true outside of
// explicitly trusted high-volume flows; when false, verification
// expiry-checks codes but does not consume them.
func NewTokenService(store driven.CodeStore, secretLength int, singleUse bool, memoCapacity int) *TokenService {
	if secretLength <= 0 {
		secretLength = model.DefaultSecretLength
	}
	if memoCapacity <= 0 {
		memoCapacity = DefaultMintCacheCapacity
	}
	return &TokenService{
		store:        store,
		secretLength: secretLength,
		singleUse:    singleUse,
		memo:         newMintCache(memoCapacity),
	}
}

// Generate mints a token for the user, valid for ttl, and returns its wire
// form. A repeat request for the same (user, ttl) pair within this process
// lifetime returns the previously composed token instead of minting again.
// Returns ErrUserNotFound for a non-positive user id.
func (s *TokenService) Generate(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("generate token for user %d: %w", userID, ErrUserNotFound)
	}

	key := strconv.FormatInt(userID, 10) + "~" + strconv.FormatInt(int64(ttl.Seconds()), 10)

	s.mu.Lock()
	if token, ok := s.memo.get(key); ok {
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	secret, err := model.NewSecret(s.secretLength)
	if err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}

	if err := s.store.Save(ctx, userID, secret, ttl); err != nil {
		return "", fmt.Errorf("persist autologin code: %w", err)
	}

	token := model.Token{UserID: userID, Secret: secret}.Encode()

	s.mu.Lock()
	s.memo.put(key, token)
	s.mu.Unlock()

	return token, nil
}

// Verify reports whether the secret was issued to the claimed user and is
// still valid. In single-use mode the code is consumed by this call whether
// or not verification succeeds. A store failure is returned as a non-nil
// error so callers can distinguish "wrong secret" from "could not check";
// the match itself uses a constant-time comparison.
func (s *TokenService) Verify(ctx context.Context, userID int64, secret string) (bool, error) {
	var storedHash string
	var err error
	if s.singleUse {
		storedHash, err = s.store.FetchAndConsume(ctx, secret)
	} else {
		storedHash, err = s.store.FetchValid(ctx, secret)
	}
	if err != nil {
		return false, fmt.Errorf("fetch autologin code: %w", err)
	}
	if storedHash == "" {
		return false, nil
	}

	expected := model.VerificationHash(userID, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(storedHash)) == 1, nil
}
