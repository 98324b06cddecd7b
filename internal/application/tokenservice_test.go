package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/adapter/driven/memory"
	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/model"
	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/port/driven"
)

// --- Mock implementations for TokenService tests ---

type mockCodeStore struct {
	mu         sync.Mutex
	saves      int
	fetches    int
	saveErr    error
	fetchErr   error
	userHashes map[string]string // lookup hash -> verification hash
}

func newMockCodeStore() *mockCodeStore {
	return &mockCodeStore{userHashes: make(map[string]string)}
}

func (m *mockCodeStore) Save(_ context.Context, userID int64, secret string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.userHashes[model.LookupHash(secret)] = model.VerificationHash(userID, secret)
	return nil
}

func (m *mockCodeStore) FetchAndConsume(_ context.Context, secret string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.fetchErr != nil {
		return "", m.fetchErr
	}
	key := model.LookupHash(secret)
	userHash := m.userHashes[key]
	delete(m.userHashes, key)
	return userHash, nil
}

func (m *mockCodeStore) FetchValid(_ context.Context, secret string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.fetchErr != nil {
		return "", m.fetchErr
	}
	return m.userHashes[model.LookupHash(secret)], nil
}

func (m *mockCodeStore) DeleteExpiredBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

var _ driven.CodeStore = (*mockCodeStore)(nil)

// --- Tests ---

func TestTokenService_GenerateWireFormat(t *testing.T) {
	svc := NewTokenService(newMockCodeStore(), 0, true, 0)

	token, err := svc.Generate(context.Background(), 123, time.Hour)
	require.NoError(t, err)
	assert.Regexp(t, `^123~[A-Za-z0-9]{12}$`, token)
}

func TestTokenService_GenerateUnknownUser(t *testing.T) {
	store := newMockCodeStore()
	svc := NewTokenService(store, 0, true, 0)

	_, err := svc.Generate(context.Background(), 0, time.Hour)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Generate(context.Background(), -7, time.Hour)
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.Equal(t, 0, store.saves, "no store write for an invalid user")
}

func TestTokenService_GenerateMemoizesPerUserAndTTL(t *testing.T) {
	store := newMockCodeStore()
	svc := NewTokenService(store, 0, true, 0)
	ctx := context.Background()

	first, err := svc.Generate(ctx, 42, time.Hour)
	require.NoError(t, err)

	second, err := svc.Generate(ctx, 42, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same (user, ttl) pair reuses the minted token")
	assert.Equal(t, 1, store.saves)

	// A different ttl is a different pair and mints fresh.
	third, err := svc.Generate(ctx, 42, 2*time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.Equal(t, 2, store.saves)
}

func TestTokenService_MintMemoIsBounded(t *testing.T) {
	store := newMockCodeStore()
	svc := NewTokenService(store, 0, true, 2)
	ctx := context.Background()

	first, err := svc.Generate(ctx, 1, time.Hour)
	require.NoError(t, err)

	_, err = svc.Generate(ctx, 2, time.Hour)
	require.NoError(t, err)
	_, err = svc.Generate(ctx, 3, time.Hour)
	require.NoError(t, err)

	// User 1 was evicted, so this mints a new secret.
	again, err := svc.Generate(ctx, 1, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, again)
	assert.Equal(t, 4, store.saves)
}

func TestTokenService_GenerateStoreFailure(t *testing.T) {
	store := newMockCodeStore()
	store.saveErr = errors.New("disk full")
	svc := NewTokenService(store, 0, true, 0)

	_, err := svc.Generate(context.Background(), 42, time.Hour)
	assert.ErrorContains(t, err, "disk full")
}

func TestTokenService_VerifyHappyPath(t *testing.T) {
	svc := NewTokenService(newMockCodeStore(), 0, true, 0)
	ctx := context.Background()

	tokenStr, err := svc.Generate(ctx, 42, time.Hour)
	require.NoError(t, err)
	token, err := model.ParseToken(tokenStr)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, 42, token.Secret)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTokenService_VerifyWrongUser(t *testing.T) {
	svc := NewTokenService(newMockCodeStore(), 0, true, 0)
	ctx := context.Background()

	tokenStr, err := svc.Generate(ctx, 42, time.Hour)
	require.NoError(t, err)
	token, err := model.ParseToken(tokenStr)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, 999, token.Secret)
	require.NoError(t, err)
	assert.False(t, ok, "a secret must only verify for the user it was issued to")
}

func TestTokenService_VerifyStoreFailureIsNotFalse(t *testing.T) {
	store := newMockCodeStore()
	store.fetchErr = errors.New("connection refused")
	svc := NewTokenService(store, 0, true, 0)

	ok, err := svc.Verify(context.Background(), 42, "aB3dE7gH9kLm")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection refused",
		"could-not-check must surface as an error, not a quiet rejection")
}

func TestTokenService_MultiUseDoesNotConsume(t *testing.T) {
	svc := NewTokenService(newMockCodeStore(), 0, false, 0)
	ctx := context.Background()

	tokenStr, err := svc.Generate(ctx, 42, time.Hour)
	require.NoError(t, err)
	token, err := model.ParseToken(tokenStr)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ok, err := svc.Verify(ctx, 42, token.Secret)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

// End-to-end over the real in-memory backend: mint, verify, replay, wrong user.
func TestTokenService_EndToEnd(t *testing.T) {
	svc := NewTokenService(memory.NewCodeStore(), 0, true, 0)
	ctx := context.Background()

	tokenStr, err := svc.Generate(ctx, 123, time.Hour)
	require.NoError(t, err)
	assert.Regexp(t, `^123~[A-Za-z0-9]{12}$`, tokenStr)

	token, err := model.ParseToken(tokenStr)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, 123, token.Secret)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, 123, token.Secret)
	require.NoError(t, err)
	assert.False(t, ok, "consumed on first verify")

	ok, err = svc.Verify(ctx, 999, token.Secret)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Near-miss and total-miss secrets must be indistinguishable to the caller.
// The comparison is subtle.ConstantTimeCompare, which never short-circuits
// on the first differing byte; this pins the behavioral half of that.
func TestTokenService_NearMissAndTotalMissBothFail(t *testing.T) {
	svc := NewTokenService(memory.NewCodeStore(), 0, false, 0)
	ctx := context.Background()

	tokenStr, err := svc.Generate(ctx, 42, time.Hour)
	require.NoError(t, err)
	token, err := model.ParseToken(tokenStr)
	require.NoError(t, err)

	// Same lookup key cannot be forged without the secret, so a near-miss
	// here is a wrong user id over the right secret: the stored and
	// expected verification hashes differ while the lookup succeeds.
	ok, err := svc.Verify(ctx, 43, token.Secret)
	require.NoError(t, err)
	assert.False(t, ok)

	// Total miss: unknown secret.
	ok, err = svc.Verify(ctx, 42, "zzzzzzzzzzzz")
	require.NoError(t, err)
	assert.False(t, ok)
}
