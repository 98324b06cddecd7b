package model

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_EncodeParseRoundTrip(t *testing.T) {
	token := Token{UserID: 42, Secret: "aB3dE7gH9kLm"}

	encoded := token.Encode()
	assert.Equal(t, "42~aB3dE7gH9kLm", encoded)

	parsed, err := ParseToken(encoded)
	require.NoError(t, err)
	assert.Equal(t, token, parsed)
}

func TestParseToken_SplitsOnFirstSeparator(t *testing.T) {
	// A secret can never contain "~", so anything after a second separator
	// is malformed secret content, not a nested token.
	_, err := ParseToken("42~abc~def")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestParseToken_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no separator", "123"},
		{"non-numeric user id", "abc~xyz"},
		{"non-alphanumeric secret", "123~bad!char"},
		{"empty string", ""},
		{"empty user id", "~aB3dE7gH9kLm"},
		{"empty secret", "123~"},
		{"negative user id", "-1~aB3dE7gH9kLm"},
		{"url-encoded secret", "123~aB3d%20gH9k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.input)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestNewSecret_AlphanumericAndUnique(t *testing.T) {
	alnum := regexp.MustCompile(`^[A-Za-z0-9]+$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		secret, err := NewSecret(DefaultSecretLength)
		require.NoError(t, err)
		assert.Len(t, secret, DefaultSecretLength)
		assert.Regexp(t, alnum, secret)
		assert.False(t, seen[secret], "generated secrets must not repeat")
		seen[secret] = true
	}
}

func TestNewSecret_RejectsNonPositiveLength(t *testing.T) {
	_, err := NewSecret(0)
	assert.Error(t, err)

	_, err = NewSecret(-1)
	assert.Error(t, err)
}

func TestLookupHash_Is64HexChars(t *testing.T) {
	hash := LookupHash("aB3dE7gH9kLm")
	assert.Regexp(t, `^[0-9a-f]{64}$`, hash)
	assert.Equal(t, hash, LookupHash("aB3dE7gH9kLm"), "hashing is deterministic")
	assert.NotEqual(t, hash, LookupHash("aB3dE7gH9kLn"))
}

func TestVerificationHash_BindsUserToSecret(t *testing.T) {
	hash := VerificationHash(42, "aB3dE7gH9kLm")
	assert.Regexp(t, `^[0-9a-f]{64}$`, hash)

	assert.NotEqual(t, hash, VerificationHash(43, "aB3dE7gH9kLm"),
		"a different user id must produce a different verification hash")
	assert.NotEqual(t, hash, LookupHash("aB3dE7gH9kLm"),
		"lookup and verification hashes must differ for the same secret")

	// Plain string concatenation means (4, "2abc") and (42, "abc") both hash
	// "42abc". Harmless in practice because the user id in a verify call
	// comes from the same token string as the secret, but worth pinning.
	assert.Equal(t, VerificationHash(4, "2abc"), VerificationHash(42, "abc"))
}
