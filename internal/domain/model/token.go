// Package model contains the domain types for autologin tokens and the
// pure encode/decode/hash functions that operate on them. Nothing in this
// package performs I/O.
package model

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedToken is returned by ParseToken for any structurally invalid
// token string. Strict validation here cheaply rejects scanner traffic
// before it ever reaches the store or the rate limiter.
var ErrMalformedToken = errors.New("malformed autologin token")

// secretAlphabet is the set of characters secrets are drawn from. Keeping
// secrets alphanumeric means they never need URL encoding, so the wire form
// is unambiguous.
const secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultSecretLength is the secret length used when no explicit length is
// configured. Consumers must not assume tokens they receive have this length.
const DefaultSecretLength = 12

// Token is the ephemeral composed credential embedded in outgoing URLs.
// The secret is never persisted in plaintext; only its hashes are stored.
type Token struct {
	UserID int64
	Secret string
}

// Encode returns the public wire form "{user_id}~{secret}".
func (t Token) Encode() string {
	return strconv.FormatInt(t.UserID, 10) + "~" + t.Secret
}

// ParseToken splits a wire-form token on the first "~" and validates both
// halves. It returns ErrMalformedToken when the separator is absent, the
// user id is not purely numeric, or the secret contains any character
// outside [A-Za-z0-9].
func ParseToken(s string) (Token, error) {
	idPart, secret, found := strings.Cut(s, "~")
	if !found {
		return Token{}, fmt.Errorf("%w: missing separator", ErrMalformedToken)
	}

	if idPart == "" {
		return Token{}, fmt.Errorf("%w: empty user id", ErrMalformedToken)
	}
	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || userID < 0 {
		return Token{}, fmt.Errorf("%w: non-numeric user id", ErrMalformedToken)
	}

	if secret == "" {
		return Token{}, fmt.Errorf("%w: empty secret", ErrMalformedToken)
	}
	for i := 0; i < len(secret); i++ {
		c := secret[i]
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			return Token{}, fmt.Errorf("%w: secret contains non-alphanumeric character", ErrMalformedToken)
		}
	}

	return Token{UserID: userID, Secret: secret}, nil
}

// NewSecret generates a high-entropy alphanumeric secret of the given length
// using crypto/rand. Length must be positive.
func NewSecret(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	// Map each random byte onto the alphabet. 62 does not divide 256 evenly,
	// giving a slight bias toward the first 8 characters; at 12 characters of
	// a 62-symbol alphabet the remaining entropy still far exceeds what a
	// rate-limited online attacker can search.
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = secretAlphabet[int(b)%len(secretAlphabet)]
	}
	return string(out), nil
}

// LookupHash returns the hex SHA-256 of the secret alone. It is the primary
// key under which a credential record is stored.
func LookupHash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerificationHash returns the hex SHA-256 of the decimal user id
// concatenated with the secret. It binds a secret to the user it was issued
// for without storing the secret itself.
func VerificationHash(userID int64, secret string) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(userID, 10) + secret))
	return hex.EncodeToString(sum[:])
}
