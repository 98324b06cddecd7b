package application

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// QueryParam is the URL query parameter carrying the token.
const QueryParam = "autologin"

// URLSigner rewrites outgoing URLs to carry an autologin token. It is the
// outbound collaborator surface: email composition hands it URLs and always
// gets a usable URL back.
type URLSigner struct {
	tokens *TokenService
	logger *slog.Logger
}

// NewURLSigner creates a URLSigner minting through the given TokenService.
func NewURLSigner(tokens *TokenService, logger *slog.Logger) *URLSigner {
	return &URLSigner{tokens: tokens, logger: logger}
}

// SignURL returns rawURL with an autologin token for the user appended as a
// query parameter. On any failure — unparseable URL, unknown user, storage
// down — it returns the input unmodified; a link that doesn't log the
// recipient in is better than an email that fails to send. The token's
// alphanumeric secret and "~" separator survive query encoding untouched.
func (s *URLSigner) SignURL(ctx context.Context, rawURL string, userID int64, ttl time.Duration) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		s.logger.Debug("not signing unparseable url", "url", rawURL, "error", err)
		return rawURL
	}

	token, err := s.tokens.Generate(ctx, userID, ttl)
	if err != nil {
		s.logger.Warn("could not mint autologin token for url", "user_id", userID, "error", err)
		return rawURL
	}

	q := u.Query()
	q.Set(QueryParam, token)
	u.RawQuery = q.Encode()

	return u.String()
}
