package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/model"
)

// ErrRateLimited is returned when an identifier has exhausted its attempt
// budget. It is distinct from storage failures so callers can log "blocked"
// and "error" separately.
var ErrRateLimited = errors.New("too many verification attempts")

// LoginService runs the inbound verification flow: parse the presented
// token, gate it through the rate limiter, then verify. It is the policy
// layer the request-handling adapter talks to.
type LoginService struct {
	tokens      *TokenService
	limiter     *RateLimiter
	maxAttempts int64
	window      time.Duration
	logger      *slog.Logger
}

// NewLoginService creates a LoginService applying maxAttempts per window to
// each limiter key.
func NewLoginService(tokens *TokenService, limiter *RateLimiter, maxAttempts int64, window time.Duration, logger *slog.Logger) *LoginService {
	return &LoginService{
		tokens:      tokens,
		limiter:     limiter,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
	}
}

// Authenticate verifies a raw token string presented from remoteIP and
// returns the authenticated user id, or 0 when the request should proceed
// anonymously. Two limiter keys gate the attempt: one for the presenting IP
// and one for the target user, and both must allow it. Malformed tokens are
// still counted against the IP so scanning traffic gets throttled before it
// ever reaches the store. A non-nil error always accompanies a 0 user id
// and means "denied" — never an error page for the visitor.
func (s *LoginService) Authenticate(ctx context.Context, rawToken, remoteIP string) (int64, error) {
	token, parseErr := model.ParseToken(rawToken)
	if parseErr != nil {
		// High volume from scanners is expected; log quietly and count it.
		s.logger.Debug("malformed autologin token", "remote_ip", remoteIP, "error", parseErr)
		if _, err := s.limiter.CheckAndRecord(ctx, ipKey(remoteIP), s.maxAttempts, s.window); err != nil {
			return 0, fmt.Errorf("record malformed attempt: %w", err)
		}
		return 0, parseErr
	}

	ipStatus, err := s.limiter.CheckAndRecord(ctx, ipKey(remoteIP), s.maxAttempts, s.window)
	if err != nil {
		return 0, fmt.Errorf("rate limit check for ip: %w", err)
	}
	userStatus, err := s.limiter.CheckAndRecord(ctx, userKey(token.UserID), s.maxAttempts, s.window)
	if err != nil {
		return 0, fmt.Errorf("rate limit check for user: %w", err)
	}
	if !ipStatus.Allowed || !userStatus.Allowed {
		s.logger.Warn("autologin attempt blocked",
			"remote_ip", remoteIP,
			"user_id", token.UserID,
			"ip_allowed", ipStatus.Allowed,
			"user_allowed", userStatus.Allowed,
		)
		return 0, ErrRateLimited
	}

	ok, err := s.tokens.Verify(ctx, token.UserID, token.Secret)
	if err != nil {
		// "Could not check" must deny, and must not masquerade as "wrong secret".
		return 0, fmt.Errorf("verify autologin token: %w", err)
	}
	if !ok {
		s.logger.Info("autologin token rejected", "remote_ip", remoteIP, "user_id", token.UserID)
		return 0, nil
	}

	s.logger.Info("autologin token accepted", "user_id", token.UserID)
	return token.UserID, nil
}

// ipKey scopes a limiter counter to the presenting IP address.
func ipKey(ip string) string {
	return "ip:" + ip
}

// userKey scopes a limiter counter to the target user id, so many IPs
// attacking one account are throttled collectively.
func userKey(userID int64) string {
	return "wp_user:" + strconv.FormatInt(userID, 10)
}
