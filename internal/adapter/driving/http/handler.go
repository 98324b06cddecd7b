// Package httphandler is the HTTP driving adapter: a small REST surface for
// minting, verifying, and sweeping autologin tokens, plus middleware that
// silently authenticates any request carrying an autologin query parameter.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/application"
	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/model"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	tokens     *application.TokenService
	login      *application.LoginService
	signer     *application.URLSigner
	sweeper    *application.SweepService
	defaultTTL time.Duration
	trustProxy bool
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. defaultTTL is
// used when a mint or sign request omits ttl_seconds. trustProxy opts in to
// reading client IPs from X-Forwarded-For; leave it false unless a proxy in
// front of this server overwrites that header.
func NewHandler(
	tokens *application.TokenService,
	login *application.LoginService,
	signer *application.URLSigner,
	sweeper *application.SweepService,
	defaultTTL time.Duration,
	trustProxy bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		tokens:     tokens,
		login:      login,
		signer:     signer,
		sweeper:    sweeper,
		defaultTTL: defaultTTL,
		trustProxy: trustProxy,
		logger:     logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with request-id, logging, autologin, and recovery middleware.
func NewServeMux(h *Handler, login *application.LoginService, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/tokens", h.MintToken)
	mux.HandleFunc("POST /api/v1/tokens/verify", h.VerifyToken)
	mux.HandleFunc("POST /api/v1/urls/sign", h.SignURL)
	mux.HandleFunc("POST /api/v1/maintenance/purge", h.Purge)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery outermost so a panic anywhere in the chain, middleware
	// included, still produces a logged 500; autologin inside logging so
	// authenticated requests are logged as such.
	wrapped := autologinMiddleware(login, h.trustProxy, logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)
	wrapped = recoveryMiddleware(logger, wrapped)

	return wrapped
}

// MintToken issues a token for a user.
func (h *Handler) MintToken(w http.ResponseWriter, r *http.Request) {
	var req MintTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ttl := h.defaultTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	token, err := h.tokens.Generate(r.Context(), req.UserID, ttl)
	if errors.Is(err, application.ErrUserNotFound) {
		writeError(w, http.StatusBadRequest, "unknown user")
		return
	}
	if err != nil {
		h.logger.Error("failed to mint token", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, MintTokenResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(ttl).Format(time.RFC3339),
	})
}

// VerifyToken checks a presented token. Malformed and wrong-secret tokens
// both produce an unauthenticated 200; only rate limiting and storage
// failures get distinct statuses so the caller can log blocked vs error.
func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req VerifyTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := h.login.Authenticate(r.Context(), req.Token, clientIP(r, h.trustProxy))
	switch {
	case errors.Is(err, application.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many attempts")
		return
	case errors.Is(err, model.ErrMalformedToken):
		writeJSON(w, http.StatusOK, VerifyTokenResponse{Authenticated: false})
		return
	case err != nil:
		h.logger.Error("token verification unavailable", "error", err)
		writeError(w, http.StatusInternalServerError, "could not verify token")
		return
	}

	writeJSON(w, http.StatusOK, VerifyTokenResponse{
		Authenticated: userID != 0,
		UserID:        userID,
	})
}

// SignURL appends an autologin token to the submitted URL. The response URL
// equals the input whenever signing was not possible.
func (h *Handler) SignURL(w http.ResponseWriter, r *http.Request) {
	var req SignURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	ttl := h.defaultTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	writeJSON(w, http.StatusOK, SignURLResponse{
		URL: h.signer.SignURL(r.Context(), req.URL, req.UserID, ttl),
	})
}

// Purge deletes expired credential records immediately. Deleted is -1 when
// the active backend cannot count what it removed.
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	count, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.logger.Error("purge failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, PurgeResponse{Deleted: count})
}

// Health returns a liveness signal.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// clientIP extracts the requesting IP. X-Forwarded-For is client-supplied
// and only consulted when trustProxy is set; a direct caller could otherwise
// rotate its rate-limit identity with a forged header.
func clientIP(r *http.Request, trustProxy bool) string {
	if xff := r.Header.Get("X-Forwarded-For"); trustProxy && xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
