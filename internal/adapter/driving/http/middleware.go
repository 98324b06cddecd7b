package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/application"
)

type contextKey string

const (
	userContextKey      contextKey = "autologin_user"
	requestIDContextKey contextKey = "request_id"
)

// UserFromContext returns the user id silently authenticated by the
// autologin middleware, or (0, false) for anonymous requests.
func UserFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userContextKey).(int64)
	return userID, ok && userID != 0
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// requestIDMiddleware assigns each request a uuid, exposed on the response
// as X-Request-ID and via the request context for log correlation.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		requestID, _ := r.Context().Value(requestIDContextKey).(string)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", requestID,
		)
	})
}

// autologinMiddleware is the inbound half of the autologin flow: when a
// request carries an autologin query parameter, the token is verified and
// the user id attached to the request context. Every failure mode — bad
// token, consumed token, rate limited, store down — degrades to an
// anonymous request; the visitor never sees an error for a stale emailed link.
func autologinMiddleware(login *application.LoginService, trustProxy bool, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken := r.URL.Query().Get(application.QueryParam)
		if rawToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := login.Authenticate(r.Context(), rawToken, clientIP(r, trustProxy))
		if err != nil || userID == 0 {
			next.ServeHTTP(w, r)
			return
		}

		logger.Info("request authenticated via autologin url", "user_id", userID)
		ctx := context.WithValue(r.Context(), userContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
