package httphandler

import (
	"encoding/json"
	"net/http"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// MintTokenRequest is the JSON body for the mint endpoint. TTLSeconds of 0
// selects the configured default.
type MintTokenRequest struct {
	UserID     int64 `json:"user_id"`
	TTLSeconds int64 `json:"ttl_seconds"`
}

// MintTokenResponse carries a freshly minted token and its expiry.
type MintTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// VerifyTokenRequest is the JSON body for the verify endpoint.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyTokenResponse reports the verification outcome. UserID is 0 unless
// Authenticated is true.
type VerifyTokenResponse struct {
	Authenticated bool  `json:"authenticated"`
	UserID        int64 `json:"user_id,omitempty"`
}

// SignURLRequest is the JSON body for the URL signing endpoint.
type SignURLRequest struct {
	URL        string `json:"url"`
	UserID     int64  `json:"user_id"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// SignURLResponse carries the signed URL, or the input unmodified when
// signing was not possible.
type SignURLResponse struct {
	URL string `json:"url"`
}

// PurgeResponse reports how many expired records the purge removed; -1 means
// the active backend cannot count.
type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
