// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend names the active credential store implementation.
type Backend string

const (
	// BackendSQLite keeps codes in a dedicated indexed table that survives
	// restarts.
	BackendSQLite Backend = "sqlite"
	// BackendMemory keeps codes in a process-local TTL map.
	BackendMemory Backend = "memory"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	DBPath        string
	StoreBackend  Backend
	TokenTTL      time.Duration
	SecretLength  int
	MaxAttempts   int64
	AttemptWindow time.Duration
	SweepInterval time.Duration
	MultiUse      bool
	TrustProxy    bool
}

// Load reads configuration from environment variables and returns a
// validated Config. Every variable is optional with a safe default:
// AUTOLOGIN_LISTEN_ADDR (127.0.0.1:8080), AUTOLOGIN_DB_PATH (autologin.db),
// AUTOLOGIN_STORE_BACKEND (sqlite|memory, default sqlite),
// AUTOLOGIN_TOKEN_TTL (168h), AUTOLOGIN_SECRET_LENGTH (12),
// AUTOLOGIN_MAX_ATTEMPTS (5), AUTOLOGIN_ATTEMPT_WINDOW (24h),
// AUTOLOGIN_SWEEP_INTERVAL (24h), AUTOLOGIN_MULTI_USE (false),
// AUTOLOGIN_TRUST_PROXY (false; enable only behind a proxy that overwrites
// X-Forwarded-For, otherwise clients can forge their rate-limit identity).
// Invalid values fail loading rather than being silently replaced.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    "127.0.0.1:8080",
		DBPath:        "autologin.db",
		StoreBackend:  BackendSQLite,
		TokenTTL:      168 * time.Hour,
		SecretLength:  12,
		MaxAttempts:   5,
		AttemptWindow: 24 * time.Hour,
		SweepInterval: 24 * time.Hour,
		MultiUse:      false,
	}

	if v, ok := os.LookupEnv("AUTOLOGIN_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("AUTOLOGIN_DB_PATH"); ok {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("AUTOLOGIN_STORE_BACKEND"); ok {
		switch Backend(v) {
		case BackendSQLite, BackendMemory:
			cfg.StoreBackend = Backend(v)
		default:
			return nil, fmt.Errorf("AUTOLOGIN_STORE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendMemory, v)
		}
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("AUTOLOGIN_TOKEN_TTL", cfg.TokenTTL); err != nil {
		return nil, err
	}
	if cfg.AttemptWindow, err = durationEnv("AUTOLOGIN_ATTEMPT_WINDOW", cfg.AttemptWindow); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = durationEnv("AUTOLOGIN_SWEEP_INTERVAL", cfg.SweepInterval); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("AUTOLOGIN_SECRET_LENGTH"); ok {
		length, err := strconv.Atoi(v)
		if err != nil || length < 1 {
			return nil, fmt.Errorf("AUTOLOGIN_SECRET_LENGTH must be a positive integer, got %q", v)
		}
		cfg.SecretLength = length
	}

	if v, ok := os.LookupEnv("AUTOLOGIN_MAX_ATTEMPTS"); ok {
		attempts, err := strconv.ParseInt(v, 10, 64)
		if err != nil || attempts < 1 {
			return nil, fmt.Errorf("AUTOLOGIN_MAX_ATTEMPTS must be a positive integer, got %q", v)
		}
		cfg.MaxAttempts = attempts
	}

	if v, ok := os.LookupEnv("AUTOLOGIN_MULTI_USE"); ok {
		multiUse, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("AUTOLOGIN_MULTI_USE must be a boolean, got %q", v)
		}
		cfg.MultiUse = multiUse
	}

	if v, ok := os.LookupEnv("AUTOLOGIN_TRUST_PROXY"); ok {
		trustProxy, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("AUTOLOGIN_TRUST_PROXY must be a boolean, got %q", v)
		}
		cfg.TrustProxy = trustProxy
	}

	return cfg, nil
}

// durationEnv parses an optional duration env var, keeping fallback when unset.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return parsed, nil
}
