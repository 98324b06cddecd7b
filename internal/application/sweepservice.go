package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/BrianHenryIE/bh-wp-autologin-urls-sub000/internal/domain/port/driven"
)

// ExpiredDeleter is satisfied by any store that can bulk-delete rows whose
// expiry precedes a cutoff.
type ExpiredDeleter interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SweepService periodically removes expired credential records. It is
// housekeeping, not a correctness mechanism: consume-on-read already stops
// expired codes from verifying, so a missed sweep only delays table
// shrinkage.
type SweepService struct {
	codes    driven.CodeStore
	counters ExpiredDeleter // optional; nil when the backend resets counters itself
	interval time.Duration
	logger   *slog.Logger
}

// NewSweepService creates a SweepService sweeping codes (and counters, when
// non-nil) on the given interval.
func NewSweepService(codes driven.CodeStore, counters ExpiredDeleter, interval time.Duration, logger *slog.Logger) *SweepService {
	return &SweepService{
		codes:    codes,
		counters: counters,
		interval: interval,
		logger:   logger,
	}
}

// Start runs an immediate sweep, then sweeps on the configured interval.
// It blocks until the context is canceled.
func (s *SweepService) Start(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Error("initial sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep service stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// Sweep deletes all credential records that expired before now and returns
// the number removed, or driven.CountUnknown when the backend cannot count.
func (s *SweepService) Sweep(ctx context.Context) (int64, error) {
	now := time.Now().UTC()

	count, err := s.codes.DeleteExpiredBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	if count == driven.CountUnknown {
		s.logger.Info("expired autologin codes swept", "deleted", "unknown")
	} else {
		s.logger.Info("expired autologin codes swept", "deleted", count)
	}

	if s.counters != nil {
		if _, err := s.counters.DeleteExpiredBefore(ctx, now); err != nil {
			// Counter rows are reset on the next increment anyway.
			s.logger.Warn("rate limit counter sweep failed", "error", err)
		}
	}

	return count, nil
}
