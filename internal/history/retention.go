package history

import (
	"context"
	"time"

	"github.com/pgcompare/pgcompare/internal/logger"
)

// Retention prunes history records older than a maximum age.
type Retention struct {
	store  Store
	maxAge time.Duration
}

// NewRetention builds a retention policy. A zero or negative maxAge disables
// pruning entirely.
func NewRetention(store Store, maxAge time.Duration) *Retention {
	return &Retention{store: store, maxAge: maxAge}
}

// Prune deletes records older than the retention window and returns how many
// were removed.
func (r *Retention) Prune(ctx context.Context) (int64, error) {
	if r.maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-r.maxAge)
	n, err := r.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Get().Debug("pruned comparison history", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}

// Run prunes on the given interval until the context is canceled. An initial
// prune happens immediately so long-idle stores shrink on startup.
func (r *Retention) Run(ctx context.Context, interval time.Duration) {
	if r.maxAge <= 0 || interval <= 0 {
		return
	}
	if _, err := r.Prune(ctx); err != nil {
		logger.Get().Warn("history prune failed", "error", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Prune(ctx); err != nil {
				logger.Get().Warn("history prune failed", "error", err)
			}
		}
	}
}
