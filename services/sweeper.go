package services

import (
	"context"
	"time"

	"github.com/jon-the-dev/album-relay/utils"
)

// ExpiringStore is any store that can drop rows past their expiry.
type ExpiringStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically removes expired records. Records without an expiry
// are never touched.
type Sweeper struct {
	stores   []ExpiringStore
	interval time.Duration
	logger   *utils.Logger
}

func NewSweeper(interval time.Duration, stores ...ExpiringStore) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		stores:   stores,
		interval: interval,
		logger:   utils.NewLogger("sweeper"),
	}
}

// Run blocks until ctx is canceled, sweeping once per interval. A failed
// sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) {
	for _, store := range s.stores {
		removed, err := store.DeleteExpired(ctx)
		if err != nil {
			s.logger.Error(ctx, "expiry sweep failed", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		if removed > 0 {
			s.logger.Info(ctx, "expired records removed", map[string]interface{}{
				"count": removed,
			})
		}
	}
}
