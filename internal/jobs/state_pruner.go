package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/khaista/boutique/internal/state"
)

const (
	// DefaultRetention is how long an untouched cart or wishlist is kept (90 days)
	DefaultRetention = 90 * 24 * time.Hour

	// PruneInterval is how often stale client state is removed (6 hours)
	PruneInterval = 6 * time.Hour
)

// StatePruner deletes persisted carts and wishlists that have not been
// written within the retention window.
type StatePruner struct {
	pruner    state.Pruner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func NewStatePruner(pruner state.Pruner, retention time.Duration) *StatePruner {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &StatePruner{
		pruner:    pruner,
		retention: retention,
		interval:  PruneInterval,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// Start runs a prune immediately and then on every interval until Stop is
// called or ctx is done.
func (p *StatePruner) Start(ctx context.Context) {
	slog.Info("starting state pruner", "interval", p.interval, "retention", p.retention)

	p.Prune(ctx)

	p.ticker = time.NewTicker(p.interval)

	go func() {
		for {
			select {
			case <-p.ticker.C:
				p.Prune(ctx)
			case <-ctx.Done():
				p.ticker.Stop()
				return
			case <-p.done:
				slog.Info("state pruner stopped")
				return
			}
		}
	}()
}

// Stop stops the background job
func (p *StatePruner) Stop() {
	p.stopOnce.Do(func() {
		if p.ticker != nil {
			p.ticker.Stop()
		}
		close(p.done)
	})
}

// Prune removes state older than the retention window and returns the
// number of entries deleted.
func (p *StatePruner) Prune(ctx context.Context) int64 {
	cutoff := p.now().Add(-p.retention).Unix()

	removed, err := p.pruner.PruneBefore(ctx, cutoff)
	if err != nil {
		slog.Error("failed to prune client state", "error", err)
		return 0
	}
	if removed > 0 {
		slog.Info("pruned stale client state", "removed", removed)
	} else {
		slog.Debug("no stale client state to prune")
	}
	return removed
}
