package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketreplay/internal/domain"
)

// SnapshotCache stores parsed snapshots keyed by date. Get returns
// domain.ErrNotFound on a miss.
type SnapshotCache interface {
	Get(ctx context.Context, day time.Time) (domain.Snapshot, error)
	Set(ctx context.Context, day time.Time, snap domain.Snapshot) error
}

// Cached decorates another feed with a snapshot cache so repeated replays
// over the same date range skip the backend. Cache failures are logged and
// degrade to the inner feed; they never fail a fetch.
type Cached struct {
	inner  domain.MarketDataFeed
	cache  SnapshotCache
	logger *slog.Logger
}

// NewCached wraps inner with the given cache.
func NewCached(inner domain.MarketDataFeed, cache SnapshotCache, logger *slog.Logger) *Cached {
	return &Cached{
		inner:  inner,
		cache:  cache,
		logger: logger.With(slog.String("component", "cached_feed")),
	}
}

// Fetch serves the snapshot from cache when possible, falling through to the
// inner feed and populating the cache on a miss. No-data days are not cached;
// they are cheap to re-answer and a late-arriving object should be picked up.
func (c *Cached) Fetch(ctx context.Context, day time.Time) (domain.Snapshot, error) {
	snap, err := c.cache.Get(ctx, day)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		c.logger.Warn("snapshot cache read failed",
			slog.String("date", DateKey(day)),
			slog.String("error", err.Error()),
		)
	}

	snap, err = c.inner.Fetch(ctx, day)
	if err != nil || snap == nil {
		return snap, err
	}

	if setErr := c.cache.Set(ctx, day, snap); setErr != nil {
		c.logger.Warn("snapshot cache write failed",
			slog.String("date", DateKey(day)),
			slog.String("error", setErr.Error()),
		)
	}
	return snap, nil
}
