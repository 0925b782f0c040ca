package redis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/achievement"
)

// StatsCache caches learner stats aggregates keyed by user ID. It
// implements query.StatsCache: failures are logged and reported as misses,
// so a broken Redis degrades to recomputation, never to an error.
type StatsCache struct {
	cache  *Cache
	logger *slog.Logger
}

// NewStatsCache creates a new stats cache.
func NewStatsCache(cache *Cache, logger *slog.Logger) *StatsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsCache{cache: cache, logger: logger}
}

func statsKey(userID string) string {
	return PrefixStats + userID
}

// Get returns the cached stats for the learner, if present.
func (c *StatsCache) Get(ctx context.Context, userID string) (*achievement.Stats, bool) {
	var stats achievement.Stats
	err := c.cache.Get(ctx, statsKey(userID), &stats)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("stats cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}
	return &stats, true
}

// Set stores the stats snapshot with the standard TTL.
func (c *StatsCache) Set(ctx context.Context, userID string, stats *achievement.Stats) {
	if err := c.cache.Set(ctx, statsKey(userID), stats, TTLStatsCache); err != nil {
		c.logger.Warn("stats cache write failed", "user_id", userID, "error", err)
	}
}

// Invalidate drops the learner's snapshot. Called whenever XP, progress,
// or achievements change.
func (c *StatsCache) Invalidate(ctx context.Context, userID string) {
	if err := c.cache.Delete(ctx, statsKey(userID)); err != nil {
		c.logger.Warn("stats cache invalidation failed", "user_id", userID, "error", err)
	}
}
