package query

import (
	"context"
	"log/slog"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/achievement"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEARNER STATS QUERY
// Aggregates XP, level, achievement count, and completed module/trail counts
// into one stats object. The aggregate is cached with a short TTL; the cache
// is invalidated on XP changes through the event bus, so a stale entry can
// only survive for the TTL window after a missed event.
// ══════════════════════════════════════════════════════════════════════════════

// StatsCache caches learner stats aggregates. A miss returns found=false;
// cache failures are treated as misses, never surfaced to the caller.
type StatsCache interface {
	Get(ctx context.Context, userID string) (stats *achievement.Stats, found bool)
	Set(ctx context.Context, userID string, stats *achievement.Stats)
	Invalidate(ctx context.Context, userID string)
}

// GetLearnerStatsHandler handles stats aggregation.
type GetLearnerStatsHandler struct {
	learners     learner.Repository
	balances     progression.BalanceRepository
	progress     progression.ProgressRepository
	achievements achievement.Repository
	cache        StatsCache
	logger       *slog.Logger
}

// NewGetLearnerStatsHandler creates a new GetLearnerStatsHandler.
// The cache may be nil; stats are then computed on every call.
func NewGetLearnerStatsHandler(
	learners learner.Repository,
	balances progression.BalanceRepository,
	progress progression.ProgressRepository,
	achievements achievement.Repository,
	cache StatsCache,
	logger *slog.Logger,
) *GetLearnerStatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetLearnerStatsHandler{
		learners:     learners,
		balances:     balances,
		progress:     progress,
		achievements: achievements,
		cache:        cache,
		logger:       logger,
	}
}

// Handle executes the query.
func (h *GetLearnerStatsHandler) Handle(ctx context.Context, userID string) (*achievement.Stats, error) {
	if userID == "" {
		return nil, shared.NewDomainError("achievement", "ComputeStats", shared.ErrEmptyValue, "user_id is required")
	}

	exists, err := h.learners.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrLearnerNotFound
	}

	if h.cache != nil {
		if stats, found := h.cache.Get(ctx, userID); found {
			return stats, nil
		}
	}

	balance, err := h.balances.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned, err := h.achievements.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	modules, err := h.progress.CountCompletedModules(ctx, userID)
	if err != nil {
		return nil, err
	}

	trails, err := h.progress.CountCompletedTrails(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &achievement.Stats{
		UserID:           userID,
		TotalXP:          balance.TotalXP,
		Level:            balance.Level,
		Achievements:     len(earned),
		CompletedModules: modules,
		CompletedTrails:  trails,
	}

	if h.cache != nil {
		h.cache.Set(ctx, userID, stats)
	}

	return stats, nil
}
