package query

import (
	"context"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/achievement"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST ACHIEVEMENTS QUERIES
// Two read shapes over the same data: the learner's earned list (newest
// first) and the full catalog annotated with earned flags, ordered by type
// then requirement threshold, for "next achievement to unlock" views.
// ══════════════════════════════════════════════════════════════════════════════

// ListAchievementsHandler serves achievement read operations.
type ListAchievementsHandler struct {
	achievements achievement.Repository
}

// NewListAchievementsHandler creates a new ListAchievementsHandler.
func NewListAchievementsHandler(achievements achievement.Repository) *ListAchievementsHandler {
	return &ListAchievementsHandler{achievements: achievements}
}

// ListForUser returns the learner's earned achievements, most recently
// earned first.
func (h *ListAchievementsHandler) ListForUser(ctx context.Context, userID string) ([]*achievement.Earned, error) {
	if userID == "" {
		return nil, shared.NewDomainError("achievement", "ListForUser", shared.ErrEmptyValue, "user_id is required")
	}
	return h.achievements.ListForUser(ctx, userID)
}

// ListCatalogWithProgress returns the full catalog annotated with whether
// the learner has earned each entry.
func (h *ListAchievementsHandler) ListCatalogWithProgress(ctx context.Context, userID string) ([]*achievement.CatalogEntry, error) {
	if userID == "" {
		return nil, shared.NewDomainError("achievement", "ListCatalog", shared.ErrEmptyValue, "user_id is required")
	}

	catalog, err := h.achievements.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	earned, err := h.achievements.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	earnedAt := make(map[string]*achievement.Earned, len(earned))
	for _, e := range earned {
		earnedAt[e.ID] = e
	}

	entries := make([]*achievement.CatalogEntry, 0, len(catalog))
	for _, a := range catalog {
		entry := &achievement.CatalogEntry{Achievement: *a}
		if e, ok := earnedAt[a.ID]; ok {
			entry.Unlocked = true
			t := e.EarnedAt
			entry.EarnedAt = &t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
