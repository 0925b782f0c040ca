// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TRAIL COMPLETION QUERY
// Derives a learner's completion state for one trail. Pure read: the trail's
// module count is read fresh on every call, so a module added to the trail
// immediately makes the trail incomplete again.
// ══════════════════════════════════════════════════════════════════════════════

// GetTrailCompletionQuery contains the query parameters.
type GetTrailCompletionQuery struct {
	// UserID is the learner being inspected.
	UserID string

	// TrailID is the trail to derive completion for.
	TrailID string
}

// Validate validates the query.
func (q GetTrailCompletionQuery) Validate() error {
	if q.UserID == "" {
		return shared.NewDomainError("progression", "GetTrailCompletion", shared.ErrEmptyValue, "user_id is required")
	}
	if q.TrailID == "" {
		return shared.NewDomainError("progression", "GetTrailCompletion", shared.ErrEmptyValue, "trail_id is required")
	}
	return nil
}

// GetTrailCompletionHandler handles the GetTrailCompletionQuery.
type GetTrailCompletionHandler struct {
	learners learner.Repository
	progress progression.ProgressRepository
}

// NewGetTrailCompletionHandler creates a new GetTrailCompletionHandler.
func NewGetTrailCompletionHandler(learners learner.Repository, progress progression.ProgressRepository) *GetTrailCompletionHandler {
	return &GetTrailCompletionHandler{
		learners: learners,
		progress: progress,
	}
}

// Handle executes the query.
func (h *GetTrailCompletionHandler) Handle(ctx context.Context, q GetTrailCompletionQuery) (progression.TrailCompletion, error) {
	if err := q.Validate(); err != nil {
		return progression.TrailCompletion{}, err
	}

	exists, err := h.learners.Exists(ctx, q.UserID)
	if err != nil {
		return progression.TrailCompletion{}, err
	}
	if !exists {
		return progression.TrailCompletion{}, shared.ErrLearnerNotFound
	}

	return h.progress.TrailCompletion(ctx, q.UserID, q.TrailID)
}
