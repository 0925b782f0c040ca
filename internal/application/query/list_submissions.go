package query

import (
	"context"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/submission"
)

// ListSubmissionsHandler serves submission read operations.
type ListSubmissionsHandler struct {
	submissions submission.Repository
}

// NewListSubmissionsHandler creates a new ListSubmissionsHandler.
func NewListSubmissionsHandler(submissions submission.Repository) *ListSubmissionsHandler {
	return &ListSubmissionsHandler{submissions: submissions}
}

// ListForUser returns the learner's submissions, newest first.
func (h *ListSubmissionsHandler) ListForUser(ctx context.Context, userID string) ([]*submission.Submission, error) {
	if userID == "" {
		return nil, shared.NewDomainError("submission", "ListForUser", shared.ErrEmptyValue, "user_id is required")
	}
	return h.submissions.ListForUser(ctx, userID)
}
