package query

import (
	"context"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/reward"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST REWARD REQUESTS QUERIES
// The professor review queue is served oldest first (FIFO fairness); a
// student's own history newest first.
// ══════════════════════════════════════════════════════════════════════════════

// ListRewardRequestsHandler serves reward request read operations.
type ListRewardRequestsHandler struct {
	requests reward.Repository
}

// NewListRewardRequestsHandler creates a new ListRewardRequestsHandler.
func NewListRewardRequestsHandler(requests reward.Repository) *ListRewardRequestsHandler {
	return &ListRewardRequestsHandler{requests: requests}
}

// ListPendingForProfessors returns all pending requests, oldest first,
// joined with requester display info.
func (h *ListRewardRequestsHandler) ListPendingForProfessors(ctx context.Context) ([]*reward.PendingRequest, error) {
	return h.requests.ListPending(ctx)
}

// ListForStudent returns the student's own requests, newest first.
func (h *ListRewardRequestsHandler) ListForStudent(ctx context.Context, studentID string) ([]*reward.Request, error) {
	if studentID == "" {
		return nil, shared.NewDomainError("reward", "ListForStudent", shared.ErrEmptyValue, "student_id is required")
	}
	return h.requests.ListForStudent(ctx, studentID)
}
