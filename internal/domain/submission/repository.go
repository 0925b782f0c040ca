package submission

import (
	"context"
)

// Repository defines the store contract for submissions.
type Repository interface {
	// Create inserts a new pending submission.
	Create(ctx context.Context, s *Submission) error

	// Get returns a submission by ID.
	// Returns shared.ErrSubmissionNotFound if absent.
	Get(ctx context.Context, id string) (*Submission, error)

	// Review transitions the submission out of pending. The update is
	// guarded on the pending state; returns shared.ErrSubmissionClosed if
	// the submission was already reviewed.
	Review(ctx context.Context, id, professorID string, approve bool) (*Submission, error)

	// CountApprovedForUser returns how many of the learner's submissions
	// have been approved.
	CountApprovedForUser(ctx context.Context, userID string) (int, error)

	// ListForUser returns the learner's submissions, newest first.
	ListForUser(ctx context.Context, userID string) ([]*Submission, error)
}
