package learner

import (
	"context"
)

// Repository defines the store contract for learner accounts.
type Repository interface {
	// Create inserts a new learner.
	// Returns shared.ErrLearnerAlreadyExists on a duplicate email.
	Create(ctx context.Context, l *Learner) error

	// GetByID returns a learner by ID.
	// Returns shared.ErrLearnerNotFound if absent.
	GetByID(ctx context.Context, id string) (*Learner, error)

	// GetByEmail returns a learner by email.
	// Returns shared.ErrLearnerNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*Learner, error)

	// Exists reports whether a learner with the given ID exists. Used by
	// commands that must fail NotFound on unknown user IDs without loading
	// the full row.
	Exists(ctx context.Context, id string) (bool, error)
}
