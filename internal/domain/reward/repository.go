package reward

import (
	"context"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
)

// Repository defines the store contract for reward requests. The resolution
// operations implement the at-most-one-winner guarantee: the status update
// is guarded on the pending state, so a concurrent duplicate resolution
// fails with shared.ErrRequestAlreadyClosed instead of applying twice.
type Repository interface {
	// Create inserts a new pending request.
	Create(ctx context.Context, req *Request) error

	// Get returns a request by ID.
	// Returns shared.ErrRequestNotFound if absent.
	Get(ctx context.Context, requestID string) (*Request, error)

	// Approve transitions the request to approved, records the professor
	// fields, and debits cost from the student's balance, all in one
	// transaction. Returns shared.ErrRequestNotFound if absent,
	// shared.ErrRequestAlreadyClosed if not pending, and
	// shared.ErrBalanceTooLow if the student's current balance no longer
	// covers the cost (in which case the status change does not persist).
	Approve(ctx context.Context, requestID, professorID, response string, cost int) (*Request, progression.Balance, error)

	// Reject transitions the request to rejected and records the professor
	// fields. Same guards as Approve; no balance change.
	Reject(ctx context.Context, requestID, professorID, response string) (*Request, error)

	// ListPending returns all pending requests, oldest first, joined with
	// requester display info.
	ListPending(ctx context.Context) ([]*PendingRequest, error)

	// ListForStudent returns a student's own requests, newest first.
	ListForStudent(ctx context.Context, studentID string) ([]*Request, error)
}
