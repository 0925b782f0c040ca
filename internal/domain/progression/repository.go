package progression

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the contract with the ledger store. Implementations
// live in infrastructure/persistence. Operations documented as atomic are a
// single store transaction; concurrent callers observe the applied state,
// never a partial one.
// ══════════════════════════════════════════════════════════════════════════════

// BalanceRepository manages per-learner XP balances.
type BalanceRepository interface {
	// Get returns the learner's balance. A learner with no stored row gets
	// the zero balance (0 XP, level 1); absence is not an error.
	Get(ctx context.Context, userID string) (Balance, error)

	// Credit atomically adds a positive amount to the balance, creating the
	// row if absent, and recomputes the level in the same transaction.
	Credit(ctx context.Context, userID string, amount int) (Balance, error)

	// Debit atomically subtracts a positive amount. The sufficiency check
	// runs inside the transaction against the current row; returns
	// shared.ErrBalanceTooLow when total XP is below the amount.
	Debit(ctx context.Context, userID string, amount int) (Balance, error)
}

// CatalogRepository reads the immutable trail/module catalog.
type CatalogRepository interface {
	// GetTrail returns a trail by ID. Returns shared.ErrTrailNotFound if absent.
	GetTrail(ctx context.Context, trailID string) (*Trail, error)

	// GetModule returns a module by ID. Returns shared.ErrModuleNotFound if absent.
	GetModule(ctx context.Context, moduleID string) (*Module, error)

	// ListTrails returns all trails ordered by position.
	ListTrails(ctx context.Context) ([]*Trail, error)

	// ListModulesByTrail returns the trail's modules ordered by position.
	ListModulesByTrail(ctx context.Context, trailID string) ([]*Module, error)
}

// ProgressRepository manages per-learner module progress records.
type ProgressRepository interface {
	// Get returns the progress record for (user, module).
	// Returns shared.ErrProgressNotFound if no record exists yet.
	Get(ctx context.Context, userID, moduleID string) (*ModuleProgress, error)

	// Start upserts the record to in_progress. Returns
	// shared.ErrStatusRegression if the record is already completed.
	Start(ctx context.Context, userID, moduleID string) (*ModuleProgress, error)

	// Complete transitions the record to completed, stamps completed_at,
	// records xpReward as xp_earned, and credits the learner's balance, all
	// in one transaction. If the record was already completed the call is a
	// no-op: credited is false and the existing record is returned
	// unchanged. A missing record is created directly in completed state.
	Complete(ctx context.Context, userID, moduleID string, xpReward int) (credited bool, record *ModuleProgress, balance Balance, err error)

	// TrailCompletion derives the completion state of a trail for a learner.
	// Module count is read fresh on every call. Returns
	// shared.ErrTrailNotFound for an unknown trail.
	TrailCompletion(ctx context.Context, userID, trailID string) (TrailCompletion, error)

	// CountCompletedModules returns how many modules the learner completed.
	CountCompletedModules(ctx context.Context, userID string) (int, error)

	// CountCompletedTrails returns how many trails the learner fully
	// completed (every module of the trail has a completed record).
	CountCompletedTrails(ctx context.Context, userID string) (int, error)

	// ListForUser returns all of the learner's progress records.
	ListForUser(ctx context.Context, userID string) ([]*ModuleProgress, error)
}
