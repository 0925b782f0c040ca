package progression

import (
	"context"
	"log/slog"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP & LEVEL CALCULATOR
// The single component allowed to mutate XP balances. Everything else
// (progress tracker, achievement engine, rewards ledger) goes through it,
// so the level formula in LevelForXP cannot be bypassed.
// ══════════════════════════════════════════════════════════════════════════════

// Calculator applies XP deltas to learner balances and keeps the derived
// level consistent with the total.
type Calculator struct {
	balances BalanceRepository
	events   shared.EventPublisher
	logger   *slog.Logger
}

// NewCalculator creates a Calculator. The event publisher may be nil; events
// are best-effort and never affect the outcome of a mutation.
func NewCalculator(balances BalanceRepository, events shared.EventPublisher, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		balances: balances,
		events:   events,
		logger:   logger,
	}
}

// CreditXP adds a positive XP amount to the learner's balance and recomputes
// the level in the same store transaction. Amounts of zero or less are
// rejected with an invalid-argument error.
func (c *Calculator) CreditXP(ctx context.Context, userID string, amount int) (Balance, error) {
	if amount <= 0 {
		return Balance{}, shared.ErrNonPositiveXPAmount
	}
	if userID == "" {
		return Balance{}, shared.NewDomainError("progression", "CreditXP", shared.ErrEmptyValue, "user ID is required")
	}

	after, err := c.balances.Credit(ctx, userID, amount)
	if err != nil {
		return Balance{}, err
	}

	c.logger.Info("XP credited",
		"user_id", userID,
		"amount", amount,
		"total_xp", after.TotalXP,
		"level", after.Level,
	)
	c.publishChange(userID, amount, after, "credit")

	return after, nil
}

// DebitXP subtracts a positive XP amount from the learner's balance. The
// sufficiency check is re-run inside the store transaction: callers such as
// the rewards ledger verify sufficiency beforehand, but only this check is
// authoritative under concurrency. The level is recomputed and may drop.
func (c *Calculator) DebitXP(ctx context.Context, userID string, amount int) (Balance, error) {
	if amount <= 0 {
		return Balance{}, shared.ErrNonPositiveXPAmount
	}
	if userID == "" {
		return Balance{}, shared.NewDomainError("progression", "DebitXP", shared.ErrEmptyValue, "user ID is required")
	}

	after, err := c.balances.Debit(ctx, userID, amount)
	if err != nil {
		return Balance{}, err
	}

	c.logger.Info("XP debited",
		"user_id", userID,
		"amount", amount,
		"total_xp", after.TotalXP,
		"level", after.Level,
	)
	c.publishChange(userID, -amount, after, "debit")

	return after, nil
}

// GetBalance returns the learner's balance. A learner without a stored row
// gets the zero state: 0 XP, level 1.
func (c *Calculator) GetBalance(ctx context.Context, userID string) (Balance, error) {
	if userID == "" {
		return Balance{}, shared.NewDomainError("progression", "GetBalance", shared.ErrEmptyValue, "user ID is required")
	}
	return c.balances.Get(ctx, userID)
}

// publishChange fires the XP change event. Failures are logged and dropped;
// a lost event must never roll back a committed balance mutation.
func (c *Calculator) publishChange(userID string, delta int, after Balance, reason string) {
	if c.events == nil {
		return
	}
	oldLevel := LevelForXP(after.TotalXP - delta)
	event := shared.NewXPChangedEvent(userID, delta, after.TotalXP, oldLevel, after.Level, reason)
	if err := c.events.Publish(event); err != nil {
		c.logger.Warn("failed to publish XP change event", "user_id", userID, "error", err)
	}
}
