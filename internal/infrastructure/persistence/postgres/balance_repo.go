package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BALANCE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// BalanceRepository is the PostgreSQL implementation of
// progression.BalanceRepository. All writes lock the balance row and
// recompute the level from the new total inside the same transaction, so
// total_xp and level can never diverge in the store.
type BalanceRepository struct {
	conn *Connection
}

// NewBalanceRepository creates a new balance repository.
func NewBalanceRepository(conn *Connection) *BalanceRepository {
	return &BalanceRepository{conn: conn}
}

// Get returns the learner's balance. Absence of a row is the zero balance,
// not an error.
func (r *BalanceRepository) Get(ctx context.Context, userID string) (progression.Balance, error) {
	var b progression.Balance
	err := r.conn.QueryRow(ctx, `
		SELECT user_id, total_xp, level, streak_days, updated_at
		FROM user_balances
		WHERE user_id = $1
	`, userID).Scan(&b.UserID, &b.TotalXP, &b.Level, &b.StreakDays, &b.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return progression.ZeroBalance(userID), nil
		}
		return progression.Balance{}, storeErr("balance.get", err)
	}
	return b, nil
}

// Credit atomically adds amount to the learner's balance.
func (r *BalanceRepository) Credit(ctx context.Context, userID string, amount int) (progression.Balance, error) {
	if amount <= 0 {
		return progression.Balance{}, shared.ErrNonPositiveXPAmount
	}

	var balance progression.Balance
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		balance, err = creditTx(ctx, tx, userID, amount)
		return err
	})
	if err != nil {
		return progression.Balance{}, storeErr("balance.credit", err)
	}
	return balance, nil
}

// Debit atomically subtracts amount from the learner's balance. The
// sufficiency check runs against the locked row, never a stale read.
func (r *BalanceRepository) Debit(ctx context.Context, userID string, amount int) (progression.Balance, error) {
	if amount <= 0 {
		return progression.Balance{}, shared.ErrNonPositiveXPAmount
	}

	var balance progression.Balance
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		balance, err = debitTx(ctx, tx, userID, amount)
		return err
	})
	if err != nil {
		return progression.Balance{}, storeErr("balance.debit", err)
	}
	return balance, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TX HELPERS
// Shared by every composite operation that moves XP (module completion,
// achievement grants, reward approval). They take a Querier so they run
// inside whatever transaction the caller already holds.
// ══════════════════════════════════════════════════════════════════════════════

// lockBalanceRow upserts the zero row if absent and locks it for update,
// returning the current total.
func lockBalanceRow(ctx context.Context, q Querier, userID string) (totalXP, streakDays int, err error) {
	_, err = q.Exec(ctx, `
		INSERT INTO user_balances (user_id, total_xp, level)
		VALUES ($1, 0, 1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return 0, 0, err
	}

	err = q.QueryRow(ctx, `
		SELECT total_xp, streak_days
		FROM user_balances
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&totalXP, &streakDays)
	return totalXP, streakDays, err
}

// creditTx adds amount to the balance within the caller's transaction.
func creditTx(ctx context.Context, q Querier, userID string, amount int) (progression.Balance, error) {
	totalXP, streakDays, err := lockBalanceRow(ctx, q, userID)
	if err != nil {
		return progression.Balance{}, err
	}
	return writeBalance(ctx, q, userID, totalXP+amount, streakDays)
}

// debitTx subtracts amount within the caller's transaction. It re-checks
// sufficiency against the locked row and fails the whole transaction with
// shared.ErrBalanceTooLow when the total no longer covers the amount.
func debitTx(ctx context.Context, q Querier, userID string, amount int) (progression.Balance, error) {
	totalXP, streakDays, err := lockBalanceRow(ctx, q, userID)
	if err != nil {
		return progression.Balance{}, err
	}
	if totalXP < amount {
		return progression.Balance{}, shared.ErrBalanceTooLow
	}
	return writeBalance(ctx, q, userID, totalXP-amount, streakDays)
}

// writeBalance persists the new total with its recomputed level. The level
// formula lives in the progression package only; SQL never duplicates it.
func writeBalance(ctx context.Context, q Querier, userID string, newTotal, streakDays int) (progression.Balance, error) {
	b := progression.Balance{
		UserID:     userID,
		TotalXP:    newTotal,
		Level:      progression.LevelForXP(newTotal),
		StreakDays: streakDays,
	}
	err := q.QueryRow(ctx, `
		UPDATE user_balances
		SET total_xp = $2, level = $3, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`, userID, b.TotalXP, b.Level).Scan(&b.UpdatedAt)
	if err != nil {
		return progression.Balance{}, err
	}
	return b, nil
}
