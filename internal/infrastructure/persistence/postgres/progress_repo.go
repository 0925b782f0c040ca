package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
	"github.com/douglasrmachado/Trilhas-App-sub001/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository is the PostgreSQL implementation of
// progression.ProgressRepository. Complete is the critical path: the status
// transition and the XP credit commit together or not at all, and the
// transition is guarded so a record completes at most once no matter how
// many callers race on it.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new progress repository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// Get returns the progress record for (user, module).
func (r *ProgressRepository) Get(ctx context.Context, userID, moduleID string) (*progression.ModuleProgress, error) {
	p, err := scanProgress(r.conn.QueryRow(ctx, `
		SELECT user_id, module_id, status, xp_earned, started_at, completed_at
		FROM module_progress
		WHERE user_id = $1 AND module_id = $2
	`, userID, moduleID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, storeErr("progress.get", err)
	}
	return p, nil
}

// Start upserts the record to in_progress. Re-starting an in_progress
// module is a no-op; a completed record never regresses.
func (r *ProgressRepository) Start(ctx context.Context, userID, moduleID string) (*progression.ModuleProgress, error) {
	p, err := scanProgress(r.conn.QueryRow(ctx, `
		INSERT INTO module_progress (user_id, module_id, status)
		VALUES ($1, $2, 'in_progress')
		ON CONFLICT (user_id, module_id) DO UPDATE
			SET status = 'in_progress'
			WHERE module_progress.status <> 'completed'
		RETURNING user_id, module_id, status, xp_earned, started_at, completed_at
	`, userID, moduleID))
	if err != nil {
		if IsNoRows(err) {
			// The guarded upsert matched nothing: the record is completed.
			return nil, shared.ErrStatusRegression
		}
		return nil, storeErr("progress.start", err)
	}
	return p, nil
}

// Complete transitions the record to completed and credits xpReward in one
// transaction. The guarded upsert returns no row when the record is already
// completed, in which case nothing is credited and the stored record is
// returned as is.
func (r *ProgressRepository) Complete(ctx context.Context, userID, moduleID string, xpReward int) (bool, *progression.ModuleProgress, progression.Balance, error) {
	var (
		credited bool
		record   *progression.ModuleProgress
		balance  progression.Balance
	)

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		p, err := scanProgress(tx.QueryRow(ctx, `
			INSERT INTO module_progress (user_id, module_id, status, xp_earned, completed_at)
			VALUES ($1, $2, 'completed', $3, NOW())
			ON CONFLICT (user_id, module_id) DO UPDATE
				SET status = 'completed', xp_earned = $3, completed_at = NOW()
				WHERE module_progress.status <> 'completed'
			RETURNING user_id, module_id, status, xp_earned, started_at, completed_at
		`, userID, moduleID, xpReward))

		switch {
		case err == nil:
			// Fresh transition: credit inside the same transaction.
			record = p
			credited = true

			var lastCompletion *time.Time
			err = tx.QueryRow(ctx, `
				SELECT MAX(completed_at)
				FROM module_progress
				WHERE user_id = $1 AND status = 'completed' AND module_id <> $2
			`, userID, moduleID).Scan(&lastCompletion)
			if err != nil {
				return err
			}

			balance, err = creditTx(ctx, tx, userID, xpReward)
			if err != nil {
				return err
			}

			streak := nextStreak(balance.StreakDays, lastCompletion, timeutil.Now())
			if streak != balance.StreakDays {
				if _, err := tx.Exec(ctx,
					`UPDATE user_balances SET streak_days = $2 WHERE user_id = $1`,
					userID, streak,
				); err != nil {
					return err
				}
				balance.StreakDays = streak
			}
			return nil

		case IsNoRows(err):
			// Already completed. Return the stored record and the current
			// balance untouched.
			record, err = scanProgress(tx.QueryRow(ctx, `
				SELECT user_id, module_id, status, xp_earned, started_at, completed_at
				FROM module_progress
				WHERE user_id = $1 AND module_id = $2
			`, userID, moduleID))
			if err != nil {
				return err
			}
			balance, err = readBalanceTx(ctx, tx, userID)
			return err

		default:
			return err
		}
	})
	if err != nil {
		return false, nil, progression.Balance{}, storeErr("progress.complete", err)
	}
	return credited, record, balance, nil
}

// TrailCompletion derives the completion state of a trail for a learner.
func (r *ProgressRepository) TrailCompletion(ctx context.Context, userID, trailID string) (progression.TrailCompletion, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trails WHERE id = $1)`, trailID,
	).Scan(&exists)
	if err != nil {
		return progression.TrailCompletion{}, storeErr("progress.trail_completion", err)
	}
	if !exists {
		return progression.TrailCompletion{}, shared.ErrTrailNotFound
	}

	c := progression.TrailCompletion{TrailID: trailID, UserID: userID}
	err = r.conn.QueryRow(ctx, `
		SELECT COUNT(m.id), COUNT(p.module_id)
		FROM modules m
		LEFT JOIN module_progress p
			ON p.module_id = m.id AND p.user_id = $2 AND p.status = 'completed'
		WHERE m.trail_id = $1
	`, trailID, userID).Scan(&c.TotalModules, &c.CompletedModules)
	if err != nil {
		return progression.TrailCompletion{}, storeErr("progress.trail_completion", err)
	}
	return c, nil
}

// CountCompletedModules returns how many modules the learner completed.
func (r *ProgressRepository) CountCompletedModules(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM module_progress
		WHERE user_id = $1 AND status = 'completed'
	`, userID).Scan(&count)
	if err != nil {
		return 0, storeErr("progress.count_modules", err)
	}
	return count, nil
}

// CountCompletedTrails counts the trails where every module has a completed
// record for the learner. Empty trails never count.
func (r *ProgressRepository) CountCompletedTrails(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM (
			SELECT m.trail_id
			FROM modules m
			LEFT JOIN module_progress p
				ON p.module_id = m.id AND p.user_id = $1 AND p.status = 'completed'
			GROUP BY m.trail_id
			HAVING COUNT(m.id) > 0 AND COUNT(m.id) = COUNT(p.module_id)
		) finished
	`, userID).Scan(&count)
	if err != nil {
		return 0, storeErr("progress.count_trails", err)
	}
	return count, nil
}

// ListForUser returns all of the learner's progress records.
func (r *ProgressRepository) ListForUser(ctx context.Context, userID string) ([]*progression.ModuleProgress, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT user_id, module_id, status, xp_earned, started_at, completed_at
		FROM module_progress
		WHERE user_id = $1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, storeErr("progress.list", err)
	}
	defer rows.Close()

	var records []*progression.ModuleProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, storeErr("progress.list", err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

// scanProgress scans one module_progress row.
func scanProgress(row pgx.Row) (*progression.ModuleProgress, error) {
	var p progression.ModuleProgress
	err := row.Scan(&p.UserID, &p.ModuleID, &p.Status, &p.XPEarned, &p.StartedAt, &p.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// nextStreak computes the streak after a completion at now, given the
// previous most recent completion. Same-day completions keep the streak,
// a completion on the following calendar day extends it, anything else
// restarts at one.
func nextStreak(current int, lastCompletion *time.Time, now time.Time) int {
	if lastCompletion == nil {
		return 1
	}
	switch {
	case timeutil.IsSameDay(*lastCompletion, now):
		if current < 1 {
			return 1
		}
		return current
	case timeutil.IsConsecutiveDay(*lastCompletion, now):
		return current + 1
	default:
		return 1
	}
}

// readBalanceTx reads the balance without locking, inside the caller's
// transaction. Absence is the zero balance.
func readBalanceTx(ctx context.Context, q Querier, userID string) (progression.Balance, error) {
	var b progression.Balance
	err := q.QueryRow(ctx, `
		SELECT user_id, total_xp, level, streak_days, updated_at
		FROM user_balances
		WHERE user_id = $1
	`, userID).Scan(&b.UserID, &b.TotalXP, &b.Level, &b.StreakDays, &b.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return progression.ZeroBalance(userID), nil
		}
		return progression.Balance{}, err
	}
	return b, nil
}
