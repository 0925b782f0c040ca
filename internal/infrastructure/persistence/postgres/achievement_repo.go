package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/achievement"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository is the PostgreSQL implementation of
// achievement.Repository. Grant relies on the (user_id, achievement_id)
// primary key: the insert-if-absent either takes the row or does nothing,
// so the XP reward is credited at most once per pair.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new achievement repository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// GetByTitle returns a catalog achievement by its unique title.
func (r *AchievementRepository) GetByTitle(ctx context.Context, title string) (*achievement.Achievement, error) {
	var a achievement.Achievement
	err := r.conn.QueryRow(ctx, `
		SELECT id, title, description, type, xp_reward, requirement, created_at
		FROM achievements
		WHERE title = $1
	`, title).Scan(&a.ID, &a.Title, &a.Description, &a.Type, &a.XPReward, &a.Requirement, &a.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAchievementNotFound
		}
		return nil, storeErr("achievement.get_by_title", err)
	}
	return &a, nil
}

// ListCatalog returns the full catalog ordered by type, then by threshold.
func (r *AchievementRepository) ListCatalog(ctx context.Context) ([]*achievement.Achievement, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, title, description, type, xp_reward, requirement, created_at
		FROM achievements
		ORDER BY type, requirement, title
	`)
	if err != nil {
		return nil, storeErr("achievement.list_catalog", err)
	}
	defer rows.Close()

	var catalog []*achievement.Achievement
	for rows.Next() {
		var a achievement.Achievement
		err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Type, &a.XPReward, &a.Requirement, &a.CreatedAt)
		if err != nil {
			return nil, storeErr("achievement.list_catalog", err)
		}
		catalog = append(catalog, &a)
	}
	return catalog, rows.Err()
}

// ListForUser returns the learner's earned achievements, newest first.
func (r *AchievementRepository) ListForUser(ctx context.Context, userID string) ([]*achievement.Earned, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT a.id, a.title, a.description, a.type, a.xp_reward, a.requirement, a.created_at,
		       g.earned_at
		FROM achievement_grants g
		JOIN achievements a ON a.id = g.achievement_id
		WHERE g.user_id = $1
		ORDER BY g.earned_at DESC
	`, userID)
	if err != nil {
		return nil, storeErr("achievement.list_for_user", err)
	}
	defer rows.Close()

	var earned []*achievement.Earned
	for rows.Next() {
		var e achievement.Earned
		err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Type, &e.XPReward, &e.Requirement, &e.CreatedAt, &e.EarnedAt)
		if err != nil {
			return nil, storeErr("achievement.list_for_user", err)
		}
		earned = append(earned, &e)
	}
	return earned, rows.Err()
}

// Grant inserts the grant and credits its XP reward in one transaction.
// A lost insert race means another caller already granted it; this call
// then reports granted=false and leaves the balance alone.
func (r *AchievementRepository) Grant(ctx context.Context, userID string, a *achievement.Achievement) (bool, progression.Balance, error) {
	var (
		granted bool
		balance progression.Balance
	)

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO achievement_grants (user_id, achievement_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, achievement_id) DO NOTHING
		`, userID, a.ID)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			balance, err = readBalanceTx(ctx, tx, userID)
			return err
		}

		granted = true
		if a.XPReward > 0 {
			balance, err = creditTx(ctx, tx, userID, a.XPReward)
			return err
		}
		balance, err = readBalanceTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return false, progression.Balance{}, storeErr("achievement.grant", err)
	}
	return granted, balance, nil
}
