package postgres

import (
	"context"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// LearnerRepository is the PostgreSQL implementation of learner.Repository.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new learner repository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

// Create inserts a new learner.
func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	err := r.conn.QueryRow(ctx, `
		INSERT INTO learners (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, l.ID, l.Name, l.Email, l.PasswordHash, l.Role).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLearnerAlreadyExists
		}
		return storeErr("learner.create", err)
	}
	return nil
}

// GetByID returns a learner by ID.
func (r *LearnerRepository) GetByID(ctx context.Context, id string) (*learner.Learner, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

// GetByEmail returns a learner by email.
func (r *LearnerRepository) GetByEmail(ctx context.Context, email string) (*learner.Learner, error) {
	return r.getBy(ctx, `WHERE email = $1`, email)
}

func (r *LearnerRepository) getBy(ctx context.Context, where string, arg any) (*learner.Learner, error) {
	var l learner.Learner
	err := r.conn.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM learners `+where, arg,
	).Scan(&l.ID, &l.Name, &l.Email, &l.PasswordHash, &l.Role, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, storeErr("learner.get", err)
	}
	return &l, nil
}

// Exists reports whether a learner with the given ID exists.
func (r *LearnerRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM learners WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, storeErr("learner.exists", err)
	}
	return exists, nil
}
