package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/submission"
)

// SubmissionRepository is the PostgreSQL implementation of
// submission.Repository. Review uses the same pending-guard pattern as
// reward resolution: the first reviewer wins, later calls fail closed.
type SubmissionRepository struct {
	conn *Connection
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(conn *Connection) *SubmissionRepository {
	return &SubmissionRepository{conn: conn}
}

// Create inserts a new pending submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *submission.Submission) error {
	err := r.conn.QueryRow(ctx, `
		INSERT INTO submissions (id, user_id, module_id, artifact_name, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING created_at
	`, s.ID, s.UserID, s.ModuleID, s.ArtifactName, s.Status).Scan(&s.CreatedAt)
	if err != nil {
		return storeErr("submission.create", err)
	}
	return nil
}

// Get returns a submission by ID.
func (r *SubmissionRepository) Get(ctx context.Context, id string) (*submission.Submission, error) {
	s, err := scanSubmission(r.conn.QueryRow(ctx, `
		SELECT id, user_id, module_id, artifact_name, status, reviewed_by, created_at, reviewed_at
		FROM submissions
		WHERE id = $1
	`, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSubmissionNotFound
		}
		return nil, storeErr("submission.get", err)
	}
	return s, nil
}

// Review transitions the submission out of pending.
func (r *SubmissionRepository) Review(ctx context.Context, id, professorID string, approve bool) (*submission.Submission, error) {
	status := submission.StatusRejected
	if approve {
		status = submission.StatusApproved
	}

	s, err := scanSubmission(r.conn.QueryRow(ctx, `
		UPDATE submissions
		SET status = $2, reviewed_by = $3, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, user_id, module_id, artifact_name, status, reviewed_by, created_at, reviewed_at
	`, id, status, professorID))
	if err == nil {
		return s, nil
	}
	if !IsNoRows(err) {
		return nil, storeErr("submission.review", err)
	}

	var exists bool
	if err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, storeErr("submission.review", err)
	}
	if !exists {
		return nil, shared.ErrSubmissionNotFound
	}
	return nil, shared.ErrSubmissionClosed
}

// CountApprovedForUser returns how many of the learner's submissions have
// been approved.
func (r *SubmissionRepository) CountApprovedForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM submissions
		WHERE user_id = $1 AND status = 'approved'
	`, userID).Scan(&count)
	if err != nil {
		return 0, storeErr("submission.count_approved", err)
	}
	return count, nil
}

// ListForUser returns the learner's submissions, newest first.
func (r *SubmissionRepository) ListForUser(ctx context.Context, userID string) ([]*submission.Submission, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, module_id, artifact_name, status, reviewed_by, created_at, reviewed_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, storeErr("submission.list", err)
	}
	defer rows.Close()

	var subs []*submission.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, storeErr("submission.list", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// scanSubmission scans one submissions row.
func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	var s submission.Submission
	err := row.Scan(&s.ID, &s.UserID, &s.ModuleID, &s.ArtifactName, &s.Status, &s.ReviewedBy, &s.CreatedAt, &s.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
