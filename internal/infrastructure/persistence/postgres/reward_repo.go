package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/reward"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REWARD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RewardRepository is the PostgreSQL implementation of reward.Repository.
// Resolution updates are guarded on status = 'pending', so of any number of
// concurrent approve/reject calls on one request exactly one applies and
// the rest fail with shared.ErrRequestAlreadyClosed.
type RewardRepository struct {
	conn *Connection
}

// NewRewardRepository creates a new reward repository.
func NewRewardRepository(conn *Connection) *RewardRepository {
	return &RewardRepository{conn: conn}
}

// Create inserts a new pending request.
func (r *RewardRepository) Create(ctx context.Context, req *reward.Request) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO reward_requests (id, student_id, reward_type, points_cost, message, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
	`, req.ID, req.StudentID, req.RewardType, req.PointsCost, req.Message)
	if err != nil {
		return storeErr("reward.create", err)
	}
	return nil
}

// Get returns a request by ID.
func (r *RewardRepository) Get(ctx context.Context, requestID string) (*reward.Request, error) {
	req, err := scanRequest(r.conn.QueryRow(ctx,
		selectRequest+` WHERE id = $1`, requestID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRequestNotFound
		}
		return nil, storeErr("reward.get", err)
	}
	return req, nil
}

// Approve resolves the request and debits the student in one transaction.
// The debit re-checks sufficiency against the locked balance row; when it
// fails with shared.ErrBalanceTooLow the whole transaction rolls back and
// the request stays pending.
func (r *RewardRepository) Approve(ctx context.Context, requestID, professorID, response string, cost int) (*reward.Request, progression.Balance, error) {
	var (
		req     *reward.Request
		balance progression.Balance
	)

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		req, err = resolveRequestTx(ctx, tx, requestID, professorID, response, reward.StatusApproved)
		if err != nil {
			return err
		}
		balance, err = debitTx(ctx, tx, req.StudentID, cost)
		return err
	})
	if err != nil {
		return nil, progression.Balance{}, storeErr("reward.approve", err)
	}
	return req, balance, nil
}

// Reject resolves the request without touching the balance.
func (r *RewardRepository) Reject(ctx context.Context, requestID, professorID, response string) (*reward.Request, error) {
	var req *reward.Request
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		req, err = resolveRequestTx(ctx, tx, requestID, professorID, response, reward.StatusRejected)
		return err
	})
	if err != nil {
		return nil, storeErr("reward.reject", err)
	}
	return req, nil
}

// ListPending returns all pending requests, oldest first, with requester
// display info for the review queue.
func (r *RewardRepository) ListPending(ctx context.Context) ([]*reward.PendingRequest, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT r.id, r.student_id, r.reward_type, r.points_cost, r.message, r.status,
		       r.professor_id, r.professor_response, r.created_at, r.resolved_at,
		       l.name, l.email
		FROM reward_requests r
		JOIN learners l ON l.id = r.student_id
		WHERE r.status = 'pending'
		ORDER BY r.created_at
	`)
	if err != nil {
		return nil, storeErr("reward.list_pending", err)
	}
	defer rows.Close()

	var pending []*reward.PendingRequest
	for rows.Next() {
		var p reward.PendingRequest
		err := rows.Scan(
			&p.ID, &p.StudentID, &p.RewardType, &p.PointsCost, &p.Message, &p.Status,
			&p.ProfessorID, &p.ProfessorResponse, &p.CreatedAt, &p.ResolvedAt,
			&p.StudentName, &p.StudentEmail,
		)
		if err != nil {
			return nil, storeErr("reward.list_pending", err)
		}
		pending = append(pending, &p)
	}
	return pending, rows.Err()
}

// ListForStudent returns the student's own requests, newest first.
func (r *RewardRepository) ListForStudent(ctx context.Context, studentID string) ([]*reward.Request, error) {
	rows, err := r.conn.Query(ctx,
		selectRequest+` WHERE student_id = $1 ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, storeErr("reward.list_for_student", err)
	}
	defer rows.Close()

	var requests []*reward.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, storeErr("reward.list_for_student", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

const selectRequest = `
	SELECT id, student_id, reward_type, points_cost, message, status,
	       professor_id, professor_response, created_at, resolved_at
	FROM reward_requests`

// resolveRequestTx applies the guarded status transition. Zero rows means
// the guard failed; a follow-up lookup distinguishes an unknown request
// from one already resolved.
func resolveRequestTx(ctx context.Context, q Querier, requestID, professorID, response string, to reward.Status) (*reward.Request, error) {
	req, err := scanRequest(q.QueryRow(ctx, `
		UPDATE reward_requests
		SET status = $2, professor_id = $3, professor_response = $4, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING id, student_id, reward_type, points_cost, message, status,
		          professor_id, professor_response, created_at, resolved_at
	`, requestID, to, professorID, response))
	if err == nil {
		return req, nil
	}
	if !IsNoRows(err) {
		return nil, err
	}

	var exists bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reward_requests WHERE id = $1)`, requestID,
	).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrRequestNotFound
	}
	return nil, shared.ErrRequestAlreadyClosed
}

// scanRequest scans one reward_requests row.
func scanRequest(row pgx.Row) (*reward.Request, error) {
	var req reward.Request
	err := row.Scan(
		&req.ID, &req.StudentID, &req.RewardType, &req.PointsCost, &req.Message, &req.Status,
		&req.ProfessorID, &req.ProfessorResponse, &req.CreatedAt, &req.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
