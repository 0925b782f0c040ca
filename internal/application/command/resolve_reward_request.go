package command

import (
	"context"
	"log/slog"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/notification"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/reward"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVE REWARD REQUEST COMMAND
// A professor's single, final decision on a pending request. Approval debits
// the cost from the student's balance in the same store transaction as the
// status change; if the debit fails the status change does not persist. A
// request resolves exactly once: a second resolution attempt of either kind
// fails with an invalid-state error instead of silently succeeding.
// ══════════════════════════════════════════════════════════════════════════════

// ResolveRewardRequestCommand contains a professor's decision.
type ResolveRewardRequestCommand struct {
	// RequestID is the pending request being resolved.
	RequestID string

	// ProfessorID is the resolving professor.
	ProfessorID string

	// Approve is true to approve, false to reject.
	Approve bool

	// Response is an optional message to the student.
	Response string
}

// Validate validates the command.
func (c ResolveRewardRequestCommand) Validate() error {
	if c.RequestID == "" {
		return shared.NewDomainError("reward", "Resolve", shared.ErrEmptyValue, "request_id is required")
	}
	if c.ProfessorID == "" {
		return shared.NewDomainError("reward", "Resolve", shared.ErrEmptyValue, "professor_id is required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ResolveRewardRequestHandler handles the ResolveRewardRequestCommand.
type ResolveRewardRequestHandler struct {
	learners learner.Repository
	requests reward.Repository
	events   shared.EventPublisher
	sink     notification.Sink
	logger   *slog.Logger
}

// NewResolveRewardRequestHandler creates a new ResolveRewardRequestHandler.
func NewResolveRewardRequestHandler(
	learners learner.Repository,
	requests reward.Repository,
	events shared.EventPublisher,
	sink notification.Sink,
	logger *slog.Logger,
) *ResolveRewardRequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = notification.NopSink{}
	}
	return &ResolveRewardRequestHandler{
		learners: learners,
		requests: requests,
		events:   events,
		sink:     sink,
		logger:   logger,
	}
}

// Handle executes the command and returns the resolved request snapshot.
func (h *ResolveRewardRequestHandler) Handle(ctx context.Context, cmd ResolveRewardRequestCommand) (*reward.Request, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	professor, err := h.learners.GetByID(ctx, cmd.ProfessorID)
	if err != nil {
		return nil, err
	}
	if !professor.IsProfessor() {
		return nil, shared.NewDomainError("reward", "Resolve", shared.ErrInvalidArgument, "resolver must be a professor")
	}

	// The cost debited is the one recorded on the request at creation, not
	// the catalog's current cost; the request is the student's claim.
	current, err := h.requests.Get(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if current.IsResolved() {
		return nil, shared.ErrRequestAlreadyClosed
	}

	var resolved *reward.Request
	if cmd.Approve {
		// The repository re-checks the status guard and the balance inside
		// one transaction; at-most-one resolution wins under concurrency.
		resolved, _, err = h.requests.Approve(ctx, cmd.RequestID, cmd.ProfessorID, cmd.Response, current.PointsCost)
	} else {
		resolved, err = h.requests.Reject(ctx, cmd.RequestID, cmd.ProfessorID, cmd.Response)
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("reward request resolved",
		"request_id", resolved.ID,
		"student_id", resolved.StudentID,
		"professor_id", cmd.ProfessorID,
		"approved", cmd.Approve,
		"cost", resolved.PointsCost,
	)

	if h.events != nil {
		event := shared.NewRewardResolvedEvent(
			resolved.ID, resolved.StudentID, cmd.ProfessorID,
			resolved.RewardType.String(), cmd.Approve, resolved.PointsCost,
		)
		if err := h.events.Publish(event); err != nil {
			h.logger.Warn("failed to publish reward event", "request_id", resolved.ID, "error", err)
		}
	}

	if cmd.Approve {
		h.sink.Notify(ctx, resolved.StudentID, notification.KindRewardApproved,
			"Recompensa aprovada", resolved.RewardType.String())
	} else {
		h.sink.Notify(ctx, resolved.StudentID, notification.KindRewardRejected,
			"Recompensa recusada", resolved.RewardType.String())
	}

	return resolved, nil
}
