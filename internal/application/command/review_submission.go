package command

import (
	"context"
	"log/slog"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/notification"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/submission"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW SUBMISSION COMMAND
// A professor's single decision on a pending submission. Approval triggers
// the first-approval achievement predicate.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewSubmissionCommand contains a professor's review decision.
type ReviewSubmissionCommand struct {
	SubmissionID string
	ProfessorID  string
	Approve      bool
}

// Validate validates the command.
func (c ReviewSubmissionCommand) Validate() error {
	if c.SubmissionID == "" {
		return shared.NewDomainError("submission", "Review", shared.ErrEmptyValue, "submission_id is required")
	}
	if c.ProfessorID == "" {
		return shared.NewDomainError("submission", "Review", shared.ErrEmptyValue, "professor_id is required")
	}
	return nil
}

// ReviewSubmissionHandler handles the ReviewSubmissionCommand.
type ReviewSubmissionHandler struct {
	learners    learner.Repository
	submissions submission.Repository
	engine      *AchievementEngine
	sink        notification.Sink
	logger      *slog.Logger
}

// NewReviewSubmissionHandler creates a new ReviewSubmissionHandler.
func NewReviewSubmissionHandler(
	learners learner.Repository,
	submissions submission.Repository,
	engine *AchievementEngine,
	sink notification.Sink,
	logger *slog.Logger,
) *ReviewSubmissionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = notification.NopSink{}
	}
	return &ReviewSubmissionHandler{
		learners:    learners,
		submissions: submissions,
		engine:      engine,
		sink:        sink,
		logger:      logger,
	}
}

// Handle executes the command and returns the reviewed submission.
func (h *ReviewSubmissionHandler) Handle(ctx context.Context, cmd ReviewSubmissionCommand) (*submission.Submission, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	professor, err := h.learners.GetByID(ctx, cmd.ProfessorID)
	if err != nil {
		return nil, err
	}
	if !professor.IsProfessor() {
		return nil, shared.NewDomainError("submission", "Review", shared.ErrInvalidArgument, "reviewer must be a professor")
	}

	reviewed, err := h.submissions.Review(ctx, cmd.SubmissionID, cmd.ProfessorID, cmd.Approve)
	if err != nil {
		return nil, err
	}

	h.logger.Info("submission reviewed",
		"submission_id", reviewed.ID,
		"user_id", reviewed.UserID,
		"professor_id", cmd.ProfessorID,
		"approved", cmd.Approve,
	)

	verdict := "Sua submissão foi recusada."
	if cmd.Approve {
		verdict = "Sua submissão foi aprovada."
	}
	h.sink.Notify(ctx, reviewed.UserID, notification.KindSubmissionReviewed,
		"Submissão avaliada", verdict)

	if cmd.Approve {
		if _, err := h.engine.CheckFirstApprovalAchievement(ctx, reviewed.UserID); err != nil {
			h.logger.Warn("first approval achievement check failed", "user_id", reviewed.UserID, "error", err)
		}
	}

	return reviewed, nil
}
