package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/submission"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ARTIFACT COMMAND
// Records a pending submission for a module. The artifact bytes are handled
// by the external storage collaborator; only the name is recorded here.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitArtifactCommand contains the data to record a submission.
type SubmitArtifactCommand struct {
	UserID       string
	ModuleID     string
	ArtifactName string
}

// Validate validates the command.
func (c SubmitArtifactCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("submission", "Submit", shared.ErrEmptyValue, "user_id is required")
	}
	if c.ModuleID == "" {
		return shared.NewDomainError("submission", "Submit", shared.ErrEmptyValue, "module_id is required")
	}
	if c.ArtifactName == "" {
		return shared.NewDomainError("submission", "Submit", shared.ErrEmptyValue, "artifact name is required")
	}
	return nil
}

// SubmitArtifactHandler handles the SubmitArtifactCommand.
type SubmitArtifactHandler struct {
	learners    learner.Repository
	catalog     progression.CatalogRepository
	submissions submission.Repository
	logger      *slog.Logger
}

// NewSubmitArtifactHandler creates a new SubmitArtifactHandler.
func NewSubmitArtifactHandler(
	learners learner.Repository,
	catalog progression.CatalogRepository,
	submissions submission.Repository,
	logger *slog.Logger,
) *SubmitArtifactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitArtifactHandler{
		learners:    learners,
		catalog:     catalog,
		submissions: submissions,
		logger:      logger,
	}
}

// Handle executes the command and returns the created submission.
func (h *SubmitArtifactHandler) Handle(ctx context.Context, cmd SubmitArtifactCommand) (*submission.Submission, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	exists, err := h.learners.Exists(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrLearnerNotFound
	}

	if _, err := h.catalog.GetModule(ctx, cmd.ModuleID); err != nil {
		return nil, err
	}

	sub := &submission.Submission{
		ID:           uuid.New().String(),
		UserID:       cmd.UserID,
		ModuleID:     cmd.ModuleID,
		ArtifactName: cmd.ArtifactName,
		Status:       submission.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.submissions.Create(ctx, sub); err != nil {
		return nil, err
	}

	h.logger.Info("submission recorded",
		"submission_id", sub.ID,
		"user_id", cmd.UserID,
		"module_id", cmd.ModuleID,
	)

	return sub, nil
}
