package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/reward"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE REWARD REQUEST COMMAND
// Opens a redemption claim against the student's XP balance. The balance
// check here is advisory only: no points are held, and the authoritative
// check runs again at approval time against the balance current then.
// ══════════════════════════════════════════════════════════════════════════════

// CreateRewardRequestCommand contains the data to open a redemption request.
type CreateRewardRequestCommand struct {
	// StudentID is the requesting student.
	StudentID string

	// RewardType is the reward type string, e.g. "horas_afins".
	RewardType string

	// Message is an optional note to the reviewing professor.
	Message string
}

// Validate validates the command.
func (c CreateRewardRequestCommand) Validate() error {
	if c.StudentID == "" {
		return shared.NewDomainError("reward", "CreateRequest", shared.ErrEmptyValue, "student_id is required")
	}
	if _, err := reward.ParseType(c.RewardType); err != nil {
		return err
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreateRewardRequestHandler handles the CreateRewardRequestCommand.
type CreateRewardRequestHandler struct {
	learners   learner.Repository
	requests   reward.Repository
	calculator *progression.Calculator
	logger     *slog.Logger
}

// NewCreateRewardRequestHandler creates a new CreateRewardRequestHandler.
func NewCreateRewardRequestHandler(
	learners learner.Repository,
	requests reward.Repository,
	calculator *progression.Calculator,
	logger *slog.Logger,
) *CreateRewardRequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateRewardRequestHandler{
		learners:   learners,
		requests:   requests,
		calculator: calculator,
		logger:     logger,
	}
}

// Handle executes the command and returns the created request snapshot.
func (h *CreateRewardRequestHandler) Handle(ctx context.Context, cmd CreateRewardRequestCommand) (*reward.Request, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	exists, err := h.learners.Exists(ctx, cmd.StudentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrLearnerNotFound
	}

	rewardType, err := reward.ParseType(cmd.RewardType)
	if err != nil {
		return nil, err
	}
	cost, err := rewardType.Cost()
	if err != nil {
		return nil, err
	}

	// Advisory sufficiency check. XP may be spent or earned before a
	// professor resolves the request; approval re-checks authoritatively.
	balance, err := h.calculator.GetBalance(ctx, cmd.StudentID)
	if err != nil {
		return nil, err
	}
	if balance.TotalXP < cost {
		return nil, shared.ErrCostExceedsBalance
	}

	req := &reward.Request{
		ID:         uuid.New().String(),
		StudentID:  cmd.StudentID,
		RewardType: rewardType,
		PointsCost: cost,
		Message:    cmd.Message,
		Status:     reward.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	h.logger.Info("reward request created",
		"request_id", req.ID,
		"student_id", cmd.StudentID,
		"reward_type", rewardType.String(),
		"cost", cost,
	)

	return req, nil
}
