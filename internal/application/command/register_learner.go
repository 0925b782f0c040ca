package command

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Creates an account row with a bcrypt password hash. Login and token flows
// live outside the core; this only makes the account exist so balances,
// progress, and requests have an owner.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerCommand contains the data to create an account.
type RegisterLearnerCommand struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return shared.NewDomainError("learner", "Register", shared.ErrEmptyValue, "name is required")
	}
	if !strings.Contains(c.Email, "@") {
		return shared.NewDomainError("learner", "Register", shared.ErrInvalidArgument, "invalid email")
	}
	if len(c.Password) < 8 {
		return shared.NewDomainError("learner", "Register", shared.ErrInvalidArgument, "password must have at least 8 characters")
	}
	if _, err := learner.ParseRole(c.Role); err != nil {
		return err
	}
	return nil
}

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	learners learner.Repository
	logger   *slog.Logger
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(learners learner.Repository, logger *slog.Logger) *RegisterLearnerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterLearnerHandler{
		learners: learners,
		logger:   logger,
	}
}

// Handle executes the command and returns the created account.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*learner.Learner, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	role, err := learner.ParseRole(cmd.Role)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.WrapError("learner", "Register", shared.ErrInvalidArgument, "failed to hash password", err)
	}

	now := time.Now().UTC()
	l := &learner.Learner{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(cmd.Name),
		Email:        strings.ToLower(strings.TrimSpace(cmd.Email)),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.learners.Create(ctx, l); err != nil {
		return nil, err
	}

	h.logger.Info("learner registered", "learner_id", l.ID, "role", string(role))

	return l, nil
}
