// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"log/slog"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/notification"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SET MODULE STATUS COMMAND
// Records a learner's progress on a module. Completion credits the module's
// XP reward and stamps completed_at in the same store transaction; a second
// completion of the same module is a no-op and never re-credits.
// ══════════════════════════════════════════════════════════════════════════════

// SetModuleStatusCommand contains the data to update module progress.
type SetModuleStatusCommand struct {
	// UserID is the learner whose progress is updated.
	UserID string

	// ModuleID is the module being updated.
	ModuleID string

	// Status is the requested status string: "in_progress" or "completed".
	// Callers cannot force "not_started".
	Status string
}

// Validate validates the command.
func (c SetModuleStatusCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("progression", "SetModuleStatus", shared.ErrEmptyValue, "user_id is required")
	}
	if c.ModuleID == "" {
		return shared.NewDomainError("progression", "SetModuleStatus", shared.ErrEmptyValue, "module_id is required")
	}
	status := progression.ModuleStatus(c.Status)
	if !status.IsValid() || !status.IsSettable() {
		return shared.ErrInvalidModuleStatus
	}
	return nil
}

// SetModuleStatusResult contains the outcome of the update.
type SetModuleStatusResult struct {
	// Record is the progress record after the update.
	Record *progression.ModuleProgress

	// XPCredited is the amount credited by this call; zero when the module
	// was already completed or only moved to in_progress.
	XPCredited int

	// Balance is the learner's balance after the update. Only populated
	// when XP was credited.
	Balance progression.Balance

	// TrailCompleted is true when this completion finished the whole trail.
	TrailCompleted bool

	// NewAchievements lists achievement titles granted by this update.
	NewAchievements []string
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SetModuleStatusHandler handles the SetModuleStatusCommand.
type SetModuleStatusHandler struct {
	learners learner.Repository
	catalog  progression.CatalogRepository
	progress progression.ProgressRepository
	engine   *AchievementEngine
	events   shared.EventPublisher
	sink     notification.Sink
	logger   *slog.Logger
}

// NewSetModuleStatusHandler creates a new SetModuleStatusHandler.
func NewSetModuleStatusHandler(
	learners learner.Repository,
	catalog progression.CatalogRepository,
	progress progression.ProgressRepository,
	engine *AchievementEngine,
	events shared.EventPublisher,
	sink notification.Sink,
	logger *slog.Logger,
) *SetModuleStatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = notification.NopSink{}
	}
	return &SetModuleStatusHandler{
		learners: learners,
		catalog:  catalog,
		progress: progress,
		engine:   engine,
		events:   events,
		sink:     sink,
		logger:   logger,
	}
}

// Handle executes the command.
func (h *SetModuleStatusHandler) Handle(ctx context.Context, cmd SetModuleStatusCommand) (*SetModuleStatusResult, error) {
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

	module, err := h.catalog.GetModule(ctx, cmd.ModuleID)
	if err != nil {
		return nil, err
	}

	status := progression.ModuleStatus(cmd.Status)
	if status == progression.StatusInProgress {
		record, err := h.progress.Start(ctx, cmd.UserID, cmd.ModuleID)
		if err != nil {
			return nil, err
		}
		return &SetModuleStatusResult{Record: record}, nil
	}

	// Direct completion without a prior in_progress write is accepted: the
	// store creates the record in completed state.
	credited, record, balance, err := h.progress.Complete(ctx, cmd.UserID, cmd.ModuleID, module.XPReward)
	if err != nil {
		return nil, err
	}

	result := &SetModuleStatusResult{Record: record}
	if !credited {
		// Already completed earlier; idempotent no-op.
		return result, nil
	}

	result.XPCredited = module.XPReward
	result.Balance = balance

	h.logger.Info("module completed",
		"user_id", cmd.UserID,
		"module_id", cmd.ModuleID,
		"xp_earned", module.XPReward,
		"total_xp", balance.TotalXP,
		"level", balance.Level,
	)

	h.publish(shared.NewModuleCompletedEvent(cmd.UserID, module.ID, module.TrailID, module.XPReward))
	h.sink.Notify(ctx, cmd.UserID, notification.KindModuleCompleted,
		"Módulo concluído", module.Title)

	// Post-commit side effects: trail derivation and achievement checks.
	// These run after the credit transaction and are individually
	// idempotent, so a crash between them leaves no corrupt state.
	completion, err := h.progress.TrailCompletion(ctx, cmd.UserID, module.TrailID)
	if err != nil {
		h.logger.Warn("trail completion check failed", "trail_id", module.TrailID, "error", err)
	} else if completion.IsComplete() {
		result.TrailCompleted = true
		h.publish(shared.NewTrailCompletedEvent(cmd.UserID, module.TrailID))
		h.sink.Notify(ctx, cmd.UserID, notification.KindTrailCompleted,
			"Trilha concluída", "Você completou todos os módulos da trilha.")
	}

	trail, err := h.catalog.GetTrail(ctx, module.TrailID)
	if err != nil {
		h.logger.Warn("trail lookup failed after completion", "trail_id", module.TrailID, "error", err)
		trail = nil
	}

	granted := h.engine.EvaluateAfterModuleCompletion(ctx, cmd.UserID, trail, result.TrailCompleted)
	result.NewAchievements = granted

	return result, nil
}

func (h *SetModuleStatusHandler) publish(event shared.Event) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(event); err != nil {
		h.logger.Warn("failed to publish event", "type", event.EventType(), "error", err)
	}
}
