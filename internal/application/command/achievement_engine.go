package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/achievement"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/notification"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/submission"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT ENGINE
// Grants achievements at most once per (user, achievement) pair and credits
// the bonus XP as a side effect. Unlock conditions are plain named predicate
// functions evaluated after their trigger points; new rules are added as new
// functions, not as a generic rule engine.
// ══════════════════════════════════════════════════════════════════════════════

// Fixed achievement titles referenced by the predicates. Each must match a
// seeded catalog entry; a missing or renamed entry makes the predicate a
// silent no-op instead of breaking the triggering flow.
const (
	TitleFirstModule   = "Primeiro Passo"
	TitleFiveModules   = "Explorador"
	TitleTenModules    = "Maratonista"
	TitleLevelTwo      = "Aprendiz Dedicado"
	TitleLevelFive     = "Veterano"
	TitleFirstApproval = "Primeira Aprovação"
	trailTitleFormat   = "Trilha Completa: %s"
)

// TrailAchievementTitle returns the fixed title of the completion
// achievement for a trail.
func TrailAchievementTitle(trailTitle string) string {
	return fmt.Sprintf(trailTitleFormat, trailTitle)
}

// AchievementEngine evaluates unlock predicates and performs grants.
type AchievementEngine struct {
	achievements achievement.Repository
	balances     progression.BalanceRepository
	progress     progression.ProgressRepository
	submissions  submission.Repository
	events       shared.EventPublisher
	sink         notification.Sink
	logger       *slog.Logger
}

// NewAchievementEngine creates a new AchievementEngine.
func NewAchievementEngine(
	achievements achievement.Repository,
	balances progression.BalanceRepository,
	progress progression.ProgressRepository,
	submissions submission.Repository,
	events shared.EventPublisher,
	sink notification.Sink,
	logger *slog.Logger,
) *AchievementEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = notification.NopSink{}
	}
	return &AchievementEngine{
		achievements: achievements,
		balances:     balances,
		progress:     progress,
		submissions:  submissions,
		events:       events,
		sink:         sink,
		logger:       logger,
	}
}

// Grant awards the named achievement to the learner and credits its XP
// reward, at most once ever per (user, achievement). Returns true only when
// the grant was newly created by this call. An unknown title is a soft
// failure: callers evaluate opportunistically after many triggers, so a
// missing catalog entry returns false instead of an error.
func (e *AchievementEngine) Grant(ctx context.Context, userID, title string) (bool, error) {
	a, err := e.achievements.GetByTitle(ctx, title)
	if err != nil {
		if shared.IsNotFound(err) {
			e.logger.Debug("achievement title not in catalog, skipping", "title", title)
			return false, nil
		}
		return false, err
	}

	granted, balance, err := e.achievements.Grant(ctx, userID, a)
	if err != nil {
		return false, err
	}
	if !granted {
		return false, nil
	}

	e.logger.Info("achievement unlocked",
		"user_id", userID,
		"title", a.Title,
		"xp_reward", a.XPReward,
		"total_xp", balance.TotalXP,
	)

	if e.events != nil {
		event := shared.NewAchievementUnlockedEvent(userID, a.Title, a.XPReward)
		if err := e.events.Publish(event); err != nil {
			e.logger.Warn("failed to publish achievement event", "title", a.Title, "error", err)
		}
	}
	e.sink.Notify(ctx, userID, notification.KindAchievementUnlocked,
		"Conquista desbloqueada", a.Title)

	return true, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Predicates
// ──────────────────────────────────────────────────────────────────────────────

// EvaluateAfterModuleCompletion runs the module, trail, and level predicates
// for a learner who just completed a module. Predicate failures are logged
// and skipped: an achievement check must never undo or block the completion
// that triggered it. Returns the titles newly granted.
func (e *AchievementEngine) EvaluateAfterModuleCompletion(
	ctx context.Context,
	userID string,
	trail *progression.Trail,
	trailCompleted bool,
) []string {
	var granted []string

	titles, err := e.checkModuleMilestones(ctx, userID)
	if err != nil {
		e.logger.Warn("module milestone check failed", "user_id", userID, "error", err)
	}
	granted = append(granted, titles...)

	if trailCompleted && trail != nil {
		if ok, err := e.Grant(ctx, userID, TrailAchievementTitle(trail.Title)); err != nil {
			e.logger.Warn("trail achievement grant failed", "user_id", userID, "error", err)
		} else if ok {
			granted = append(granted, TrailAchievementTitle(trail.Title))
		}
	}

	// The level check reads the balance fresh so that bonus XP from the
	// grants above counts toward the threshold in this same evaluation.
	titles, err = e.checkLevelMilestones(ctx, userID)
	if err != nil {
		e.logger.Warn("level milestone check failed", "user_id", userID, "error", err)
	}
	granted = append(granted, titles...)

	return granted
}

// checkModuleMilestones grants the completed-module-count achievements.
func (e *AchievementEngine) checkModuleMilestones(ctx context.Context, userID string) ([]string, error) {
	count, err := e.progress.CountCompletedModules(ctx, userID)
	if err != nil {
		return nil, err
	}

	milestones := []struct {
		threshold int
		title     string
	}{
		{1, TitleFirstModule},
		{5, TitleFiveModules},
		{10, TitleTenModules},
	}

	var granted []string
	for _, m := range milestones {
		if count < m.threshold {
			continue
		}
		ok, err := e.Grant(ctx, userID, m.title)
		if err != nil {
			return granted, err
		}
		if ok {
			granted = append(granted, m.title)
		}
	}
	return granted, nil
}

// checkLevelMilestones grants the level-threshold achievements against the
// learner's current balance.
func (e *AchievementEngine) checkLevelMilestones(ctx context.Context, userID string) ([]string, error) {
	balance, err := e.balances.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	level := balance.Level

	milestones := []struct {
		threshold int
		title     string
	}{
		{2, TitleLevelTwo},
		{5, TitleLevelFive},
	}

	var granted []string
	for _, m := range milestones {
		if level < m.threshold {
			continue
		}
		ok, err := e.Grant(ctx, userID, m.title)
		if err != nil {
			return granted, err
		}
		if ok {
			granted = append(granted, m.title)
		}
	}
	return granted, nil
}

// CheckFirstApprovalAchievement grants the first-approval achievement when
// the learner's approved submission count is exactly 1. Evaluated after a
// submission review; the grant itself stays idempotent through the grant
// uniqueness check, so re-evaluation is harmless.
func (e *AchievementEngine) CheckFirstApprovalAchievement(ctx context.Context, userID string) (bool, error) {
	count, err := e.submissions.CountApprovedForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if count != 1 {
		return false, nil
	}
	return e.Grant(ctx, userID, TitleFirstApproval)
}
