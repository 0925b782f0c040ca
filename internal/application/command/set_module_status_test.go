package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/achievement"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/notification"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

type progressFixture struct {
	learners     *fakeLearnerRepo
	catalog      *fakeCatalogRepo
	balances     *fakeBalanceRepo
	progress     *fakeProgressRepo
	achievements *fakeAchievementRepo
	events       *capturingPublisher
	sink         *capturingSink
	handler      *SetModuleStatusHandler
}

func newProgressFixture(t *testing.T) *progressFixture {
	t.Helper()

	f := &progressFixture{
		learners: newFakeLearnerRepo(student("aluno-1")),
		catalog:  newFakeCatalogRepo(),
		balances: newFakeBalanceRepo(),
		events:   &capturingPublisher{},
		sink:     &capturingSink{},
	}
	f.progress = newFakeProgressRepo(f.catalog, f.balances)
	f.achievements = newFakeAchievementRepo(f.balances)

	f.catalog.addTrail("trail-logica", "Lógica de Programação")
	f.catalog.addModule("mod-1", "trail-logica", "Variáveis", 150)
	f.catalog.addModule("mod-2", "trail-logica", "Condicionais", 200)
	f.catalog.addModule("mod-3", "trail-logica", "Laços", 250)

	f.achievements.add(TitleFirstModule, achievement.TypeModule, 50, 1)
	f.achievements.add(TitleFiveModules, achievement.TypeModule, 150, 5)
	f.achievements.add(TrailAchievementTitle("Lógica de Programação"), achievement.TypeTrail, 200, 0)
	f.achievements.add(TitleLevelTwo, achievement.TypeLevel, 100, 2)

	engine := NewAchievementEngine(f.achievements, f.balances, f.progress, newFakeSubmissionRepo(), f.events, f.sink, testLogger())
	f.handler = NewSetModuleStatusHandler(f.learners, f.catalog, f.progress, engine, f.events, f.sink, testLogger())
	return f
}

func (f *progressFixture) complete(t *testing.T, userID, moduleID string) *SetModuleStatusResult {
	t.Helper()
	result, err := f.handler.Handle(context.Background(), SetModuleStatusCommand{
		UserID:   userID,
		ModuleID: moduleID,
		Status:   "completed",
	})
	require.NoError(t, err)
	return result
}

func TestSetModuleStatus_StartModule(t *testing.T) {
	f := newProgressFixture(t)

	result, err := f.handler.Handle(context.Background(), SetModuleStatusCommand{
		UserID:   "aluno-1",
		ModuleID: "mod-1",
		Status:   "in_progress",
	})

	require.NoError(t, err)
	assert.Equal(t, progression.StatusInProgress, result.Record.Status)
	assert.Zero(t, result.XPCredited)

	balance, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Zero(t, balance.TotalXP)
}

func TestSetModuleStatus_CompletionCreditsXP(t *testing.T) {
	f := newProgressFixture(t)

	result := f.complete(t, "aluno-1", "mod-1")

	assert.Equal(t, progression.StatusCompleted, result.Record.Status)
	assert.NotNil(t, result.Record.CompletedAt)
	assert.Equal(t, 150, result.XPCredited)

	// 150 from the module plus 50 from "Primeiro Passo".
	balance, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Equal(t, 200, balance.TotalXP)
	assert.Equal(t, 1, balance.Level)

	assert.Contains(t, result.NewAchievements, TitleFirstModule)
	assert.Contains(t, f.events.types(), shared.EventModuleCompleted)
	assert.Contains(t, f.sink.kinds(), notification.KindModuleCompleted)
}

func TestSetModuleStatus_DoubleCompletionDoesNotRecredit(t *testing.T) {
	f := newProgressFixture(t)

	first := f.complete(t, "aluno-1", "mod-1")
	require.Equal(t, 150, first.XPCredited)

	balanceBefore, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)

	second := f.complete(t, "aluno-1", "mod-1")

	assert.Zero(t, second.XPCredited)
	assert.Equal(t, progression.StatusCompleted, second.Record.Status)
	assert.Empty(t, second.NewAchievements)

	balanceAfter, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Equal(t, balanceBefore.TotalXP, balanceAfter.TotalXP)
}

func TestSetModuleStatus_CompletedModuleCannotRegress(t *testing.T) {
	f := newProgressFixture(t)
	f.complete(t, "aluno-1", "mod-1")

	_, err := f.handler.Handle(context.Background(), SetModuleStatusCommand{
		UserID:   "aluno-1",
		ModuleID: "mod-1",
		Status:   "in_progress",
	})

	assert.ErrorIs(t, err, shared.ErrStatusRegression)
}

func TestSetModuleStatus_LastModuleCompletesTrail(t *testing.T) {
	f := newProgressFixture(t)

	first := f.complete(t, "aluno-1", "mod-1")
	assert.False(t, first.TrailCompleted)

	f.complete(t, "aluno-1", "mod-2")
	last := f.complete(t, "aluno-1", "mod-3")

	assert.True(t, last.TrailCompleted)
	assert.Contains(t, last.NewAchievements, TrailAchievementTitle("Lógica de Programação"))
	assert.Contains(t, f.events.types(), shared.EventTrailCompleted)
	assert.Contains(t, f.sink.kinds(), notification.KindTrailCompleted)
}

func TestSetModuleStatus_ModuleAddedToTrailReopensIt(t *testing.T) {
	f := newProgressFixture(t)

	f.complete(t, "aluno-1", "mod-1")
	f.complete(t, "aluno-1", "mod-2")
	last := f.complete(t, "aluno-1", "mod-3")
	require.True(t, last.TrailCompleted)

	// Completion is derived, never stored: a new module makes the same
	// trail incomplete on the next read.
	f.catalog.addModule("mod-4", "trail-logica", "Funções", 150)

	completion, err := f.progress.TrailCompletion(context.Background(), "aluno-1", "trail-logica")
	require.NoError(t, err)
	assert.False(t, completion.IsComplete())
	assert.Equal(t, 3, completion.CompletedModules)
	assert.Equal(t, 4, completion.TotalModules)
}

func TestSetModuleStatus_LevelUpGrantsLevelAchievement(t *testing.T) {
	f := newProgressFixture(t)
	f.catalog.addModule("mod-big", "trail-logica", "Projeto Final", 1100)

	result := f.complete(t, "aluno-1", "mod-big")

	assert.Contains(t, result.NewAchievements, TitleLevelTwo)

	balance, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Equal(t, 1100+50+100, balance.TotalXP)
	assert.Equal(t, 2, balance.Level)
}

func TestSetModuleStatus_BonusXPCrossingBoundaryGrantsLevelAchievement(t *testing.T) {
	f := newProgressFixture(t)
	f.catalog.addModule("mod-big", "trail-logica", "Projeto Final", 950)

	result := f.complete(t, "aluno-1", "mod-big")

	// The module credit stops at 950, still level 1. The first-module
	// bonus lifts the balance to 1000 before the level predicate runs,
	// so the level achievement unlocks in this same completion.
	assert.Contains(t, result.NewAchievements, TitleFirstModule)
	assert.Contains(t, result.NewAchievements, TitleLevelTwo)

	balance, err := f.balances.Get(context.Background(), "aluno-1")
	require.NoError(t, err)
	assert.Equal(t, 950+50+100, balance.TotalXP)
	assert.Equal(t, 2, balance.Level)
}

func TestSetModuleStatus_Validation(t *testing.T) {
	f := newProgressFixture(t)

	cases := []struct {
		name string
		cmd  SetModuleStatusCommand
	}{
		{"empty user", SetModuleStatusCommand{ModuleID: "mod-1", Status: "completed"}},
		{"empty module", SetModuleStatusCommand{UserID: "aluno-1", Status: "completed"}},
		{"unknown status", SetModuleStatusCommand{UserID: "aluno-1", ModuleID: "mod-1", Status: "done"}},
		{"not_started not settable", SetModuleStatusCommand{UserID: "aluno-1", ModuleID: "mod-1", Status: "not_started"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.handler.Handle(context.Background(), tc.cmd)
			assert.True(t, shared.IsInvalidArgument(err), "expected invalid argument, got %v", err)
		})
	}
}

func TestSetModuleStatus_UnknownLearner(t *testing.T) {
	f := newProgressFixture(t)

	_, err := f.handler.Handle(context.Background(), SetModuleStatusCommand{
		UserID:   "ghost",
		ModuleID: "mod-1",
		Status:   "completed",
	})

	assert.ErrorIs(t, err, shared.ErrLearnerNotFound)
}

func TestSetModuleStatus_UnknownModule(t *testing.T) {
	f := newProgressFixture(t)

	_, err := f.handler.Handle(context.Background(), SetModuleStatusCommand{
		UserID:   "aluno-1",
		ModuleID: "mod-ghost",
		Status:   "completed",
	})

	assert.ErrorIs(t, err, shared.ErrModuleNotFound)
}
