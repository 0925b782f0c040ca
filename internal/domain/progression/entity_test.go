package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModuleStatus_IsValid(t *testing.T) {
	assert.True(t, StatusNotStarted.IsValid())
	assert.True(t, StatusInProgress.IsValid())
	assert.True(t, StatusCompleted.IsValid())
	assert.False(t, ModuleStatus("done").IsValid())
	assert.False(t, ModuleStatus("").IsValid())
}

func TestModuleStatus_IsSettable(t *testing.T) {
	assert.True(t, StatusInProgress.IsSettable())
	assert.True(t, StatusCompleted.IsSettable())
	assert.False(t, StatusNotStarted.IsSettable())
}

func TestZeroBalance(t *testing.T) {
	b := ZeroBalance("aluno-1")

	assert.Equal(t, "aluno-1", b.UserID)
	assert.Zero(t, b.TotalXP)
	assert.Equal(t, MinLevel, b.Level)
}

func TestTrailCompletion_IsComplete(t *testing.T) {
	assert.True(t, TrailCompletion{CompletedModules: 3, TotalModules: 3}.IsComplete())
	assert.False(t, TrailCompletion{CompletedModules: 2, TotalModules: 3}.IsComplete())

	// A trail with no modules is never complete.
	assert.False(t, TrailCompletion{CompletedModules: 0, TotalModules: 0}.IsComplete())
}
