// Package progression contains the domain model for learner progress:
// curriculum trails and modules, per-module progress records, and the
// XP balance that every other gamification feature is built on.
package progression

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODULE STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ModuleStatus represents a learner's progress state for a single module.
type ModuleStatus string

const (
	// StatusNotStarted - the learner has not touched the module.
	// This is the implicit zero state; callers cannot force it.
	StatusNotStarted ModuleStatus = "not_started"

	// StatusInProgress - the learner has started the module.
	StatusInProgress ModuleStatus = "in_progress"

	// StatusCompleted - the learner finished the module. Terminal; XP is
	// credited exactly once at this transition.
	StatusCompleted ModuleStatus = "completed"
)

// IsValid checks if the status is one of the known values.
func (s ModuleStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// IsSettable reports whether a caller may request this status directly.
// not_started is never settable from the outside.
func (s ModuleStatus) IsSettable() bool {
	return s == StatusInProgress || s == StatusCompleted
}

// String returns the string representation.
func (s ModuleStatus) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Trail is a named curriculum track composed of ordered modules.
type Trail struct {
	ID          string
	Title       string
	Description string
	Position    int
	CreatedAt   time.Time
}

// Module is the smallest unit of trackable progress within a trail.
type Module struct {
	ID        string
	TrailID   string
	Title     string
	XPReward  int
	Position  int
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// BALANCE
// ══════════════════════════════════════════════════════════════════════════════

// Balance is a learner's running XP total and derived level.
// Level is always recomputed from TotalXP at write time; the two never
// diverge in the store.
type Balance struct {
	UserID     string
	TotalXP    int
	Level      int
	StreakDays int
	UpdatedAt  time.Time
}

// ZeroBalance returns the balance of a learner with no stored row.
// Absence is not an error: zero XP, level 1.
func ZeroBalance(userID string) Balance {
	return Balance{
		UserID:  userID,
		TotalXP: 0,
		Level:   MinLevel,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS RECORD
// ══════════════════════════════════════════════════════════════════════════════

// ModuleProgress is a learner's progress record for one module.
// Keyed by (UserID, ModuleID) in the store.
type ModuleProgress struct {
	UserID      string
	ModuleID    string
	Status      ModuleStatus
	XPEarned    int
	StartedAt   time.Time
	CompletedAt *time.Time
}

// IsCompleted reports whether the record reached its terminal state.
func (p ModuleProgress) IsCompleted() bool {
	return p.Status == StatusCompleted
}

// ══════════════════════════════════════════════════════════════════════════════
// TRAIL COMPLETION (derived, never persisted)
// ══════════════════════════════════════════════════════════════════════════════

// TrailCompletion is the derived completion state of a trail for one learner.
// Recomputed on every read so that modules added to a trail are picked up
// immediately.
type TrailCompletion struct {
	TrailID          string
	UserID           string
	CompletedModules int
	TotalModules     int
}

// IsComplete reports whether every module of the trail is completed.
// A trail with zero modules is never complete.
func (c TrailCompletion) IsComplete() bool {
	return c.TotalModules > 0 && c.CompletedModules == c.TotalModules
}
