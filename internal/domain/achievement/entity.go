// Package achievement contains the achievement catalog and grant model.
// The catalog is immutable once seeded; a Grant row is the sole source of
// truth for "this learner has this achievement".
package achievement

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Type groups achievements by what kind of progress unlocks them.
type Type string

const (
	// TypeModule - unlocked by completing modules.
	TypeModule Type = "module"

	// TypeTrail - unlocked by completing every module of a trail.
	TypeTrail Type = "trail"

	// TypeLevel - unlocked by reaching a level threshold.
	TypeLevel Type = "level"

	// TypeSubmission - unlocked by submission review milestones.
	TypeSubmission Type = "submission"
)

// IsValid checks if the type is one of the known values.
func (t Type) IsValid() bool {
	switch t {
	case TypeModule, TypeTrail, TypeLevel, TypeSubmission:
		return true
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Achievement is a catalog entry. Title is the unique lookup key: unlock
// predicates reference achievements by title, so a renamed entry simply
// stops being granted instead of breaking the triggering flow.
type Achievement struct {
	ID          string
	Title       string
	Description string
	Type        Type
	XPReward    int

	// Requirement is the numeric threshold behind the unlock predicate
	// (modules completed, level reached, ...). Used only for ordering
	// "next achievement to unlock" views; the predicates themselves are
	// plain functions in the engine.
	Requirement int

	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// GRANT
// ══════════════════════════════════════════════════════════════════════════════

// Grant records that an achievement was awarded to a learner. At most one
// grant ever exists per (user, achievement) pair.
type Grant struct {
	UserID        string
	AchievementID string
	EarnedAt      time.Time
}

// Earned is a catalog achievement joined with its grant for one learner.
type Earned struct {
	Achievement
	EarnedAt time.Time
}

// CatalogEntry is a catalog achievement annotated with whether one learner
// has earned it. Used to render "next achievement to unlock" views.
type CatalogEntry struct {
	Achievement
	Unlocked bool
	EarnedAt *time.Time
}

// Stats aggregates a learner's progression numbers into one object.
type Stats struct {
	UserID           string
	TotalXP          int
	Level            int
	Achievements     int
	CompletedModules int
	CompletedTrails  int
}
