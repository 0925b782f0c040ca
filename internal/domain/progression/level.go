package progression

// LevelXPUnit is the amount of XP per level. Achievement bonuses and reward
// costs elsewhere in the catalog are specified relative to this unit.
const LevelXPUnit = 1000

// MinLevel is the level of a learner with zero XP.
const MinLevel = 1

// LevelForXP derives the level from a total XP amount. This is the single
// point of truth for the level formula; every balance write goes through it.
// Negative totals never occur in the store but clamp to MinLevel anyway.
func LevelForXP(totalXP int) int {
	if totalXP < 0 {
		return MinLevel
	}
	return totalXP/LevelXPUnit + 1
}

// XPForNextLevel returns how much XP is missing until the next level boundary.
func XPForNextLevel(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return LevelXPUnit - totalXP%LevelXPUnit
}
