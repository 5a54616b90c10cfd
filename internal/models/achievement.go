package models

import "time"

// AchievementCategory groups catalog entries for display.
type AchievementCategory string

const (
	CategoryStreak      AchievementCategory = "streak"
	CategoryCompletion  AchievementCategory = "completion"
	CategoryHabit       AchievementCategory = "habit"
	CategoryConsistency AchievementCategory = "consistency"
)

// Valid reports whether c is a known category.
func (c AchievementCategory) Valid() bool {
	switch c {
	case CategoryStreak, CategoryCompletion, CategoryHabit, CategoryConsistency:
		return true
	}
	return false
}

// Achievement is a milestone from the fixed catalog.
//
// Everything except Unlocked and UnlockedAt is immutable once seeded.
// Unlocked only ever moves from false to true.
type Achievement struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Requirement int                 `json:"requirement"`
	Category    AchievementCategory `json:"category"`
	Unlocked    bool                `json:"unlocked"`
	UnlockedAt  *time.Time          `json:"unlockedAt,omitempty"`
}
