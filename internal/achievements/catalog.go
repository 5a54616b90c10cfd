package achievements

import "github.com/mmynk/streakly/internal/models"

type entry struct {
	id          string
	title       string
	description string
	icon        string
	requirement int
	category    models.AchievementCategory
	inert       bool
}

// catalog is the fixed list of milestones, in display order.
// Inert entries are shipped but have no unlock predicate yet.
var catalog = []entry{
	{"first-habit", "Getting Started", "Add your first habit", "Sparkles", 1, models.CategoryHabit, false},
	{"5-habits", "Habit Collector", "Create 5 habits", "Star", 5, models.CategoryHabit, false},
	{"10-habits", "Habit Master", "Create 10 habits", "Crown", 10, models.CategoryHabit, false},

	{"first-completion", "First Step", "Complete your first habit", "Check", 1, models.CategoryCompletion, false},
	{"10-completions", "Building Momentum", "Complete 10 habits", "TrendingUp", 10, models.CategoryCompletion, false},
	{"50-completions", "Consistency Builder", "Complete 50 habits", "Zap", 50, models.CategoryCompletion, false},
	{"100-completions", "Century Club", "Complete 100 habits", "Award", 100, models.CategoryCompletion, false},
	{"250-completions", "Unstoppable", "Complete 250 habits", "Flame", 250, models.CategoryCompletion, false},
	{"500-completions", "Habit Legend", "Complete 500 habits", "Trophy", 500, models.CategoryCompletion, false},
	{"1000-completions", "Master of Habits", "Complete 1000 habits", "Medal", 1000, models.CategoryCompletion, false},

	{"3-day-streak", "Three in a Row", "Maintain a 3-day streak", "Flame", 3, models.CategoryStreak, false},
	{"7-day-streak", "Week Warrior", "Maintain a 7-day streak", "Target", 7, models.CategoryStreak, false},
	{"14-day-streak", "Two Week Wonder", "Maintain a 14-day streak", "Rocket", 14, models.CategoryStreak, false},
	{"30-day-streak", "Monthly Milestone", "Maintain a 30-day streak", "Calendar", 30, models.CategoryStreak, false},
	{"50-day-streak", "Fifty Days Strong", "Maintain a 50-day streak", "Mountain", 50, models.CategoryStreak, false},
	{"100-day-streak", "Century Streak", "Maintain a 100-day streak", "Gem", 100, models.CategoryStreak, false},
	{"365-day-streak", "Year of Excellence", "Maintain a 365-day streak", "Crown", 365, models.CategoryStreak, false},

	{"perfect-day", "Perfect Day", "Complete all habits in one day", "Sun", 1, models.CategoryConsistency, true},
	{"perfect-week", "Perfect Week", "Complete all habits for 7 consecutive days", "Award", 7, models.CategoryConsistency, true},
	{"perfect-month", "Perfect Month", "Complete all habits for 30 consecutive days", "Trophy", 30, models.CategoryConsistency, true},
	{"early-bird", "Early Bird", "Complete a habit before 8 AM", "Sunrise", 1, models.CategoryCompletion, true},
	{"night-owl", "Night Owl", "Complete a habit after 10 PM", "Moon", 1, models.CategoryCompletion, true},
	{"weekend-warrior", "Weekend Warrior", "Complete all habits on a weekend day", "Calendar", 1, models.CategoryConsistency, true},
	{"comeback-kid", "Comeback Kid", "Start a new streak after breaking one", "RotateCcw", 1, models.CategoryStreak, true},
	{"diverse-habits", "Well Rounded", "Have habits with all frequency types", "Grid", 1, models.CategoryHabit, false},
	{"custom-frequency", "Flexibility Master", "Create a habit with custom days", "Settings", 1, models.CategoryHabit, false},

	{"50-streak-any", "Streaker", "Reach a 50-day streak on any habit", "Flame", 50, models.CategoryStreak, true},
	{"3-perfect-days", "Consistency Pro", "Achieve 3 perfect days", "CheckCircle", 3, models.CategoryConsistency, true},
	{"all-daily-week", "Daily Grind", "Complete all daily habits for a week", "Repeat", 7, models.CategoryConsistency, true},
	{"milestone-hunter", "Milestone Hunter", "Unlock 10 achievements", "Target", 10, models.CategoryCompletion, true},
}

// Seed returns the full catalog with every entry locked.
func Seed() []models.Achievement {
	out := make([]models.Achievement, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, models.Achievement{
			ID:          e.id,
			Title:       e.title,
			Description: e.description,
			Icon:        e.icon,
			Requirement: e.requirement,
			Category:    e.category,
		})
	}
	return out
}

// Inert reports whether id is a catalog entry that the evaluator never unlocks.
func Inert(id string) bool {
	for _, e := range catalog {
		if e.id == id {
			return e.inert
		}
	}
	return false
}

// Restore rebuilds the full catalog in display order, carrying over the unlock
// state of saved entries by id. Catalog entries missing from saved come back
// locked; ids the catalog does not know are dropped.
func Restore(saved []models.Achievement) []models.Achievement {
	byID := make(map[string]models.Achievement, len(saved))
	for _, a := range saved {
		byID[a.ID] = a
	}
	out := Seed()
	for i := range out {
		prev, ok := byID[out[i].ID]
		if !ok || !prev.Unlocked {
			continue
		}
		out[i].Unlocked = true
		if prev.UnlockedAt != nil {
			at := *prev.UnlockedAt
			out[i].UnlockedAt = &at
		}
	}
	return out
}

// Canonical reports whether list holds exactly the catalog ids in display order.
func Canonical(list []models.Achievement) bool {
	if len(list) != len(catalog) {
		return false
	}
	for i, e := range catalog {
		if list[i].ID != e.id {
			return false
		}
	}
	return true
}
