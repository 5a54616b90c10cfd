// Package achievements evaluates the fixed milestone catalog against the
// current habits and completion log.
package achievements

import (
	"time"

	"github.com/mmynk/streakly/internal/models"
)

var (
	habitThresholds = []struct {
		n  int
		id string
	}{{1, "first-habit"}, {5, "5-habits"}, {10, "10-habits"}}

	completionThresholds = []struct {
		n  int
		id string
	}{
		{1, "first-completion"}, {10, "10-completions"}, {50, "50-completions"},
		{100, "100-completions"}, {250, "250-completions"}, {500, "500-completions"},
		{1000, "1000-completions"},
	}

	streakThresholds = []struct {
		n  int
		id string
	}{
		{3, "3-day-streak"}, {7, "7-day-streak"}, {14, "14-day-streak"},
		{30, "30-day-streak"}, {50, "50-day-streak"}, {100, "100-day-streak"},
		{365, "365-day-streak"},
	}
)

// Evaluate unlocks every locked catalog entry whose predicate holds for habits and completions.
//
// It returns the updated catalog and the entries unlocked by this pass, in catalog order.
// A missing or partial catalog is completed with locked entries first. Entries that are already unlocked are never reverted,
// and newly unlocked entries are stamped with now. Streak predicates read the habits'
// stored CurrentStreak, so callers recompute streaks before evaluating.
//
// The input catalog is not modified.
func Evaluate(current []models.Achievement, habits []models.Habit, completions []models.Completion, now time.Time) ([]models.Achievement, []models.Achievement) {
	updated := Restore(current)

	satisfied := predicates(habits, completions)

	var unlocked []models.Achievement
	stamp := now.UTC()
	for i := range updated {
		a := &updated[i]
		if a.Unlocked || !satisfied[a.ID] {
			continue
		}
		at := stamp
		a.Unlocked = true
		a.UnlockedAt = &at
		unlocked = append(unlocked, *a)
	}
	return updated, unlocked
}

func predicates(habits []models.Habit, completions []models.Completion) map[string]bool {
	ok := make(map[string]bool)

	for _, th := range habitThresholds {
		if len(habits) >= th.n {
			ok[th.id] = true
		}
	}

	total := 0
	for _, c := range completions {
		if c.Completed {
			total++
		}
	}
	for _, th := range completionThresholds {
		if total >= th.n {
			ok[th.id] = true
		}
	}

	kinds := make(map[models.Frequency]bool)
	for _, h := range habits {
		kinds[h.FrequencyType] = true
		for _, th := range streakThresholds {
			if h.CurrentStreak >= th.n {
				ok[th.id] = true
			}
		}
	}
	if kinds[models.FrequencyCustom] {
		ok["custom-frequency"] = true
	}
	if kinds[models.FrequencyDaily] && kinds[models.FrequencyWeekly] && kinds[models.FrequencyCustom] {
		ok["diverse-habits"] = true
	}

	return ok
}

// Count returns the number of unlocked entries and the catalog size.
func Count(list []models.Achievement) (unlocked, total int) {
	for _, a := range list {
		if a.Unlocked {
			unlocked++
		}
	}
	return unlocked, len(list)
}
