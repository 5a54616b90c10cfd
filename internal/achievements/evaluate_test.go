package achievements

import (
	"fmt"
	"testing"
	"time"

	"github.com/mmynk/streakly/internal/models"
)

var now = time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

func habits(n int, freq models.Frequency) []models.Habit {
	out := make([]models.Habit, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Habit{ID: fmt.Sprintf("h%d", i), Title: "habit", FrequencyType: freq})
	}
	return out
}

func completions(n int) []models.Completion {
	out := make([]models.Completion, 0, n)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out = append(out, models.Completion{HabitID: "h0", Date: start.AddDate(0, 0, i).Format(models.DateLayout), Completed: true})
	}
	return out
}

func ids(list []models.Achievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func find(list []models.Achievement, id string) models.Achievement {
	for _, a := range list {
		if a.ID == id {
			return a
		}
	}
	return models.Achievement{}
}

func TestSeed(t *testing.T) {
	seeded := Seed()
	if len(seeded) != 30 {
		t.Fatalf("catalog has %d entries, want 30", len(seeded))
	}
	seen := make(map[string]bool)
	for _, a := range seeded {
		if a.Unlocked || a.UnlockedAt != nil {
			t.Errorf("%s seeded unlocked", a.ID)
		}
		if seen[a.ID] {
			t.Errorf("duplicate id %s", a.ID)
		}
		seen[a.ID] = true
		if !a.Category.Valid() {
			t.Errorf("%s has invalid category %q", a.ID, a.Category)
		}
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		habits       []models.Habit
		completions  []models.Completion
		wantUnlocked []string
	}{
		{
			name:         "nothing yet",
			wantUnlocked: nil,
		},
		{
			name:         "first habit",
			habits:       habits(1, models.FrequencyDaily),
			wantUnlocked: []string{"first-habit"},
		},
		{
			name:         "four habits is not five",
			habits:       habits(4, models.FrequencyDaily),
			wantUnlocked: []string{"first-habit"},
		},
		{
			name:         "exactly five habits",
			habits:       habits(5, models.FrequencyDaily),
			wantUnlocked: []string{"first-habit", "5-habits"},
		},
		{
			name:         "ten completions",
			habits:       habits(1, models.FrequencyDaily),
			completions:  completions(10),
			wantUnlocked: []string{"first-habit", "first-completion", "10-completions"},
		},
		{
			name:   "uncompleted records do not count",
			habits: habits(1, models.FrequencyDaily),
			completions: []models.Completion{
				{HabitID: "h0", Date: "2025-01-01", Completed: false},
			},
			wantUnlocked: []string{"first-habit"},
		},
		{
			name: "streak thresholds read current streak",
			habits: []models.Habit{
				{ID: "a", FrequencyType: models.FrequencyDaily, CurrentStreak: 2, BestStreak: 40},
				{ID: "b", FrequencyType: models.FrequencyDaily, CurrentStreak: 7, BestStreak: 7},
			},
			wantUnlocked: []string{"first-habit", "3-day-streak", "7-day-streak"},
		},
		{
			name:         "custom frequency",
			habits:       []models.Habit{{ID: "a", FrequencyType: models.FrequencyCustom, CustomDays: []int{1}}},
			wantUnlocked: []string{"first-habit", "custom-frequency"},
		},
		{
			name: "all frequency kinds",
			habits: []models.Habit{
				{ID: "a", FrequencyType: models.FrequencyDaily},
				{ID: "b", FrequencyType: models.FrequencyWeekly},
				{ID: "c", FrequencyType: models.FrequencyCustom, CustomDays: []int{0}},
			},
			wantUnlocked: []string{"first-habit", "diverse-habits", "custom-frequency"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, unlocked := Evaluate(nil, tt.habits, tt.completions, now)
			if len(updated) != len(Seed()) {
				t.Fatalf("updated has %d entries, want full catalog", len(updated))
			}
			got := ids(unlocked)
			if fmt.Sprint(got) != fmt.Sprint(tt.wantUnlocked) && !(len(got) == 0 && len(tt.wantUnlocked) == 0) {
				t.Errorf("unlocked = %v, want %v", got, tt.wantUnlocked)
			}
			for _, a := range unlocked {
				if a.UnlockedAt == nil || !a.UnlockedAt.Equal(now) {
					t.Errorf("%s UnlockedAt = %v, want %v", a.ID, a.UnlockedAt, now)
				}
				if Inert(a.ID) {
					t.Errorf("inert entry %s unlocked", a.ID)
				}
			}
		})
	}
}

func TestEvaluateIsMonotonic(t *testing.T) {
	first := now.Add(-time.Hour)
	catalog, unlocked := Evaluate(nil, habits(5, models.FrequencyDaily), nil, first)
	if len(unlocked) != 2 {
		t.Fatalf("unlocked %v, want two", ids(unlocked))
	}

	// every habit deleted: nothing may re-lock, nothing new unlocks
	after, again := Evaluate(catalog, nil, nil, now)
	if len(again) != 0 {
		t.Errorf("unexpected unlocks %v", ids(again))
	}
	for _, id := range []string{"first-habit", "5-habits"} {
		a := find(after, id)
		if !a.Unlocked {
			t.Errorf("%s re-locked", id)
		}
		if a.UnlockedAt == nil || !a.UnlockedAt.Equal(first) {
			t.Errorf("%s UnlockedAt changed to %v", id, a.UnlockedAt)
		}
	}
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	seeded := Seed()
	Evaluate(seeded, habits(1, models.FrequencyDaily), nil, now)
	if seeded[0].Unlocked {
		t.Error("input catalog was modified")
	}
}

func TestInertEntriesNeverUnlock(t *testing.T) {
	hs := habits(10, models.FrequencyDaily)
	for i := range hs {
		hs[i].CurrentStreak = 400
	}
	updated, _ := Evaluate(nil, hs, completions(1000), now)
	for _, a := range updated {
		if Inert(a.ID) && a.Unlocked {
			t.Errorf("inert entry %s unlocked", a.ID)
		}
		if !Inert(a.ID) && a.ID != "custom-frequency" && a.ID != "diverse-habits" && !a.Unlocked {
			t.Errorf("%s should be unlocked", a.ID)
		}
	}

	unlocked, total := Count(updated)
	if total != 30 || unlocked != 17 {
		t.Errorf("Count() = %d/%d, want 17/30", unlocked, total)
	}
}

func TestRestore(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name         string
		saved        []models.Achievement
		validateFunc func(t *testing.T, got []models.Achievement)
	}{
		{
			name:  "nil is the seeded catalog",
			saved: nil,
			validateFunc: func(t *testing.T, got []models.Achievement) {
				if !Canonical(got) {
					t.Errorf("not canonical: %v", ids(got))
				}
				if u, _ := Count(got); u != 0 {
					t.Errorf("%d entries unlocked", u)
				}
			},
		},
		{
			name: "partial list is completed and keeps unlock state",
			saved: []models.Achievement{
				{ID: "5-habits", Unlocked: true, UnlockedAt: &at},
				{ID: "first-habit", Unlocked: true, UnlockedAt: &at},
			},
			validateFunc: func(t *testing.T, got []models.Achievement) {
				if !Canonical(got) {
					t.Fatalf("not canonical: %v", ids(got))
				}
				if u, total := Count(got); u != 2 || total != 30 {
					t.Errorf("Count() = %d/%d, want 2/30", u, total)
				}
				if a := find(got, "5-habits"); a.UnlockedAt == nil || !a.UnlockedAt.Equal(at) {
					t.Errorf("5-habits UnlockedAt = %v, want %v", a.UnlockedAt, at)
				}
			},
		},
		{
			name:  "unknown ids are dropped",
			saved: []models.Achievement{{ID: "retired-badge", Unlocked: true}},
			validateFunc: func(t *testing.T, got []models.Achievement) {
				if find(got, "retired-badge").ID != "" {
					t.Error("unknown id kept")
				}
				if len(got) != 30 {
					t.Errorf("catalog has %d entries, want 30", len(got))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateFunc(t, Restore(tt.saved))
		})
	}
}

func TestEvaluateCompletesPartialCatalog(t *testing.T) {
	partial := []models.Achievement{{ID: "first-habit", Category: models.CategoryHabit, Unlocked: true}}
	updated, unlocked := Evaluate(partial, habits(5, models.FrequencyDaily), nil, now)
	if len(updated) != 30 {
		t.Fatalf("catalog has %d entries, want 30", len(updated))
	}
	if got := ids(unlocked); len(got) != 1 || got[0] != "5-habits" {
		t.Errorf("unlocked = %v, want [5-habits]", got)
	}
}
