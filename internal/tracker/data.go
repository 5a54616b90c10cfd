package tracker

import (
	"context"
	"fmt"

	"github.com/mmynk/streakly/internal/achievements"
	"github.com/mmynk/streakly/internal/export"
	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/storage"
)

// Theme returns the stored UI theme.
func (t *Tracker) Theme() models.Theme {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.theme
}

// SetTheme stores the UI theme.
func (t *Tracker) SetTheme(ctx context.Context, theme models.Theme) error {
	if !theme.Valid() {
		return invalid("unknown theme %q", theme)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.theme = theme
	return t.persist(ctx, storage.CollectionTheme)
}

// Export snapshots habits, completions and achievements.
func (t *Tracker) Export() export.Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()

	doc := export.Document{
		Habits:       make([]models.Habit, 0, len(t.habits)),
		Completions:  make([]models.Completion, len(t.completions)),
		Achievements: make([]models.Achievement, len(t.achievements)),
	}
	for _, h := range t.habits {
		doc.Habits = append(doc.Habits, cloneHabit(h))
	}
	copy(doc.Completions, t.completions)
	copy(doc.Achievements, t.achievements)
	return doc
}

// Import replaces every collection present in doc. Absent (nil) collections
// are left untouched. Values are restored verbatim, streaks included; the
// achievement list is merged onto the full catalog by id.
func (t *Tracker) Import(ctx context.Context, doc export.Document) error {
	doc, err := export.Normalize(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var cols []storage.Collection
	if doc.Habits != nil {
		t.habits = make([]models.Habit, 0, len(doc.Habits))
		for _, h := range doc.Habits {
			t.habits = append(t.habits, cloneHabit(h))
		}
		cols = append(cols, storage.CollectionHabits)
	}
	if doc.Completions != nil {
		t.completions = append([]models.Completion(nil), doc.Completions...)
		cols = append(cols, storage.CollectionCompletions)
	}
	if doc.Achievements != nil {
		t.achievements = achievements.Restore(doc.Achievements)
		cols = append(cols, storage.CollectionAchievements)
	}
	t.logger.Info("Data imported",
		"habits", len(doc.Habits),
		"completions", len(doc.Completions),
		"achievements", len(doc.Achievements),
	)

	return t.persist(ctx, cols...)
}

// Clear deletes all habits, completions and todos and relocks every achievement.
// The theme is kept.
func (t *Tracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.habits = []models.Habit{}
	t.completions = []models.Completion{}
	t.todos = []models.Todo{}
	t.achievements = achievements.Seed()
	t.logger.Warn("All data cleared")

	return t.persist(ctx,
		storage.CollectionHabits,
		storage.CollectionCompletions,
		storage.CollectionAchievements,
		storage.CollectionTodos,
	)
}
