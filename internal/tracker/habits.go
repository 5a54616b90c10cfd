package tracker

import (
	"context"
	"fmt"

	"github.com/mmynk/streakly/internal/metrics"
	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/storage"
	"github.com/mmynk/streakly/internal/streak"
)

// Progress summarizes today's completions.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

func cloneHabit(h models.Habit) models.Habit {
	if h.CustomDays != nil {
		h.CustomDays = append([]int(nil), h.CustomDays...)
	}
	return h
}

func (t *Tracker) habitIndex(id string) int {
	for i := range t.habits {
		if t.habits[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) completionIndex(habitID, date string) int {
	for i := range t.completions {
		if t.completions[i].HabitID == habitID && t.completions[i].Date == date {
			return i
		}
	}
	return -1
}

// recompute refreshes the stored streak of habit i and reports whether it changed.
func (t *Tracker) recompute(i int) bool {
	h := &t.habits[i]
	r := streak.Calculate(h.ID, t.completions, t.now())
	if h.CurrentStreak == r.Current && h.BestStreak == r.Best {
		return false
	}
	h.CurrentStreak, h.BestStreak = r.Current, r.Best
	return true
}

// finish persists cols, runs the achievement engine and builds the Mutation for habit i.
func (t *Tracker) finish(ctx context.Context, i int, cols ...storage.Collection) (Mutation, error) {
	t.rollover()
	persistErr := t.persist(ctx, cols...)
	unlocked, evalErr := t.evaluate(ctx)

	m := Mutation{Unlocked: unlocked}
	if i >= 0 {
		h := cloneHabit(t.habits[i])
		m.Habit = &h
	}
	if persistErr != nil {
		return m, persistErr
	}
	return m, evalErr
}

// ListHabits returns every habit in creation order.
func (t *Tracker) ListHabits() []models.Habit {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	out := make([]models.Habit, 0, len(t.habits))
	for _, h := range t.habits {
		out = append(out, cloneHabit(h))
	}
	return out
}

// GetHabit returns the habit with the given id.
func (t *Tracker) GetHabit(id string) (models.Habit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	i := t.habitIndex(id)
	if i < 0 {
		return models.Habit{}, fmt.Errorf("%w: habit %s", ErrNotFound, id)
	}
	return cloneHabit(t.habits[i]), nil
}

// AddHabit creates a habit from in.
func (t *Tracker) AddHabit(ctx context.Context, in HabitInput) (Mutation, error) {
	in, err := in.normalize()
	if err != nil {
		return Mutation{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	h := models.Habit{
		ID:            t.newID(),
		Title:         in.Title,
		Description:   in.Description,
		FrequencyType: in.FrequencyType,
		CustomDays:    in.CustomDays,
		CreatedAt:     t.now().UTC(),
		ReminderTime:  in.ReminderTime,
		ReminderDate:  in.ReminderDate,
	}
	t.habits = append(t.habits, h)
	t.logger.Info("Habit added", "id", h.ID, "frequency", h.FrequencyType)

	return t.finish(ctx, len(t.habits)-1, storage.CollectionHabits)
}

// UpdateHabit replaces the editable fields of a habit. Streaks are untouched.
func (t *Tracker) UpdateHabit(ctx context.Context, id string, in HabitInput) (Mutation, error) {
	in, err := in.normalize()
	if err != nil {
		return Mutation{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.habitIndex(id)
	if i < 0 {
		return Mutation{}, fmt.Errorf("%w: habit %s", ErrNotFound, id)
	}
	h := &t.habits[i]
	h.Title = in.Title
	h.Description = in.Description
	h.FrequencyType = in.FrequencyType
	h.CustomDays = in.CustomDays
	h.ReminderTime = in.ReminderTime
	h.ReminderDate = in.ReminderDate
	t.logger.Info("Habit updated", "id", id)

	return t.finish(ctx, i, storage.CollectionHabits)
}

// DeleteHabit removes a habit and every completion referencing it.
func (t *Tracker) DeleteHabit(ctx context.Context, id string) (Mutation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.habitIndex(id)
	if i < 0 {
		return Mutation{}, fmt.Errorf("%w: habit %s", ErrNotFound, id)
	}
	t.habits = append(t.habits[:i], t.habits[i+1:]...)

	kept := t.completions[:0]
	removed := 0
	for _, c := range t.completions {
		if c.HabitID == id {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	t.completions = kept
	t.logger.Info("Habit deleted", "id", id, "completions_removed", removed)

	return t.finish(ctx, -1, storage.CollectionHabits, storage.CollectionCompletions)
}

// ToggleCompletion flips today's completion for a habit, creating it as completed when absent.
func (t *Tracker) ToggleCompletion(ctx context.Context, habitID string) (Mutation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.habitIndex(habitID)
	if i < 0 {
		return Mutation{}, fmt.Errorf("%w: habit %s", ErrNotFound, habitID)
	}

	today := t.today()
	completed := true
	if j := t.completionIndex(habitID, today); j >= 0 {
		t.completions[j].Completed = !t.completions[j].Completed
		completed = t.completions[j].Completed
	} else {
		t.completions = append(t.completions, models.Completion{HabitID: habitID, Date: today, Completed: true})
	}
	metrics.RecordCompletion(completed)
	t.recompute(i)

	return t.finish(ctx, i, storage.CollectionCompletions, storage.CollectionHabits)
}

// RecordCompletion sets the completion state of a habit on a past or present day.
func (t *Tracker) RecordCompletion(ctx context.Context, habitID, date string, completed bool) (Mutation, error) {
	if !validDate(date) {
		return Mutation{}, invalid("date %q is not YYYY-MM-DD", date)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if date > t.today() {
		return Mutation{}, invalid("date %s is in the future", date)
	}
	i := t.habitIndex(habitID)
	if i < 0 {
		return Mutation{}, fmt.Errorf("%w: habit %s", ErrNotFound, habitID)
	}

	if j := t.completionIndex(habitID, date); j >= 0 {
		t.completions[j].Completed = completed
	} else {
		t.completions = append(t.completions, models.Completion{HabitID: habitID, Date: date, Completed: completed})
	}
	metrics.RecordCompletion(completed)
	t.recompute(i)

	return t.finish(ctx, i, storage.CollectionCompletions, storage.CollectionHabits)
}

// Streak computes a habit's streak as of today. Unknown habits have no streak.
func (t *Tracker) Streak(habitID string) streak.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.habitIndex(habitID) < 0 {
		return streak.Result{}
	}
	return streak.Calculate(habitID, t.completions, t.now())
}

// CompletedDates returns the days a habit was completed, most recent first.
func (t *Tracker) CompletedDates(habitID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	days := streak.CompletedDays(habitID, t.completions)
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, streak.FormatDay(d))
	}
	return out
}

// IsCompleted reports whether a habit was completed on date.
func (t *Tracker) IsCompleted(habitID, date string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	j := t.completionIndex(habitID, date)
	return j >= 0 && t.completions[j].Completed
}

// Progress reports how many habits are completed today.
func (t *Tracker) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.today()
	p := Progress{Total: len(t.habits)}
	for _, h := range t.habits {
		if j := t.completionIndex(h.ID, today); j >= 0 && t.completions[j].Completed {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = (p.Completed*100 + p.Total/2) / p.Total
	}
	return p
}

// RefreshStreaks recomputes every habit's streak as of today. It is called
// when the calendar day changes, since an untouched streak lapses at midnight.
func (t *Tracker) RefreshStreaks(ctx context.Context) ([]models.Achievement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.streakDay = ""
	changed := t.rollover()
	if changed == 0 {
		return nil, nil
	}
	t.logger.Info("Streaks refreshed", "changed", changed)

	m, err := t.finish(ctx, -1, storage.CollectionHabits)
	return m.Unlocked, err
}
