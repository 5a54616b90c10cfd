package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mmynk/streakly/internal/export"
	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/storage"
	"github.com/mmynk/streakly/internal/storage/sqlite"
	"github.com/mmynk/streakly/internal/streak"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advanceDays(n int) { c.now = c.now.AddDate(0, 0, n) }

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestTracker(t *testing.T, store storage.Store) (*Tracker, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)}
	n := 0
	tr, err := New(context.Background(), store,
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return tr, clock
}

// failingStore fails completion writes while fail is set.
type failingStore struct {
	storage.Store
	fail bool
}

func (f *failingStore) SaveCompletions(ctx context.Context, c []models.Completion) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Store.SaveCompletions(ctx, c)
}

func unlockedIDs(list []models.Achievement) []string {
	var out []string
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestNewSeedsAchievements(t *testing.T) {
	store := newTestStore(t)
	tr, _ := newTestTracker(t, store)

	if got := len(tr.Achievements()); got != 30 {
		t.Fatalf("Expected 30 seeded achievements, got %d", got)
	}
	stored, err := store.LoadAchievements(context.Background())
	if err != nil {
		t.Fatalf("LoadAchievements failed: %v", err)
	}
	if len(stored) != 30 {
		t.Errorf("Expected seeded catalog persisted, got %d", len(stored))
	}
}

func TestAddHabit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   HabitInput
		wantErr bool
	}{
		{name: "daily", input: HabitInput{Title: "Read"}},
		{name: "custom", input: HabitInput{Title: "Gym", FrequencyType: models.FrequencyCustom, CustomDays: []int{5, 1, 1}}},
		{name: "reminder", input: HabitInput{Title: "Meditate", ReminderTime: "07:30", ReminderDate: "2025-01-06"}},
		{name: "empty title", input: HabitInput{Title: "   "}, wantErr: true},
		{name: "unknown frequency", input: HabitInput{Title: "x", FrequencyType: "hourly"}, wantErr: true},
		{name: "custom without days", input: HabitInput{Title: "x", FrequencyType: models.FrequencyCustom}, wantErr: true},
		{name: "custom day out of range", input: HabitInput{Title: "x", FrequencyType: models.FrequencyCustom, CustomDays: []int{7}}, wantErr: true},
		{name: "bad reminder time", input: HabitInput{Title: "x", ReminderTime: "25:00"}, wantErr: true},
		{name: "bad reminder date", input: HabitInput{Title: "x", ReminderDate: "tomorrow"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTestTracker(t, newTestStore(t))
			m, err := tr.AddHabit(ctx, tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("AddHabit() error = %v, want ErrInvalidInput", err)
				}
				if len(tr.ListHabits()) != 0 {
					t.Error("invalid habit was stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("AddHabit() error = %v", err)
			}
			if m.Habit == nil || m.Habit.ID == "" {
				t.Fatal("Expected habit with generated ID")
			}
			if m.Habit.CreatedAt.IsZero() {
				t.Error("Expected CreatedAt to be set")
			}
		})
	}
}

func TestAddHabitNormalizesCustomDays(t *testing.T) {
	tr, _ := newTestTracker(t, newTestStore(t))
	m, err := tr.AddHabit(context.Background(), HabitInput{Title: "Gym", FrequencyType: models.FrequencyCustom, CustomDays: []int{5, 1, 1}})
	if err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	if !reflect.DeepEqual(m.Habit.CustomDays, []int{1, 5}) {
		t.Errorf("CustomDays = %v, want [1 5]", m.Habit.CustomDays)
	}

	m, err = tr.UpdateHabit(context.Background(), m.Habit.ID, HabitInput{Title: "Gym", FrequencyType: models.FrequencyDaily, CustomDays: []int{2}})
	if err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	if m.Habit.CustomDays != nil {
		t.Errorf("Expected custom days dropped for daily habit, got %v", m.Habit.CustomDays)
	}
}

func TestHabitCountAchievementsUnlockOnExactAction(t *testing.T) {
	tr, _ := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		m, err := tr.AddHabit(ctx, HabitInput{Title: fmt.Sprintf("habit %d", i)})
		if err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		got := unlockedIDs(m.Unlocked)
		switch i {
		case 1:
			if !reflect.DeepEqual(got, []string{"first-habit"}) {
				t.Errorf("habit 1 unlocked %v, want [first-habit]", got)
			}
		case 5:
			if !reflect.DeepEqual(got, []string{"5-habits"}) {
				t.Errorf("habit 5 unlocked %v, want [5-habits]", got)
			}
		default:
			if len(got) != 0 {
				t.Errorf("habit %d unlocked %v, want none", i, got)
			}
		}
	}
}

func TestToggleCompletion(t *testing.T) {
	tr, clock := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	m, err := tr.AddHabit(ctx, HabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
	id := m.Habit.ID

	// three consecutive days
	for day := 0; day < 3; day++ {
		m, err = tr.ToggleCompletion(ctx, id)
		if err != nil {
			t.Fatalf("ToggleCompletion failed: %v", err)
		}
		if m.Habit.CurrentStreak != day+1 {
			t.Errorf("day %d: CurrentStreak = %d, want %d", day, m.Habit.CurrentStreak, day+1)
		}
		if day == 0 && !reflect.DeepEqual(unlockedIDs(m.Unlocked), []string{"first-completion"}) {
			t.Errorf("first toggle unlocked %v", unlockedIDs(m.Unlocked))
		}
		if day == 2 && !reflect.DeepEqual(unlockedIDs(m.Unlocked), []string{"3-day-streak"}) {
			t.Errorf("third day unlocked %v", unlockedIDs(m.Unlocked))
		}
		if day < 2 {
			clock.advanceDays(1)
		}
	}

	// toggling again clears today's completion
	m, err = tr.ToggleCompletion(ctx, id)
	if err != nil {
		t.Fatalf("ToggleCompletion failed: %v", err)
	}
	if m.Habit.CurrentStreak != 0 || m.Habit.BestStreak != 2 {
		t.Errorf("after untoggle streak = %d/%d, want 0/2", m.Habit.CurrentStreak, m.Habit.BestStreak)
	}
	if tr.IsCompleted(id, streak.FormatDay(clock.now)) {
		t.Error("Expected today uncompleted")
	}

	// achievements stay unlocked
	for _, a := range tr.Achievements() {
		if a.ID == "3-day-streak" && !a.Unlocked {
			t.Error("3-day-streak re-locked")
		}
	}

	if _, err := tr.ToggleCompletion(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRecordCompletion(t *testing.T) {
	tr, _ := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	m, _ := tr.AddHabit(ctx, HabitInput{Title: "Read"})
	id := m.Habit.ID

	for _, d := range []string{"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-05"} {
		if _, err := tr.RecordCompletion(ctx, id, d, true); err != nil {
			t.Fatalf("RecordCompletion(%s) failed: %v", d, err)
		}
	}
	// second write for the same day is an update
	if _, err := tr.RecordCompletion(ctx, id, "2025-01-05", true); err != nil {
		t.Fatalf("RecordCompletion failed: %v", err)
	}

	if got := tr.Streak(id); got != (streak.Result{Current: 1, Best: 3}) {
		t.Errorf("Streak() = %+v, want {1 3}", got)
	}
	if got := tr.CompletedDates(id); !reflect.DeepEqual(got, []string{"2025-01-05", "2025-01-03", "2025-01-02", "2025-01-01"}) {
		t.Errorf("CompletedDates() = %v", got)
	}

	if _, err := tr.RecordCompletion(ctx, id, "2025-01-04", true); err != nil {
		t.Fatalf("RecordCompletion failed: %v", err)
	}
	h, _ := tr.GetHabit(id)
	if h.CurrentStreak != 5 || h.BestStreak != 5 {
		t.Errorf("after back-fill streak = %d/%d, want 5/5", h.CurrentStreak, h.BestStreak)
	}

	if _, err := tr.RecordCompletion(ctx, id, "2025-01-06", true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("future date: expected ErrInvalidInput, got %v", err)
	}
	if _, err := tr.RecordCompletion(ctx, id, "05/01/2025", true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad date: expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteHabitCascades(t *testing.T) {
	tr, _ := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	a, _ := tr.AddHabit(ctx, HabitInput{Title: "A"})
	b, _ := tr.AddHabit(ctx, HabitInput{Title: "B"})
	tr.ToggleCompletion(ctx, a.Habit.ID)
	tr.ToggleCompletion(ctx, b.Habit.ID)

	if _, err := tr.DeleteHabit(ctx, a.Habit.ID); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	if got := tr.Streak(a.Habit.ID); got != (streak.Result{}) {
		t.Errorf("Streak of deleted habit = %+v, want {0 0}", got)
	}
	doc := tr.Export()
	for _, c := range doc.Completions {
		if c.HabitID == a.Habit.ID {
			t.Error("completion of deleted habit remains")
		}
	}
	if len(doc.Completions) != 1 {
		t.Errorf("Expected other habit's completion kept, got %d", len(doc.Completions))
	}
	if _, err := tr.DeleteHabit(ctx, a.Habit.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestProgress(t *testing.T) {
	tr, _ := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	if got := tr.Progress(); got != (Progress{}) {
		t.Errorf("empty Progress() = %+v", got)
	}
	var ids []string
	for i := 0; i < 3; i++ {
		m, _ := tr.AddHabit(ctx, HabitInput{Title: fmt.Sprintf("h%d", i)})
		ids = append(ids, m.Habit.ID)
	}
	tr.ToggleCompletion(ctx, ids[0])
	tr.ToggleCompletion(ctx, ids[2])

	if got := tr.Progress(); got != (Progress{Completed: 2, Total: 3, Percent: 67}) {
		t.Errorf("Progress() = %+v, want 2/3 67%%", got)
	}
}

func TestRefreshStreaksOnDayRollover(t *testing.T) {
	tr, clock := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	m, _ := tr.AddHabit(ctx, HabitInput{Title: "Read"})
	tr.ToggleCompletion(ctx, m.Habit.ID)

	clock.advanceDays(1)
	if _, err := tr.RefreshStreaks(ctx); err != nil {
		t.Fatalf("RefreshStreaks failed: %v", err)
	}
	h, _ := tr.GetHabit(m.Habit.ID)
	if h.CurrentStreak != 0 || h.BestStreak != 1 {
		t.Errorf("streak after rollover = %d/%d, want 0/1", h.CurrentStreak, h.BestStreak)
	}
}

func TestNewRecomputesStaleStreaks(t *testing.T) {
	store := newTestStore(t)
	tr, _ := newTestTracker(t, store)
	ctx := context.Background()

	m, _ := tr.AddHabit(ctx, HabitInput{Title: "Read"})
	for _, d := range []string{"2025-01-03", "2025-01-04", "2025-01-05"} {
		if _, err := tr.RecordCompletion(ctx, m.Habit.ID, d, true); err != nil {
			t.Fatalf("RecordCompletion(%s) failed: %v", d, err)
		}
	}
	if h, _ := tr.GetHabit(m.Habit.ID); h.CurrentStreak != 3 {
		t.Fatalf("CurrentStreak = %d, want 3", h.CurrentStreak)
	}

	later := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)
	reopened, err := New(ctx, store,
		WithClock(func() time.Time { return later }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	h, _ := reopened.GetHabit(m.Habit.ID)
	if h.CurrentStreak != 0 || h.BestStreak != 3 {
		t.Errorf("streak after reload = %d/%d, want 0/3", h.CurrentStreak, h.BestStreak)
	}
	if r := reopened.Streak(m.Habit.ID); r.Current != h.CurrentStreak || r.Best != h.BestStreak {
		t.Errorf("stored streak %d/%d disagrees with computed %d/%d", h.CurrentStreak, h.BestStreak, r.Current, r.Best)
	}

	stored, err := store.LoadHabits(ctx)
	if err != nil {
		t.Fatalf("LoadHabits failed: %v", err)
	}
	if len(stored) != 1 || stored[0].CurrentStreak != 0 {
		t.Errorf("refreshed streak not persisted: %+v", stored)
	}
}

func TestReadsRefreshStreaksAfterMidnight(t *testing.T) {
	tr, clock := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	m, _ := tr.AddHabit(ctx, HabitInput{Title: "Read"})
	tr.ToggleCompletion(ctx, m.Habit.ID)

	clock.advanceDays(1)
	habits := tr.ListHabits()
	if len(habits) != 1 || habits[0].CurrentStreak != 0 || habits[0].BestStreak != 1 {
		t.Errorf("ListHabits after midnight = %+v, want streak 0/1", habits)
	}
	if doc := tr.Export(); doc.Habits[0].CurrentStreak != 0 {
		t.Errorf("exported CurrentStreak = %d, want 0", doc.Habits[0].CurrentStreak)
	}
	if !tr.Dirty() {
		t.Error("expected refreshed habits to be pending a write")
	}
	if err := tr.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if tr.Dirty() {
		t.Error("still dirty after Save")
	}
}

func TestPersistenceFailureKeepsState(t *testing.T) {
	base := newTestStore(t)
	store := &failingStore{Store: base}
	tr, _ := newTestTracker(t, store)
	ctx := context.Background()

	m, err := tr.AddHabit(ctx, HabitInput{Title: "Read"})
	if err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	store.fail = true
	_, err = tr.ToggleCompletion(ctx, m.Habit.ID)
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("Expected ErrPersist, got %v", err)
	}
	if !tr.IsCompleted(m.Habit.ID, "2025-01-05") {
		t.Error("Expected completion kept in memory")
	}
	if !tr.Dirty() {
		t.Error("Expected tracker to be dirty")
	}

	store.fail = false
	if err := tr.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if tr.Dirty() {
		t.Error("Expected clean tracker after Save")
	}
	stored, _ := base.LoadCompletions(ctx)
	if len(stored) != 1 || !stored[0].Completed {
		t.Errorf("Expected completion persisted after Save, got %+v", stored)
	}
}

func TestReloadFromStore(t *testing.T) {
	store := newTestStore(t)
	tr, _ := newTestTracker(t, store)
	ctx := context.Background()

	m, _ := tr.AddHabit(ctx, HabitInput{Title: "Read"})
	tr.ToggleCompletion(ctx, m.Habit.ID)
	tr.AddTodo(ctx, TodoInput{Title: "Buy milk"})
	tr.SetTheme(ctx, models.ThemeDark)

	reloaded, _ := newTestTracker(t, store)
	if !reflect.DeepEqual(reloaded.Export(), tr.Export()) {
		t.Error("reloaded state differs")
	}
	if len(reloaded.ListTodos(models.TodoFilter{})) != 1 {
		t.Error("todo not reloaded")
	}
	if reloaded.Theme() != models.ThemeDark {
		t.Errorf("Theme() = %q, want dark", reloaded.Theme())
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	tr, clock := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	a, _ := tr.AddHabit(ctx, HabitInput{Title: "Read", ReminderTime: "07:00"})
	tr.AddHabit(ctx, HabitInput{Title: "Gym", FrequencyType: models.FrequencyCustom, CustomDays: []int{1, 3}})
	tr.ToggleCompletion(ctx, a.Habit.ID)
	clock.advanceDays(1)
	tr.ToggleCompletion(ctx, a.Habit.ID)

	before := tr.Export()

	if err := tr.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(tr.ListHabits()) != 0 {
		t.Fatal("Expected no habits after Clear")
	}

	if err := tr.Import(ctx, before); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !reflect.DeepEqual(tr.Export(), before) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", tr.Export(), before)
	}
}

func TestImportPartialAndMalformed(t *testing.T) {
	tr, _ := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	m, _ := tr.AddHabit(ctx, HabitInput{Title: "Read"})
	tr.ToggleCompletion(ctx, m.Habit.ID)

	// completions only: habits untouched
	err := tr.Import(ctx, export.Document{Completions: []models.Completion{
		{HabitID: m.Habit.ID, Date: "2025-01-04", Completed: true},
		{HabitID: m.Habit.ID, Date: "2025-01-04", Completed: false},
	}})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	doc := tr.Export()
	if len(doc.Habits) != 1 {
		t.Errorf("habits changed by completions-only import")
	}
	if len(doc.Completions) != 1 || doc.Completions[0].Completed {
		t.Errorf("Completions = %+v, want one collapsed uncompleted record", doc.Completions)
	}

	// malformed: nothing applied
	err = tr.Import(ctx, export.Document{
		Habits:      []models.Habit{},
		Completions: []models.Completion{{HabitID: "x", Date: "bad"}},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	if len(tr.ListHabits()) != 1 {
		t.Error("malformed import partially applied")
	}
}

func TestImportPartialCatalogKeepsFullCatalog(t *testing.T) {
	tr, _ := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	err := tr.Import(ctx, export.Document{Achievements: []models.Achievement{
		{ID: "first-habit", Title: "Getting Started", Category: models.CategoryHabit, Unlocked: true, UnlockedAt: &at},
	}})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if got := len(tr.Achievements()); got != 30 {
		t.Fatalf("catalog has %d entries after import, want 30", got)
	}

	var unlocked []string
	for i := 0; i < 5; i++ {
		m, err := tr.AddHabit(ctx, HabitInput{Title: fmt.Sprintf("h%d", i)})
		if err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		unlocked = append(unlocked, unlockedIDs(m.Unlocked)...)
	}
	if !reflect.DeepEqual(unlocked, []string{"5-habits"}) {
		t.Errorf("unlocked = %v, want [5-habits]", unlocked)
	}

	for _, a := range tr.Achievements() {
		if a.ID == "first-habit" && (a.UnlockedAt == nil || !a.UnlockedAt.Equal(at)) {
			t.Errorf("first-habit unlock time = %v, want %v", a.UnlockedAt, at)
		}
	}
}

func TestClearRelocksAchievements(t *testing.T) {
	tr, _ := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	tr.AddHabit(ctx, HabitInput{Title: "Read"})
	tr.AddTodo(ctx, TodoInput{Title: "x"})
	tr.SetTheme(ctx, models.ThemeDark)

	if err := tr.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	for _, a := range tr.Achievements() {
		if a.Unlocked {
			t.Errorf("%s still unlocked after Clear", a.ID)
		}
	}
	if len(tr.ListTodos(models.TodoFilter{})) != 0 {
		t.Error("todos not cleared")
	}
	if tr.Theme() != models.ThemeDark {
		t.Error("theme should survive Clear")
	}

	m, _ := tr.AddHabit(ctx, HabitInput{Title: "Again"})
	if !reflect.DeepEqual(unlockedIDs(m.Unlocked), []string{"first-habit"}) {
		t.Errorf("Expected first-habit to unlock again, got %v", unlockedIDs(m.Unlocked))
	}
}

func TestSetTheme(t *testing.T) {
	tr, _ := newTestTracker(t, newTestStore(t))
	if tr.Theme() != models.ThemeLight {
		t.Errorf("default theme = %q", tr.Theme())
	}
	if err := tr.SetTheme(context.Background(), "sepia"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
