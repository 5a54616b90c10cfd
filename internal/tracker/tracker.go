// Package tracker owns the user's habits, completions, achievements and
// todos. It validates every mutation, persists the touched collections and
// re-runs the achievement engine, one operation at a time.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/streakly/internal/achievements"
	"github.com/mmynk/streakly/internal/metrics"
	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/storage"
	"github.com/mmynk/streakly/internal/streak"
)

var (
	// ErrInvalidInput is returned when user input fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when the referenced habit or todo does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPersist is returned when a collection could not be written.
	// The change is kept in memory and retried by the next write or by Save.
	ErrPersist = errors.New("failed to persist")
)

// Mutation is the outcome of a habit mutation.
type Mutation struct {
	// Habit is the affected habit after the change; nil for deletes.
	Habit *models.Habit
	// Unlocked lists achievements unlocked by this mutation, in catalog order.
	Unlocked []models.Achievement
}

// Tracker serializes all reads and writes of the user's state.
type Tracker struct {
	mu     sync.Mutex
	store  storage.Store
	clock  func() time.Time
	newID  func() string
	logger *slog.Logger

	habits       []models.Habit
	completions  []models.Completion
	achievements []models.Achievement
	todos        []models.Todo
	theme        models.Theme

	// streakDay is the calendar day the stored streaks were last recomputed for.
	streakDay string

	dirty map[storage.Collection]bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock. Its location defines the calendar day used for "today".
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

// WithLogger sets the tracker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithIDGenerator overrides how habit and todo IDs are generated.
func WithIDGenerator(gen func() string) Option {
	return func(t *Tracker) { t.newID = gen }
}

// New loads every collection from store. A missing or partial achievement
// catalog is completed and written back, and stored streaks are recomputed
// as of today.
func New(ctx context.Context, store storage.Store, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store:  store,
		clock:  time.Now,
		newID:  func() string { return uuid.New().String() },
		logger: slog.Default(),
		dirty:  make(map[storage.Collection]bool),
	}
	for _, opt := range opts {
		opt(t)
	}

	var err error
	if t.habits, err = store.LoadHabits(ctx); err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	if t.completions, err = store.LoadCompletions(ctx); err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}
	if t.achievements, err = store.LoadAchievements(ctx); err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	if t.todos, err = store.LoadTodos(ctx); err != nil {
		return nil, fmt.Errorf("failed to load todos: %w", err)
	}
	if t.theme, err = store.LoadTheme(ctx); err != nil {
		return nil, fmt.Errorf("failed to load theme: %w", err)
	}
	if !t.theme.Valid() {
		t.theme = models.ThemeLight
	}

	if !achievements.Canonical(t.achievements) {
		t.achievements = achievements.Restore(t.achievements)
		if err := t.persist(ctx, storage.CollectionAchievements); err != nil {
			t.logger.Warn("Failed to persist seeded achievements", "error", err)
		}
	}
	if changed := t.rollover(); changed > 0 {
		t.logger.Info("Streaks refreshed", "changed", changed)
		if err := t.persist(ctx); err != nil {
			t.logger.Warn("Failed to persist refreshed streaks", "error", err)
		}
	}

	t.logger.Info("Tracker loaded",
		"habits", len(t.habits),
		"completions", len(t.completions),
		"todos", len(t.todos),
	)
	return t, nil
}

// now returns the current time in the clock's location.
func (t *Tracker) now() time.Time {
	return t.clock()
}

func (t *Tracker) today() string {
	return streak.FormatDay(t.now())
}

// rollover recomputes every stored streak the first time it runs on a new
// calendar day and marks habits dirty when one changed. It returns the number
// of habits whose streak changed. Callers hold t.mu.
func (t *Tracker) rollover() int {
	today := t.today()
	if t.streakDay == today {
		return 0
	}
	t.streakDay = today

	changed := 0
	for i := range t.habits {
		if t.recompute(i) {
			changed++
		}
	}
	if changed > 0 {
		t.dirty[storage.CollectionHabits] = true
	}
	return changed
}

// persist writes cols plus every collection left dirty by an earlier failure.
// Callers hold t.mu.
func (t *Tracker) persist(ctx context.Context, cols ...storage.Collection) error {
	for _, c := range cols {
		t.dirty[c] = true
	}

	var errs []error
	for _, c := range storage.Collections {
		if !t.dirty[c] {
			continue
		}
		if err := t.write(ctx, c); err != nil {
			metrics.RecordStoreWriteError(string(c))
			t.logger.Error("Failed to persist collection", "collection", c, "error", err)
			errs = append(errs, err)
			continue
		}
		delete(t.dirty, c)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPersist, errors.Join(errs...))
	}
	return nil
}

func (t *Tracker) write(ctx context.Context, c storage.Collection) error {
	switch c {
	case storage.CollectionHabits:
		return t.store.SaveHabits(ctx, t.habits)
	case storage.CollectionCompletions:
		return t.store.SaveCompletions(ctx, t.completions)
	case storage.CollectionAchievements:
		return t.store.SaveAchievements(ctx, t.achievements)
	case storage.CollectionTodos:
		return t.store.SaveTodos(ctx, t.todos)
	case storage.CollectionTheme:
		return t.store.SaveTheme(ctx, t.theme)
	}
	return fmt.Errorf("unknown collection %q", c)
}

// evaluate runs the achievement engine over the current state and persists
// the catalog when anything changed. Callers hold t.mu.
func (t *Tracker) evaluate(ctx context.Context) ([]models.Achievement, error) {
	seeding := !achievements.Canonical(t.achievements)
	updated, unlocked := achievements.Evaluate(t.achievements, t.habits, t.completions, t.now())
	if !seeding && len(unlocked) == 0 {
		return nil, nil
	}
	t.achievements = updated

	for _, a := range unlocked {
		metrics.RecordUnlock(string(a.Category))
		t.logger.Info("Achievement unlocked", "id", a.ID, "title", a.Title)
	}
	return unlocked, t.persist(ctx, storage.CollectionAchievements)
}

// Save retries writing every collection left dirty by a failed write.
func (t *Tracker) Save(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.persist(ctx)
}

// Dirty reports whether some collection has unsaved changes.
func (t *Tracker) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dirty) > 0
}

// Achievements returns the catalog with its unlock state.
func (t *Tracker) Achievements() []models.Achievement {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Achievement, len(t.achievements))
	copy(out, t.achievements)
	return out
}
