package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/streakly/internal/metrics"
	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/push"
	"github.com/mmynk/streakly/internal/streak"
)

// Source supplies the state reminders are computed from. *tracker.Tracker implements it.
type Source interface {
	ListHabits() []models.Habit
	ListTodos(filter models.TodoFilter) []models.Todo
	IsCompleted(habitID, date string) bool
	RefreshStreaks(ctx context.Context) ([]models.Achievement, error)
}

// Notifier delivers a reminder. *push.Relay implements it.
type Notifier interface {
	Broadcast(ctx context.Context, msg push.Message) (push.Report, error)
}

// Deduper records fired reminder keys. AcquireOnce returns false for a key
// seen before; Release forgets a key whose delivery failed.
type Deduper interface {
	AcquireOnce(ctx context.Context, key string) bool
	Release(ctx context.Context, key string)
}

// MemoryDeduper is a process-local Deduper.
type MemoryDeduper struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	ttl   time.Duration
	clock func() time.Time
}

// NewMemoryDeduper returns a Deduper that forgets keys after ttl as measured
// by clock. A nil clock means time.Now.
func NewMemoryDeduper(ttl time.Duration, clock func() time.Time) *MemoryDeduper {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryDeduper{seen: make(map[string]time.Time), ttl: ttl, clock: clock}
}

func (d *MemoryDeduper) AcquireOnce(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock()
	for k, at := range d.seen {
		if now.Sub(at) > d.ttl {
			delete(d.seen, k)
		}
	}
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = now
	return true
}

func (d *MemoryDeduper) Release(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
}

// Scheduler polls Source on a fixed interval and fires due reminders.
type Scheduler struct {
	source   Source
	notifier Notifier
	dedupe   Deduper
	clock    func() time.Time
	interval time.Duration
	logger   *slog.Logger

	last    time.Time
	lastDay string
	// retry holds reminders whose delivery failed; they are retried until
	// delivered or the day changes.
	retry []Reminder
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock. Its location defines reminder wall-clock times.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// WithDeduper replaces the in-memory deduper, e.g. with a Redis-backed one.
func WithDeduper(d Deduper) Option {
	return func(s *Scheduler) { s.dedupe = d }
}

// WithLogger sets the scheduler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler creates a scheduler that checks every interval.
func NewScheduler(source Source, notifier Notifier, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:   source,
		notifier: notifier,
		clock:    time.Now,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dedupe == nil {
		s.dedupe = NewMemoryDeduper(48*time.Hour, s.clock)
	}
	return s
}

// Tick fires every reminder due since the previous tick (one interval back on
// the first tick), plus any whose delivery failed earlier the same day. Streaks
// are refreshed on the first tick and whenever the calendar day has changed.
// It returns the reminders fired.
func (s *Scheduler) Tick(ctx context.Context) []Reminder {
	now := s.clock()
	from := s.last
	if from.IsZero() {
		from = now.Add(-s.interval)
	}
	s.last = now

	today := streak.FormatDay(now)
	if s.lastDay != today {
		if _, err := s.source.RefreshStreaks(ctx); err != nil {
			s.logger.Error("Failed to refresh streaks", "error", err)
		}
		s.retry = nil
	}
	s.lastDay = today

	due := append(s.retry, Due(
		s.source.ListHabits(),
		s.source.ListTodos(models.TodoFilter{Status: models.TodoStatusActive}),
		s.source.IsCompleted,
		from, now,
	)...)
	s.retry = nil

	var fired []Reminder
	for _, r := range due {
		if !s.dedupe.AcquireOnce(ctx, r.Key) {
			continue
		}
		report, err := s.notifier.Broadcast(ctx, push.Message{Title: r.Title, Body: r.Body})
		if err != nil {
			s.logger.Error("Failed to send reminder", "key", r.Key, "error", err)
			s.dedupe.Release(ctx, r.Key)
			s.retry = append(s.retry, r)
			continue
		}
		metrics.RecordReminder(string(r.Kind))
		s.logger.Info("Reminder fired", "kind", r.Kind, "id", r.ID, "delivered", report.Delivered)
		fired = append(fired, r)
	}
	return fired
}

// Run calls Tick every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Reminder scheduler started", "interval", s.interval)
	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
