package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/push"
)

type fakeSource struct {
	mu        sync.Mutex
	habits    []models.Habit
	todos     []models.Todo
	completed map[string]bool
	refreshes int
}

func (f *fakeSource) ListHabits() []models.Habit { return f.habits }

func (f *fakeSource) ListTodos(filter models.TodoFilter) []models.Todo {
	var out []models.Todo
	for _, td := range f.todos {
		if filter.Match(td) {
			out = append(out, td)
		}
	}
	return out
}

func (f *fakeSource) IsCompleted(habitID, date string) bool { return f.completed[habitID+"/"+date] }

func (f *fakeSource) RefreshStreaks(context.Context) ([]models.Achievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil, nil
}

type fakeNotifier struct {
	messages []push.Message
	err      error
}

func (f *fakeNotifier) Broadcast(_ context.Context, msg push.Message) (push.Report, error) {
	if f.err != nil {
		return push.Report{}, f.err
	}
	f.messages = append(f.messages, msg)
	return push.Report{Attempted: 1, Delivered: 1}, nil
}

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSchedulerTick(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2025, 1, 6, 6, 59, 0, 0, time.UTC)}
	source := &fakeSource{
		habits: []models.Habit{{ID: "h1", Title: "Read", FrequencyType: models.FrequencyDaily, ReminderTime: "07:00"}},
		todos:  []models.Todo{{ID: "t1", Title: "Ship", DueDate: "2025-01-06", DueTime: "07:01"}},
	}
	notifier := &fakeNotifier{}
	s := NewScheduler(source, notifier, time.Minute, WithClock(clock.Now), WithLogger(quietLogger()))

	if fired := s.Tick(ctx); len(fired) != 0 {
		t.Fatalf("06:59 fired %v", keys(fired))
	}

	clock.now = clock.now.Add(time.Minute)
	fired := s.Tick(ctx)
	if len(fired) != 1 || fired[0].Key != "habit:h1:2025-01-06T07:00" {
		t.Fatalf("07:00 fired %v", keys(fired))
	}
	if notifier.messages[0].Body != "Time for: Read" {
		t.Errorf("unexpected message %+v", notifier.messages[0])
	}

	// a skipped tick is caught up by the next one
	clock.now = clock.now.Add(3 * time.Minute)
	fired = s.Tick(ctx)
	if len(fired) != 1 || fired[0].Kind != KindTodo {
		t.Fatalf("07:03 fired %v", keys(fired))
	}

	if source.refreshes != 1 {
		t.Errorf("expected only the first-tick refresh within one day, got %d", source.refreshes)
	}
}

func TestSchedulerFiresOnce(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC)}
	source := &fakeSource{habits: []models.Habit{{ID: "h1", Title: "Read", FrequencyType: models.FrequencyDaily, ReminderTime: "07:00"}}}
	notifier := &fakeNotifier{}
	dedupe := NewMemoryDeduper(time.Hour, clock.Now)

	// two schedulers sharing a deduper, as two processes sharing Redis would
	a := NewScheduler(source, notifier, time.Minute, WithClock(clock.Now), WithDeduper(dedupe), WithLogger(quietLogger()))
	b := NewScheduler(source, notifier, time.Minute, WithClock(clock.Now), WithDeduper(dedupe), WithLogger(quietLogger()))

	a.Tick(ctx)
	b.Tick(ctx)
	if len(notifier.messages) != 1 {
		t.Errorf("expected one notification, got %d", len(notifier.messages))
	}
}

func TestSchedulerSkipsCompletedHabit(t *testing.T) {
	clock := &stepClock{now: time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC)}
	source := &fakeSource{
		habits:    []models.Habit{{ID: "h1", Title: "Read", FrequencyType: models.FrequencyDaily, ReminderTime: "07:00"}},
		completed: map[string]bool{"h1/2025-01-06": true},
	}
	notifier := &fakeNotifier{}
	s := NewScheduler(source, notifier, time.Minute, WithClock(clock.Now), WithLogger(quietLogger()))

	if fired := s.Tick(context.Background()); len(fired) != 0 {
		t.Errorf("completed habit fired %v", keys(fired))
	}
}

func TestSchedulerRefreshesOnDayChange(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2025, 1, 6, 23, 59, 0, 0, time.UTC)}
	source := &fakeSource{}
	s := NewScheduler(source, &fakeNotifier{}, time.Minute, WithClock(clock.Now), WithLogger(quietLogger()))

	s.Tick(ctx)
	if source.refreshes != 1 {
		t.Fatalf("expected a refresh on the first tick, got %d", source.refreshes)
	}
	clock.now = clock.now.Add(2 * time.Minute)
	s.Tick(ctx)
	if source.refreshes != 2 {
		t.Errorf("expected another refresh after midnight, got %d", source.refreshes)
	}
}

func TestSchedulerNotifierError(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC)}
	source := &fakeSource{habits: []models.Habit{{ID: "h1", Title: "Read", FrequencyType: models.FrequencyDaily, ReminderTime: "07:00"}}}
	notifier := &fakeNotifier{err: errors.New("relay down")}
	s := NewScheduler(source, notifier, time.Minute, WithClock(clock.Now), WithLogger(quietLogger()))

	if fired := s.Tick(ctx); len(fired) != 0 {
		t.Errorf("expected nothing reported fired, got %v", keys(fired))
	}

	// the failed reminder is retried once the relay recovers
	notifier.err = nil
	clock.now = clock.now.Add(time.Minute)
	fired := s.Tick(ctx)
	if len(fired) != 1 || fired[0].Key != "habit:h1:2025-01-06T07:00" {
		t.Fatalf("retry fired %v", keys(fired))
	}

	clock.now = clock.now.Add(time.Minute)
	if fired := s.Tick(ctx); len(fired) != 0 {
		t.Errorf("delivered reminder fired again: %v", keys(fired))
	}
}

func TestMemoryDeduper(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC)}
	d := NewMemoryDeduper(time.Hour, clock.Now)

	if !d.AcquireOnce(ctx, "habit:h1:2025-01-06T07:00") {
		t.Fatal("first acquire should succeed")
	}
	if d.AcquireOnce(ctx, "habit:h1:2025-01-06T07:00") {
		t.Error("second acquire should be a duplicate")
	}

	clock.now = clock.now.Add(30 * time.Minute)
	if d.AcquireOnce(ctx, "habit:h1:2025-01-06T07:00") {
		t.Error("key expired before its ttl")
	}

	clock.now = clock.now.Add(time.Hour)
	if !d.AcquireOnce(ctx, "habit:h1:2025-01-06T07:00") {
		t.Error("acquire after expiry should succeed")
	}

	d.Release(ctx, "habit:h1:2025-01-06T07:00")
	if !d.AcquireOnce(ctx, "habit:h1:2025-01-06T07:00") {
		t.Error("acquire after release should succeed")
	}
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(&fakeSource{}, &fakeNotifier{}, 10*time.Millisecond, WithLogger(quietLogger()))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
