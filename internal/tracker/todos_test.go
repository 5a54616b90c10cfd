package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/streakly/internal/models"
)

func TestTodoLifecycle(t *testing.T) {
	tr, clock := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	td, err := tr.AddTodo(ctx, TodoInput{Title: "  Buy milk  "})
	if err != nil {
		t.Fatalf("AddTodo failed: %v", err)
	}
	if td.Title != "Buy milk" || td.Priority != models.PriorityMedium || td.Category != models.TodoCategoryPersonal {
		t.Errorf("unexpected defaults: %+v", td)
	}

	td, err = tr.UpdateTodo(ctx, td.ID, TodoInput{Title: "Buy oat milk", Priority: models.PriorityHigh, Category: models.TodoCategoryShopping, DueDate: "2025-01-06", DueTime: "18:00"})
	if err != nil {
		t.Fatalf("UpdateTodo failed: %v", err)
	}
	if td.Priority != models.PriorityHigh || td.DueTime != "18:00" {
		t.Errorf("update not applied: %+v", td)
	}

	td, err = tr.ToggleTodo(ctx, td.ID)
	if err != nil {
		t.Fatalf("ToggleTodo failed: %v", err)
	}
	if !td.Completed || td.CompletedAt == nil || !td.CompletedAt.Equal(clock.now) {
		t.Errorf("expected completed with timestamp, got %+v", td)
	}

	td, _ = tr.ToggleTodo(ctx, td.ID)
	if td.Completed || td.CompletedAt != nil {
		t.Errorf("expected completion cleared, got %+v", td)
	}

	if err := tr.DeleteTodo(ctx, td.ID); err != nil {
		t.Fatalf("DeleteTodo failed: %v", err)
	}
	if err := tr.DeleteTodo(ctx, td.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := tr.ToggleTodo(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAddTodoValidation(t *testing.T) {
	tests := []struct {
		name  string
		input TodoInput
	}{
		{name: "empty title", input: TodoInput{Title: ""}},
		{name: "bad priority", input: TodoInput{Title: "x", Priority: "Urgent"}},
		{name: "bad due date", input: TodoInput{Title: "x", DueDate: "2025-02-30"}},
		{name: "bad due time", input: TodoInput{Title: "x", DueTime: "7pm"}},
	}
	tr, _ := newTestTracker(t, newTestStore(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.AddTodo(context.Background(), tt.input); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestListTodosOrderingAndFilters(t *testing.T) {
	tr, clock := newTestTracker(t, newTestStore(t))
	ctx := context.Background()

	add := func(in TodoInput) models.Todo {
		t.Helper()
		clock.now = clock.now.Add(1)
		td, err := tr.AddTodo(ctx, in)
		if err != nil {
			t.Fatalf("AddTodo failed: %v", err)
		}
		return td
	}

	low := add(TodoInput{Title: "low", Priority: models.PriorityLow, Category: models.TodoCategoryWork})
	done := add(TodoInput{Title: "done", Priority: models.PriorityHigh})
	highLate := add(TodoInput{Title: "high late", Priority: models.PriorityHigh, DueDate: "2025-02-01"})
	highNoDue := add(TodoInput{Title: "high no due", Priority: models.PriorityHigh})
	highEarly := add(TodoInput{Title: "high early", Priority: models.PriorityHigh, DueDate: "2025-01-10", Category: models.TodoCategoryWork})
	medium := add(TodoInput{Title: "medium", Priority: models.PriorityMedium})
	tr.ToggleTodo(ctx, done.ID)

	got := tr.ListTodos(models.TodoFilter{})
	want := []string{highEarly.ID, highLate.ID, highNoDue.ID, medium.ID, low.ID, done.ID}
	if len(got) != len(want) {
		t.Fatalf("got %d todos, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("position %d = %s, want %s", i, got[i].Title, want[i])
		}
	}

	tests := []struct {
		name   string
		filter models.TodoFilter
		want   int
	}{
		{"active", models.TodoFilter{Status: models.TodoStatusActive}, 5},
		{"completed", models.TodoFilter{Status: models.TodoStatusCompleted}, 1},
		{"work", models.TodoFilter{Category: models.TodoCategoryWork}, 2},
		{"high active", models.TodoFilter{Status: models.TodoStatusActive, Priority: models.PriorityHigh}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := len(tr.ListTodos(tt.filter)); n != tt.want {
				t.Errorf("ListTodos(%+v) returned %d, want %d", tt.filter, n, tt.want)
			}
		})
	}
}
