package tracker

import (
	"context"
	"fmt"
	"sort"

	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/storage"
)

func cloneTodo(td models.Todo) models.Todo {
	if td.CompletedAt != nil {
		at := *td.CompletedAt
		td.CompletedAt = &at
	}
	return td
}

func (t *Tracker) todoIndex(id string) int {
	for i := range t.todos {
		if t.todos[i].ID == id {
			return i
		}
	}
	return -1
}

// ListTodos returns the todos matching filter, ordered incomplete first,
// then by priority, then by earliest due date, then by creation time.
func (t *Tracker) ListTodos(filter models.TodoFilter) []models.Todo {
	t.mu.Lock()
	out := make([]models.Todo, 0, len(t.todos))
	for _, td := range t.todos {
		if filter.Match(td) {
			out = append(out, cloneTodo(td))
		}
	}
	t.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if da, db := dueKey(a), dueKey(b); da != db {
			// todos without a due date sort after dated ones
			if da == "" || db == "" {
				return db == ""
			}
			return da < db
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func dueKey(td models.Todo) string {
	if td.DueDate == "" {
		return ""
	}
	return td.DueDate + " " + td.DueTime
}

// AddTodo creates a todo. Priority defaults to Medium and category to Personal.
func (t *Tracker) AddTodo(ctx context.Context, in TodoInput) (models.Todo, error) {
	in, err := in.normalize()
	if err != nil {
		return models.Todo{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	td := models.Todo{
		ID:          t.newID(),
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		DueTime:     in.DueTime,
		Priority:    in.Priority,
		Category:    in.Category,
		CreatedAt:   t.now().UTC(),
	}
	t.todos = append(t.todos, td)
	t.logger.Info("Todo added", "id", td.ID, "priority", td.Priority)

	return cloneTodo(td), t.persist(ctx, storage.CollectionTodos)
}

// UpdateTodo replaces the editable fields of a todo. Completion state is kept.
func (t *Tracker) UpdateTodo(ctx context.Context, id string, in TodoInput) (models.Todo, error) {
	in, err := in.normalize()
	if err != nil {
		return models.Todo{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.todoIndex(id)
	if i < 0 {
		return models.Todo{}, fmt.Errorf("%w: todo %s", ErrNotFound, id)
	}
	td := &t.todos[i]
	td.Title = in.Title
	td.Description = in.Description
	td.DueDate = in.DueDate
	td.DueTime = in.DueTime
	td.Priority = in.Priority
	td.Category = in.Category

	return cloneTodo(*td), t.persist(ctx, storage.CollectionTodos)
}

// ToggleTodo flips a todo's completion, stamping or clearing CompletedAt.
func (t *Tracker) ToggleTodo(ctx context.Context, id string) (models.Todo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.todoIndex(id)
	if i < 0 {
		return models.Todo{}, fmt.Errorf("%w: todo %s", ErrNotFound, id)
	}
	td := &t.todos[i]
	td.Completed = !td.Completed
	if td.Completed {
		at := t.now().UTC()
		td.CompletedAt = &at
	} else {
		td.CompletedAt = nil
	}

	return cloneTodo(*td), t.persist(ctx, storage.CollectionTodos)
}

// DeleteTodo removes a todo.
func (t *Tracker) DeleteTodo(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.todoIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: todo %s", ErrNotFound, id)
	}
	t.todos = append(t.todos[:i], t.todos[i+1:]...)
	t.logger.Info("Todo deleted", "id", id)

	return t.persist(ctx, storage.CollectionTodos)
}
