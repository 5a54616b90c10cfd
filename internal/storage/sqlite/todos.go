package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/streakly/internal/models"
)

// LoadTodos returns all todos in their saved order.
func (s *SQLiteStore) LoadTodos(ctx context.Context) ([]models.Todo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, due_date, due_time, priority, category,
		       completed, completed_at, created_at
		FROM todos ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]models.Todo, 0)
	for rows.Next() {
		var t models.Todo
		var priority, createdAt string
		var completedAt sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.DueTime, &priority,
			&t.Category, &t.Completed, &completedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		t.Priority = models.Priority(priority)
		if t.CompletedAt, err = parseOptionalTime(completedAt); err != nil {
			return nil, fmt.Errorf("failed to parse completed_at for todo %s: %w", t.ID, err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for todo %s: %w", t.ID, err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

// SaveTodos replaces the stored todos.
func (s *SQLiteStore) SaveTodos(ctx context.Context, todos []models.Todo) error {
	return s.replace(ctx, "todos", len(todos), func(tx *sql.Tx, i int) error {
		t := todos[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO todos (id, position, title, description, due_date, due_time, priority,
			                   category, completed, completed_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, i, t.Title, t.Description, t.DueDate, t.DueTime, string(t.Priority),
			t.Category, t.Completed, formatOptionalTime(t.CompletedAt), formatTime(t.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert todo: %w", err)
		}
		return nil
	})
}
