package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mmynk/streakly/internal/models"
)

// LoadHabits returns all habits in their saved order.
func (s *SQLiteStore) LoadHabits(ctx context.Context) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, frequency_type, custom_days, current_streak,
		       best_streak, created_at, reminder_time, reminder_date
		FROM habits ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	habits := make([]models.Habit, 0)
	for rows.Next() {
		var h models.Habit
		var freq, customDays, createdAt string
		if err := rows.Scan(&h.ID, &h.Title, &h.Description, &freq, &customDays, &h.CurrentStreak,
			&h.BestStreak, &createdAt, &h.ReminderTime, &h.ReminderDate); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		h.FrequencyType = models.Frequency(freq)
		if err := json.Unmarshal([]byte(customDays), &h.CustomDays); err != nil {
			return nil, fmt.Errorf("failed to decode custom days for habit %s: %w", h.ID, err)
		}
		if len(h.CustomDays) == 0 {
			h.CustomDays = nil
		}
		if h.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate habits: %w", err)
	}
	return habits, nil
}

// SaveHabits replaces the stored habits.
func (s *SQLiteStore) SaveHabits(ctx context.Context, habits []models.Habit) error {
	return s.replace(ctx, "habits", len(habits), func(tx *sql.Tx, i int) error {
		h := habits[i]
		days := h.CustomDays
		if days == nil {
			days = []int{}
		}
		customDays, err := json.Marshal(days)
		if err != nil {
			return fmt.Errorf("failed to encode custom days: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO habits (id, position, title, description, frequency_type, custom_days,
			                    current_streak, best_streak, created_at, reminder_time, reminder_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.ID, i, h.Title, h.Description, string(h.FrequencyType), string(customDays),
			h.CurrentStreak, h.BestStreak, formatTime(h.CreatedAt), h.ReminderTime, h.ReminderDate,
		)
		if err != nil {
			return fmt.Errorf("failed to insert habit: %w", err)
		}
		return nil
	})
}

// LoadCompletions returns the completion log in its saved order.
func (s *SQLiteStore) LoadCompletions(ctx context.Context) ([]models.Completion, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT habit_id, date, completed FROM completions ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	completions := make([]models.Completion, 0)
	for rows.Next() {
		var c models.Completion
		if err := rows.Scan(&c.HabitID, &c.Date, &c.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completions: %w", err)
	}
	return completions, nil
}

// SaveCompletions replaces the completion log.
// A repeated (habit, date) pair overwrites the earlier row.
func (s *SQLiteStore) SaveCompletions(ctx context.Context, completions []models.Completion) error {
	return s.replace(ctx, "completions", len(completions), func(tx *sql.Tx, i int) error {
		c := completions[i]
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO completions (habit_id, date, completed, position) VALUES (?, ?, ?, ?)",
			c.HabitID, c.Date, c.Completed, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert completion: %w", err)
		}
		return nil
	})
}
