package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/streakly/internal/models"
)

const themeKey = "theme"

// LoadTheme returns the stored theme, or ThemeLight when none was saved.
func (s *SQLiteStore) LoadTheme(ctx context.Context) (models.Theme, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", themeKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ThemeLight, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get theme: %w", err)
	}
	return models.Theme(value), nil
}

// SaveTheme stores the theme.
func (s *SQLiteStore) SaveTheme(ctx context.Context, theme models.Theme) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		themeKey, string(theme),
	)
	if err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}
