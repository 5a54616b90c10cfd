package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/streakly/internal/models"
)

// LoadAchievements returns the stored catalog state in catalog order.
func (s *SQLiteStore) LoadAchievements(ctx context.Context) ([]models.Achievement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, icon, requirement, category, unlocked, unlocked_at
		FROM achievements ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	list := make([]models.Achievement, 0)
	for rows.Next() {
		var a models.Achievement
		var category string
		var unlockedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Icon, &a.Requirement,
			&category, &a.Unlocked, &unlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		a.Category = models.AchievementCategory(category)
		if a.UnlockedAt, err = parseOptionalTime(unlockedAt); err != nil {
			return nil, fmt.Errorf("failed to parse unlocked_at for %s: %w", a.ID, err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate achievements: %w", err)
	}
	return list, nil
}

// SaveAchievements replaces the stored catalog state.
func (s *SQLiteStore) SaveAchievements(ctx context.Context, achievements []models.Achievement) error {
	return s.replace(ctx, "achievements", len(achievements), func(tx *sql.Tx, i int) error {
		a := achievements[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO achievements (id, position, title, description, icon, requirement, category, unlocked, unlocked_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, i, a.Title, a.Description, a.Icon, a.Requirement, string(a.Category),
			a.Unlocked, formatOptionalTime(a.UnlockedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert achievement: %w", err)
		}
		return nil
	})
}
