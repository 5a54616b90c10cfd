// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/streakly/internal/models"
)

// Collection names one independently persisted list.
type Collection string

const (
	CollectionHabits       Collection = "habits"
	CollectionCompletions  Collection = "completions"
	CollectionAchievements Collection = "achievements"
	CollectionTodos        Collection = "todos"
	CollectionTheme        Collection = "theme"
)

// Collections lists every collection in the order they are written on a full save.
var Collections = []Collection{
	CollectionHabits,
	CollectionCompletions,
	CollectionAchievements,
	CollectionTodos,
	CollectionTheme,
}

// Store is a get/set adapter over the tracker's collections.
//
// Each Save replaces the whole collection atomically; there are no
// transactions across collections. Loading a collection that was never
// saved returns an empty list (or ThemeLight for the theme), never an error.
type Store interface {
	LoadHabits(ctx context.Context) ([]models.Habit, error)
	SaveHabits(ctx context.Context, habits []models.Habit) error

	LoadCompletions(ctx context.Context) ([]models.Completion, error)
	SaveCompletions(ctx context.Context, completions []models.Completion) error

	// LoadAchievements returns the stored catalog state. An empty result
	// means the catalog was never seeded.
	LoadAchievements(ctx context.Context) ([]models.Achievement, error)
	SaveAchievements(ctx context.Context, achievements []models.Achievement) error

	LoadTodos(ctx context.Context) ([]models.Todo, error)
	SaveTodos(ctx context.Context, todos []models.Todo) error

	LoadTheme(ctx context.Context) (models.Theme, error)
	SaveTheme(ctx context.Context, theme models.Theme) error

	// Close releases any resources held by the store.
	Close() error
}
