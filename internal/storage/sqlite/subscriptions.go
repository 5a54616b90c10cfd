package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/streakly/internal/models"
)

// SubscriptionRepository stores push subscriptions in the push_subscriptions table.
// It shares the connection of the SQLiteStore it was obtained from.
type SubscriptionRepository struct {
	store *SQLiteStore
}

// Subscriptions returns a push subscription repository backed by this database.
func (s *SQLiteStore) Subscriptions() *SubscriptionRepository {
	return &SubscriptionRepository{store: s}
}

// Add inserts sub, replacing any subscription with the same endpoint.
func (r *SubscriptionRepository) Add(ctx context.Context, sub models.Subscription) error {
	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions (endpoint, auth, p256dh, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET auth = excluded.auth, p256dh = excluded.p256dh`,
		sub.Endpoint, sub.Keys.Auth, sub.Keys.P256dh, formatTime(sub.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// List returns every subscription, oldest first.
func (r *SubscriptionRepository) List(ctx context.Context) ([]models.Subscription, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT endpoint, auth, p256dh, created_at FROM push_subscriptions ORDER BY created_at, endpoint")
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]models.Subscription, 0)
	for rows.Next() {
		var sub models.Subscription
		var createdAt string
		if err := rows.Scan(&sub.Endpoint, &sub.Keys.Auth, &sub.Keys.P256dh, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		if sub.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return subs, nil
}

// Remove deletes the subscription for endpoint. Removing an unknown endpoint is not an error.
func (r *SubscriptionRepository) Remove(ctx context.Context, endpoint string) error {
	if _, err := r.store.db.ExecContext(ctx,
		"DELETE FROM push_subscriptions WHERE endpoint = ?", endpoint); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}
