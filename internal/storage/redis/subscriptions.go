package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/streakly/internal/models"
)

// SubscriptionRepository keeps push subscriptions in one Redis hash,
// field = endpoint, value = JSON-encoded subscription.
type SubscriptionRepository struct {
	rdb *redis.Client
	key string
}

// NewSubscriptionRepository returns a repository storing subscriptions under prefix + "subscriptions".
func NewSubscriptionRepository(rdb *redis.Client, prefix string) *SubscriptionRepository {
	return &SubscriptionRepository{rdb: rdb, key: prefix + "subscriptions"}
}

// Add stores sub, replacing any subscription with the same endpoint.
func (r *SubscriptionRepository) Add(ctx context.Context, sub models.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode subscription: %w", err)
	}
	if err := r.rdb.HSet(ctx, r.key, sub.Endpoint, data).Err(); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// List returns every subscription, oldest first.
func (r *SubscriptionRepository) List(ctx context.Context) ([]models.Subscription, error) {
	values, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs := make([]models.Subscription, 0, len(values))
	for endpoint, raw := range values {
		var sub models.Subscription
		if err := json.Unmarshal([]byte(raw), &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription %s: %w", endpoint, err)
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.Before(subs[j].CreatedAt)
		}
		return subs[i].Endpoint < subs[j].Endpoint
	})
	return subs, nil
}

// Remove deletes the subscription for endpoint.
func (r *SubscriptionRepository) Remove(ctx context.Context, endpoint string) error {
	if err := r.rdb.HDel(ctx, r.key, endpoint).Err(); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}
