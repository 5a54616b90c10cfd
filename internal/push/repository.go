package push

import (
	"context"
	"sort"
	"sync"

	"github.com/mmynk/streakly/internal/models"
)

// Repository stores push subscriptions. Endpoint is the identity:
// adding a subscription with a known endpoint replaces it.
type Repository interface {
	Add(ctx context.Context, sub models.Subscription) error
	List(ctx context.Context) ([]models.Subscription, error)
	Remove(ctx context.Context, endpoint string) error
}

// MemoryRepository is a process-local Repository.
type MemoryRepository struct {
	mu   sync.RWMutex
	subs map[string]models.Subscription
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{subs: make(map[string]models.Subscription)}
}

func (r *MemoryRepository) Add(_ context.Context, sub models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.Endpoint] = sub
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]models.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	return out, nil
}

func (r *MemoryRepository) Remove(_ context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, endpoint)
	return nil
}
