// Package push registers browser push subscriptions and fans notifications
// out to them.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/mmynk/streakly/internal/metrics"
	"github.com/mmynk/streakly/internal/models"
)

// ErrInvalidSubscription is returned by Register for malformed subscriptions.
var ErrInvalidSubscription = errors.New("invalid subscription")

// DefaultIcon is the icon shown with notifications when none is configured.
const DefaultIcon = "icon-192x192.png"

// Message is the notification text broadcast to every subscriber.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Report summarizes one broadcast.
type Report struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Pruned    int `json:"pruned"`
}

type payload struct {
	Notification struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Icon  string `json:"icon"`
	} `json:"notification"`
}

// Relay registers subscriptions and broadcasts notifications to them.
type Relay struct {
	repo   Repository
	sender Sender
	icon   string
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithIcon sets the icon included in every payload.
func WithIcon(icon string) Option {
	return func(r *Relay) { r.icon = icon }
}

// WithClock overrides the clock used to stamp new subscriptions.
func WithClock(clock func() time.Time) Option {
	return func(r *Relay) { r.clock = clock }
}

// WithLogger sets the relay's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

// NewRelay creates a relay storing subscriptions in repo and delivering through sender.
func NewRelay(repo Repository, sender Sender, opts ...Option) *Relay {
	r := &Relay{
		repo:   repo,
		sender: sender,
		icon:   DefaultIcon,
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates sub and stores it, replacing any subscription with the same endpoint.
func (r *Relay) Register(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	u, err := url.Parse(sub.Endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return models.Subscription{}, fmt.Errorf("%w: endpoint must be an absolute URL", ErrInvalidSubscription)
	}
	if sub.Keys.Auth == "" || sub.Keys.P256dh == "" {
		return models.Subscription{}, fmt.Errorf("%w: keys.auth and keys.p256dh are required", ErrInvalidSubscription)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = r.clock().UTC()
	}

	if err := r.repo.Add(ctx, sub); err != nil {
		return models.Subscription{}, err
	}
	r.logger.Info("Push subscription registered", "host", u.Host)
	return sub, nil
}

// Subscriptions lists the registered subscriptions.
func (r *Relay) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	return r.repo.List(ctx)
}

// Broadcast delivers msg to every registered subscription concurrently.
// A failed delivery never stops the others; subscriptions reported gone are removed.
// The returned error is non-nil only when the subscriptions cannot be listed.
func (r *Relay) Broadcast(ctx context.Context, msg Message) (Report, error) {
	subs, err := r.repo.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	var p payload
	p.Notification.Title = msg.Title
	p.Notification.Body = msg.Body
	p.Notification.Icon = r.icon
	body, err := json.Marshal(p)
	if err != nil {
		return Report{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	report := Report{Attempted: len(subs)}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, sub := range subs {
		wg.Add(1)
		go func(sub models.Subscription) {
			defer wg.Done()
			err := r.sender.Send(ctx, sub, body)

			result := "delivered"
			switch {
			case err == nil:
			case errors.Is(err, ErrGone):
				result = "pruned"
				if rmErr := r.repo.Remove(ctx, sub.Endpoint); rmErr != nil {
					r.logger.Error("Failed to prune subscription", "error", rmErr)
					result = "failed"
				}
			default:
				result = "failed"
				r.logger.Warn("Push delivery failed", "error", err)
			}
			metrics.RecordPushDelivery(result)

			mu.Lock()
			defer mu.Unlock()
			switch result {
			case "delivered":
				report.Delivered++
			case "pruned":
				report.Failed++
				report.Pruned++
			default:
				report.Failed++
			}
		}(sub)
	}
	wg.Wait()

	r.logger.Info("Broadcast complete",
		"attempted", report.Attempted,
		"delivered", report.Delivered,
		"failed", report.Failed,
		"pruned", report.Pruned,
	)
	return report, nil
}
