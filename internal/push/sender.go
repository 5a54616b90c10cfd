package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/mmynk/streakly/internal/models"
)

// ErrGone means the push service no longer knows the subscription.
// The relay prunes subscriptions whose delivery fails with ErrGone.
var ErrGone = errors.New("subscription gone")

// Sender delivers one encrypted payload to one subscription.
type Sender interface {
	Send(ctx context.Context, sub models.Subscription, payload []byte) error
}

// VAPIDConfig identifies this application server to push services.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	// Subscriber is a contact email or https URL placed in the VAPID JWT.
	Subscriber string
	TTL        time.Duration
	Urgency    string
}

// WebPushSender sends notifications with the Web Push protocol (RFC 8030) and VAPID.
type WebPushSender struct {
	cfg    VAPIDConfig
	client *http.Client
}

// NewWebPushSender returns a sender using cfg. A nil client uses a client with a 10s timeout.
func NewWebPushSender(cfg VAPIDConfig, client *http.Client) *WebPushSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebPushSender{cfg: cfg, client: client}
}

// Send encrypts payload for sub and posts it to the subscription endpoint.
func (s *WebPushSender) Send(ctx context.Context, sub models.Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subscriber,
		TTL:             int(s.cfg.TTL.Seconds()),
		Urgency:         webpush.Urgency(s.cfg.Urgency),
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
	})
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrGone
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push service returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

// GenerateVAPIDKeys returns a new base64url encoded VAPID key pair.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}
