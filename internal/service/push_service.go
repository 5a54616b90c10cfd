package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/streakly/internal/auth"
	"github.com/mmynk/streakly/internal/middleware"
	"github.com/mmynk/streakly/internal/models"
	"github.com/mmynk/streakly/internal/push"
)

const (
	PushServiceName = "streakly.v1.PushService"

	PushServiceSaveSubscriptionProcedure  = "/streakly.v1.PushService/SaveSubscription"
	PushServiceSendNotificationProcedure  = "/streakly.v1.PushService/SendNotification"
	PushServiceGetVAPIDPublicKeyProcedure = "/streakly.v1.PushService/GetVAPIDPublicKey"
)

// ErrPushDisabled is returned by SendNotification when no VAPID keys are configured.
var ErrPushDisabled = errors.New("push notifications are not configured")

// SaveSubscriptionRequest is the browser's PushSubscription JSON as-is.
type SaveSubscriptionRequest struct {
	models.Subscription
}

type SaveSubscriptionResponse struct {
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

type SendNotificationRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type SendNotificationResponse struct {
	Report push.Report `json:"report"`
}

type GetVAPIDPublicKeyRequest struct{}

type GetVAPIDPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
	Enabled   bool   `json:"enabled"`
}

// PushService implements the notification relay RPCs.
type PushService struct {
	relay     *push.Relay
	publicKey string
}

// NewPushService creates a PushService. An empty publicKey disables broadcasting.
func NewPushService(relay *push.Relay, publicKey string) *PushService {
	return &PushService{relay: relay, publicKey: publicKey}
}

// Register mounts every PushService procedure on mux. SendNotification
// always requires a bearer token issued by jwtManager.
func (s *PushService) Register(mux Mux, jwtManager *auth.JWTManager, opts ...connect.HandlerOption) {
	opts = handlerOptions(opts)
	protected := append(append([]connect.HandlerOption(nil), opts...),
		connect.WithInterceptors(middleware.RequireAuth(jwtManager)),
	)

	mux.Handle(PushServiceSaveSubscriptionProcedure, connect.NewUnaryHandler(PushServiceSaveSubscriptionProcedure, s.SaveSubscription, opts...))
	mux.Handle(PushServiceSendNotificationProcedure, connect.NewUnaryHandler(PushServiceSendNotificationProcedure, s.SendNotification, protected...))
	mux.Handle(PushServiceGetVAPIDPublicKeyProcedure, connect.NewUnaryHandler(PushServiceGetVAPIDPublicKeyProcedure, s.GetVAPIDPublicKey, opts...))
}

// SaveSubscription registers a browser push subscription.
func (s *PushService) SaveSubscription(ctx context.Context, req *connect.Request[SaveSubscriptionRequest]) (*connect.Response[SaveSubscriptionResponse], error) {
	slog.Info("SaveSubscription request received")

	sub, err := s.relay.Register(ctx, req.Msg.Subscription)
	if err != nil {
		return nil, fail("SaveSubscription failed", err)
	}

	return connect.NewResponse(&SaveSubscriptionResponse{
		Message:   "Subscription saved",
		CreatedAt: sub.CreatedAt.Format(time.RFC3339),
	}), nil
}

// SendNotification broadcasts a notification to every subscription.
func (s *PushService) SendNotification(ctx context.Context, req *connect.Request[SendNotificationRequest]) (*connect.Response[SendNotificationResponse], error) {
	slog.Info("SendNotification request received",
		"title", req.Msg.Title,
		"subject", middleware.GetSubject(ctx),
	)

	if s.publicKey == "" {
		return nil, connect.NewError(connect.CodeFailedPrecondition, ErrPushDisabled)
	}
	if req.Msg.Title == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("title is required"))
	}

	report, err := s.relay.Broadcast(ctx, push.Message{Title: req.Msg.Title, Body: req.Msg.Body})
	if err != nil {
		return nil, fail("SendNotification failed", err)
	}
	return connect.NewResponse(&SendNotificationResponse{Report: report}), nil
}

// GetVAPIDPublicKey returns the application server key browsers subscribe with.
func (s *PushService) GetVAPIDPublicKey(ctx context.Context, req *connect.Request[GetVAPIDPublicKeyRequest]) (*connect.Response[GetVAPIDPublicKeyResponse], error) {
	return connect.NewResponse(&GetVAPIDPublicKeyResponse{
		PublicKey: s.publicKey,
		Enabled:   s.publicKey != "",
	}), nil
}
