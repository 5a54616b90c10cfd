package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/streakly/internal/auth"
	"github.com/mmynk/streakly/internal/middleware"
)

const (
	AuthServiceName = "streakly.v1.AuthService"

	AuthServiceLoginProcedure        = "/streakly.v1.AuthService/Login"
	AuthServiceGetPrincipalProcedure = "/streakly.v1.AuthService/GetPrincipal"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type GetPrincipalRequest struct{}

type GetPrincipalResponse struct {
	Subject string `json:"subject"`
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register mounts every AuthService procedure on mux. Login is always public.
func (s *AuthService) Register(mux Mux, opts ...connect.HandlerOption) {
	opts = handlerOptions(opts)
	protected := append(append([]connect.HandlerOption(nil), opts...),
		connect.WithInterceptors(middleware.RequireAuth(s.jwtManager)),
	)

	mux.Handle(AuthServiceLoginProcedure, connect.NewUnaryHandler(AuthServiceLoginProcedure, s.Login, opts...))
	mux.Handle(AuthServiceGetPrincipalProcedure, connect.NewUnaryHandler(AuthServiceGetPrincipalProcedure, s.GetPrincipal, protected...))
}

// Login authenticates the operator and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	s.logger.Info("Login request", "username", req.Msg.Username)

	// Validate input
	if req.Msg.Username == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	principal, err := s.authenticator.Authenticate(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "username", req.Msg.Username, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(principal)
	if err != nil {
		s.logger.Error("Failed to generate token", "subject", principal.Subject, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Logged in successfully", "subject", principal.Subject)
	return connect.NewResponse(&LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.jwtManager.TokenDuration()).UTC(),
	}), nil
}

// GetPrincipal returns the subject of the presented token.
func (s *AuthService) GetPrincipal(ctx context.Context, req *connect.Request[GetPrincipalRequest]) (*connect.Response[GetPrincipalResponse], error) {
	subject := middleware.GetSubject(ctx)
	if subject == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return connect.NewResponse(&GetPrincipalResponse{Subject: subject}), nil
}
