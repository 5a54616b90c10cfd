// Package service exposes the tracker, the push relay and operator login as
// Connect RPC procedures. Messages are plain Go structs carried by JSONCodec.
package service

import (
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/streakly/internal/auth"
	"github.com/mmynk/streakly/internal/push"
	"github.com/mmynk/streakly/internal/tracker"
)

// handlerOptions prepends the JSON codec to opts.
func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// NewClient returns a Connect client for one procedure of a streakly server at baseURL.
func NewClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts ...connect.ClientOption) *connect.Client[Req, Res] {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return connect.NewClient[Req, Res](httpClient, baseURL+procedure, opts...)
}

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, tracker.ErrInvalidInput), errors.Is(err, push.ErrInvalidSubscription):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, tracker.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, tracker.ErrPersist):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNotConfigured),
		errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// fail logs a failed request and converts err for the wire.
func fail(msg string, err error, args ...any) error {
	cerr := toConnectError(err)
	args = append(args, "error", err)
	if connect.CodeOf(cerr) == connect.CodeInternal || connect.CodeOf(cerr) == connect.CodeUnavailable {
		slog.Error(msg, args...)
	} else {
		slog.Warn(msg, args...)
	}
	return cerr
}

// Mux is the subset of *http.ServeMux the services register on.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}
