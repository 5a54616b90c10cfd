package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/streakly/internal/metrics"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// and records its duration in the RPC histogram.
// It logs the procedure name, subject, duration, and any error codes/messages.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			subject := GetSubject(ctx)
			elapsed := time.Since(start)
			duration := elapsed.Milliseconds()
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					slog.Warn("RPC error",
						"procedure", procedure,
						"code", connectErr.Code(),
						"error", connectErr.Message(),
						"subject", subject,
						"duration_ms", duration,
					)
				} else {
					slog.Error("RPC error",
						"procedure", procedure,
						"error", err,
						"subject", subject,
						"duration_ms", duration,
					)
				}
				metrics.RecordRPC(procedure, connect.CodeOf(err).String(), elapsed)
			} else {
				slog.Info("RPC ok",
					"procedure", procedure,
					"subject", subject,
					"duration_ms", duration,
				)
				metrics.RecordRPC(procedure, "ok", elapsed)
			}

			return resp, err
		}
	}
}
