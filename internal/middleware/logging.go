package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor logs each RPC once it completes. Caller mistakes
// (validation, auth, not found) log at INFO, write conflicts at WARN, and
// everything else that failed at ERROR.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", GetUserID(ctx),
				"peer", req.Peer().Addr,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				logger.InfoContext(ctx, "RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code.String(), "error", err)
			logger.Log(ctx, levelForCode(code), "RPC failed", attrs...)
			return resp, err
		}
	}
}

func levelForCode(code connect.Code) slog.Level {
	switch code {
	case connect.CodeInvalidArgument, connect.CodeUnauthenticated, connect.CodePermissionDenied,
		connect.CodeNotFound, connect.CodeAlreadyExists, connect.CodeCanceled:
		return slog.LevelInfo
	case connect.CodeAborted, connect.CodeDeadlineExceeded:
		return slog.LevelWarn
	}
	return slog.LevelError
}
