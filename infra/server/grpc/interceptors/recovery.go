// Package interceptors holds the gRPC server middleware chain: panic
// recovery and request logging, grounded on the teacher's
// stream_auth.go (same wrappedStream-free, straight StreamServerInterceptor
// shape), but built from go-grpc-middleware/v2's own recovery and logging
// interceptors instead of the teacher's hand-rolled auth check, since this
// runtime has no identity/session model to authenticate against.
package interceptors

import (
	"context"
	"log/slog"
	"runtime/debug"

	grpclogging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpcrecovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Recovery returns a stream interceptor that turns a panicking handler
// (a misbehaving model future, typically) into an Internal status instead
// of crashing the server process.
func Recovery(logger *slog.Logger) grpc.StreamServerInterceptor {
	return grpcrecovery.StreamServerInterceptor(grpcrecovery.WithRecoveryHandlerContext(
		func(ctx context.Context, p any) error {
			logger.Error("PANIC_RECOVERED", slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
			return status.Error(codes.Internal, "internal error")
		},
	))
}

// Logging returns a stream interceptor that logs each call's method,
// duration and outcome through logger, adapting it to the middleware
// package's own Logger interface.
func Logging(logger *slog.Logger) grpc.StreamServerInterceptor {
	return grpclogging.StreamServerInterceptor(slogLogger{logger})
}

type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Log(_ context.Context, level grpclogging.Level, msg string, fields ...any) {
	l := s.l.With(fields...)
	switch level {
	case grpclogging.LevelDebug:
		l.Debug(msg)
	case grpclogging.LevelInfo:
		l.Info(msg)
	case grpclogging.LevelWarn:
		l.Warn(msg)
	case grpclogging.LevelError:
		l.Error(msg)
	default:
		l.Info(msg)
	}
}
