package interceptors

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
)

type contextKey string

// CorrelationContextKey is the key a stream's correlation ID is stored
// under, the successor to the teacher's auth-contact context key: this
// domain has no identity to authenticate, but every control-stream still
// gets a stable ID to thread through logs across Init/Step/ScheduleEvent
// calls on the same connection.
const CorrelationContextKey contextKey = "correlation_id"

// Correlation assigns a fresh correlation ID to every incoming stream and
// injects it into the stream's context, mirroring the teacher's
// stream-wrapping shape in NewStreamAuthInterceptor but without any
// identity check: there is nothing here to authenticate, only a stream to
// label.
func Correlation() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		id := uuid.NewString()
		wrapped := &wrappedStream{
			ServerStream: ss,
			ctx:          context.WithValue(ss.Context(), CorrelationContextKey, id),
		}
		return handler(srv, wrapped)
	}
}

// wrappedStream overrides Context so downstream handlers see the
// correlation ID without touching the stream's wire plumbing.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

// CorrelationID extracts the ID injected by Correlation, if any.
func CorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CorrelationContextKey).(string)
	return id, ok
}
