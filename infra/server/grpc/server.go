// Package grpc wraps a *grpc.Server with the interceptor chain every
// registered service shares, the same split the teacher uses between
// infra/server/grpc (transport plumbing) and internal/handler/grpc
// (the actual service implementation registered against it).
package grpc

import (
	"context"
	"log/slog"
	"net"

	"github.com/nexosim/nexosim-go/infra/server/grpc/interceptors"
	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware/v2"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// Server owns the listener and the underlying *grpc.Server; callers
// register services against Server before calling Start.
type Server struct {
	logger *slog.Logger
	addr   string

	Server *grpc.Server
}

// New builds a Server listening on addr once Start is called, with the
// panic-recovery and request-logging interceptor chain installed, plus
// otelgrpc's stats handler recording per-stream spans/metrics against
// whichever TracerProvider/MeterProvider is globally registered (none,
// by default — the spec's Non-goal on full tracing/observability spans
// means this runtime never configures an exporter itself, but the
// instrumentation point is still real and wired the way the teacher
// wires otelgrpc on its own delivery service).
func New(logger *slog.Logger, addr string) *Server {
	gs := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainStreamInterceptor(
			grpcmiddleware.ChainStreamServer(
				interceptors.Recovery(logger),
				interceptors.Correlation(),
				interceptors.Logging(logger),
			),
		),
	)

	return &Server{logger: logger, addr: addr, Server: gs}
}

// Start listens and serves until the server is stopped or Serve errors.
func (s *Server) Start(context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.Server.Serve(lis); err != nil {
			s.logger.Error("grpc server stopped", slog.Any("err", err))
		}
	}()
	s.logger.Info("grpc control server listening", slog.String("addr", s.addr))
	return nil
}

// Stop gracefully drains in-flight streams before returning.
func (s *Server) Stop(context.Context) error {
	s.Server.GracefulStop()
	return nil
}
