package grpcsrv

import (
	"io"
	"log/slog"

	"github.com/nexosim/nexosim-go/internal/rpc"
	"google.golang.org/grpc"
)

// ServiceName is the gRPC service name under which Control is registered,
// standing in for the compiled package.Service name a .proto file would
// otherwise assign.
const ServiceName = "nexosim.v1.Control"

// Server adapts one rpc.GenericServer to a gRPC streaming service. It is
// registered directly against a *grpc.Server via Register, the same way
// the teacher's internal/handler/grpc/module.go calls
// impb.RegisterDeliveryServer against its own infra/server/grpc.Server.
type Server struct {
	logger  *slog.Logger
	generic *rpc.GenericServer
}

// New builds a Server around an already-constructed GenericServer.
func New(logger *slog.Logger, generic *rpc.GenericServer) *Server {
	return &Server{logger: logger, generic: generic}
}

// ServiceDesc describes the single bidirectional-streaming "Control"
// method: one AnyRequest in, one AnyReply out, repeated for the stream's
// lifetime, following the same loop shape as the teacher's
// DeliveryService.Stream.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Control",
			Handler:       controlHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "nexosim/control.proto",
}

// Register attaches Server to gs under ServiceDesc.
func Register(gs *grpc.Server, srv *Server) {
	gs.RegisterService(&ServiceDesc, srv)
}

func controlHandler(srv any, stream grpc.ServerStream) error {
	s := srv.(*Server)
	ctx := stream.Context()
	for {
		var req rpc.AnyRequest
		if err := stream.RecvMsg(&req); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		reply := s.generic.ServiceRequest(&req)
		if err := stream.SendMsg(reply); err != nil {
			s.logger.Error("control stream send failed", slog.Any("err", err))
			return err
		}
	}
}
