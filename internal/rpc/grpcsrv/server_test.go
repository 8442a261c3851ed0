package grpcsrv

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nexosim/nexosim-go/internal/examplemodels"
	"github.com/nexosim/nexosim-go/internal/rpc"
	"github.com/nexosim/nexosim-go/internal/simulation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startTestServer(t *testing.T) (*grpc.ClientConn, func()) {
	t.Helper()

	generic := rpc.NewGenericServer(func() *simulation.SimInit {
		return examplemodels.Build(16, nil)
	})

	gs := grpc.NewServer()
	Register(gs, New(testLogger(), generic))

	lis := bufconn.Listen(1024 * 1024)
	go func() {
		_ = gs.Serve(lis)
	}()

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	return conn, func() {
		conn.Close()
		gs.Stop()
	}
}

func openControlStream(t *testing.T, conn *grpc.ClientConn) grpc.ClientStream {
	t.Helper()
	stream, err := conn.NewStream(
		context.Background(),
		&grpc.StreamDesc{StreamName: "Control", ServerStreams: true, ClientStreams: true},
		"/"+ServiceName+"/Control",
		grpc.CallContentSubtype(codecName),
	)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	return stream
}

func TestControlStreamInitAndStep(t *testing.T) {
	conn, cleanup := startTestServer(t)
	defer cleanup()

	stream := openControlStream(t, conn)

	if err := stream.SendMsg(&rpc.AnyRequest{Init: &rpc.InitRequest{}}); err != nil {
		t.Fatalf("send init: %v", err)
	}
	var initReply rpc.AnyReply
	if err := stream.RecvMsg(&initReply); err != nil {
		t.Fatalf("recv init reply: %v", err)
	}
	if initReply.Init == nil || initReply.Init.Err != nil {
		t.Fatalf("expected successful init reply, got %+v", initReply)
	}

	if err := stream.SendMsg(&rpc.AnyRequest{Step: &rpc.StepRequest{}}); err != nil {
		t.Fatalf("send step: %v", err)
	}
	var stepReply rpc.AnyReply
	if err := stream.RecvMsg(&stepReply); err != nil {
		t.Fatalf("recv step reply: %v", err)
	}
	if stepReply.Step == nil || stepReply.Step.Err != nil {
		t.Fatalf("expected successful step reply, got %+v", stepReply)
	}

	if err := stream.CloseSend(); err != nil {
		t.Fatalf("close send: %v", err)
	}
}

func TestControlStreamEmptyRequestReturnsError(t *testing.T) {
	conn, cleanup := startTestServer(t)
	defer cleanup()

	stream := openControlStream(t, conn)

	if err := stream.SendMsg(&rpc.AnyRequest{}); err != nil {
		t.Fatalf("send empty: %v", err)
	}
	var reply rpc.AnyReply
	if err := stream.RecvMsg(&reply); err != nil {
		t.Fatalf("recv reply: %v", err)
	}
	if reply.Err == nil || reply.Err.Code != rpc.ErrorCodeEmptyRequest {
		t.Fatalf("expected EmptyRequest error, got %+v", reply)
	}
	_ = stream.CloseSend()
}
