// Package grpcbuf provides an in-memory gRPC server for tests that need to
// observe the metadata a payment strategy attaches to outgoing calls.
package grpcbuf

import (
	"context"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
)

const bufSize = 1 << 20

// MetaCapture records the incoming metadata of the most recent call.
type MetaCapture struct {
	last atomic.Value // metadata.MD
}

// Interceptor stores incoming metadata and forwards to the next handler.
func (m *MetaCapture) Interceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		m.last.Store(md)
	}
	return handler(ctx, req)
}

// Last returns the metadata captured from the most recent call, or nil when
// no call has been observed yet.
func (m *MetaCapture) Last() metadata.MD {
	md, _ := m.last.Load().(metadata.MD)
	return md
}

// EchoServer is the minimal unary service the test server registers.
type EchoServer interface {
	Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

type echoServer struct{}

func (echoServer) Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

func pingHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EchoServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/test.Echo/Ping"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EchoServer).Ping(ctx, req.(*emptypb.Empty))
	})
}

// EchoServiceDesc registers the echo service under the same wire name the
// dynamic-client tests compile from proto source ("test.Echo").
var EchoServiceDesc = grpc.ServiceDesc{
	ServiceName: "test.Echo",
	HandlerType: (*EchoServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: pingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "echo_test",
}

// StartServer runs a bufconn-backed gRPC server with metadata capture.
// Callers stop it with (*grpc.Server).Stop.
func StartServer() (*grpc.Server, *bufconn.Listener, *MetaCapture) {
	lis := bufconn.Listen(bufSize)
	capture := &MetaCapture{}
	srv := grpc.NewServer(grpc.UnaryInterceptor(capture.Interceptor))
	srv.RegisterService(&EchoServiceDesc, echoServer{})
	go func() { _ = srv.Serve(lis) }()
	return srv, lis, capture
}

// Dial connects to a bufconn listener through the regular client stack.
// bufconn carries no TLS, so the connection uses insecure credentials.
func Dial(ctx context.Context, lis *bufconn.Listener, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
	}
	base = append(base, opts...)
	return grpc.NewClient("passthrough://bufnet", base...)
}
