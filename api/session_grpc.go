package api

import (
	"context"

	grpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The session service uses well-known protobuf types only, so its
// descriptor is declared here rather than generated.
const (
	SessionServiceName        = "wam.v1.SessionService"
	ListSessionsFullMethod    = "/wam.v1.SessionService/ListSessions"
	GetSessionFullMethod      = "/wam.v1.SessionService/GetSession"
	sessionServiceProtoSource = "wam/v1/session.proto"
)

// SessionServer is the server API for the session service.
type SessionServer interface {
	ListSessions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetSession(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&sessionServiceDesc, srv)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListSessions", Handler: listSessionsHandler},
		{MethodName: "GetSession", Handler: getSessionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: sessionServiceProtoSource,
}

func listSessionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).ListSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListSessionsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).ListSessions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).GetSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetSessionFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).GetSession(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionClient calls the session service.
type SessionClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionClient(cc grpc.ClientConnInterface) *SessionClient {
	return &SessionClient{cc: cc}
}

func (c *SessionClient) ListSessions(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListSessionsFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionClient) GetSession(ctx context.Context, sessionID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetSessionFullMethod, wrapperspb.String(sessionID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
