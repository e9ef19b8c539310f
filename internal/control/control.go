// Package control defines the daemon's gRPC control service and its client.
//
// The service is described by hand with grpc.ServiceDesc and carries only
// protobuf well-known types, so no generated code is needed.
package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "easycue.v1.ServiceControl"

// Full method names.
const (
	MethodStartService  = "/" + ServiceName + "/StartService"
	MethodStopService   = "/" + ServiceName + "/StopService"
	MethodToggleService = "/" + ServiceName + "/ToggleService"
	MethodGetStatus     = "/" + ServiceName + "/GetStatus"
	MethodCopyAddress   = "/" + ServiceName + "/CopyAddress"
)

// ServiceControlServer is the server interface for ServiceControl.
type ServiceControlServer interface {
	StartService(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	StopService(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	ToggleService(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	CopyAddress(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// RegisterServiceControlServer registers srv with the gRPC server.
func RegisterServiceControlServer(s grpc.ServiceRegistrar, srv ServiceControlServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the grpc.ServiceDesc for ServiceControl.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ServiceControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "StartService",
			Handler: unaryHandler(MethodStartService, func(s ServiceControlServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.StartService(ctx, in)
			}),
		},
		{
			MethodName: "StopService",
			Handler: unaryHandler(MethodStopService, func(s ServiceControlServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.StopService(ctx, in)
			}),
		},
		{
			MethodName: "ToggleService",
			Handler: unaryHandler(MethodToggleService, func(s ServiceControlServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.ToggleService(ctx, in)
			}),
		},
		{
			MethodName: "GetStatus",
			Handler: unaryHandler(MethodGetStatus, func(s ServiceControlServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.GetStatus(ctx, in)
			}),
		},
		{
			MethodName: "CopyAddress",
			Handler: unaryHandler(MethodCopyAddress, func(s ServiceControlServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return s.CopyAddress(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "easycue/v1/control.proto",
}

// unaryHandler adapts a call taking Empty into a grpc.MethodHandler,
// running it through the server's interceptor when one is installed.
func unaryHandler(fullMethod string, call func(ServiceControlServer, context.Context, *emptypb.Empty) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ServiceControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ServiceControlServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}
