// Package rpc defines the gRPC services the daemon exposes to the CLI and
// settings editor. Messages are protobuf well-known types, so no generated
// code is needed: requests and responses are Struct, ListValue or Empty.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Fully qualified service names.
const (
	SettingsServiceName      = "hassdesk.v1.SettingsService"
	DaemonServiceName        = "hassdesk.v1.DaemonService"
	HomeAssistantServiceName = "hassdesk.v1.HomeAssistantService"
)

// Full method names.
const (
	MethodGetSettings  = "/" + SettingsServiceName + "/GetSettings"
	MethodSetSetting   = "/" + SettingsServiceName + "/SetSetting"
	MethodGetStatus    = "/" + DaemonServiceName + "/GetStatus"
	MethodShutdown     = "/" + DaemonServiceName + "/Shutdown"
	MethodListEntities = "/" + HomeAssistantServiceName + "/ListEntities"
)

// SettingsServiceServer reads and writes settings. GetSettings takes a list
// of keys (empty for all) and returns a key -> value struct. SetSetting takes
// a {key, value} struct.
type SettingsServiceServer interface {
	GetSettings(context.Context, *structpb.ListValue) (*structpb.Struct, error)
	SetSetting(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

// DaemonServiceServer reports on and stops the daemon.
type DaemonServiceServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// HomeAssistantServiceServer exposes what the daemon knows about Home
// Assistant.
type HomeAssistantServiceServer interface {
	ListEntities(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// unary builds a method handler the way protoc-gen-go-grpc does, decoding
// the request into a fresh Req and running interceptors.
func unary[Req any](fullMethod string, call func(srv any, ctx context.Context, req *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SettingsServiceDesc describes SettingsService.
var SettingsServiceDesc = grpc.ServiceDesc{
	ServiceName: SettingsServiceName,
	HandlerType: (*SettingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSettings",
			Handler: unary(MethodGetSettings, func(srv any, ctx context.Context, req *structpb.ListValue) (any, error) {
				return srv.(SettingsServiceServer).GetSettings(ctx, req)
			}),
		},
		{
			MethodName: "SetSetting",
			Handler: unary(MethodSetSetting, func(srv any, ctx context.Context, req *structpb.Struct) (any, error) {
				return srv.(SettingsServiceServer).SetSetting(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hassdesk/v1/settings.proto",
}

// DaemonServiceDesc describes DaemonService.
var DaemonServiceDesc = grpc.ServiceDesc{
	ServiceName: DaemonServiceName,
	HandlerType: (*DaemonServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler: unary(MethodGetStatus, func(srv any, ctx context.Context, req *emptypb.Empty) (any, error) {
				return srv.(DaemonServiceServer).GetStatus(ctx, req)
			}),
		},
		{
			MethodName: "Shutdown",
			Handler: unary(MethodShutdown, func(srv any, ctx context.Context, req *emptypb.Empty) (any, error) {
				return srv.(DaemonServiceServer).Shutdown(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hassdesk/v1/daemon.proto",
}

// HomeAssistantServiceDesc describes HomeAssistantService.
var HomeAssistantServiceDesc = grpc.ServiceDesc{
	ServiceName: HomeAssistantServiceName,
	HandlerType: (*HomeAssistantServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListEntities",
			Handler: unary(MethodListEntities, func(srv any, ctx context.Context, req *emptypb.Empty) (any, error) {
				return srv.(HomeAssistantServiceServer).ListEntities(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hassdesk/v1/homeassistant.proto",
}

// RegisterSettingsServiceServer registers srv with s.
func RegisterSettingsServiceServer(s grpc.ServiceRegistrar, srv SettingsServiceServer) {
	s.RegisterService(&SettingsServiceDesc, srv)
}

// RegisterDaemonServiceServer registers srv with s.
func RegisterDaemonServiceServer(s grpc.ServiceRegistrar, srv DaemonServiceServer) {
	s.RegisterService(&DaemonServiceDesc, srv)
}

// RegisterHomeAssistantServiceServer registers srv with s.
func RegisterHomeAssistantServiceServer(s grpc.ServiceRegistrar, srv HomeAssistantServiceServer) {
	s.RegisterService(&HomeAssistantServiceDesc, srv)
}
