package dataservice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "prestige.data.v1.DataService"

// Full method names, used by interceptors and metrics labels.
const (
	MethodSelect = "/" + ServiceName + "/Select"
	MethodInsert = "/" + ServiceName + "/Insert"
	MethodUpdate = "/" + ServiceName + "/Update"
	MethodDelete = "/" + ServiceName + "/Delete"
	MethodPing   = "/" + ServiceName + "/Ping"

	MethodAuthenticate = "/" + ServiceName + "/Authenticate"
)

// DataServiceServer is implemented by the server side. Every message is a
// *structpb.Struct; the shapes are defined by the Encode/Decode helpers.
type DataServiceServer interface {
	Select(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Insert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Authenticate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterDataServiceServer(s grpc.ServiceRegistrar, srv DataServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryCall func(DataServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func handler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DataServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(DataServiceServer), ctx, req.(*structpb.Struct))
		})
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DataServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Select", Handler: handler(MethodSelect, DataServiceServer.Select)},
		{MethodName: "Insert", Handler: handler(MethodInsert, DataServiceServer.Insert)},
		{MethodName: "Update", Handler: handler(MethodUpdate, DataServiceServer.Update)},
		{MethodName: "Delete", Handler: handler(MethodDelete, DataServiceServer.Delete)},
		{MethodName: "Ping", Handler: handler(MethodPing, DataServiceServer.Ping)},
		{MethodName: "Authenticate", Handler: handler(MethodAuthenticate, DataServiceServer.Authenticate)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "prestige/data/v1/data.proto",
}
