package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AdminServiceName is the fully qualified gRPC service name.
const AdminServiceName = "storefront.admin.v1.Admin"

// AdminServiceServer is the back-office API. Requests and responses are
// protobuf well-known types carrying the JSON form of the domain models.
type AdminServiceServer interface {
	GetProduct(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	AdjustStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrder(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListOrders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateOrderStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAuditLogs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAdminServiceServer registers srv on s under AdminServiceName.
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&adminServiceDesc, srv)
}

var adminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: stringHandler("GetProduct", AdminServiceServer.GetProduct)},
		{MethodName: "AdjustStock", Handler: structHandler("AdjustStock", AdminServiceServer.AdjustStock)},
		{MethodName: "GetOrder", Handler: stringHandler("GetOrder", AdminServiceServer.GetOrder)},
		{MethodName: "ListOrders", Handler: structHandler("ListOrders", AdminServiceServer.ListOrders)},
		{MethodName: "UpdateOrderStatus", Handler: structHandler("UpdateOrderStatus", AdminServiceServer.UpdateOrderStatus)},
		{MethodName: "ListAuditLogs", Handler: structHandler("ListAuditLogs", AdminServiceServer.ListAuditLogs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/admin/v1/admin.proto",
}

func fullMethod(method string) string {
	return "/" + AdminServiceName + "/" + method
}

func stringHandler(method string, call func(AdminServiceServer, context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AdminServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AdminServiceServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func structHandler(method string, call func(AdminServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AdminServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AdminServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
