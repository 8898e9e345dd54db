package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "rbindex.v1.IndexService"

const (
	InsertMethod  = "/" + ServiceName + "/Insert"
	DeleteMethod  = "/" + ServiceName + "/Delete"
	SearchMethod  = "/" + ServiceName + "/Search"
	InOrderMethod = "/" + ServiceName + "/InOrder"
	StatsMethod   = "/" + ServiceName + "/Stats"
)

// IndexServer is the server API for rbindex.v1.IndexService.
//
// Messages are protobuf well-known types:
//
//	Insert(Int64Value) -> UInt64Value   change sequence
//	Delete(Int64Value) -> UInt64Value   change sequence
//	Search(Int64Value) -> Struct        {key, color}
//	InOrder(Empty)     -> ListValue     of {key, color}
//	Stats(Empty)       -> Struct        {size, height, black_height, min, max, unique}
type IndexServer interface {
	Insert(context.Context, *wrapperspb.Int64Value) (*wrapperspb.UInt64Value, error)
	Delete(context.Context, *wrapperspb.Int64Value) (*wrapperspb.UInt64Value, error)
	Search(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	InOrder(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterIndexServer(s grpc.ServiceRegistrar, srv IndexServer) {
	s.RegisterService(&IndexServiceDesc, srv)
}

var IndexServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IndexServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Insert", Handler: unary(InsertMethod, IndexServer.Insert)},
		{MethodName: "Delete", Handler: unary(DeleteMethod, IndexServer.Delete)},
		{MethodName: "Search", Handler: unary(SearchMethod, IndexServer.Search)},
		{MethodName: "InOrder", Handler: unary(InOrderMethod, IndexServer.InOrder)},
		{MethodName: "Stats", Handler: unary(StatsMethod, IndexServer.Stats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rbindex/v1/index.proto",
}

// unary builds the handler protoc-gen-go-grpc would generate for one method.
func unary[Req any, Resp any](
	fullMethod string,
	call func(IndexServer, context.Context, *Req) (Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IndexServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IndexServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
