package testutil

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/fluoriclogppka-studio/internal/intelligence/fluoriclogppka"
)

// InferenceServer is the server side of the fluoriclogppka.v1.Inference
// service, for standing up an in-process collaborator.  Both methods exchange
// google.protobuf.Struct: requests carry the same fields as the HTTP payloads;
// Predict answers {"result": ...} and Features3D answers {"features": {...}}.
type InferenceServer interface {
	Predict(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Features3D(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// RegisterInferenceServer attaches srv to s.
func RegisterInferenceServer(s grpc.ServiceRegistrar, srv InferenceServer) {
	s.RegisterService(&inferenceServiceDesc, srv)
}

var inferenceServiceDesc = grpc.ServiceDesc{
	ServiceName: fluoriclogppka.ServiceName,
	HandlerType: (*InferenceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Predict", Handler: unaryHandler(fluoriclogppka.PredictMethod, InferenceServer.Predict)},
		{MethodName: "Features3D", Handler: unaryHandler(fluoriclogppka.Features3DMethod, InferenceServer.Features3D)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fluoriclogppka/v1/inference.proto",
}

type unaryFunc func(InferenceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryFunc) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InferenceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(InferenceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
