package dungeonserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "dungeon.v1.DungeonService"

	generateMethod = "/" + ServiceName + "/Generate"
)

// DungeonServiceServer is the server API for DungeonService.
type DungeonServiceServer interface {
	Generate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterDungeonServiceServer registers srv on s.
func RegisterDungeonServiceServer(s grpc.ServiceRegistrar, srv DungeonServiceServer) {
	s.RegisterService(&DungeonService_ServiceDesc, srv)
}

func _DungeonService_Generate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DungeonServiceServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: generateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DungeonServiceServer).Generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// DungeonService_ServiceDesc is the grpc.ServiceDesc for DungeonService.
// Messages are google.protobuf.Struct so no generated code is needed.
var DungeonService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DungeonServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Generate",
			Handler:    _DungeonService_Generate_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dungeon/v1/dungeon.proto",
}

// DungeonServiceClient is the client API for DungeonService.
type DungeonServiceClient interface {
	Generate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type dungeonServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDungeonServiceClient returns a client using cc.
func NewDungeonServiceClient(cc grpc.ClientConnInterface) DungeonServiceClient {
	return &dungeonServiceClient{cc}
}

func (c *dungeonServiceClient) Generate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, generateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
