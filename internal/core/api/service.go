// Package api provides the gRPC configurator service.
//
// The service is declared by hand rather than generated: every method takes
// and returns a google.protobuf.Struct, so clients in any language can call
// it with a stock protobuf runtime. Field names are snake_case; numbers are
// integral millimetres or ids.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "shelfwright.v1.Configurator"

// ConfiguratorServer is the server API for the configurator service.
type ConfiguratorServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddRod(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddPlate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtendPlate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FillGap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MergePlates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MergeRods(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemovePlate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveRod(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyGhost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ghosts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Undo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Redo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Export(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Import(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveDesign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LoadDesign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDesigns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteDesign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCatalog(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type rpc func(ConfiguratorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call rpc) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ConfiguratorServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ConfiguratorServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ConfiguratorServiceDesc describes the service for grpc.Server.RegisterService.
var ConfiguratorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConfiguratorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateSession", ConfiguratorServer.CreateSession),
		unary("CloseSession", ConfiguratorServer.CloseSession),
		unary("AddRod", ConfiguratorServer.AddRod),
		unary("AddPlate", ConfiguratorServer.AddPlate),
		unary("ExtendPlate", ConfiguratorServer.ExtendPlate),
		unary("FillGap", ConfiguratorServer.FillGap),
		unary("MergePlates", ConfiguratorServer.MergePlates),
		unary("MergeRods", ConfiguratorServer.MergeRods),
		unary("RemovePlate", ConfiguratorServer.RemovePlate),
		unary("RemoveRod", ConfiguratorServer.RemoveRod),
		unary("ApplyGhost", ConfiguratorServer.ApplyGhost),
		unary("Ghosts", ConfiguratorServer.Ghosts),
		unary("Undo", ConfiguratorServer.Undo),
		unary("Redo", ConfiguratorServer.Redo),
		unary("Export", ConfiguratorServer.Export),
		unary("Import", ConfiguratorServer.Import),
		unary("SaveDesign", ConfiguratorServer.SaveDesign),
		unary("LoadDesign", ConfiguratorServer.LoadDesign),
		unary("ListDesigns", ConfiguratorServer.ListDesigns),
		unary("DeleteDesign", ConfiguratorServer.DeleteDesign),
		unary("ListCatalog", ConfiguratorServer.ListCatalog),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shelfwright/v1/configurator.proto",
}

// RegisterConfiguratorServer registers srv on s.
func RegisterConfiguratorServer(s grpc.ServiceRegistrar, srv ConfiguratorServer) {
	s.RegisterService(&ConfiguratorServiceDesc, srv)
}
