package palacev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ObjectType is the wire-level marker category.
type ObjectType int32

const (
	ObjectTypeUnknown ObjectType = 0
	ObjectTypeTrap    ObjectType = 1
	ObjectTypeHoard   ObjectType = 2
)

// String returns the schema name of the object type.
func (t ObjectType) String() string {
	switch t {
	case ObjectTypeTrap:
		return "TRAP"
	case ObjectTypeHoard:
		return "HOARD"
	default:
		return "UNKNOWN"
	}
}

// PalaceObject is a single marker as it travels on the wire.
type PalaceObject struct {
	Type ObjectType `json:"type,omitempty"`
	X    float32    `json:"x"`
	Y    float32    `json:"y"`
	Z    float32    `json:"z"`
}

// GetType returns the object type, tolerating a nil receiver.
func (o *PalaceObject) GetType() ObjectType {
	if o == nil {
		return ObjectTypeUnknown
	}
	return o.Type
}

type DownloadFloorsRequest struct {
	TerritoryType uint32 `json:"territory_type"`
}

type DownloadFloorsReply struct {
	Success bool            `json:"success"`
	Objects []*PalaceObject `json:"objects,omitempty"`
}

// GetSuccess reports the server-side success flag, false for a nil reply.
func (r *DownloadFloorsReply) GetSuccess() bool {
	return r != nil && r.Success
}

// GetObjects returns the downloaded objects, nil for a nil reply.
func (r *DownloadFloorsReply) GetObjects() []*PalaceObject {
	if r == nil {
		return nil
	}
	return r.Objects
}

type UploadFloorsRequest struct {
	TerritoryType uint32          `json:"territory_type"`
	Objects       []*PalaceObject `json:"objects,omitempty"`
}

type UploadFloorsReply struct {
	Success bool `json:"success"`
}

// GetSuccess reports the server-side success flag, false for a nil reply.
func (r *UploadFloorsReply) GetSuccess() bool {
	return r != nil && r.Success
}

type StatisticsRequest struct{}

// FloorStatistics aggregates what the server knows about one territory.
type FloorStatistics struct {
	TerritoryType uint32 `json:"territory_type"`
	TrapCount     uint32 `json:"trap_count"`
	HoardCount    uint32 `json:"hoard_count"`
}

type StatisticsReply struct {
	Success         bool               `json:"success"`
	FloorStatistics []*FloorStatistics `json:"floor_statistics,omitempty"`
}

// GetSuccess reports the server-side success flag, false for a nil reply.
func (r *StatisticsReply) GetSuccess() bool {
	return r != nil && r.Success
}

// GetFloorStatistics returns the statistics records, nil for a nil reply.
func (r *StatisticsReply) GetFloorStatistics() []*FloorStatistics {
	if r == nil {
		return nil
	}
	return r.FloorStatistics
}

const (
	PalaceServiceName                       = "palace.PalaceService"
	PalaceService_DownloadFloors_FullMethod  = "/palace.PalaceService/DownloadFloors"
	PalaceService_UploadFloors_FullMethod    = "/palace.PalaceService/UploadFloors"
	PalaceService_FetchStatistics_FullMethod = "/palace.PalaceService/FetchStatistics"
)

// PalaceServiceClient is the client API for the zone-data service.
type PalaceServiceClient interface {
	DownloadFloors(ctx context.Context, in *DownloadFloorsRequest, opts ...grpc.CallOption) (*DownloadFloorsReply, error)
	UploadFloors(ctx context.Context, in *UploadFloorsRequest, opts ...grpc.CallOption) (*UploadFloorsReply, error)
	FetchStatistics(ctx context.Context, in *StatisticsRequest, opts ...grpc.CallOption) (*StatisticsReply, error)
}

type palaceServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPalaceServiceClient binds a zone-data client to a connection.
func NewPalaceServiceClient(cc grpc.ClientConnInterface) PalaceServiceClient {
	return &palaceServiceClient{cc: cc}
}

func (c *palaceServiceClient) DownloadFloors(ctx context.Context, in *DownloadFloorsRequest, opts ...grpc.CallOption) (*DownloadFloorsReply, error) {
	out := new(DownloadFloorsReply)
	if err := c.cc.Invoke(ctx, PalaceService_DownloadFloors_FullMethod, in, out, CallOptions(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *palaceServiceClient) UploadFloors(ctx context.Context, in *UploadFloorsRequest, opts ...grpc.CallOption) (*UploadFloorsReply, error) {
	out := new(UploadFloorsReply)
	if err := c.cc.Invoke(ctx, PalaceService_UploadFloors_FullMethod, in, out, CallOptions(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *palaceServiceClient) FetchStatistics(ctx context.Context, in *StatisticsRequest, opts ...grpc.CallOption) (*StatisticsReply, error) {
	out := new(StatisticsReply)
	if err := c.cc.Invoke(ctx, PalaceService_FetchStatistics_FullMethod, in, out, CallOptions(opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

// CallOptions prepends the JSON content-subtype to caller options.
func CallOptions(opts ...grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(ContentSubtype)}, opts...)
}

// PalaceServiceServer is the server API for the zone-data service.
type PalaceServiceServer interface {
	DownloadFloors(context.Context, *DownloadFloorsRequest) (*DownloadFloorsReply, error)
	UploadFloors(context.Context, *UploadFloorsRequest) (*UploadFloorsReply, error)
	FetchStatistics(context.Context, *StatisticsRequest) (*StatisticsReply, error)
}

// UnimplementedPalaceServiceServer answers every method with codes.Unimplemented.
type UnimplementedPalaceServiceServer struct{}

func (UnimplementedPalaceServiceServer) DownloadFloors(context.Context, *DownloadFloorsRequest) (*DownloadFloorsReply, error) {
	return nil, status.Error(codes.Unimplemented, "method DownloadFloors not implemented")
}

func (UnimplementedPalaceServiceServer) UploadFloors(context.Context, *UploadFloorsRequest) (*UploadFloorsReply, error) {
	return nil, status.Error(codes.Unimplemented, "method UploadFloors not implemented")
}

func (UnimplementedPalaceServiceServer) FetchStatistics(context.Context, *StatisticsRequest) (*StatisticsReply, error) {
	return nil, status.Error(codes.Unimplemented, "method FetchStatistics not implemented")
}

// RegisterPalaceServiceServer registers srv on a gRPC server.
func RegisterPalaceServiceServer(s grpc.ServiceRegistrar, srv PalaceServiceServer) {
	s.RegisterService(&PalaceService_ServiceDesc, srv)
}

func palaceDownloadFloorsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DownloadFloorsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PalaceServiceServer).DownloadFloors(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PalaceService_DownloadFloors_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PalaceServiceServer).DownloadFloors(ctx, req.(*DownloadFloorsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func palaceUploadFloorsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UploadFloorsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PalaceServiceServer).UploadFloors(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PalaceService_UploadFloors_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PalaceServiceServer).UploadFloors(ctx, req.(*UploadFloorsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func palaceFetchStatisticsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatisticsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PalaceServiceServer).FetchStatistics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PalaceService_FetchStatistics_FullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PalaceServiceServer).FetchStatistics(ctx, req.(*StatisticsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// PalaceService_ServiceDesc describes the zone-data service for registration.
var PalaceService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: PalaceServiceName,
	HandlerType: (*PalaceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "DownloadFloors", Handler: palaceDownloadFloorsHandler},
		{MethodName: "UploadFloors", Handler: palaceUploadFloorsHandler},
		{MethodName: "FetchStatistics", Handler: palaceFetchStatisticsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "palace.proto",
}
