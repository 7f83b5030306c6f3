package transport

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/radar-track-ingest/internal/ingest"
	"github.com/signalsfoundry/radar-track-ingest/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// FrameIngestServiceName is the fully qualified gRPC service name.
	FrameIngestServiceName = "trackd.ingest.v1.FrameIngest"

	submitFullMethod = "/" + FrameIngestServiceName + "/Submit"
)

// FrameIngestServer accepts one raw frame per call.
type FrameIngestServer interface {
	Submit(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
}

// FrameIngestServiceDesc describes the service for grpc.Server.
var FrameIngestServiceDesc = grpc.ServiceDesc{
	ServiceName: FrameIngestServiceName,
	HandlerType: (*FrameIngestServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Submit",
			Handler:    submitHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "trackd/ingest/v1/ingest.proto",
}

// RegisterFrameIngestServer registers srv on s.
func RegisterFrameIngestServer(s grpc.ServiceRegistrar, srv FrameIngestServer) {
	s.RegisterService(&FrameIngestServiceDesc, srv)
}

func submitHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FrameIngestServer).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: submitFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FrameIngestServer).Submit(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Reply is the decoded form of a Submit response.
type Reply struct {
	Sequence uint16
	Station  uint16
	Records  int
	Upserts  int
	Deletes  int
	Filtered int
	Unknown  int
}

// IngestService implements FrameIngestServer on top of a frame sink.
type IngestService struct {
	sink ingest.FrameSink
	log  logging.Logger
}

// NewIngestService constructs the service.
func NewIngestService(sink ingest.FrameSink, log logging.Logger) *IngestService {
	if log == nil {
		log = logging.Noop()
	}
	return &IngestService{sink: sink, log: log}
}

// Submit processes one frame. Rejected frames return InvalidArgument.
func (s *IngestService) Submit(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	frame := in.GetValue()
	if len(frame) == 0 {
		return nil, ToStatusError(ErrEmptyFrame)
	}

	sum := s.sink.Process(ctx, frame)
	if sum.Rejected() {
		return nil, ToStatusError(sum.Err)
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"sequence": int(sum.Header.Sequence),
		"station":  int(sum.Header.StationID),
		"records":  sum.Visited,
		"upserts":  sum.Upserts,
		"deletes":  sum.Deletes,
		"filtered": sum.Filtered,
		"unknown":  sum.Unknown,
	})
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("build reply: %w", err))
	}
	return out, nil
}

// FrameIngestClient submits frames to a FrameIngest server.
type FrameIngestClient struct {
	cc grpc.ClientConnInterface
}

// NewFrameIngestClient wraps a client connection.
func NewFrameIngestClient(cc grpc.ClientConnInterface) *FrameIngestClient {
	return &FrameIngestClient{cc: cc}
}

// Submit sends one frame and decodes the reply.
func (c *FrameIngestClient) Submit(ctx context.Context, frame []byte, opts ...grpc.CallOption) (Reply, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, submitFullMethod, wrapperspb.Bytes(frame), out, opts...); err != nil {
		return Reply{}, err
	}
	f := out.GetFields()
	num := func(k string) int { return int(f[k].GetNumberValue()) }
	return Reply{
		Sequence: uint16(num("sequence")),
		Station:  uint16(num("station")),
		Records:  num("records"),
		Upserts:  num("upserts"),
		Deletes:  num("deletes"),
		Filtered: num("filtered"),
		Unknown:  num("unknown"),
	}, nil
}
