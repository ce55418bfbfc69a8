package v1

import (
	"context"

	"google.golang.org/grpc"

	"github.com/amimof/metal/api/codec"
)

const (
	EventService_Get_FullMethodName       = "/metal.events.v1.EventService/Get"
	EventService_List_FullMethodName      = "/metal.events.v1.EventService/List"
	EventService_Subscribe_FullMethodName = "/metal.events.v1.EventService/Subscribe"
)

type GetRequest struct {
	Id string `json:"id"`
}

type GetResponse struct {
	Event *Event `json:"event"`
}

type ListRequest struct {
	// NodeID limits the result to events of one node when set
	NodeID string `json:"node_id,omitempty"`
}

type ListResponse struct {
	Events []*Event `json:"events"`
}

type SubscribeRequest struct {
	ClientId string `json:"client_id,omitempty"`
	// Types to receive. Empty means every type.
	Types []EventType `json:"types,omitempty"`
}

type EventServiceServer interface {
	Get(context.Context, *GetRequest) (*GetResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Subscribe(*SubscribeRequest, EventService_SubscribeServer) error
}

type EventServiceClient interface {
	Get(context.Context, *GetRequest, ...grpc.CallOption) (*GetResponse, error)
	List(context.Context, *ListRequest, ...grpc.CallOption) (*ListResponse, error)
	Subscribe(context.Context, *SubscribeRequest, ...grpc.CallOption) (EventService_SubscribeClient, error)
}

type EventService_SubscribeServer interface {
	Send(*Event) error
	grpc.ServerStream
}

type eventServiceSubscribeServer struct {
	grpc.ServerStream
}

func (x *eventServiceSubscribeServer) Send(m *Event) error {
	return x.ServerStream.SendMsg(m)
}

type EventService_SubscribeClient interface {
	Recv() (*Event, error)
	grpc.ClientStream
}

type eventServiceSubscribeClient struct {
	grpc.ClientStream
}

func (x *eventServiceSubscribeClient) Recv() (*Event, error) {
	m := new(Event)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _EventService_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(EventServiceServer).Subscribe(m, &eventServiceSubscribeServer{stream})
}

var EventService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "metal.events.v1.EventService",
	HandlerType: (*EventServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: codec.Unary(EventService_Get_FullMethodName, EventServiceServer.Get)},
		{MethodName: "List", Handler: codec.Unary(EventService_List_FullMethodName, EventServiceServer.List)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _EventService_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "api/services/events/v1/service.go",
}

func RegisterEventServiceServer(s grpc.ServiceRegistrar, srv EventServiceServer) {
	s.RegisterService(&EventService_ServiceDesc, srv)
}

type eventServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewEventServiceClient(cc grpc.ClientConnInterface) EventServiceClient {
	return &eventServiceClient{cc}
}

func (c *eventServiceClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	return codec.Invoke[GetResponse](ctx, c.cc, EventService_Get_FullMethodName, in, opts...)
}

func (c *eventServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return codec.Invoke[ListResponse](ctx, c.cc, EventService_List_FullMethodName, in, opts...)
}

func (c *eventServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (EventService_SubscribeClient, error) {
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	stream, err := c.cc.NewStream(ctx, &EventService_ServiceDesc.Streams[0], EventService_Subscribe_FullMethodName, callOpts...)
	if err != nil {
		return nil, err
	}
	x := &eventServiceSubscribeClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
