package v1

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/amimof/metal/api/codec"
)

const (
	ConfigService_Get_FullMethodName  = "/metal.configs.v1.ConfigService/Get"
	ConfigService_Set_FullMethodName  = "/metal.configs.v1.ConfigService/Set"
	ConfigService_List_FullMethodName = "/metal.configs.v1.ConfigService/List"
)

type GetRequest struct {
	Name string `json:"name"`
	// Default is returned when neither storage nor the defaults table know Name
	Default json.RawMessage `json:"default,omitempty"`
}

type GetResponse struct {
	Config *Config `json:"config"`
}

type SetRequest struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type SetResponse struct {
	Config  *Config `json:"config"`
	Created bool    `json:"created"`
}

type ListRequest struct{}

type ListResponse struct {
	Configs []*Config `json:"configs"`
}

type ConfigServiceServer interface {
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Set(context.Context, *SetRequest) (*SetResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
}

type ConfigServiceClient interface {
	Get(context.Context, *GetRequest, ...grpc.CallOption) (*GetResponse, error)
	Set(context.Context, *SetRequest, ...grpc.CallOption) (*SetResponse, error)
	List(context.Context, *ListRequest, ...grpc.CallOption) (*ListResponse, error)
}

var ConfigService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "metal.configs.v1.ConfigService",
	HandlerType: (*ConfigServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: codec.Unary(ConfigService_Get_FullMethodName, ConfigServiceServer.Get)},
		{MethodName: "Set", Handler: codec.Unary(ConfigService_Set_FullMethodName, ConfigServiceServer.Set)},
		{MethodName: "List", Handler: codec.Unary(ConfigService_List_FullMethodName, ConfigServiceServer.List)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/services/configs/v1/service.go",
}

func RegisterConfigServiceServer(s grpc.ServiceRegistrar, srv ConfigServiceServer) {
	s.RegisterService(&ConfigService_ServiceDesc, srv)
}

type configServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewConfigServiceClient(cc grpc.ClientConnInterface) ConfigServiceClient {
	return &configServiceClient{cc}
}

func (c *configServiceClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	return codec.Invoke[GetResponse](ctx, c.cc, ConfigService_Get_FullMethodName, in, opts...)
}

func (c *configServiceClient) Set(ctx context.Context, in *SetRequest, opts ...grpc.CallOption) (*SetResponse, error) {
	return codec.Invoke[SetResponse](ctx, c.cc, ConfigService_Set_FullMethodName, in, opts...)
}

func (c *configServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return codec.Invoke[ListResponse](ctx, c.cc, ConfigService_List_FullMethodName, in, opts...)
}
