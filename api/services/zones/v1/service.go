package v1

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/amimof/metal/api/codec"
)

const (
	ZoneService_Create_FullMethodName = "/metal.zones.v1.ZoneService/Create"
	ZoneService_Get_FullMethodName    = "/metal.zones.v1.ZoneService/Get"
	ZoneService_List_FullMethodName   = "/metal.zones.v1.ZoneService/List"
	ZoneService_Update_FullMethodName = "/metal.zones.v1.ZoneService/Update"
	ZoneService_Patch_FullMethodName  = "/metal.zones.v1.ZoneService/Patch"
	ZoneService_Delete_FullMethodName = "/metal.zones.v1.ZoneService/Delete"
)

type CreateRequest struct {
	Zone *Zone `json:"zone"`
}

type CreateResponse struct {
	Zone *Zone `json:"zone"`
}

type GetRequest struct {
	Id string `json:"id"`
}

type GetResponse struct {
	Zone      *Zone `json:"zone"`
	NodeCount int   `json:"node_count"`
	// NodeListLink points at the node listing filtered to this zone
	NodeListLink string `json:"node_list_link"`
}

type ListRequest struct {
	// Page is 1-based, 0 means the first page
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

type ListResponse struct {
	Zones      []*Zone `json:"zones"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	Total      int     `json:"total"`
}

type UpdateRequest struct {
	Id   string `json:"id"`
	Zone *Zone  `json:"zone"`
}

type UpdateResponse struct {
	Zone *Zone `json:"zone"`
}

type PatchRequest struct {
	Id    string          `json:"id"`
	Patch json.RawMessage `json:"patch"`
}

type PatchResponse struct {
	Zone *Zone `json:"zone"`
}

type DeleteRequest struct {
	Id string `json:"id"`
}

type DeleteResponse struct {
	Id string `json:"id"`
}

type ZoneServiceServer interface {
	Create(context.Context, *CreateRequest) (*CreateResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Update(context.Context, *UpdateRequest) (*UpdateResponse, error)
	Patch(context.Context, *PatchRequest) (*PatchResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
}

type ZoneServiceClient interface {
	Create(context.Context, *CreateRequest, ...grpc.CallOption) (*CreateResponse, error)
	Get(context.Context, *GetRequest, ...grpc.CallOption) (*GetResponse, error)
	List(context.Context, *ListRequest, ...grpc.CallOption) (*ListResponse, error)
	Update(context.Context, *UpdateRequest, ...grpc.CallOption) (*UpdateResponse, error)
	Patch(context.Context, *PatchRequest, ...grpc.CallOption) (*PatchResponse, error)
	Delete(context.Context, *DeleteRequest, ...grpc.CallOption) (*DeleteResponse, error)
}

var ZoneService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "metal.zones.v1.ZoneService",
	HandlerType: (*ZoneServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: codec.Unary(ZoneService_Create_FullMethodName, ZoneServiceServer.Create)},
		{MethodName: "Get", Handler: codec.Unary(ZoneService_Get_FullMethodName, ZoneServiceServer.Get)},
		{MethodName: "List", Handler: codec.Unary(ZoneService_List_FullMethodName, ZoneServiceServer.List)},
		{MethodName: "Update", Handler: codec.Unary(ZoneService_Update_FullMethodName, ZoneServiceServer.Update)},
		{MethodName: "Patch", Handler: codec.Unary(ZoneService_Patch_FullMethodName, ZoneServiceServer.Patch)},
		{MethodName: "Delete", Handler: codec.Unary(ZoneService_Delete_FullMethodName, ZoneServiceServer.Delete)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/services/zones/v1/service.go",
}

func RegisterZoneServiceServer(s grpc.ServiceRegistrar, srv ZoneServiceServer) {
	s.RegisterService(&ZoneService_ServiceDesc, srv)
}

type zoneServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewZoneServiceClient(cc grpc.ClientConnInterface) ZoneServiceClient {
	return &zoneServiceClient{cc}
}

func (c *zoneServiceClient) Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*CreateResponse, error) {
	return codec.Invoke[CreateResponse](ctx, c.cc, ZoneService_Create_FullMethodName, in, opts...)
}

func (c *zoneServiceClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	return codec.Invoke[GetResponse](ctx, c.cc, ZoneService_Get_FullMethodName, in, opts...)
}

func (c *zoneServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return codec.Invoke[ListResponse](ctx, c.cc, ZoneService_List_FullMethodName, in, opts...)
}

func (c *zoneServiceClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	return codec.Invoke[UpdateResponse](ctx, c.cc, ZoneService_Update_FullMethodName, in, opts...)
}

func (c *zoneServiceClient) Patch(ctx context.Context, in *PatchRequest, opts ...grpc.CallOption) (*PatchResponse, error) {
	return codec.Invoke[PatchResponse](ctx, c.cc, ZoneService_Patch_FullMethodName, in, opts...)
}

func (c *zoneServiceClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return codec.Invoke[DeleteResponse](ctx, c.cc, ZoneService_Delete_FullMethodName, in, opts...)
}
