package v1

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/amimof/metal/api/codec"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

const (
	TagService_Create_FullMethodName      = "/metal.tags.v1.TagService/Create"
	TagService_Get_FullMethodName         = "/metal.tags.v1.TagService/Get"
	TagService_List_FullMethodName        = "/metal.tags.v1.TagService/List"
	TagService_Update_FullMethodName      = "/metal.tags.v1.TagService/Update"
	TagService_Patch_FullMethodName       = "/metal.tags.v1.TagService/Patch"
	TagService_Delete_FullMethodName      = "/metal.tags.v1.TagService/Delete"
	TagService_ListNodes_FullMethodName   = "/metal.tags.v1.TagService/ListNodes"
	TagService_UpdateNodes_FullMethodName = "/metal.tags.v1.TagService/UpdateNodes"
	TagService_Rebuild_FullMethodName     = "/metal.tags.v1.TagService/Rebuild"
)

type CreateRequest struct {
	Tag *Tag `json:"tag"`
}

type CreateResponse struct {
	Tag *Tag `json:"tag"`
}

type GetRequest struct {
	Id string `json:"id"`
}

type GetResponse struct {
	Tag *Tag `json:"tag"`
}

type ListRequest struct{}

type ListResponse struct {
	Tags []*Tag `json:"tags"`
}

type UpdateRequest struct {
	Id  string `json:"id"`
	Tag *Tag   `json:"tag"`
}

type UpdateResponse struct {
	Tag *Tag `json:"tag"`
}

type PatchRequest struct {
	Id    string          `json:"id"`
	Patch json.RawMessage `json:"patch"`
}

type PatchResponse struct {
	Tag *Tag `json:"tag"`
}

type DeleteRequest struct {
	Id string `json:"id"`
}

type DeleteResponse struct {
	Id string `json:"id"`
}

type ListNodesRequest struct {
	Id string `json:"id"`
}

type ListNodesResponse struct {
	Nodes []*nodesv1.Node `json:"nodes"`
}

type UpdateNodesRequest struct {
	Id     string   `json:"id"`
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

type UpdateNodesResponse struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// RebuildRequest re-evaluates the definition of a tag against every node
type RebuildRequest struct {
	Id string `json:"id"`
}

type RebuildResponse struct {
	Matched int `json:"matched"`
}

type TagServiceServer interface {
	Create(context.Context, *CreateRequest) (*CreateResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Update(context.Context, *UpdateRequest) (*UpdateResponse, error)
	Patch(context.Context, *PatchRequest) (*PatchResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	ListNodes(context.Context, *ListNodesRequest) (*ListNodesResponse, error)
	UpdateNodes(context.Context, *UpdateNodesRequest) (*UpdateNodesResponse, error)
	Rebuild(context.Context, *RebuildRequest) (*RebuildResponse, error)
}

type TagServiceClient interface {
	Create(context.Context, *CreateRequest, ...grpc.CallOption) (*CreateResponse, error)
	Get(context.Context, *GetRequest, ...grpc.CallOption) (*GetResponse, error)
	List(context.Context, *ListRequest, ...grpc.CallOption) (*ListResponse, error)
	Update(context.Context, *UpdateRequest, ...grpc.CallOption) (*UpdateResponse, error)
	Patch(context.Context, *PatchRequest, ...grpc.CallOption) (*PatchResponse, error)
	Delete(context.Context, *DeleteRequest, ...grpc.CallOption) (*DeleteResponse, error)
	ListNodes(context.Context, *ListNodesRequest, ...grpc.CallOption) (*ListNodesResponse, error)
	UpdateNodes(context.Context, *UpdateNodesRequest, ...grpc.CallOption) (*UpdateNodesResponse, error)
	Rebuild(context.Context, *RebuildRequest, ...grpc.CallOption) (*RebuildResponse, error)
}

var TagService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "metal.tags.v1.TagService",
	HandlerType: (*TagServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: codec.Unary(TagService_Create_FullMethodName, TagServiceServer.Create)},
		{MethodName: "Get", Handler: codec.Unary(TagService_Get_FullMethodName, TagServiceServer.Get)},
		{MethodName: "List", Handler: codec.Unary(TagService_List_FullMethodName, TagServiceServer.List)},
		{MethodName: "Update", Handler: codec.Unary(TagService_Update_FullMethodName, TagServiceServer.Update)},
		{MethodName: "Patch", Handler: codec.Unary(TagService_Patch_FullMethodName, TagServiceServer.Patch)},
		{MethodName: "Delete", Handler: codec.Unary(TagService_Delete_FullMethodName, TagServiceServer.Delete)},
		{MethodName: "ListNodes", Handler: codec.Unary(TagService_ListNodes_FullMethodName, TagServiceServer.ListNodes)},
		{MethodName: "UpdateNodes", Handler: codec.Unary(TagService_UpdateNodes_FullMethodName, TagServiceServer.UpdateNodes)},
		{MethodName: "Rebuild", Handler: codec.Unary(TagService_Rebuild_FullMethodName, TagServiceServer.Rebuild)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/services/tags/v1/service.go",
}

func RegisterTagServiceServer(s grpc.ServiceRegistrar, srv TagServiceServer) {
	s.RegisterService(&TagService_ServiceDesc, srv)
}

type tagServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTagServiceClient(cc grpc.ClientConnInterface) TagServiceClient {
	return &tagServiceClient{cc}
}

func (c *tagServiceClient) Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*CreateResponse, error) {
	return codec.Invoke[CreateResponse](ctx, c.cc, TagService_Create_FullMethodName, in, opts...)
}

func (c *tagServiceClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	return codec.Invoke[GetResponse](ctx, c.cc, TagService_Get_FullMethodName, in, opts...)
}

func (c *tagServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return codec.Invoke[ListResponse](ctx, c.cc, TagService_List_FullMethodName, in, opts...)
}

func (c *tagServiceClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	return codec.Invoke[UpdateResponse](ctx, c.cc, TagService_Update_FullMethodName, in, opts...)
}

func (c *tagServiceClient) Patch(ctx context.Context, in *PatchRequest, opts ...grpc.CallOption) (*PatchResponse, error) {
	return codec.Invoke[PatchResponse](ctx, c.cc, TagService_Patch_FullMethodName, in, opts...)
}

func (c *tagServiceClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return codec.Invoke[DeleteResponse](ctx, c.cc, TagService_Delete_FullMethodName, in, opts...)
}

func (c *tagServiceClient) ListNodes(ctx context.Context, in *ListNodesRequest, opts ...grpc.CallOption) (*ListNodesResponse, error) {
	return codec.Invoke[ListNodesResponse](ctx, c.cc, TagService_ListNodes_FullMethodName, in, opts...)
}

func (c *tagServiceClient) UpdateNodes(ctx context.Context, in *UpdateNodesRequest, opts ...grpc.CallOption) (*UpdateNodesResponse, error) {
	return codec.Invoke[UpdateNodesResponse](ctx, c.cc, TagService_UpdateNodes_FullMethodName, in, opts...)
}

func (c *tagServiceClient) Rebuild(ctx context.Context, in *RebuildRequest, opts ...grpc.CallOption) (*RebuildResponse, error) {
	return codec.Invoke[RebuildResponse](ctx, c.cc, TagService_Rebuild_FullMethodName, in, opts...)
}
