package v1

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/amimof/metal/api/codec"
)

const (
	NodeService_Create_FullMethodName                = "/metal.nodes.v1.NodeService/Create"
	NodeService_Get_FullMethodName                   = "/metal.nodes.v1.NodeService/Get"
	NodeService_List_FullMethodName                  = "/metal.nodes.v1.NodeService/List"
	NodeService_Update_FullMethodName                = "/metal.nodes.v1.NodeService/Update"
	NodeService_Patch_FullMethodName                 = "/metal.nodes.v1.NodeService/Patch"
	NodeService_Delete_FullMethodName                = "/metal.nodes.v1.NodeService/Delete"
	NodeService_UpdateHardwareDetails_FullMethodName = "/metal.nodes.v1.NodeService/UpdateHardwareDetails"
)

type CreateRequest struct {
	Node *Node `json:"node"`
}

type CreateResponse struct {
	Node *Node `json:"node"`
}

type GetRequest struct {
	Id string `json:"id"`
}

type GetResponse struct {
	Node *Node `json:"node"`
}

type ListRequest struct {
	// Query is a whitespace separated list of key=value terms
	Query string `json:"query,omitempty"`
}

type ListResponse struct {
	Nodes []*Node `json:"nodes"`
}

type UpdateRequest struct {
	Id   string `json:"id"`
	Node *Node  `json:"node"`
}

type UpdateResponse struct {
	Node *Node `json:"node"`
}

type PatchRequest struct {
	Id string `json:"id"`
	// Patch is a JSON merge patch applied to the stored node
	Patch json.RawMessage `json:"patch"`
}

type PatchResponse struct {
	Node *Node `json:"node"`
}

type DeleteRequest struct {
	Id string `json:"id"`
}

type DeleteResponse struct {
	Id string `json:"id"`
}

type UpdateHardwareDetailsRequest struct {
	Id   string `json:"id"`
	LSHW []byte `json:"lshw"`
}

type UpdateHardwareDetailsResponse struct {
	Node *Node `json:"node"`
}

type NodeServiceServer interface {
	Create(context.Context, *CreateRequest) (*CreateResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Update(context.Context, *UpdateRequest) (*UpdateResponse, error)
	Patch(context.Context, *PatchRequest) (*PatchResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	UpdateHardwareDetails(context.Context, *UpdateHardwareDetailsRequest) (*UpdateHardwareDetailsResponse, error)
}

type NodeServiceClient interface {
	Create(context.Context, *CreateRequest, ...grpc.CallOption) (*CreateResponse, error)
	Get(context.Context, *GetRequest, ...grpc.CallOption) (*GetResponse, error)
	List(context.Context, *ListRequest, ...grpc.CallOption) (*ListResponse, error)
	Update(context.Context, *UpdateRequest, ...grpc.CallOption) (*UpdateResponse, error)
	Patch(context.Context, *PatchRequest, ...grpc.CallOption) (*PatchResponse, error)
	Delete(context.Context, *DeleteRequest, ...grpc.CallOption) (*DeleteResponse, error)
	UpdateHardwareDetails(context.Context, *UpdateHardwareDetailsRequest, ...grpc.CallOption) (*UpdateHardwareDetailsResponse, error)
}

var NodeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "metal.nodes.v1.NodeService",
	HandlerType: (*NodeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: codec.Unary(NodeService_Create_FullMethodName, NodeServiceServer.Create)},
		{MethodName: "Get", Handler: codec.Unary(NodeService_Get_FullMethodName, NodeServiceServer.Get)},
		{MethodName: "List", Handler: codec.Unary(NodeService_List_FullMethodName, NodeServiceServer.List)},
		{MethodName: "Update", Handler: codec.Unary(NodeService_Update_FullMethodName, NodeServiceServer.Update)},
		{MethodName: "Patch", Handler: codec.Unary(NodeService_Patch_FullMethodName, NodeServiceServer.Patch)},
		{MethodName: "Delete", Handler: codec.Unary(NodeService_Delete_FullMethodName, NodeServiceServer.Delete)},
		{MethodName: "UpdateHardwareDetails", Handler: codec.Unary(NodeService_UpdateHardwareDetails_FullMethodName, NodeServiceServer.UpdateHardwareDetails)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/services/nodes/v1/service.go",
}

func RegisterNodeServiceServer(s grpc.ServiceRegistrar, srv NodeServiceServer) {
	s.RegisterService(&NodeService_ServiceDesc, srv)
}

type nodeServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewNodeServiceClient(cc grpc.ClientConnInterface) NodeServiceClient {
	return &nodeServiceClient{cc}
}

func (c *nodeServiceClient) Create(ctx context.Context, in *CreateRequest, opts ...grpc.CallOption) (*CreateResponse, error) {
	return codec.Invoke[CreateResponse](ctx, c.cc, NodeService_Create_FullMethodName, in, opts...)
}

func (c *nodeServiceClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	return codec.Invoke[GetResponse](ctx, c.cc, NodeService_Get_FullMethodName, in, opts...)
}

func (c *nodeServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return codec.Invoke[ListResponse](ctx, c.cc, NodeService_List_FullMethodName, in, opts...)
}

func (c *nodeServiceClient) Update(ctx context.Context, in *UpdateRequest, opts ...grpc.CallOption) (*UpdateResponse, error) {
	return codec.Invoke[UpdateResponse](ctx, c.cc, NodeService_Update_FullMethodName, in, opts...)
}

func (c *nodeServiceClient) Patch(ctx context.Context, in *PatchRequest, opts ...grpc.CallOption) (*PatchResponse, error) {
	return codec.Invoke[PatchResponse](ctx, c.cc, NodeService_Patch_FullMethodName, in, opts...)
}

func (c *nodeServiceClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return codec.Invoke[DeleteResponse](ctx, c.cc, NodeService_Delete_FullMethodName, in, opts...)
}

func (c *nodeServiceClient) UpdateHardwareDetails(ctx context.Context, in *UpdateHardwareDetailsRequest, opts ...grpc.CallOption) (*UpdateHardwareDetailsResponse, error) {
	return codec.Invoke[UpdateHardwareDetailsResponse](ctx, c.cc, NodeService_UpdateHardwareDetails_FullMethodName, in, opts...)
}
