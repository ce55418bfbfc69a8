package v1

import (
	"context"

	"google.golang.org/grpc"

	"github.com/amimof/metal/api/codec"
)

const (
	ScriptService_CreateScript_FullMethodName    = "/metal.scripts.v1.ScriptService/CreateScript"
	ScriptService_GetScript_FullMethodName       = "/metal.scripts.v1.ScriptService/GetScript"
	ScriptService_ListScripts_FullMethodName     = "/metal.scripts.v1.ScriptService/ListScripts"
	ScriptService_UpdateScript_FullMethodName    = "/metal.scripts.v1.ScriptService/UpdateScript"
	ScriptService_CreateScriptSet_FullMethodName = "/metal.scripts.v1.ScriptService/CreateScriptSet"
	ScriptService_GetScriptSet_FullMethodName    = "/metal.scripts.v1.ScriptService/GetScriptSet"
	ScriptService_ListScriptSets_FullMethodName  = "/metal.scripts.v1.ScriptService/ListScriptSets"
	ScriptService_GetResult_FullMethodName       = "/metal.scripts.v1.ScriptService/GetResult"
	ScriptService_ListResults_FullMethodName     = "/metal.scripts.v1.ScriptService/ListResults"
	ScriptService_SetStatus_FullMethodName       = "/metal.scripts.v1.ScriptService/SetStatus"
	ScriptService_StoreResult_FullMethodName     = "/metal.scripts.v1.ScriptService/StoreResult"
	ScriptService_ReadResults_FullMethodName     = "/metal.scripts.v1.ScriptService/ReadResults"
)

type CreateScriptRequest struct {
	Script *Script `json:"script"`
	Data   string  `json:"data"`
}

type CreateScriptResponse struct {
	Script *Script `json:"script"`
}

type GetScriptRequest struct {
	Name string `json:"name"`
}

type GetScriptResponse struct {
	Script *Script `json:"script"`
}

type ListScriptsRequest struct{}

type ListScriptsResponse struct {
	Scripts []*Script `json:"scripts"`
}

// UpdateScriptRequest stores Data as a new version of the script
type UpdateScriptRequest struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type UpdateScriptResponse struct {
	Script *Script `json:"script"`
}

type CreateScriptSetRequest struct {
	NodeID     string     `json:"node_id"`
	ResultType ResultType `json:"result_type"`
	// Scripts are the names of the scripts to create pending results for
	Scripts    []string       `json:"scripts"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type CreateScriptSetResponse struct {
	ScriptSet *ScriptSet      `json:"script_set"`
	Results   []*ScriptResult `json:"results"`
}

type GetScriptSetRequest struct {
	Id string `json:"id"`
}

type GetScriptSetResponse struct {
	ScriptSet *ScriptSet `json:"script_set"`
}

type ListScriptSetsRequest struct {
	NodeID string `json:"node_id,omitempty"`
}

type ListScriptSetsResponse struct {
	ScriptSets []*ScriptSet `json:"script_sets"`
}

type GetResultRequest struct {
	Id string `json:"id"`
}

type GetResultResponse struct {
	Result *ScriptResult `json:"result"`
}

type ListResultsRequest struct {
	ScriptSetID string `json:"script_set_id"`
}

type ListResultsResponse struct {
	Results []*ScriptResult `json:"results"`
}

type SetStatusRequest struct {
	Id     string `json:"id"`
	Status Status `json:"status"`
}

type SetStatusResponse struct {
	Result *ScriptResult `json:"result"`
}

// StoreResultRequest uploads the outcome of a script run. Nil byte slices
// and nil pointers mean "not supplied".
type StoreResultRequest struct {
	Id              string `json:"id"`
	ExitStatus      *int   `json:"exit_status,omitempty"`
	Output          []byte `json:"output,omitempty"`
	Stdout          []byte `json:"stdout,omitempty"`
	Stderr          []byte `json:"stderr,omitempty"`
	Result          []byte `json:"result,omitempty"`
	ScriptVersionID *int   `json:"script_version_id,omitempty"`
	TimedOut        bool   `json:"timedout,omitempty"`
}

type StoreResultResponse struct {
	Result *ScriptResult `json:"result"`
}

type ReadResultsRequest struct {
	Id string `json:"id"`
}

type ReadResultsResponse struct {
	// Parsed is nil when the result carried no YAML document
	Parsed map[string]any `json:"parsed,omitempty"`
}

type ScriptServiceServer interface {
	CreateScript(context.Context, *CreateScriptRequest) (*CreateScriptResponse, error)
	GetScript(context.Context, *GetScriptRequest) (*GetScriptResponse, error)
	ListScripts(context.Context, *ListScriptsRequest) (*ListScriptsResponse, error)
	UpdateScript(context.Context, *UpdateScriptRequest) (*UpdateScriptResponse, error)
	CreateScriptSet(context.Context, *CreateScriptSetRequest) (*CreateScriptSetResponse, error)
	GetScriptSet(context.Context, *GetScriptSetRequest) (*GetScriptSetResponse, error)
	ListScriptSets(context.Context, *ListScriptSetsRequest) (*ListScriptSetsResponse, error)
	GetResult(context.Context, *GetResultRequest) (*GetResultResponse, error)
	ListResults(context.Context, *ListResultsRequest) (*ListResultsResponse, error)
	SetStatus(context.Context, *SetStatusRequest) (*SetStatusResponse, error)
	StoreResult(context.Context, *StoreResultRequest) (*StoreResultResponse, error)
	ReadResults(context.Context, *ReadResultsRequest) (*ReadResultsResponse, error)
}

type ScriptServiceClient interface {
	CreateScript(context.Context, *CreateScriptRequest, ...grpc.CallOption) (*CreateScriptResponse, error)
	GetScript(context.Context, *GetScriptRequest, ...grpc.CallOption) (*GetScriptResponse, error)
	ListScripts(context.Context, *ListScriptsRequest, ...grpc.CallOption) (*ListScriptsResponse, error)
	UpdateScript(context.Context, *UpdateScriptRequest, ...grpc.CallOption) (*UpdateScriptResponse, error)
	CreateScriptSet(context.Context, *CreateScriptSetRequest, ...grpc.CallOption) (*CreateScriptSetResponse, error)
	GetScriptSet(context.Context, *GetScriptSetRequest, ...grpc.CallOption) (*GetScriptSetResponse, error)
	ListScriptSets(context.Context, *ListScriptSetsRequest, ...grpc.CallOption) (*ListScriptSetsResponse, error)
	GetResult(context.Context, *GetResultRequest, ...grpc.CallOption) (*GetResultResponse, error)
	ListResults(context.Context, *ListResultsRequest, ...grpc.CallOption) (*ListResultsResponse, error)
	SetStatus(context.Context, *SetStatusRequest, ...grpc.CallOption) (*SetStatusResponse, error)
	StoreResult(context.Context, *StoreResultRequest, ...grpc.CallOption) (*StoreResultResponse, error)
	ReadResults(context.Context, *ReadResultsRequest, ...grpc.CallOption) (*ReadResultsResponse, error)
}

var ScriptService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "metal.scripts.v1.ScriptService",
	HandlerType: (*ScriptServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateScript", Handler: codec.Unary(ScriptService_CreateScript_FullMethodName, ScriptServiceServer.CreateScript)},
		{MethodName: "GetScript", Handler: codec.Unary(ScriptService_GetScript_FullMethodName, ScriptServiceServer.GetScript)},
		{MethodName: "ListScripts", Handler: codec.Unary(ScriptService_ListScripts_FullMethodName, ScriptServiceServer.ListScripts)},
		{MethodName: "UpdateScript", Handler: codec.Unary(ScriptService_UpdateScript_FullMethodName, ScriptServiceServer.UpdateScript)},
		{MethodName: "CreateScriptSet", Handler: codec.Unary(ScriptService_CreateScriptSet_FullMethodName, ScriptServiceServer.CreateScriptSet)},
		{MethodName: "GetScriptSet", Handler: codec.Unary(ScriptService_GetScriptSet_FullMethodName, ScriptServiceServer.GetScriptSet)},
		{MethodName: "ListScriptSets", Handler: codec.Unary(ScriptService_ListScriptSets_FullMethodName, ScriptServiceServer.ListScriptSets)},
		{MethodName: "GetResult", Handler: codec.Unary(ScriptService_GetResult_FullMethodName, ScriptServiceServer.GetResult)},
		{MethodName: "ListResults", Handler: codec.Unary(ScriptService_ListResults_FullMethodName, ScriptServiceServer.ListResults)},
		{MethodName: "SetStatus", Handler: codec.Unary(ScriptService_SetStatus_FullMethodName, ScriptServiceServer.SetStatus)},
		{MethodName: "StoreResult", Handler: codec.Unary(ScriptService_StoreResult_FullMethodName, ScriptServiceServer.StoreResult)},
		{MethodName: "ReadResults", Handler: codec.Unary(ScriptService_ReadResults_FullMethodName, ScriptServiceServer.ReadResults)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/services/scripts/v1/service.go",
}

func RegisterScriptServiceServer(s grpc.ServiceRegistrar, srv ScriptServiceServer) {
	s.RegisterService(&ScriptService_ServiceDesc, srv)
}

type scriptServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewScriptServiceClient(cc grpc.ClientConnInterface) ScriptServiceClient {
	return &scriptServiceClient{cc}
}

func (c *scriptServiceClient) CreateScript(ctx context.Context, in *CreateScriptRequest, opts ...grpc.CallOption) (*CreateScriptResponse, error) {
	return codec.Invoke[CreateScriptResponse](ctx, c.cc, ScriptService_CreateScript_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) GetScript(ctx context.Context, in *GetScriptRequest, opts ...grpc.CallOption) (*GetScriptResponse, error) {
	return codec.Invoke[GetScriptResponse](ctx, c.cc, ScriptService_GetScript_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) ListScripts(ctx context.Context, in *ListScriptsRequest, opts ...grpc.CallOption) (*ListScriptsResponse, error) {
	return codec.Invoke[ListScriptsResponse](ctx, c.cc, ScriptService_ListScripts_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) UpdateScript(ctx context.Context, in *UpdateScriptRequest, opts ...grpc.CallOption) (*UpdateScriptResponse, error) {
	return codec.Invoke[UpdateScriptResponse](ctx, c.cc, ScriptService_UpdateScript_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) CreateScriptSet(ctx context.Context, in *CreateScriptSetRequest, opts ...grpc.CallOption) (*CreateScriptSetResponse, error) {
	return codec.Invoke[CreateScriptSetResponse](ctx, c.cc, ScriptService_CreateScriptSet_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) GetScriptSet(ctx context.Context, in *GetScriptSetRequest, opts ...grpc.CallOption) (*GetScriptSetResponse, error) {
	return codec.Invoke[GetScriptSetResponse](ctx, c.cc, ScriptService_GetScriptSet_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) ListScriptSets(ctx context.Context, in *ListScriptSetsRequest, opts ...grpc.CallOption) (*ListScriptSetsResponse, error) {
	return codec.Invoke[ListScriptSetsResponse](ctx, c.cc, ScriptService_ListScriptSets_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) GetResult(ctx context.Context, in *GetResultRequest, opts ...grpc.CallOption) (*GetResultResponse, error) {
	return codec.Invoke[GetResultResponse](ctx, c.cc, ScriptService_GetResult_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) ListResults(ctx context.Context, in *ListResultsRequest, opts ...grpc.CallOption) (*ListResultsResponse, error) {
	return codec.Invoke[ListResultsResponse](ctx, c.cc, ScriptService_ListResults_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) SetStatus(ctx context.Context, in *SetStatusRequest, opts ...grpc.CallOption) (*SetStatusResponse, error) {
	return codec.Invoke[SetStatusResponse](ctx, c.cc, ScriptService_SetStatus_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) StoreResult(ctx context.Context, in *StoreResultRequest, opts ...grpc.CallOption) (*StoreResultResponse, error) {
	return codec.Invoke[StoreResultResponse](ctx, c.cc, ScriptService_StoreResult_FullMethodName, in, opts...)
}

func (c *scriptServiceClient) ReadResults(ctx context.Context, in *ReadResultsRequest, opts ...grpc.CallOption) (*ReadResultsResponse, error) {
	return codec.Invoke[ReadResultsResponse](ctx, c.cc, ScriptService_ReadResults_FullMethodName, in, opts...)
}
