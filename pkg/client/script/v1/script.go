package v1

import (
	"context"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"

	"github.com/amimof/metal/pkg/client/callmeta"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
)

type CreateOption func(c *clientV1)

func WithClient(client scriptsv1.ScriptServiceClient) CreateOption {
	return func(c *clientV1) {
		c.Client = client
	}
}

func WithEndpoint(e eventsv1.Endpoint) CreateOption {
	return func(c *clientV1) {
		c.endpoint = e
	}
}

type ClientV1 interface {
	CreateScript(context.Context, *scriptsv1.Script, string) (*scriptsv1.Script, error)
	GetScript(context.Context, string) (*scriptsv1.Script, error)
	ListScripts(context.Context) ([]*scriptsv1.Script, error)
	UpdateScript(context.Context, string, string) (*scriptsv1.Script, error)
	CreateScriptSet(context.Context, *scriptsv1.CreateScriptSetRequest) (*scriptsv1.CreateScriptSetResponse, error)
	GetScriptSet(context.Context, string) (*scriptsv1.ScriptSet, error)
	ListScriptSets(context.Context, string) ([]*scriptsv1.ScriptSet, error)
	GetResult(context.Context, string) (*scriptsv1.ScriptResult, error)
	ListResults(context.Context, string) ([]*scriptsv1.ScriptResult, error)
	SetStatus(context.Context, string, scriptsv1.Status) (*scriptsv1.ScriptResult, error)
	StoreResult(context.Context, *scriptsv1.StoreResultRequest) (*scriptsv1.ScriptResult, error)
	ReadResults(context.Context, string) (map[string]any, error)
}

type clientV1 struct {
	Client   scriptsv1.ScriptServiceClient
	id       string
	endpoint eventsv1.Endpoint
}

func (c *clientV1) CreateScript(ctx context.Context, script *scriptsv1.Script, data string) (*scriptsv1.Script, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.script.CreateScript")
	defer span.End()

	res, err := c.Client.CreateScript(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.CreateScriptRequest{Script: script, Data: data})
	if err != nil {
		return nil, err
	}
	return res.Script, nil
}

func (c *clientV1) GetScript(ctx context.Context, name string) (*scriptsv1.Script, error) {
	res, err := c.Client.GetScript(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.GetScriptRequest{Name: name})
	if err != nil {
		return nil, err
	}
	return res.Script, nil
}

func (c *clientV1) ListScripts(ctx context.Context) ([]*scriptsv1.Script, error) {
	res, err := c.Client.ListScripts(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.ListScriptsRequest{})
	if err != nil {
		return nil, err
	}
	return res.Scripts, nil
}

// UpdateScript stores data as a new version of the script
func (c *clientV1) UpdateScript(ctx context.Context, name, data string) (*scriptsv1.Script, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.script.UpdateScript")
	defer span.End()

	res, err := c.Client.UpdateScript(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.UpdateScriptRequest{Name: name, Data: data})
	if err != nil {
		return nil, err
	}
	return res.Script, nil
}

func (c *clientV1) CreateScriptSet(ctx context.Context, req *scriptsv1.CreateScriptSetRequest) (*scriptsv1.CreateScriptSetResponse, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.script.CreateScriptSet")
	defer span.End()

	return c.Client.CreateScriptSet(callmeta.Outgoing(ctx, c.id, c.endpoint), req)
}

func (c *clientV1) GetScriptSet(ctx context.Context, id string) (*scriptsv1.ScriptSet, error) {
	res, err := c.Client.GetScriptSet(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.GetScriptSetRequest{Id: id})
	if err != nil {
		return nil, err
	}
	return res.ScriptSet, nil
}

func (c *clientV1) ListScriptSets(ctx context.Context, nodeID string) ([]*scriptsv1.ScriptSet, error) {
	res, err := c.Client.ListScriptSets(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.ListScriptSetsRequest{NodeID: nodeID})
	if err != nil {
		return nil, err
	}
	return res.ScriptSets, nil
}

func (c *clientV1) GetResult(ctx context.Context, id string) (*scriptsv1.ScriptResult, error) {
	res, err := c.Client.GetResult(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.GetResultRequest{Id: id})
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (c *clientV1) ListResults(ctx context.Context, scriptSetID string) ([]*scriptsv1.ScriptResult, error) {
	res, err := c.Client.ListResults(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.ListResultsRequest{ScriptSetID: scriptSetID})
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

func (c *clientV1) SetStatus(ctx context.Context, id string, status scriptsv1.Status) (*scriptsv1.ScriptResult, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.script.SetStatus")
	defer span.End()

	res, err := c.Client.SetStatus(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.SetStatusRequest{Id: id, Status: status})
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (c *clientV1) StoreResult(ctx context.Context, req *scriptsv1.StoreResultRequest) (*scriptsv1.ScriptResult, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.script.StoreResult")
	defer span.End()

	res, err := c.Client.StoreResult(callmeta.Outgoing(ctx, c.id, c.endpoint), req)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (c *clientV1) ReadResults(ctx context.Context, id string) (map[string]any, error) {
	res, err := c.Client.ReadResults(callmeta.Outgoing(ctx, c.id, c.endpoint), &scriptsv1.ReadResultsRequest{Id: id})
	if err != nil {
		return nil, err
	}
	return res.Parsed, nil
}

func NewClientV1(opts ...CreateOption) ClientV1 {
	c := &clientV1{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func NewClientV1WithConn(conn grpc.ClientConnInterface, clientId string, opts ...CreateOption) ClientV1 {
	c := &clientV1{
		Client: scriptsv1.NewScriptServiceClient(conn),
		id:     clientId,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
