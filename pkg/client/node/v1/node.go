package v1

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"

	"github.com/amimof/metal/pkg/client/callmeta"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

type CreateOption func(c *clientV1)

func WithClient(client nodesv1.NodeServiceClient) CreateOption {
	return func(c *clientV1) {
		c.Client = client
	}
}

// WithEndpoint sets the endpoint reported to the server, API by default
func WithEndpoint(e eventsv1.Endpoint) CreateOption {
	return func(c *clientV1) {
		c.endpoint = e
	}
}

type ClientV1 interface {
	Create(context.Context, *nodesv1.Node) (*nodesv1.Node, error)
	Get(context.Context, string) (*nodesv1.Node, error)
	List(context.Context, string) ([]*nodesv1.Node, error)
	Update(context.Context, string, *nodesv1.Node) (*nodesv1.Node, error)
	Patch(context.Context, string, json.RawMessage) (*nodesv1.Node, error)
	Delete(context.Context, string) error
	UpdateHardwareDetails(context.Context, string, []byte) (*nodesv1.Node, error)
}

type clientV1 struct {
	Client   nodesv1.NodeServiceClient
	id       string
	endpoint eventsv1.Endpoint
}

func (c *clientV1) Create(ctx context.Context, node *nodesv1.Node) (*nodesv1.Node, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.node.Create")
	defer span.End()

	ctx = callmeta.Outgoing(ctx, c.id, c.endpoint)
	res, err := c.Client.Create(ctx, &nodesv1.CreateRequest{Node: node})
	if err != nil {
		return nil, err
	}
	return res.Node, nil
}

func (c *clientV1) Get(ctx context.Context, id string) (*nodesv1.Node, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.node.Get")
	defer span.End()

	ctx = callmeta.Outgoing(ctx, c.id, c.endpoint)
	res, err := c.Client.Get(ctx, &nodesv1.GetRequest{Id: id})
	if err != nil {
		return nil, err
	}
	return res.Node, nil
}

// List returns the nodes matching query, e.g. "zone=rack-1 tags=gpu"
func (c *clientV1) List(ctx context.Context, query string) ([]*nodesv1.Node, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.node.List")
	defer span.End()

	ctx = callmeta.Outgoing(ctx, c.id, c.endpoint)
	res, err := c.Client.List(ctx, &nodesv1.ListRequest{Query: query})
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

func (c *clientV1) Update(ctx context.Context, id string, node *nodesv1.Node) (*nodesv1.Node, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.node.Update")
	defer span.End()

	ctx = callmeta.Outgoing(ctx, c.id, c.endpoint)
	res, err := c.Client.Update(ctx, &nodesv1.UpdateRequest{Id: id, Node: node})
	if err != nil {
		return nil, err
	}
	return res.Node, nil
}

func (c *clientV1) Patch(ctx context.Context, id string, patch json.RawMessage) (*nodesv1.Node, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.node.Patch")
	defer span.End()

	ctx = callmeta.Outgoing(ctx, c.id, c.endpoint)
	res, err := c.Client.Patch(ctx, &nodesv1.PatchRequest{Id: id, Patch: patch})
	if err != nil {
		return nil, err
	}
	return res.Node, nil
}

func (c *clientV1) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.node.Delete")
	defer span.End()

	ctx = callmeta.Outgoing(ctx, c.id, c.endpoint)
	_, err := c.Client.Delete(ctx, &nodesv1.DeleteRequest{Id: id})
	return err
}

func (c *clientV1) UpdateHardwareDetails(ctx context.Context, id string, lshw []byte) (*nodesv1.Node, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.node.UpdateHardwareDetails")
	defer span.End()

	ctx = callmeta.Outgoing(ctx, c.id, c.endpoint)
	res, err := c.Client.UpdateHardwareDetails(ctx, &nodesv1.UpdateHardwareDetailsRequest{Id: id, LSHW: lshw})
	if err != nil {
		return nil, err
	}
	return res.Node, nil
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
		Client: nodesv1.NewNodeServiceClient(conn),
		id:     clientId,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
