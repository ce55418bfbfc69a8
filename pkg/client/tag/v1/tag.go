package v1

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"

	"github.com/amimof/metal/pkg/client/callmeta"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
)

type CreateOption func(c *clientV1)

func WithClient(client tagsv1.TagServiceClient) CreateOption {
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
	Create(context.Context, *tagsv1.Tag) (*tagsv1.Tag, error)
	Get(context.Context, string) (*tagsv1.Tag, error)
	List(context.Context) ([]*tagsv1.Tag, error)
	Update(context.Context, string, *tagsv1.Tag) (*tagsv1.Tag, error)
	Patch(context.Context, string, json.RawMessage) (*tagsv1.Tag, error)
	Delete(context.Context, string) error
	ListNodes(context.Context, string) ([]*nodesv1.Node, error)
	UpdateNodes(context.Context, string, []string, []string) (*tagsv1.UpdateNodesResponse, error)
	Rebuild(context.Context, string) (int, error)
}

type clientV1 struct {
	Client   tagsv1.TagServiceClient
	id       string
	endpoint eventsv1.Endpoint
}

func (c *clientV1) Create(ctx context.Context, tag *tagsv1.Tag) (*tagsv1.Tag, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.tag.Create")
	defer span.End()

	res, err := c.Client.Create(callmeta.Outgoing(ctx, c.id, c.endpoint), &tagsv1.CreateRequest{Tag: tag})
	if err != nil {
		return nil, err
	}
	return res.Tag, nil
}

func (c *clientV1) Get(ctx context.Context, id string) (*tagsv1.Tag, error) {
	res, err := c.Client.Get(callmeta.Outgoing(ctx, c.id, c.endpoint), &tagsv1.GetRequest{Id: id})
	if err != nil {
		return nil, err
	}
	return res.Tag, nil
}

func (c *clientV1) List(ctx context.Context) ([]*tagsv1.Tag, error) {
	res, err := c.Client.List(callmeta.Outgoing(ctx, c.id, c.endpoint), &tagsv1.ListRequest{})
	if err != nil {
		return nil, err
	}
	return res.Tags, nil
}

func (c *clientV1) Update(ctx context.Context, id string, tag *tagsv1.Tag) (*tagsv1.Tag, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.tag.Update")
	defer span.End()

	res, err := c.Client.Update(callmeta.Outgoing(ctx, c.id, c.endpoint), &tagsv1.UpdateRequest{Id: id, Tag: tag})
	if err != nil {
		return nil, err
	}
	return res.Tag, nil
}

func (c *clientV1) Patch(ctx context.Context, id string, patch json.RawMessage) (*tagsv1.Tag, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.tag.Patch")
	defer span.End()

	res, err := c.Client.Patch(callmeta.Outgoing(ctx, c.id, c.endpoint), &tagsv1.PatchRequest{Id: id, Patch: patch})
	if err != nil {
		return nil, err
	}
	return res.Tag, nil
}

func (c *clientV1) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.tag.Delete")
	defer span.End()

	_, err := c.Client.Delete(callmeta.Outgoing(ctx, c.id, c.endpoint), &tagsv1.DeleteRequest{Id: id})
	return err
}

func (c *clientV1) ListNodes(ctx context.Context, id string) ([]*nodesv1.Node, error) {
	res, err := c.Client.ListNodes(callmeta.Outgoing(ctx, c.id, c.endpoint), &tagsv1.ListNodesRequest{Id: id})
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

// UpdateNodes adds and removes the tag on the given system ids. Only manual tags accept this.
func (c *clientV1) UpdateNodes(ctx context.Context, id string, add, remove []string) (*tagsv1.UpdateNodesResponse, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.tag.UpdateNodes")
	defer span.End()

	return c.Client.UpdateNodes(callmeta.Outgoing(ctx, c.id, c.endpoint), &tagsv1.UpdateNodesRequest{Id: id, Add: add, Remove: remove})
}

func (c *clientV1) Rebuild(ctx context.Context, id string) (int, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.tag.Rebuild")
	defer span.End()

	res, err := c.Client.Rebuild(callmeta.Outgoing(ctx, c.id, c.endpoint), &tagsv1.RebuildRequest{Id: id})
	if err != nil {
		return 0, err
	}
	return res.Matched, nil
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
		Client: tagsv1.NewTagServiceClient(conn),
		id:     clientId,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
