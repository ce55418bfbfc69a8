package v1

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"

	"github.com/amimof/metal/pkg/client/callmeta"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

type CreateOption func(c *clientV1)

func WithClient(client zonesv1.ZoneServiceClient) CreateOption {
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
	Create(context.Context, *zonesv1.Zone) (*zonesv1.Zone, error)
	Get(context.Context, string) (*zonesv1.GetResponse, error)
	List(context.Context, int, int) (*zonesv1.ListResponse, error)
	Update(context.Context, string, *zonesv1.Zone) (*zonesv1.Zone, error)
	Patch(context.Context, string, json.RawMessage) (*zonesv1.Zone, error)
	Delete(context.Context, string) error
}

type clientV1 struct {
	Client   zonesv1.ZoneServiceClient
	id       string
	endpoint eventsv1.Endpoint
}

func (c *clientV1) Create(ctx context.Context, zone *zonesv1.Zone) (*zonesv1.Zone, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.zone.Create")
	defer span.End()

	res, err := c.Client.Create(callmeta.Outgoing(ctx, c.id, c.endpoint), &zonesv1.CreateRequest{Zone: zone})
	if err != nil {
		return nil, err
	}
	return res.Zone, nil
}

// Get returns the zone together with its node count and node listing link
func (c *clientV1) Get(ctx context.Context, name string) (*zonesv1.GetResponse, error) {
	return c.Client.Get(callmeta.Outgoing(ctx, c.id, c.endpoint), &zonesv1.GetRequest{Id: name})
}

func (c *clientV1) List(ctx context.Context, page, pageSize int) (*zonesv1.ListResponse, error) {
	return c.Client.List(callmeta.Outgoing(ctx, c.id, c.endpoint), &zonesv1.ListRequest{Page: page, PageSize: pageSize})
}

func (c *clientV1) Update(ctx context.Context, name string, zone *zonesv1.Zone) (*zonesv1.Zone, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.zone.Update")
	defer span.End()

	res, err := c.Client.Update(callmeta.Outgoing(ctx, c.id, c.endpoint), &zonesv1.UpdateRequest{Id: name, Zone: zone})
	if err != nil {
		return nil, err
	}
	return res.Zone, nil
}

func (c *clientV1) Patch(ctx context.Context, name string, patch json.RawMessage) (*zonesv1.Zone, error) {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.zone.Patch")
	defer span.End()

	res, err := c.Client.Patch(callmeta.Outgoing(ctx, c.id, c.endpoint), &zonesv1.PatchRequest{Id: name, Patch: patch})
	if err != nil {
		return nil, err
	}
	return res.Zone, nil
}

func (c *clientV1) Delete(ctx context.Context, name string) error {
	ctx, span := otel.Tracer("client-v1").Start(ctx, "client.zone.Delete")
	defer span.End()

	_, err := c.Client.Delete(callmeta.Outgoing(ctx, c.id, c.endpoint), &zonesv1.DeleteRequest{Id: name})
	return err
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
		Client: zonesv1.NewZoneServiceClient(conn),
		id:     clientId,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
