package v1

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/amimof/metal/pkg/client/callmeta"

	configsv1 "github.com/amimof/metal/api/services/configs/v1"
	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

type CreateOption func(c *clientV1)

func WithClient(client configsv1.ConfigServiceClient) CreateOption {
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
	Get(context.Context, string) (*configsv1.Config, error)
	Set(context.Context, string, json.RawMessage) (*configsv1.Config, error)
	List(context.Context) ([]*configsv1.Config, error)
}

type clientV1 struct {
	Client   configsv1.ConfigServiceClient
	id       string
	endpoint eventsv1.Endpoint
}

func (c *clientV1) Get(ctx context.Context, name string) (*configsv1.Config, error) {
	res, err := c.Client.Get(callmeta.Outgoing(ctx, c.id, c.endpoint), &configsv1.GetRequest{Name: name})
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func (c *clientV1) Set(ctx context.Context, name string, value json.RawMessage) (*configsv1.Config, error) {
	res, err := c.Client.Set(callmeta.Outgoing(ctx, c.id, c.endpoint), &configsv1.SetRequest{Name: name, Value: value})
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func (c *clientV1) List(ctx context.Context) ([]*configsv1.Config, error) {
	res, err := c.Client.List(callmeta.Outgoing(ctx, c.id, c.endpoint), &configsv1.ListRequest{})
	if err != nil {
		return nil, err
	}
	return res.Configs, nil
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
		Client: configsv1.NewConfigServiceClient(conn),
		id:     clientId,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
