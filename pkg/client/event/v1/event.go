package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/pkg/client/callmeta"
	"github.com/amimof/metal/pkg/logger"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

const reconnectDelay = 2 * time.Second

type CreateOption func(c *ClientV1)

func WithLogger(l logger.Logger) CreateOption {
	return func(c *ClientV1) {
		c.logger = l
	}
}

func WithEndpoint(e eventsv1.Endpoint) CreateOption {
	return func(c *ClientV1) {
		c.endpoint = e
	}
}

type ClientV1 struct {
	eventService eventsv1.EventServiceClient
	id           string
	endpoint     eventsv1.Endpoint
	logger       logger.Logger
}

func (c *ClientV1) EventService() eventsv1.EventServiceClient {
	return c.eventService
}

func (c *ClientV1) Get(ctx context.Context, id string) (*eventsv1.Event, error) {
	res, err := c.eventService.Get(callmeta.Outgoing(ctx, c.id, c.endpoint), &eventsv1.GetRequest{Id: id})
	if err != nil {
		return nil, err
	}
	return res.Event, nil
}

// List returns stored events oldest first. An empty nodeID lists every event.
func (c *ClientV1) List(ctx context.Context, nodeID string) ([]*eventsv1.Event, error) {
	res, err := c.eventService.List(callmeta.Outgoing(ctx, c.id, c.endpoint), &eventsv1.ListRequest{NodeID: nodeID})
	if err != nil {
		return nil, err
	}
	return res.Events, nil
}

// Subscribe delivers events of the given types on receiveChan until ctx is
// cancelled, reconnecting when the stream breaks
func (c *ClientV1) Subscribe(ctx context.Context, receiveChan chan<- *eventsv1.Event, types ...eventsv1.EventType) error {
	for {
		err := c.receive(ctx, receiveChan, types)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled {
			return nil
		}
		if status.Code(err) == codes.Unimplemented {
			return err
		}
		c.logger.Error("event stream broken, reconnecting", "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *ClientV1) receive(ctx context.Context, receiveChan chan<- *eventsv1.Event, types []eventsv1.EventType) error {
	stream, err := c.eventService.Subscribe(callmeta.Outgoing(ctx, c.id, c.endpoint), &eventsv1.SubscribeRequest{ClientId: c.id, Types: types})
	if err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}
	for {
		ev, err := stream.Recv()
		if err == io.EOF {
			return fmt.Errorf("server closed the stream")
		}
		if err != nil {
			return err
		}
		select {
		case receiveChan <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func NewClientV1(conn grpc.ClientConnInterface, clientId string, opts ...CreateOption) *ClientV1 {
	c := &ClientV1{
		eventService: eventsv1.NewEventServiceClient(conn),
		id:           clientId,
		logger:       logger.ConsoleLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
