// Package event provides the server implementation of the event service. It
// stores every event published on the exchange and streams them to subscribers.
package event

import (
	"context"

	"google.golang.org/grpc"

	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

const Version string = "event/v1"

type NewServiceOption func(s *EventService)

func WithLogger(l logger.Logger) NewServiceOption {
	return func(s *EventService) {
		s.logger = l
	}
}

func WithExchange(e *events.Exchange) NewServiceOption {
	return func(s *EventService) {
		s.exchange = e
	}
}

type EventService struct {
	local    eventsv1.EventServiceClient
	repo     repository.EventRepository
	logger   logger.Logger
	exchange *events.Exchange
}

var _ eventsv1.EventServiceServer = &EventService{}

func (s *EventService) Register(server *grpc.Server) error {
	eventsv1.RegisterEventServiceServer(server, s)
	return nil
}

func (s *EventService) Get(ctx context.Context, req *eventsv1.GetRequest) (*eventsv1.GetResponse, error) {
	return s.local.Get(ctx, req)
}

func (s *EventService) List(ctx context.Context, req *eventsv1.ListRequest) (*eventsv1.ListResponse, error) {
	return s.local.List(ctx, req)
}

// Subscribe streams published events of the requested types until the client goes away
func (s *EventService) Subscribe(req *eventsv1.SubscribeRequest, stream eventsv1.EventService_SubscribeServer) error {
	ctx := stream.Context()
	ch := s.exchange.Subscribe(ctx, req.Types...)
	defer s.exchange.Unsubscribe(ctx, ch)

	s.logger.Info("client subscribed to events", "client", req.ClientId, "types", len(req.Types))
	defer s.logger.Info("client unsubscribed from events", "client", req.ClientId)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.Send(ev); err != nil {
				return err
			}
		}
	}
}

func (s *EventService) persist(ctx context.Context, ev *eventsv1.Event) error {
	return s.repo.Create(ctx, ev)
}

func NewService(repo repository.EventRepository, opts ...NewServiceOption) *EventService {
	s := &EventService{
		repo:   repo,
		logger: logger.ConsoleLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.exchange == nil {
		s.exchange = events.NewExchange(events.WithLogger(s.logger))
	}
	for _, t := range eventsv1.EventTypes() {
		s.exchange.On(t, events.HandleErrors(s.logger, s.persist))
	}

	s.local = &local{
		repo:   repo,
		logger: s.logger,
	}
	return s
}
