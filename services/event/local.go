package event

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/services"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

type local struct {
	repo   repository.EventRepository
	logger logger.Logger
}

var (
	_      eventsv1.EventServiceClient = &local{}
	tracer                             = otel.GetTracerProvider().Tracer("metal-server")
)

func (l *local) Get(ctx context.Context, req *eventsv1.GetRequest, _ ...grpc.CallOption) (*eventsv1.GetResponse, error) {
	ctx, span := tracer.Start(ctx, "event.Get")
	span.SetAttributes(attribute.String("event.id", req.Id))
	defer span.End()

	ev, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, services.HandleError(l.logger, err, "couldn't GET event from repo", "id", req.Id)
	}
	return &eventsv1.GetResponse{
		Event: ev,
	}, nil
}

// List returns events oldest first
func (l *local) List(ctx context.Context, req *eventsv1.ListRequest, _ ...grpc.CallOption) (*eventsv1.ListResponse, error) {
	ctx, span := tracer.Start(ctx, "event.List")
	span.SetAttributes(attribute.String("node.id", req.NodeID))
	defer span.End()

	eventList, err := l.repo.List(ctx)
	if err != nil {
		return nil, services.HandleError(l.logger, err, "couldn't LIST events from repo")
	}

	res := []*eventsv1.Event{}
	for _, ev := range eventList {
		if req.NodeID == "" || ev.NodeID == req.NodeID {
			res = append(res, ev)
		}
	}
	slices.SortStableFunc(res, func(a, b *eventsv1.Event) int {
		return a.GetMeta().GetCreated().Compare(b.GetMeta().GetCreated())
	})
	return &eventsv1.ListResponse{
		Events: res,
	}, nil
}

// Subscribe is only served over gRPC
func (l *local) Subscribe(context.Context, *eventsv1.SubscribeRequest, ...grpc.CallOption) (eventsv1.EventService_SubscribeClient, error) {
	return nil, status.Error(codes.Unimplemented, "subscribe is not available in-process, use the exchange")
}
