package config

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/services"

	configsv1 "github.com/amimof/metal/api/services/configs/v1"
	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	settings "github.com/amimof/metal/pkg/config"
)

type local struct {
	manager  *settings.Manager
	exchange *events.Exchange
	logger   logger.Logger
}

var (
	_      configsv1.ConfigServiceClient = &local{}
	tracer                               = otel.GetTracerProvider().Tracer("metal-server")
)

func (l *local) handleError(err error, msg string, keysAndValues ...any) error {
	if errors.Is(err, settings.ErrInvalidValue) {
		l.logger.Debug(msg, append([]any{"error", err.Error()}, keysAndValues...)...)
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return services.HandleError(l.logger, err, msg, keysAndValues...)
}

func (l *local) Get(ctx context.Context, req *configsv1.GetRequest, _ ...grpc.CallOption) (*configsv1.GetResponse, error) {
	ctx, span := tracer.Start(ctx, "config.Get")
	span.SetAttributes(attribute.String("config.name", req.Name))
	defer span.End()

	if req.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "config name is required")
	}

	value, isDefault, err := l.manager.Get(ctx, req.Name, req.Default)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET config", "name", req.Name)
	}

	return &configsv1.GetResponse{
		Config: &configsv1.Config{
			Meta:    &types.Meta{Name: req.Name},
			Value:   value,
			Default: isDefault,
		},
	}, nil
}

func (l *local) Set(ctx context.Context, req *configsv1.SetRequest, _ ...grpc.CallOption) (*configsv1.SetResponse, error) {
	ctx, span := tracer.Start(ctx, "config.Set")
	span.SetAttributes(attribute.String("config.name", req.Name))
	defer span.End()

	if len(req.Value) == 0 {
		return nil, status.Errorf(codes.InvalidArgument, "value of %s is required", req.Name)
	}

	c, created, err := l.manager.Set(ctx, req.Name, req.Value)
	if err != nil {
		return nil, l.handleError(err, "couldn't SET config", "name", req.Name)
	}

	desc := fmt.Sprintf("Config %s set to %s", req.Name, c.Value)
	err = l.exchange.Publish(ctx, eventsv1.EventType_ConfigChanged, events.NewEvent(ctx, eventsv1.EventType_ConfigChanged, "", desc, c))
	if err != nil {
		return nil, l.handleError(err, "error publishing event", "name", req.Name)
	}

	return &configsv1.SetResponse{
		Config:  c,
		Created: created,
	}, nil
}

func (l *local) List(ctx context.Context, _ *configsv1.ListRequest, _ ...grpc.CallOption) (*configsv1.ListResponse, error) {
	ctx, span := tracer.Start(ctx, "config.List")
	defer span.End()

	configs, err := l.manager.List(ctx)
	if err != nil {
		return nil, l.handleError(err, "couldn't LIST configs")
	}
	return &configsv1.ListResponse{
		Configs: configs,
	}, nil
}
