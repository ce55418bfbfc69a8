// Package config provides the server implementation of the config service
package config

import (
	"context"

	"google.golang.org/grpc"

	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"

	configsv1 "github.com/amimof/metal/api/services/configs/v1"
	settings "github.com/amimof/metal/pkg/config"
)

const Version string = "config/v1"

type NewServiceOption func(s *ConfigService)

func WithLogger(l logger.Logger) NewServiceOption {
	return func(s *ConfigService) {
		s.logger = l
	}
}

func WithExchange(e *events.Exchange) NewServiceOption {
	return func(s *ConfigService) {
		s.exchange = e
	}
}

type ConfigService struct {
	local    configsv1.ConfigServiceClient
	logger   logger.Logger
	exchange *events.Exchange
}

var _ configsv1.ConfigServiceServer = &ConfigService{}

func (s *ConfigService) Register(server *grpc.Server) error {
	configsv1.RegisterConfigServiceServer(server, s)
	return nil
}

func (s *ConfigService) Local() configsv1.ConfigServiceClient {
	return s.local
}

func (s *ConfigService) Get(ctx context.Context, req *configsv1.GetRequest) (*configsv1.GetResponse, error) {
	return s.local.Get(ctx, req)
}

func (s *ConfigService) Set(ctx context.Context, req *configsv1.SetRequest) (*configsv1.SetResponse, error) {
	return s.local.Set(ctx, req)
}

func (s *ConfigService) List(ctx context.Context, req *configsv1.ListRequest) (*configsv1.ListResponse, error) {
	return s.local.List(ctx, req)
}

func NewService(manager *settings.Manager, opts ...NewServiceOption) *ConfigService {
	s := &ConfigService{
		logger: logger.ConsoleLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.exchange == nil {
		s.exchange = events.NewExchange(events.WithLogger(s.logger))
	}

	s.local = &local{
		manager:  manager,
		exchange: s.exchange,
		logger:   s.logger,
	}

	return s
}
