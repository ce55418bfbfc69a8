// Package zone provides the server implementation of the zone service
package zone

import (
	"context"

	"google.golang.org/grpc"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"

	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
	errdefs "github.com/amimof/metal/pkg/errors"
)

const Version string = "zone/v1"

type NewServiceOption func(s *ZoneService)

func WithLogger(l logger.Logger) NewServiceOption {
	return func(s *ZoneService) {
		s.logger = l
	}
}

func WithExchange(e *events.Exchange) NewServiceOption {
	return func(s *ZoneService) {
		s.exchange = e
	}
}

type ZoneService struct {
	local    zonesv1.ZoneServiceClient
	logger   logger.Logger
	exchange *events.Exchange
}

var _ zonesv1.ZoneServiceServer = &ZoneService{}

func (s *ZoneService) Register(server *grpc.Server) error {
	zonesv1.RegisterZoneServiceServer(server, s)
	return nil
}

// Local returns the in-process client of the service
func (s *ZoneService) Local() zonesv1.ZoneServiceClient {
	return s.local
}

func (s *ZoneService) Create(ctx context.Context, req *zonesv1.CreateRequest) (*zonesv1.CreateResponse, error) {
	return s.local.Create(ctx, req)
}

func (s *ZoneService) Get(ctx context.Context, req *zonesv1.GetRequest) (*zonesv1.GetResponse, error) {
	return s.local.Get(ctx, req)
}

func (s *ZoneService) List(ctx context.Context, req *zonesv1.ListRequest) (*zonesv1.ListResponse, error) {
	return s.local.List(ctx, req)
}

func (s *ZoneService) Update(ctx context.Context, req *zonesv1.UpdateRequest) (*zonesv1.UpdateResponse, error) {
	return s.local.Update(ctx, req)
}

func (s *ZoneService) Patch(ctx context.Context, req *zonesv1.PatchRequest) (*zonesv1.PatchResponse, error) {
	return s.local.Patch(ctx, req)
}

func (s *ZoneService) Delete(ctx context.Context, req *zonesv1.DeleteRequest) (*zonesv1.DeleteResponse, error) {
	return s.local.Delete(ctx, req)
}

// EnsureDefault creates the default zone unless it already exists
func (s *ZoneService) EnsureDefault(ctx context.Context) error {
	_, err := s.local.Get(ctx, &zonesv1.GetRequest{Id: zonesv1.DefaultZoneName})
	if !errdefs.IsNotFound(err) {
		return err
	}
	_, err = s.local.Create(ctx, &zonesv1.CreateRequest{Zone: &zonesv1.Zone{
		Meta: &types.Meta{Name: zonesv1.DefaultZoneName},
	}})
	return err
}

func NewService(repo repository.ZoneRepository, nodes repository.NodeRepository, opts ...NewServiceOption) *ZoneService {
	s := &ZoneService{
		logger: logger.ConsoleLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.exchange == nil {
		s.exchange = events.NewExchange(events.WithLogger(s.logger))
	}

	s.local = &local{
		repo:     repo,
		nodes:    nodes,
		exchange: s.exchange,
		logger:   s.logger,
	}

	return s
}
