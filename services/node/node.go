// Package node provides the server implementation of the node service
package node

import (
	"context"

	"google.golang.org/grpc"

	"github.com/amimof/metal/pkg/config"
	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/pkg/tagging"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

const Version string = "node/v1"

type NewServiceOption func(s *NodeService)

func WithLogger(l logger.Logger) NewServiceOption {
	return func(s *NodeService) {
		s.logger = l
	}
}

func WithExchange(e *events.Exchange) NewServiceOption {
	return func(s *NodeService) {
		s.exchange = e
	}
}

// WithTagRepo enables re-evaluating defined tags when hardware details change
func WithTagRepo(r repository.TagRepository) NewServiceOption {
	return func(s *NodeService) {
		s.tags = r
	}
}

// WithZoneRepo makes the service reject nodes in zones that do not exist
func WithZoneRepo(r repository.ZoneRepository) NewServiceOption {
	return func(s *NodeService) {
		s.zones = r
	}
}

// WithConfig reads enlistment_domain from m for nodes created without a domain
func WithConfig(m *config.Manager) NewServiceOption {
	return func(s *NodeService) {
		s.config = m
	}
}

func WithEvaluator(e *tagging.Evaluator) NewServiceOption {
	return func(s *NodeService) {
		s.evaluator = e
	}
}

type NodeService struct {
	local     nodesv1.NodeServiceClient
	logger    logger.Logger
	exchange  *events.Exchange
	tags      repository.TagRepository
	zones     repository.ZoneRepository
	config    *config.Manager
	evaluator *tagging.Evaluator
}

var _ nodesv1.NodeServiceServer = &NodeService{}

func (n *NodeService) Register(server *grpc.Server) error {
	nodesv1.RegisterNodeServiceServer(server, n)
	return nil
}

// Local returns the in-process client of the service
func (n *NodeService) Local() nodesv1.NodeServiceClient {
	return n.local
}

func (n *NodeService) Get(ctx context.Context, req *nodesv1.GetRequest) (*nodesv1.GetResponse, error) {
	return n.local.Get(ctx, req)
}

func (n *NodeService) List(ctx context.Context, req *nodesv1.ListRequest) (*nodesv1.ListResponse, error) {
	return n.local.List(ctx, req)
}

func (n *NodeService) Create(ctx context.Context, req *nodesv1.CreateRequest) (*nodesv1.CreateResponse, error) {
	return n.local.Create(ctx, req)
}

func (n *NodeService) Update(ctx context.Context, req *nodesv1.UpdateRequest) (*nodesv1.UpdateResponse, error) {
	return n.local.Update(ctx, req)
}

func (n *NodeService) Patch(ctx context.Context, req *nodesv1.PatchRequest) (*nodesv1.PatchResponse, error) {
	return n.local.Patch(ctx, req)
}

func (n *NodeService) Delete(ctx context.Context, req *nodesv1.DeleteRequest) (*nodesv1.DeleteResponse, error) {
	return n.local.Delete(ctx, req)
}

func (n *NodeService) UpdateHardwareDetails(ctx context.Context, req *nodesv1.UpdateHardwareDetailsRequest) (*nodesv1.UpdateHardwareDetailsResponse, error) {
	return n.local.UpdateHardwareDetails(ctx, req)
}

func NewService(repo repository.NodeRepository, opts ...NewServiceOption) *NodeService {
	s := &NodeService{
		logger: logger.ConsoleLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.exchange == nil {
		s.exchange = events.NewExchange(events.WithLogger(s.logger))
	}
	if s.evaluator == nil {
		s.evaluator = tagging.NewEvaluator(tagging.WithLogger(s.logger))
	}

	s.local = &local{
		repo:      repo,
		tags:      s.tags,
		zones:     s.zones,
		config:    s.config,
		evaluator: s.evaluator,
		exchange:  s.exchange,
		logger:    s.logger,
	}

	return s
}
