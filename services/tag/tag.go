// Package tag provides the server implementation of the tag service
package tag

import (
	"context"

	"google.golang.org/grpc"

	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/pkg/tagging"

	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
)

const Version string = "tag/v1"

type NewServiceOption func(s *TagService)

func WithLogger(l logger.Logger) NewServiceOption {
	return func(s *TagService) {
		s.logger = l
	}
}

func WithExchange(e *events.Exchange) NewServiceOption {
	return func(s *TagService) {
		s.exchange = e
	}
}

func WithEvaluator(e *tagging.Evaluator) NewServiceOption {
	return func(s *TagService) {
		s.evaluator = e
	}
}

type TagService struct {
	local     tagsv1.TagServiceClient
	logger    logger.Logger
	exchange  *events.Exchange
	evaluator *tagging.Evaluator
}

var _ tagsv1.TagServiceServer = &TagService{}

func (s *TagService) Register(server *grpc.Server) error {
	tagsv1.RegisterTagServiceServer(server, s)
	return nil
}

// Local returns the in-process client of the service
func (s *TagService) Local() tagsv1.TagServiceClient {
	return s.local
}

func (s *TagService) Create(ctx context.Context, req *tagsv1.CreateRequest) (*tagsv1.CreateResponse, error) {
	return s.local.Create(ctx, req)
}

func (s *TagService) Get(ctx context.Context, req *tagsv1.GetRequest) (*tagsv1.GetResponse, error) {
	return s.local.Get(ctx, req)
}

func (s *TagService) List(ctx context.Context, req *tagsv1.ListRequest) (*tagsv1.ListResponse, error) {
	return s.local.List(ctx, req)
}

func (s *TagService) Update(ctx context.Context, req *tagsv1.UpdateRequest) (*tagsv1.UpdateResponse, error) {
	return s.local.Update(ctx, req)
}

func (s *TagService) Patch(ctx context.Context, req *tagsv1.PatchRequest) (*tagsv1.PatchResponse, error) {
	return s.local.Patch(ctx, req)
}

func (s *TagService) Delete(ctx context.Context, req *tagsv1.DeleteRequest) (*tagsv1.DeleteResponse, error) {
	return s.local.Delete(ctx, req)
}

func (s *TagService) ListNodes(ctx context.Context, req *tagsv1.ListNodesRequest) (*tagsv1.ListNodesResponse, error) {
	return s.local.ListNodes(ctx, req)
}

func (s *TagService) UpdateNodes(ctx context.Context, req *tagsv1.UpdateNodesRequest) (*tagsv1.UpdateNodesResponse, error) {
	return s.local.UpdateNodes(ctx, req)
}

func (s *TagService) Rebuild(ctx context.Context, req *tagsv1.RebuildRequest) (*tagsv1.RebuildResponse, error) {
	return s.local.Rebuild(ctx, req)
}

func NewService(repo repository.TagRepository, nodes repository.NodeRepository, opts ...NewServiceOption) *TagService {
	s := &TagService{
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
		nodes:     nodes,
		evaluator: s.evaluator,
		exchange:  s.exchange,
		logger:    s.logger,
	}

	return s
}
