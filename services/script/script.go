// Package script provides the server implementation of the script service,
// which tracks scripts and the results nodes upload for them.
package script

import (
	"context"

	"google.golang.org/grpc"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/pkg/scriptresult"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
	errdefs "github.com/amimof/metal/pkg/errors"
)

const Version string = "script/v1"

type NewServiceOption func(s *ScriptService)

func WithLogger(l logger.Logger) NewServiceOption {
	return func(s *ScriptService) {
		s.logger = l
	}
}

func WithExchange(e *events.Exchange) NewServiceOption {
	return func(s *ScriptService) {
		s.exchange = e
	}
}

// WithStore sets the store applying uploaded results, typically one carrying
// the node-info hooks.
func WithStore(st *scriptresult.Store) NewServiceOption {
	return func(s *ScriptService) {
		s.store = st
	}
}

type ScriptService struct {
	local    scriptsv1.ScriptServiceClient
	logger   logger.Logger
	exchange *events.Exchange
	store    *scriptresult.Store
}

var _ scriptsv1.ScriptServiceServer = &ScriptService{}

func (s *ScriptService) Register(server *grpc.Server) error {
	scriptsv1.RegisterScriptServiceServer(server, s)
	return nil
}

// Local returns the in-process client of the service
func (s *ScriptService) Local() scriptsv1.ScriptServiceClient {
	return s.local
}

func (s *ScriptService) CreateScript(ctx context.Context, req *scriptsv1.CreateScriptRequest) (*scriptsv1.CreateScriptResponse, error) {
	return s.local.CreateScript(ctx, req)
}

func (s *ScriptService) GetScript(ctx context.Context, req *scriptsv1.GetScriptRequest) (*scriptsv1.GetScriptResponse, error) {
	return s.local.GetScript(ctx, req)
}

func (s *ScriptService) ListScripts(ctx context.Context, req *scriptsv1.ListScriptsRequest) (*scriptsv1.ListScriptsResponse, error) {
	return s.local.ListScripts(ctx, req)
}

func (s *ScriptService) UpdateScript(ctx context.Context, req *scriptsv1.UpdateScriptRequest) (*scriptsv1.UpdateScriptResponse, error) {
	return s.local.UpdateScript(ctx, req)
}

func (s *ScriptService) CreateScriptSet(ctx context.Context, req *scriptsv1.CreateScriptSetRequest) (*scriptsv1.CreateScriptSetResponse, error) {
	return s.local.CreateScriptSet(ctx, req)
}

func (s *ScriptService) GetScriptSet(ctx context.Context, req *scriptsv1.GetScriptSetRequest) (*scriptsv1.GetScriptSetResponse, error) {
	return s.local.GetScriptSet(ctx, req)
}

func (s *ScriptService) ListScriptSets(ctx context.Context, req *scriptsv1.ListScriptSetsRequest) (*scriptsv1.ListScriptSetsResponse, error) {
	return s.local.ListScriptSets(ctx, req)
}

func (s *ScriptService) GetResult(ctx context.Context, req *scriptsv1.GetResultRequest) (*scriptsv1.GetResultResponse, error) {
	return s.local.GetResult(ctx, req)
}

func (s *ScriptService) ListResults(ctx context.Context, req *scriptsv1.ListResultsRequest) (*scriptsv1.ListResultsResponse, error) {
	return s.local.ListResults(ctx, req)
}

func (s *ScriptService) SetStatus(ctx context.Context, req *scriptsv1.SetStatusRequest) (*scriptsv1.SetStatusResponse, error) {
	return s.local.SetStatus(ctx, req)
}

func (s *ScriptService) StoreResult(ctx context.Context, req *scriptsv1.StoreResultRequest) (*scriptsv1.StoreResultResponse, error) {
	return s.local.StoreResult(ctx, req)
}

func (s *ScriptService) ReadResults(ctx context.Context, req *scriptsv1.ReadResultsRequest) (*scriptsv1.ReadResultsResponse, error) {
	return s.local.ReadResults(ctx, req)
}

// EventRecorder publishes SCRIPT_RESULT_ERROR node events on e
func EventRecorder(e *events.Exchange, log logger.Logger) scriptresult.ErrorRecorder {
	return func(ctx context.Context, node *nodesv1.Node, description string) {
		t := eventsv1.EventType_ScriptResultError
		if err := e.Publish(ctx, t, events.NewEvent(ctx, t, node.SystemID(), description, nil)); err != nil {
			log.Error("error publishing event", "error", err, "node", node.SystemID(), "event", t.String())
		}
	}
}

var builtinScripts = []struct {
	name, description, data string
}{
	{
		name:        scriptresult.LSHWScript,
		description: "Dump the hardware inventory of the node as lshw XML",
		data:        "#!/bin/sh\nexec lshw -xml\n",
	},
	{
		name:        scriptresult.VirtualityScript,
		description: "Detect the virtualization technology the node runs under",
		data:        "#!/bin/sh\nsystemd-detect-virt || true\n",
	},
}

// EnsureBuiltin creates the built-in commissioning scripts that are missing
func (s *ScriptService) EnsureBuiltin(ctx context.Context) error {
	for _, b := range builtinScripts {
		_, err := s.local.GetScript(ctx, &scriptsv1.GetScriptRequest{Name: b.name})
		if err == nil {
			continue
		}
		if !errdefs.IsNotFound(err) {
			return err
		}
		_, err = s.local.CreateScript(ctx, &scriptsv1.CreateScriptRequest{
			Script: &scriptsv1.Script{
				Meta:        &types.Meta{Name: b.name},
				ScriptType:  scriptsv1.ScriptTypeCommissioning,
				Description: b.description,
			},
			Data: b.data,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func NewService(scripts repository.ScriptRepository, sets repository.ScriptSetRepository, results repository.ScriptResultRepository, nodes repository.NodeRepository, opts ...NewServiceOption) *ScriptService {
	s := &ScriptService{
		logger: logger.ConsoleLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.exchange == nil {
		s.exchange = events.NewExchange(events.WithLogger(s.logger))
	}
	if s.store == nil {
		s.store = scriptresult.NewStore(
			scriptresult.WithLogger(s.logger),
			scriptresult.WithErrorRecorder(EventRecorder(s.exchange, s.logger)),
		)
	}

	s.local = &local{
		scripts:  scripts,
		sets:     sets,
		results:  results,
		nodes:    nodes,
		store:    s.store,
		exchange: s.exchange,
		logger:   s.logger,
	}

	return s
}

