package script

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/pkg/scriptresult"
	"github.com/amimof/metal/services"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
)

var nameRegexp = regexp.MustCompile(`^[\w.-]+$`)

type local struct {
	scripts  repository.ScriptRepository
	sets     repository.ScriptSetRepository
	results  repository.ScriptResultRepository
	nodes    repository.NodeRepository
	store    *scriptresult.Store
	mu       sync.Mutex
	exchange *events.Exchange
	logger   logger.Logger
}

var (
	_      scriptsv1.ScriptServiceClient = &local{}
	tracer                               = otel.GetTracerProvider().Tracer("metal-server")
)

func (l *local) handleError(err error, msg string, keysAndValues ...any) error {
	var verr *scriptresult.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, scriptresult.ErrResultLocked):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return services.HandleError(l.logger, err, msg, keysAndValues...)
}

func (l *local) CreateScript(ctx context.Context, req *scriptsv1.CreateScriptRequest, _ ...grpc.CallOption) (*scriptsv1.CreateScriptResponse, error) {
	ctx, span := tracer.Start(ctx, "script.CreateScript")
	defer span.End()

	script := req.Script
	if script == nil || script.Meta == nil {
		return nil, status.Error(codes.InvalidArgument, "script is required")
	}
	name := script.GetName()
	if !nameRegexp.MatchString(name) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid script name %q", name)
	}
	switch script.ScriptType {
	case "":
		script.ScriptType = scriptsv1.ScriptTypeCommissioning
	case scriptsv1.ScriptTypeCommissioning, scriptsv1.ScriptTypeTesting:
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown script type %q", script.ScriptType)
	}
	span.SetAttributes(attribute.String("script.name", name))

	l.mu.Lock()
	defer l.mu.Unlock()

	scriptList, err := l.scripts.List(ctx)
	if err != nil {
		return nil, l.handleError(err, "couldn't LIST scripts from repo")
	}
	script.ID = 0
	for _, s := range scriptList {
		if s.GetName() == name {
			return nil, status.Errorf(codes.AlreadyExists, "script %s already exists", name)
		}
		script.ID = max(script.ID, s.ID)
	}
	script.ID++

	now := time.Now().UTC()
	script.Versions = []*scriptsv1.ScriptVersion{{ID: 1, Data: req.Data, Created: now}}
	script.Meta.Revision = 0
	if err := services.EnsureMeta(script); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := l.scripts.Create(ctx, script); err != nil {
		return nil, l.handleError(err, "couldn't CREATE script in repo", "name", name)
	}
	return &scriptsv1.CreateScriptResponse{
		Script: script,
	}, nil
}

func (l *local) GetScript(ctx context.Context, req *scriptsv1.GetScriptRequest, _ ...grpc.CallOption) (*scriptsv1.GetScriptResponse, error) {
	ctx, span := tracer.Start(ctx, "script.GetScript", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("service", "Script"),
		attribute.String("script.name", req.Name),
	)
	defer span.End()

	script, err := l.scripts.Get(ctx, req.Name)
	if err != nil {
		span.RecordError(err)
		return nil, l.handleError(err, "couldn't GET script from repo", "name", req.Name)
	}
	return &scriptsv1.GetScriptResponse{
		Script: script,
	}, nil
}

func (l *local) ListScripts(ctx context.Context, req *scriptsv1.ListScriptsRequest, _ ...grpc.CallOption) (*scriptsv1.ListScriptsResponse, error) {
	ctx, span := tracer.Start(ctx, "script.ListScripts")
	defer span.End()

	scriptList, err := l.scripts.List(ctx)
	if err != nil {
		return nil, l.handleError(err, "couldn't LIST scripts from repo")
	}
	return &scriptsv1.ListScriptsResponse{
		Scripts: scriptList,
	}, nil
}

// UpdateScript stores new contents as the latest version of a script
func (l *local) UpdateScript(ctx context.Context, req *scriptsv1.UpdateScriptRequest, _ ...grpc.CallOption) (*scriptsv1.UpdateScriptResponse, error) {
	ctx, span := tracer.Start(ctx, "script.UpdateScript")
	span.SetAttributes(attribute.String("script.name", req.Name))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	script, err := l.scripts.Get(ctx, req.Name)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET script from repo", "name", req.Name)
	}

	next := 1
	if current := script.Current(); current != nil {
		if current.Data == req.Data {
			return &scriptsv1.UpdateScriptResponse{Script: script}, nil
		}
		next = current.ID + 1
	}
	script.Versions = append(script.Versions, &scriptsv1.ScriptVersion{ID: next, Data: req.Data, Created: time.Now().UTC()})

	if err := services.EnsureMeta(script); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := l.scripts.Update(ctx, script); err != nil {
		return nil, l.handleError(err, "couldn't UPDATE script in repo", "name", req.Name)
	}
	return &scriptsv1.UpdateScriptResponse{
		Script: script,
	}, nil
}

// CreateScriptSet starts a run on a node with one pending result per script
func (l *local) CreateScriptSet(ctx context.Context, req *scriptsv1.CreateScriptSetRequest, _ ...grpc.CallOption) (*scriptsv1.CreateScriptSetResponse, error) {
	ctx, span := tracer.Start(ctx, "script.CreateScriptSet")
	span.SetAttributes(
		attribute.String("node.id", req.NodeID),
		attribute.String("scriptset.result_type", req.ResultType.String()),
	)
	defer span.End()

	if req.ResultType.String() == "Unknown" {
		return nil, status.Errorf(codes.InvalidArgument, "unknown result type %d", req.ResultType)
	}
	if _, err := l.nodes.Get(ctx, req.NodeID); err != nil {
		return nil, l.handleError(err, "couldn't GET node from repo", "name", req.NodeID)
	}

	scripts := make([]*scriptsv1.Script, 0, len(req.Scripts))
	for _, name := range req.Scripts {
		script, err := l.scripts.Get(ctx, name)
		if err != nil {
			return nil, l.handleError(err, "couldn't GET script from repo", "name", name)
		}
		scripts = append(scripts, script)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	set := &scriptsv1.ScriptSet{
		Meta:       &types.Meta{Name: uuid.New().String()},
		NodeID:     req.NodeID,
		ResultType: req.ResultType,
	}
	if err := services.EnsureMeta(set); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := l.sets.Create(ctx, set); err != nil {
		return nil, l.handleError(err, "couldn't CREATE script set in repo", "node", req.NodeID)
	}

	results := make([]*scriptsv1.ScriptResult, 0, len(scripts))
	for _, script := range scripts {
		res := &scriptsv1.ScriptResult{
			Meta:        &types.Meta{Name: uuid.New().String()},
			ScriptSetID: set.ID(),
			ScriptID:    script.ID,
			ScriptName:  script.GetName(),
			Parameters:  req.Parameters,
			Status:      scriptsv1.StatusPending,
		}
		if err := services.EnsureMeta(res); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		if err := l.results.Create(ctx, res); err != nil {
			return nil, l.handleError(err, "couldn't CREATE script result in repo", "script", script.GetName())
		}
		results = append(results, res)
	}

	return &scriptsv1.CreateScriptSetResponse{
		ScriptSet: set,
		Results:   results,
	}, nil
}

func (l *local) GetScriptSet(ctx context.Context, req *scriptsv1.GetScriptSetRequest, _ ...grpc.CallOption) (*scriptsv1.GetScriptSetResponse, error) {
	ctx, span := tracer.Start(ctx, "script.GetScriptSet")
	span.SetAttributes(attribute.String("scriptset.id", req.Id))
	defer span.End()

	set, err := l.sets.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET script set from repo", "id", req.Id)
	}
	return &scriptsv1.GetScriptSetResponse{
		ScriptSet: set,
	}, nil
}

// ListScriptSets returns script sets oldest first, limited to one node when NodeID is set
func (l *local) ListScriptSets(ctx context.Context, req *scriptsv1.ListScriptSetsRequest, _ ...grpc.CallOption) (*scriptsv1.ListScriptSetsResponse, error) {
	ctx, span := tracer.Start(ctx, "script.ListScriptSets")
	span.SetAttributes(attribute.String("node.id", req.NodeID))
	defer span.End()

	setList, err := l.sets.List(ctx)
	if err != nil {
		return nil, l.handleError(err, "couldn't LIST script sets from repo")
	}
	res := []*scriptsv1.ScriptSet{}
	for _, set := range setList {
		if req.NodeID == "" || set.NodeID == req.NodeID {
			res = append(res, set)
		}
	}
	slices.SortStableFunc(res, func(a, b *scriptsv1.ScriptSet) int {
		return a.GetMeta().GetCreated().Compare(b.GetMeta().GetCreated())
	})
	return &scriptsv1.ListScriptSetsResponse{
		ScriptSets: res,
	}, nil
}

func (l *local) GetResult(ctx context.Context, req *scriptsv1.GetResultRequest, _ ...grpc.CallOption) (*scriptsv1.GetResultResponse, error) {
	ctx, span := tracer.Start(ctx, "script.GetResult")
	span.SetAttributes(attribute.String("scriptresult.id", req.Id))
	defer span.End()

	res, err := l.results.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET script result from repo", "id", req.Id)
	}
	return &scriptsv1.GetResultResponse{
		Result: res,
	}, nil
}

// ListResults returns the results of a script set ordered by script name
func (l *local) ListResults(ctx context.Context, req *scriptsv1.ListResultsRequest, _ ...grpc.CallOption) (*scriptsv1.ListResultsResponse, error) {
	ctx, span := tracer.Start(ctx, "script.ListResults")
	span.SetAttributes(attribute.String("scriptset.id", req.ScriptSetID))
	defer span.End()

	if _, err := l.sets.Get(ctx, req.ScriptSetID); err != nil {
		return nil, l.handleError(err, "couldn't GET script set from repo", "id", req.ScriptSetID)
	}

	resultList, err := l.results.List(ctx)
	if err != nil {
		return nil, l.handleError(err, "couldn't LIST script results from repo")
	}
	res := []*scriptsv1.ScriptResult{}
	for _, r := range resultList {
		if r.ScriptSetID == req.ScriptSetID {
			res = append(res, r)
		}
	}
	slices.SortStableFunc(res, func(a, b *scriptsv1.ScriptResult) int {
		return cmp.Compare(a.Name(), b.Name())
	})
	return &scriptsv1.ListResultsResponse{
		Results: res,
	}, nil
}

// SetStatus moves a result into one of the states a running node reports
func (l *local) SetStatus(ctx context.Context, req *scriptsv1.SetStatusRequest, _ ...grpc.CallOption) (*scriptsv1.SetStatusResponse, error) {
	ctx, span := tracer.Start(ctx, "script.SetStatus")
	span.SetAttributes(
		attribute.String("scriptresult.id", req.Id),
		attribute.String("scriptresult.status", req.Status.String()),
	)
	defer span.End()

	switch req.Status {
	case scriptsv1.StatusRunning, scriptsv1.StatusInstalling, scriptsv1.StatusAborted:
	default:
		return nil, status.Errorf(codes.InvalidArgument, "status can not be set to %s", req.Status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.results.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET script result from repo", "id", req.Id)
	}

	res.Status = req.Status
	l.store.BeforeSave(res)
	if err := services.EnsureMeta(res); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := l.results.Update(ctx, res); err != nil {
		return nil, l.handleError(err, "couldn't UPDATE script result in repo", "id", req.Id)
	}
	return &scriptsv1.SetStatusResponse{
		Result: res,
	}, nil
}

// StoreResult records the outcome a node uploaded for one of its scripts
func (l *local) StoreResult(ctx context.Context, req *scriptsv1.StoreResultRequest, _ ...grpc.CallOption) (*scriptsv1.StoreResultResponse, error) {
	ctx, span := tracer.Start(ctx, "script.StoreResult")
	span.SetAttributes(attribute.String("scriptresult.id", req.Id))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.results.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET script result from repo", "id", req.Id)
	}
	set, err := l.sets.Get(ctx, res.ScriptSetID)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET script set from repo", "id", res.ScriptSetID)
	}
	node, err := l.nodes.Get(ctx, set.NodeID)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET node from repo", "name", set.NodeID)
	}

	var script *scriptsv1.Script
	if res.ScriptID != 0 {
		script, err = l.scripts.Get(ctx, res.ScriptName)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, l.handleError(err, "couldn't GET script from repo", "name", res.ScriptName)
		}
		if script != nil && script.ID != res.ScriptID {
			script = nil
		}
	}

	span.SetAttributes(
		attribute.String("node.id", node.SystemID()),
		attribute.String("script.name", res.Name()),
	)

	err = l.store.StoreResult(ctx, node, set, script, res, scriptresult.Args{
		ExitStatus:      req.ExitStatus,
		Output:          req.Output,
		Stdout:          req.Stdout,
		Stderr:          req.Stderr,
		Result:          req.Result,
		ScriptVersionID: req.ScriptVersionID,
		TimedOut:        req.TimedOut,
	})
	if err != nil {
		span.RecordError(err)
		return nil, l.handleError(err, "couldn't store script result", "result", scriptresult.String(node, res))
	}

	if err := services.EnsureMeta(res); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := l.results.Update(ctx, res); err != nil {
		return nil, l.handleError(err, "couldn't UPDATE script result in repo", "id", req.Id)
	}

	t := eventsv1.EventType_ScriptResultStored
	desc := fmt.Sprintf("Script result %s stored with status %s", scriptresult.String(node, res), res.Status)
	if err := l.exchange.Publish(ctx, t, events.NewEvent(ctx, t, node.SystemID(), desc, res)); err != nil {
		return nil, l.handleError(err, "error publishing event", "id", req.Id, "event", t.String())
	}

	return &scriptsv1.StoreResultResponse{
		Result: res,
	}, nil
}

// ReadResults parses the YAML result document stored on a result
func (l *local) ReadResults(ctx context.Context, req *scriptsv1.ReadResultsRequest, _ ...grpc.CallOption) (*scriptsv1.ReadResultsResponse, error) {
	ctx, span := tracer.Start(ctx, "script.ReadResults")
	span.SetAttributes(attribute.String("scriptresult.id", req.Id))
	defer span.End()

	res, err := l.results.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET script result from repo", "id", req.Id)
	}
	parsed, err := scriptresult.ReadResults(res.Result)
	if err != nil {
		return nil, l.handleError(err, "couldn't read script results", "id", req.Id)
	}
	return &scriptsv1.ReadResultsResponse{
		Parsed: parsed,
	}, nil
}
