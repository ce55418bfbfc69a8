package tag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	jsonpatch "github.com/evanphx/json-patch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/pkg/tagging"
	"github.com/amimof/metal/services"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
)

type local struct {
	repo      repository.TagRepository
	nodes     repository.NodeRepository
	evaluator *tagging.Evaluator
	mu        sync.Mutex
	exchange  *events.Exchange
	logger    logger.Logger
}

var (
	_      tagsv1.TagServiceClient = &local{}
	tracer                         = otel.GetTracerProvider().Tracer("metal-server")
)

func (l *local) handleError(err error, msg string, keysAndValues ...any) error {
	if errors.Is(err, tagging.ErrInvalidDefinition) || errors.Is(err, tagging.ErrInvalidName) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return services.HandleError(l.logger, err, msg, keysAndValues...)
}

func (l *local) publish(ctx context.Context, t eventsv1.EventType, tag *tagsv1.Tag, description string) error {
	err := l.exchange.Publish(ctx, t, events.NewEvent(ctx, t, "", description, tag))
	if err != nil {
		return l.handleError(err, "error publishing event", "name", tag.GetName(), "event", t.String())
	}
	return nil
}

func validate(tag *tagsv1.Tag) error {
	if err := tagging.ValidateName(tag.GetName()); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := tagging.ValidateDefinition(tag.Definition); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// populate applies a defined tag to exactly the nodes matching its
// definition. Undefined tags keep their manual membership.
func (l *local) populate(ctx context.Context, txn *nodeTxn, tag *tagsv1.Tag) (int, error) {
	if !tag.IsDefined() {
		return 0, nil
	}
	nodeList, err := l.nodes.List(ctx)
	if err != nil {
		return 0, err
	}
	matched, err := l.evaluator.Matching(ctx, tag.Definition, nodeList)
	if err != nil {
		return 0, err
	}
	want := make(map[string]bool, len(matched))
	for _, id := range matched {
		want[id] = true
	}

	name := tag.GetName()
	err = txn.each(ctx, func(node *nodesv1.Node) bool {
		if want[node.SystemID()] {
			return node.AddTag(name)
		}
		return node.RemoveTag(name)
	})
	return len(matched), err
}

func (l *local) Get(ctx context.Context, req *tagsv1.GetRequest, _ ...grpc.CallOption) (*tagsv1.GetResponse, error) {
	ctx, span := tracer.Start(ctx, "tag.Get", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("service", "Tag"),
		attribute.String("tag.id", req.Id),
	)
	defer span.End()

	tag, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		span.RecordError(err)
		return nil, l.handleError(err, "couldn't GET tag from repo", "name", req.Id)
	}
	return &tagsv1.GetResponse{
		Tag: tag,
	}, nil
}

func (l *local) List(ctx context.Context, req *tagsv1.ListRequest, _ ...grpc.CallOption) (*tagsv1.ListResponse, error) {
	ctx, span := tracer.Start(ctx, "tag.List")
	defer span.End()

	tagList, err := l.repo.List(ctx)
	if err != nil {
		return nil, l.handleError(err, "couldn't LIST tags from repo")
	}
	return &tagsv1.ListResponse{
		Tags: tagList,
	}, nil
}

// Create stores a tag and applies it to the nodes matching its definition.
// An invalid definition stores nothing.
func (l *local) Create(ctx context.Context, req *tagsv1.CreateRequest, _ ...grpc.CallOption) (*tagsv1.CreateResponse, error) {
	ctx, span := tracer.Start(ctx, "tag.Create")
	defer span.End()

	tag := req.Tag
	if tag == nil || tag.Meta == nil {
		return nil, status.Error(codes.InvalidArgument, "tag is required")
	}
	if err := validate(tag); err != nil {
		return nil, err
	}
	name := tag.GetName()
	span.SetAttributes(attribute.String("tag.id", name))

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, _ := l.repo.Get(ctx, name); existing != nil {
		return nil, status.Errorf(codes.AlreadyExists, "tag %s already exists", name)
	}

	tag.Meta.Revision = 0
	if err := services.EnsureMeta(tag); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := l.repo.Create(ctx, tag); err != nil {
		return nil, l.handleError(err, "couldn't CREATE tag in repo", "name", name)
	}

	txn := newNodeTxn(l.nodes, l.logger)
	matched, err := l.populate(ctx, txn, tag)
	if err != nil {
		txn.rollback(ctx)
		if derr := l.repo.Delete(ctx, name); derr != nil {
			l.logger.Error("couldn't remove tag after failed populate", "name", name, "error", derr)
		}
		span.RecordError(err)
		return nil, l.handleError(err, "couldn't populate tag", "name", name)
	}

	if err := l.publish(ctx, eventsv1.EventType_TagCreated, tag, fmt.Sprintf("Tag %s created", name)); err != nil {
		return nil, err
	}
	if tag.IsDefined() {
		if err := l.publish(ctx, eventsv1.EventType_TagPopulated, tag, fmt.Sprintf("Tag %s applied to %d nodes", name, matched)); err != nil {
			return nil, err
		}
	}

	return &tagsv1.CreateResponse{
		Tag: tag,
	}, nil
}

func (l *local) Update(ctx context.Context, req *tagsv1.UpdateRequest, _ ...grpc.CallOption) (*tagsv1.UpdateResponse, error) {
	ctx, span := tracer.Start(ctx, "tag.Update")
	span.SetAttributes(attribute.String("tag.id", req.Id))
	defer span.End()

	if req.Tag == nil {
		return nil, status.Error(codes.InvalidArgument, "tag is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET tag from repo", "name", req.Id)
	}

	updated := *existing
	meta := *existing.Meta
	updated.Meta = &meta
	if name := req.Tag.GetName(); name != "" {
		updated.Meta.Name = name
	}
	updated.Definition = req.Tag.Definition
	updated.Comment = req.Tag.Comment
	updated.KernelOpts = req.Tag.KernelOpts
	if req.Tag.Meta != nil {
		updated.Meta.Labels = req.Tag.Meta.Labels
	}

	tag, err := l.apply(ctx, existing, &updated)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &tagsv1.UpdateResponse{
		Tag: tag,
	}, nil
}

func (l *local) Patch(ctx context.Context, req *tagsv1.PatchRequest, _ ...grpc.CallOption) (*tagsv1.PatchResponse, error) {
	ctx, span := tracer.Start(ctx, "tag.Patch")
	span.SetAttributes(attribute.String("tag.id", req.Id))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET tag from repo", "name", req.Id)
	}

	orig, err := json.Marshal(existing)
	if err != nil {
		return nil, l.handleError(err, "couldn't encode tag", "name", req.Id)
	}
	b, err := jsonpatch.MergePatch(orig, req.Patch)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid merge patch: %v", err)
	}
	var patched tagsv1.Tag
	if err := json.Unmarshal(b, &patched); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "patch produced an invalid tag: %v", err)
	}
	if patched.Meta == nil {
		return nil, status.Error(codes.InvalidArgument, "tag metadata can not be removed")
	}
	patched.Meta.Created = existing.Meta.Created
	patched.Meta.Revision = existing.Meta.Revision

	tag, err := l.apply(ctx, existing, &patched)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &tagsv1.PatchResponse{
		Tag: tag,
	}, nil
}

// apply saves updated in place of existing. A rename moves the tag on every
// node, a new definition re-populates it. Nothing is kept if any step fails.
func (l *local) apply(ctx context.Context, existing, updated *tagsv1.Tag) (*tagsv1.Tag, error) {
	if err := validate(updated); err != nil {
		return nil, err
	}

	oldName, newName := existing.GetName(), updated.GetName()
	renamed := oldName != newName
	redefined := updated.Definition != existing.Definition

	if renamed {
		if found, _ := l.repo.Get(ctx, newName); found != nil {
			return nil, status.Errorf(codes.AlreadyExists, "tag %s already exists", newName)
		}
	}

	if err := services.EnsureMeta(updated); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	restoreTag := func() {
		if renamed {
			_ = l.repo.Delete(ctx, newName)
			if err := l.repo.Create(ctx, existing); err != nil {
				l.logger.Error("couldn't restore tag", "name", oldName, "error", err)
			}
			return
		}
		if err := l.repo.Update(ctx, existing); err != nil {
			l.logger.Error("couldn't restore tag", "name", oldName, "error", err)
		}
	}

	var err error
	if renamed {
		if err = l.repo.Create(ctx, updated); err == nil {
			err = l.repo.Delete(ctx, oldName)
		}
	} else {
		err = l.repo.Update(ctx, updated)
	}
	if err != nil {
		restoreTag()
		return nil, l.handleError(err, "couldn't UPDATE tag in repo", "name", oldName)
	}

	txn := newNodeTxn(l.nodes, l.logger)
	if renamed {
		err = txn.each(ctx, func(node *nodesv1.Node) bool {
			if !node.RemoveTag(oldName) {
				return false
			}
			node.AddTag(newName)
			return true
		})
	}

	matched := 0
	if err == nil && redefined {
		matched, err = l.populate(ctx, txn, updated)
	}
	if err != nil {
		txn.rollback(ctx)
		restoreTag()
		return nil, l.handleError(err, "couldn't update tag membership", "name", oldName)
	}

	if err := l.publish(ctx, eventsv1.EventType_TagUpdated, updated, fmt.Sprintf("Tag %s updated", newName)); err != nil {
		return nil, err
	}
	if redefined && updated.IsDefined() {
		if err := l.publish(ctx, eventsv1.EventType_TagPopulated, updated, fmt.Sprintf("Tag %s applied to %d nodes", newName, matched)); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Delete removes the tag from every node before deleting it
func (l *local) Delete(ctx context.Context, req *tagsv1.DeleteRequest, _ ...grpc.CallOption) (*tagsv1.DeleteResponse, error) {
	ctx, span := tracer.Start(ctx, "tag.Delete")
	span.SetAttributes(attribute.String("tag.id", req.Id))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	tag, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET tag from repo", "name", req.Id)
	}

	txn := newNodeTxn(l.nodes, l.logger)
	err = txn.each(ctx, func(node *nodesv1.Node) bool {
		return node.RemoveTag(req.Id)
	})
	if err == nil {
		err = l.repo.Delete(ctx, req.Id)
	}
	if err != nil {
		txn.rollback(ctx)
		return nil, l.handleError(err, "couldn't DELETE tag", "name", req.Id)
	}

	if err := l.publish(ctx, eventsv1.EventType_TagDeleted, tag, fmt.Sprintf("Tag %s deleted", req.Id)); err != nil {
		return nil, err
	}

	return &tagsv1.DeleteResponse{
		Id: req.Id,
	}, nil
}

func (l *local) ListNodes(ctx context.Context, req *tagsv1.ListNodesRequest, _ ...grpc.CallOption) (*tagsv1.ListNodesResponse, error) {
	ctx, span := tracer.Start(ctx, "tag.ListNodes")
	span.SetAttributes(attribute.String("tag.id", req.Id))
	defer span.End()

	if _, err := l.repo.Get(ctx, req.Id); err != nil {
		return nil, l.handleError(err, "couldn't GET tag from repo", "name", req.Id)
	}

	nodeList, err := l.nodes.List(ctx)
	if err != nil {
		return nil, l.handleError(err, "couldn't LIST nodes from repo")
	}

	res := []*nodesv1.Node{}
	for _, node := range nodeList {
		if node.HasTag(req.Id) {
			res = append(res, node)
		}
	}
	return &tagsv1.ListNodesResponse{
		Nodes: res,
	}, nil
}

// UpdateNodes edits the membership of a manual tag
func (l *local) UpdateNodes(ctx context.Context, req *tagsv1.UpdateNodesRequest, _ ...grpc.CallOption) (*tagsv1.UpdateNodesResponse, error) {
	ctx, span := tracer.Start(ctx, "tag.UpdateNodes")
	span.SetAttributes(
		attribute.String("tag.id", req.Id),
		attribute.Int("tag.add", len(req.Add)),
		attribute.Int("tag.remove", len(req.Remove)),
	)
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	tag, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET tag from repo", "name", req.Id)
	}
	if tag.IsDefined() {
		return nil, status.Errorf(codes.FailedPrecondition, "tag %s has a definition, its nodes can not be edited manually", req.Id)
	}

	txn := newNodeTxn(l.nodes, l.logger)
	edit := func(id string, fn func(*nodesv1.Node) bool) (bool, error) {
		return txn.modify(ctx, id, fn)
	}

	resp := &tagsv1.UpdateNodesResponse{}
	for _, id := range req.Add {
		changed, err := edit(id, func(n *nodesv1.Node) bool { return n.AddTag(req.Id) })
		if err != nil {
			txn.rollback(ctx)
			return nil, l.handleError(err, "couldn't add tag to node", "name", req.Id, "node", id)
		}
		if changed {
			resp.Added++
		}
	}
	for _, id := range req.Remove {
		changed, err := edit(id, func(n *nodesv1.Node) bool { return n.RemoveTag(req.Id) })
		if err != nil {
			txn.rollback(ctx)
			return nil, l.handleError(err, "couldn't remove tag from node", "name", req.Id, "node", id)
		}
		if changed {
			resp.Removed++
		}
	}

	if resp.Added+resp.Removed > 0 {
		desc := fmt.Sprintf("Tag %s added to %d and removed from %d nodes", req.Id, resp.Added, resp.Removed)
		if err := l.publish(ctx, eventsv1.EventType_TagUpdated, tag, desc); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Rebuild re-evaluates the definition of a tag against every node
func (l *local) Rebuild(ctx context.Context, req *tagsv1.RebuildRequest, _ ...grpc.CallOption) (*tagsv1.RebuildResponse, error) {
	ctx, span := tracer.Start(ctx, "tag.Rebuild")
	span.SetAttributes(attribute.String("tag.id", req.Id))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	tag, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET tag from repo", "name", req.Id)
	}
	if !tag.IsDefined() {
		return nil, status.Errorf(codes.FailedPrecondition, "tag %s has no definition to rebuild from", req.Id)
	}

	txn := newNodeTxn(l.nodes, l.logger)
	matched, err := l.populate(ctx, txn, tag)
	if err != nil {
		txn.rollback(ctx)
		span.RecordError(err)
		return nil, l.handleError(err, "couldn't populate tag", "name", req.Id)
	}

	if err := l.publish(ctx, eventsv1.EventType_TagPopulated, tag, fmt.Sprintf("Tag %s applied to %d nodes", req.Id, matched)); err != nil {
		return nil, err
	}
	return &tagsv1.RebuildResponse{
		Matched: matched,
	}, nil
}
