package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	jsonpatch "github.com/evanphx/json-patch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/config"
	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/labels"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/pkg/tagging"
	"github.com/amimof/metal/services"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

const (
	systemIDAlphabet = "0123456789abcdefghjkmnpqrstvwxyz"
	systemIDLength   = 6
	defaultDomain    = "local"
)

type local struct {
	repo      repository.NodeRepository
	tags      repository.TagRepository
	zones     repository.ZoneRepository
	config    *config.Manager
	evaluator *tagging.Evaluator
	mu        sync.Mutex
	exchange  *events.Exchange
	logger    logger.Logger
}

var (
	_      nodesv1.NodeServiceClient = &local{}
	tracer                           = otel.GetTracerProvider().Tracer("metal-server")
)

func (l *local) handleError(err error, msg string, keysAndValues ...any) error {
	return services.HandleError(l.logger, err, msg, keysAndValues...)
}

func generateSystemID() string {
	b := make([]byte, systemIDLength)
	for i := range b {
		b[i] = systemIDAlphabet[rand.IntN(len(systemIDAlphabet))]
	}
	return string(b)
}

func validNodeType(t nodesv1.NodeType) bool {
	switch t {
	case nodesv1.NodeTypeMachine, nodesv1.NodeTypeDevice, nodesv1.NodeTypeRackController,
		nodesv1.NodeTypeRegionController, nodesv1.NodeTypeRegionAndRackController:
		return true
	}
	return false
}

// validate checks the fields a client may set and fills in defaults
func (l *local) validate(ctx context.Context, node *nodesv1.Node) error {
	if node.Zone == "" {
		node.Zone = zonesv1.DefaultZoneName
	}
	if node.NodeType == "" {
		node.NodeType = nodesv1.NodeTypeMachine
	}
	if !validNodeType(node.NodeType) {
		return status.Errorf(codes.InvalidArgument, "unknown node type %q", node.NodeType)
	}
	if node.Status.String() == "Unknown" {
		return status.Errorf(codes.InvalidArgument, "unknown node status %d", node.Status)
	}
	if l.zones != nil {
		if _, err := l.zones.Get(ctx, node.Zone); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return status.Errorf(codes.InvalidArgument, "zone %q does not exist", node.Zone)
			}
			return err
		}
	}
	node.NormalizeTags()
	return nil
}

// retag re-evaluates every defined tag against node. Manual tags are left alone.
func (l *local) retag(ctx context.Context, node *nodesv1.Node) error {
	if l.tags == nil {
		return nil
	}
	tagList, err := l.tags.List(ctx)
	if err != nil {
		return err
	}
	for _, tag := range tagList {
		if !tag.IsDefined() {
			continue
		}
		matched, err := l.evaluator.Matching(ctx, tag.Definition, []*nodesv1.Node{node})
		if err != nil {
			l.logger.Warn("skipping tag with invalid definition", "tag", tag.GetName(), "error", err)
			continue
		}
		if len(matched) > 0 {
			node.AddTag(tag.GetName())
		} else {
			node.RemoveTag(tag.GetName())
		}
	}
	return nil
}

func (l *local) publish(ctx context.Context, t eventsv1.EventType, node *nodesv1.Node, description string) error {
	err := l.exchange.Publish(ctx, t, events.NewEvent(ctx, t, node.SystemID(), description, node))
	if err != nil {
		return l.handleError(err, "error publishing event", "name", node.SystemID(), "event", t.String())
	}
	return nil
}

func (l *local) Get(ctx context.Context, req *nodesv1.GetRequest, _ ...grpc.CallOption) (*nodesv1.GetResponse, error) {
	ctx, span := tracer.Start(ctx, "node.Get", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("service", "Node"),
		attribute.String("node.id", req.Id),
	)
	defer span.End()

	node, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		span.RecordError(err)
		return nil, l.handleError(err, "couldn't GET node from repo", "name", req.Id)
	}

	span.SetAttributes(attribute.String("node.hostname", node.Hostname))

	return &nodesv1.GetResponse{
		Node: node,
	}, nil
}

func (l *local) List(ctx context.Context, req *nodesv1.ListRequest, _ ...grpc.CallOption) (*nodesv1.ListResponse, error) {
	ctx, span := tracer.Start(ctx, "node.List")
	span.SetAttributes(attribute.String("node.query", req.Query))
	defer span.End()

	selector, err := labels.ParseQuery(req.Query)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	nodeList, err := l.repo.List(ctx)
	if err != nil {
		return nil, l.handleError(err, "couldn't LIST nodes from repo")
	}

	res := make([]*nodesv1.Node, 0, len(nodeList))
	for _, node := range nodeList {
		if selector.Matches(labels.ForNode(node)) {
			res = append(res, node)
		}
	}

	return &nodesv1.ListResponse{
		Nodes: res,
	}, nil
}

func (l *local) Create(ctx context.Context, req *nodesv1.CreateRequest, _ ...grpc.CallOption) (*nodesv1.CreateResponse, error) {
	ctx, span := tracer.Start(ctx, "node.Create")
	defer span.End()

	node := req.Node
	if node == nil {
		return nil, status.Error(codes.InvalidArgument, "node is required")
	}
	if node.Meta == nil {
		node.Meta = &types.Meta{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if node.Meta.Name == "" {
		for {
			id := generateSystemID()
			if _, err := l.repo.Get(ctx, id); errors.Is(err, repository.ErrNotFound) {
				node.Meta.Name = id
				break
			}
		}
	} else if existing, _ := l.repo.Get(ctx, node.Meta.Name); existing != nil {
		return nil, status.Errorf(codes.AlreadyExists, "node %s already exists", node.Meta.Name)
	}

	nodeID := node.SystemID()
	span.SetAttributes(attribute.String("node.id", nodeID))

	if node.Hostname == "" {
		node.Hostname = nodeID
	}
	if node.Domain == "" {
		node.Domain = defaultDomain
		if l.config != nil {
			node.Domain = l.config.GetString(ctx, config.EnlistmentDomain, defaultDomain)
		}
	}
	if err := l.validate(ctx, node); err != nil {
		return nil, err
	}
	if node.HardwareDetails != nil && len(node.HardwareDetails.LSHW) > 0 {
		if err := l.retag(ctx, node); err != nil {
			return nil, l.handleError(err, "couldn't evaluate tags", "name", nodeID)
		}
	}

	node.Meta.Revision = 0
	if err := services.EnsureMeta(node); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := l.repo.Create(ctx, node); err != nil {
		return nil, l.handleError(err, "couldn't CREATE node in repo", "name", nodeID)
	}

	if err := l.publish(ctx, eventsv1.EventType_NodeCreated, node, fmt.Sprintf("Node %s created", node.FQDN())); err != nil {
		return nil, err
	}

	return &nodesv1.CreateResponse{
		Node: node,
	}, nil
}

func (l *local) Update(ctx context.Context, req *nodesv1.UpdateRequest, _ ...grpc.CallOption) (*nodesv1.UpdateResponse, error) {
	ctx, span := tracer.Start(ctx, "node.Update")
	span.SetAttributes(attribute.String("node.id", req.Id))
	defer span.End()

	update := req.Node
	if update == nil {
		return nil, status.Error(codes.InvalidArgument, "node is required")
	}
	if name := update.GetMeta().GetName(); name != "" && name != req.Id {
		return nil, status.Errorf(codes.InvalidArgument, "system id can not be changed from %s to %s", req.Id, name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	node, err := l.modify(ctx, req.Id, func(existing *nodesv1.Node) error {
		// Tags and hardware details have their own operations
		existing.Hostname = update.Hostname
		existing.Domain = update.Domain
		existing.Zone = update.Zone
		existing.NodeType = update.NodeType
		existing.Status = update.Status
		existing.Meta.Labels = update.GetMeta().GetLabels()

		if existing.Hostname == "" {
			return status.Error(codes.InvalidArgument, "hostname is required")
		}
		return l.validate(ctx, existing)
	})
	if err != nil {
		return nil, err
	}
	return l.updated(ctx, node, eventsv1.EventType_NodeUpdated)
}

func (l *local) Patch(ctx context.Context, req *nodesv1.PatchRequest, _ ...grpc.CallOption) (*nodesv1.PatchResponse, error) {
	ctx, span := tracer.Start(ctx, "node.Patch")
	span.SetAttributes(attribute.String("node.id", req.Id))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	node, err := l.modify(ctx, req.Id, func(existing *nodesv1.Node) error {
		orig, err := json.Marshal(existing)
		if err != nil {
			return err
		}
		b, err := jsonpatch.MergePatch(orig, req.Patch)
		if err != nil {
			return status.Errorf(codes.InvalidArgument, "invalid merge patch: %v", err)
		}
		var patched nodesv1.Node
		if err := json.Unmarshal(b, &patched); err != nil {
			return status.Errorf(codes.InvalidArgument, "patch produced an invalid node: %v", err)
		}

		if patched.SystemID() != existing.SystemID() {
			return status.Errorf(codes.InvalidArgument, "system id can not be changed from %s to %s", existing.SystemID(), patched.SystemID())
		}
		patched.Meta.Created = existing.Meta.Created
		patched.Meta.Revision = existing.Meta.Revision

		if patched.Hostname == "" {
			return status.Error(codes.InvalidArgument, "hostname is required")
		}
		if err := l.validate(ctx, &patched); err != nil {
			return err
		}
		*existing = patched
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := l.updated(ctx, node, eventsv1.EventType_NodeUpdated)
	if err != nil {
		return nil, err
	}
	return &nodesv1.PatchResponse{Node: resp.Node}, nil
}

// modify applies fn to the stored node and saves it. fn runs again on a fresh
// copy whenever another writer saved the node in between.
func (l *local) modify(ctx context.Context, id string, fn func(*nodesv1.Node) error) (*nodesv1.Node, error) {
	node, _, err := repository.Modify[nodesv1.Node](ctx, l.repo, id, func(n *nodesv1.Node) (bool, error) {
		return true, fn(n)
	})
	if err != nil {
		return nil, l.handleError(err, "couldn't UPDATE node in repo", "name", id)
	}
	return node, nil
}

func (l *local) updated(ctx context.Context, node *nodesv1.Node, t eventsv1.EventType) (*nodesv1.UpdateResponse, error) {
	if err := l.publish(ctx, t, node, fmt.Sprintf("Node %s updated", node.FQDN())); err != nil {
		return nil, err
	}
	return &nodesv1.UpdateResponse{
		Node: node,
	}, nil
}

func (l *local) Delete(ctx context.Context, req *nodesv1.DeleteRequest, _ ...grpc.CallOption) (*nodesv1.DeleteResponse, error) {
	ctx, span := tracer.Start(ctx, "node.Delete")
	span.SetAttributes(attribute.String("node.id", req.Id))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	node, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET node from repo", "name", req.Id)
	}
	if err := l.repo.Delete(ctx, req.Id); err != nil {
		return nil, l.handleError(err, "couldn't DELETE node from repo", "name", req.Id)
	}

	if err := l.publish(ctx, eventsv1.EventType_NodeDeleted, node, fmt.Sprintf("Node %s deleted", node.FQDN())); err != nil {
		return nil, err
	}

	return &nodesv1.DeleteResponse{
		Id: req.Id,
	}, nil
}

// UpdateHardwareDetails stores the lshw document of a node and re-evaluates
// every defined tag against it.
func (l *local) UpdateHardwareDetails(ctx context.Context, req *nodesv1.UpdateHardwareDetailsRequest, _ ...grpc.CallOption) (*nodesv1.UpdateHardwareDetailsResponse, error) {
	ctx, span := tracer.Start(ctx, "node.UpdateHardwareDetails")
	span.SetAttributes(
		attribute.String("node.id", req.Id),
		attribute.Int("node.lshw.size", len(req.LSHW)),
	)
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	node, err := l.modify(ctx, req.Id, func(node *nodesv1.Node) error {
		if node.HardwareDetails == nil {
			node.HardwareDetails = &nodesv1.HardwareDetails{}
		}
		node.HardwareDetails.LSHW = req.LSHW
		if err := l.retag(ctx, node); err != nil {
			span.RecordError(err)
			return fmt.Errorf("couldn't evaluate tags: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := l.updated(ctx, node, eventsv1.EventType_NodeHardwareUpdated)
	if err != nil {
		return nil, err
	}
	return &nodesv1.UpdateHardwareDetailsResponse{Node: resp.Node}, nil
}
