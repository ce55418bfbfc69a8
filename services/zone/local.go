package zone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sync"

	jsonpatch "github.com/evanphx/json-patch"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/labels"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/services"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

const (
	DefaultPageSize = 50
	MaxNameLength   = 256
)

var nameRegexp = regexp.MustCompile(`^[\w-]+$`)

type local struct {
	repo     repository.ZoneRepository
	nodes    repository.NodeRepository
	mu       sync.Mutex
	exchange *events.Exchange
	logger   logger.Logger
}

var (
	_      zonesv1.ZoneServiceClient = &local{}
	tracer                           = otel.GetTracerProvider().Tracer("metal-server")
)

func (l *local) handleError(err error, msg string, keysAndValues ...any) error {
	return services.HandleError(l.logger, err, msg, keysAndValues...)
}

func validateName(name string) error {
	if name == "" {
		return status.Error(codes.InvalidArgument, "zone name is required")
	}
	if len(name) > MaxNameLength {
		return status.Errorf(codes.InvalidArgument, "zone name %q is longer than %d characters", name, MaxNameLength)
	}
	if !nameRegexp.MatchString(name) {
		return status.Errorf(codes.InvalidArgument, "zone name %q may only contain letters, digits, dashes and underscores", name)
	}
	return nil
}

// NodeListLink is the node listing filtered to the zone called name
func NodeListLink(name string) string {
	return "/nodes/?query=" + url.QueryEscape(fmt.Sprintf("%s=%s", labels.KeyZone, name))
}

func (l *local) publish(ctx context.Context, t eventsv1.EventType, zone *zonesv1.Zone, description string) error {
	err := l.exchange.Publish(ctx, t, events.NewEvent(ctx, t, "", description, zone))
	if err != nil {
		return l.handleError(err, "error publishing event", "name", zone.GetName(), "event", t.String())
	}
	return nil
}

// moveNodes moves every node of zone from into zone to. Each node is re-read
// before it is moved so concurrent edits to it are kept.
func (l *local) moveNodes(ctx context.Context, from, to string) (int, error) {
	nodeList, err := l.nodes.List(ctx)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, node := range nodeList {
		if node.Zone != from {
			continue
		}
		_, changed, err := repository.Modify[nodesv1.Node](ctx, l.nodes, node.SystemID(), func(n *nodesv1.Node) (bool, error) {
			if n.Zone != from {
				return false, nil
			}
			n.Zone = to
			return true, nil
		})
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return moved, err
		}
		if changed {
			moved++
		}
	}
	return moved, nil
}

func (l *local) countNodes(ctx context.Context, zone string) (int, error) {
	nodeList, err := l.nodes.List(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, node := range nodeList {
		if node.Zone == zone {
			count++
		}
	}
	return count, nil
}

func (l *local) Get(ctx context.Context, req *zonesv1.GetRequest, _ ...grpc.CallOption) (*zonesv1.GetResponse, error) {
	ctx, span := tracer.Start(ctx, "zone.Get", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("service", "Zone"),
		attribute.String("zone.id", req.Id),
	)
	defer span.End()

	zone, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		span.RecordError(err)
		return nil, l.handleError(err, "couldn't GET zone from repo", "name", req.Id)
	}

	count, err := l.countNodes(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't count nodes of zone", "name", req.Id)
	}

	return &zonesv1.GetResponse{
		Zone:         zone,
		NodeCount:    count,
		NodeListLink: NodeListLink(zone.GetName()),
	}, nil
}

// List returns one page of zones ordered by name
func (l *local) List(ctx context.Context, req *zonesv1.ListRequest, _ ...grpc.CallOption) (*zonesv1.ListResponse, error) {
	ctx, span := tracer.Start(ctx, "zone.List")
	defer span.End()

	page, size := req.Page, req.PageSize
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if page < 0 || size < 0 {
		return nil, status.Error(codes.InvalidArgument, "page and page size must be positive")
	}
	span.SetAttributes(attribute.Int("zone.page", page), attribute.Int("zone.page_size", size))

	zoneList, err := l.repo.List(ctx)
	if err != nil {
		return nil, l.handleError(err, "couldn't LIST zones from repo")
	}

	total := len(zoneList)
	totalPages := max((total+size-1)/size, 1)
	if page > totalPages {
		return nil, status.Errorf(codes.NotFound, "page %d is past the last page %d", page, totalPages)
	}

	start := (page - 1) * size
	end := min(start+size, total)

	return &zonesv1.ListResponse{
		Zones:      zoneList[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

func (l *local) Create(ctx context.Context, req *zonesv1.CreateRequest, _ ...grpc.CallOption) (*zonesv1.CreateResponse, error) {
	ctx, span := tracer.Start(ctx, "zone.Create")
	defer span.End()

	zone := req.Zone
	if zone == nil || zone.Meta == nil {
		return nil, status.Error(codes.InvalidArgument, "zone is required")
	}
	name := zone.GetName()
	if err := validateName(name); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("zone.id", name))

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, _ := l.repo.Get(ctx, name); existing != nil {
		return nil, status.Errorf(codes.AlreadyExists, "zone %s already exists", name)
	}

	zone.Meta.Revision = 0
	if err := services.EnsureMeta(zone); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := l.repo.Create(ctx, zone); err != nil {
		return nil, l.handleError(err, "couldn't CREATE zone in repo", "name", name)
	}

	if err := l.publish(ctx, eventsv1.EventType_ZoneCreated, zone, fmt.Sprintf("Zone %s created", name)); err != nil {
		return nil, err
	}

	return &zonesv1.CreateResponse{
		Zone: zone,
	}, nil
}

func (l *local) Update(ctx context.Context, req *zonesv1.UpdateRequest, _ ...grpc.CallOption) (*zonesv1.UpdateResponse, error) {
	ctx, span := tracer.Start(ctx, "zone.Update")
	span.SetAttributes(attribute.String("zone.id", req.Id))
	defer span.End()

	if req.Zone == nil {
		return nil, status.Error(codes.InvalidArgument, "zone is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET zone from repo", "name", req.Id)
	}

	updated := *existing
	meta := *existing.Meta
	updated.Meta = &meta
	if name := req.Zone.GetName(); name != "" {
		updated.Meta.Name = name
	}
	updated.Description = req.Zone.Description

	zone, err := l.apply(ctx, existing, &updated)
	if err != nil {
		return nil, err
	}
	return &zonesv1.UpdateResponse{
		Zone: zone,
	}, nil
}

func (l *local) Patch(ctx context.Context, req *zonesv1.PatchRequest, _ ...grpc.CallOption) (*zonesv1.PatchResponse, error) {
	ctx, span := tracer.Start(ctx, "zone.Patch")
	span.SetAttributes(attribute.String("zone.id", req.Id))
	defer span.End()

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET zone from repo", "name", req.Id)
	}

	orig, err := json.Marshal(existing)
	if err != nil {
		return nil, l.handleError(err, "couldn't encode zone", "name", req.Id)
	}
	b, err := jsonpatch.MergePatch(orig, req.Patch)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid merge patch: %v", err)
	}
	var patched zonesv1.Zone
	if err := json.Unmarshal(b, &patched); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "patch produced an invalid zone: %v", err)
	}
	if patched.Meta == nil {
		return nil, status.Error(codes.InvalidArgument, "zone metadata can not be removed")
	}
	patched.Meta.Created = existing.Meta.Created
	patched.Meta.Revision = existing.Meta.Revision

	zone, err := l.apply(ctx, existing, &patched)
	if err != nil {
		return nil, err
	}
	return &zonesv1.PatchResponse{
		Zone: zone,
	}, nil
}

// apply saves updated in place of existing, moving the nodes of a renamed zone
func (l *local) apply(ctx context.Context, existing, updated *zonesv1.Zone) (*zonesv1.Zone, error) {
	oldName, newName := existing.GetName(), updated.GetName()
	if err := validateName(newName); err != nil {
		return nil, err
	}

	renamed := oldName != newName
	if renamed {
		if existing.IsDefault() {
			return nil, status.Errorf(codes.FailedPrecondition, "the %s zone can not be renamed", zonesv1.DefaultZoneName)
		}
		if found, _ := l.repo.Get(ctx, newName); found != nil {
			return nil, status.Errorf(codes.AlreadyExists, "zone %s already exists", newName)
		}
	}

	if err := services.EnsureMeta(updated); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if !renamed {
		if err := l.repo.Update(ctx, updated); err != nil {
			return nil, l.handleError(err, "couldn't UPDATE zone in repo", "name", oldName)
		}
	} else {
		if err := l.repo.Create(ctx, updated); err != nil {
			return nil, l.handleError(err, "couldn't CREATE zone in repo", "name", newName)
		}
		if _, err := l.moveNodes(ctx, oldName, newName); err != nil {
			if _, rerr := l.moveNodes(ctx, newName, oldName); rerr != nil {
				l.logger.Error("couldn't move nodes back", "name", oldName, "error", rerr)
			}
			_ = l.repo.Delete(ctx, newName)
			return nil, l.handleError(err, "couldn't move nodes to renamed zone", "name", oldName)
		}
		if err := l.repo.Delete(ctx, oldName); err != nil {
			return nil, l.handleError(err, "couldn't DELETE zone from repo", "name", oldName)
		}
	}

	if err := l.publish(ctx, eventsv1.EventType_ZoneUpdated, updated, fmt.Sprintf("Zone %s updated", newName)); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a zone and moves its nodes to the default zone
func (l *local) Delete(ctx context.Context, req *zonesv1.DeleteRequest, _ ...grpc.CallOption) (*zonesv1.DeleteResponse, error) {
	ctx, span := tracer.Start(ctx, "zone.Delete")
	span.SetAttributes(attribute.String("zone.id", req.Id))
	defer span.End()

	if req.Id == zonesv1.DefaultZoneName {
		return nil, status.Errorf(codes.FailedPrecondition, "the %s zone can not be deleted", zonesv1.DefaultZoneName)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	zone, err := l.repo.Get(ctx, req.Id)
	if err != nil {
		return nil, l.handleError(err, "couldn't GET zone from repo", "name", req.Id)
	}

	moved, err := l.moveNodes(ctx, req.Id, zonesv1.DefaultZoneName)
	if err != nil {
		return nil, l.handleError(err, "couldn't move nodes to the default zone", "name", req.Id)
	}
	if err := l.repo.Delete(ctx, req.Id); err != nil {
		return nil, l.handleError(err, "couldn't DELETE zone from repo", "name", req.Id)
	}

	desc := fmt.Sprintf("Zone %s deleted, %d nodes moved to %s", req.Id, moved, zonesv1.DefaultZoneName)
	if err := l.publish(ctx, eventsv1.EventType_ZoneDeleted, zone, desc); err != nil {
		return nil, err
	}

	return &zonesv1.DeleteResponse{
		Id: req.Id,
	}, nil
}

