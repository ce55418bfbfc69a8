package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/amimof/metal/api/types/v1"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

// NewEvent builds an event of type t about node, snapshotting obj when non-nil.
// The endpoint is read from the incoming gRPC metadata of ctx.
func NewEvent(ctx context.Context, t eventsv1.EventType, nodeID, description string, obj any) *eventsv1.Event {
	ev := &eventsv1.Event{
		Meta: &types.Meta{
			Name:    uuid.New().String(),
			Created: time.Now().UTC(),
		},
		Type:        t,
		NodeID:      nodeID,
		Description: description,
		Endpoint:    EndpointFromContext(ctx),
	}
	if obj != nil {
		if b, err := json.Marshal(obj); err == nil {
			ev.Object = b
		}
	}
	return ev
}

// EndpointFromContext reads the metal-endpoint metadata set by clients. Defaults to API.
func EndpointFromContext(ctx context.Context) eventsv1.Endpoint {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return eventsv1.Endpoint_API
	}
	if v := md.Get(eventsv1.EndpointMetadataKey); len(v) > 0 {
		return eventsv1.ParseEndpoint(v[0])
	}
	return eventsv1.Endpoint_API
}
