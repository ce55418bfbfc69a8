// Package callmeta attaches the metadata every metal client sends with its calls
package callmeta

import (
	"context"

	"google.golang.org/grpc/metadata"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

// Outgoing returns ctx carrying the client id and endpoint of the caller
func Outgoing(ctx context.Context, clientID string, endpoint eventsv1.Endpoint) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		eventsv1.ClientIDMetadataKey, clientID,
		eventsv1.EndpointMetadataKey, endpoint.String(),
	)
}
