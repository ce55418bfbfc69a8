package events

import (
	"context"

	"github.com/amimof/metal/pkg/logger"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

type (
	HandlerFunc     func(context.Context, *eventsv1.Event) error
	NodeHandlerFunc func(context.Context, *nodesv1.Node) error
	TagHandlerFunc  func(context.Context, *tagsv1.Tag) error
	ZoneHandlerFunc func(context.Context, *zonesv1.Zone) error
)

func HandleErrors(log logger.Logger, h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, ev *eventsv1.Event) error {
		err := h(ctx, ev)
		if err != nil {
			log.Error("handler returned error", "error", err, "event", ev.GetType().String())
			return err
		}
		return nil
	}
}

func HandleNode(h NodeHandlerFunc) HandlerFunc {
	return func(ctx context.Context, ev *eventsv1.Event) error {
		var node nodesv1.Node
		if err := ev.UnmarshalObject(&node); err != nil {
			return err
		}
		return h(ctx, &node)
	}
}

func HandleTag(h TagHandlerFunc) HandlerFunc {
	return func(ctx context.Context, ev *eventsv1.Event) error {
		var tag tagsv1.Tag
		if err := ev.UnmarshalObject(&tag); err != nil {
			return err
		}
		return h(ctx, &tag)
	}
}

func HandleZone(h ZoneHandlerFunc) HandlerFunc {
	return func(ctx context.Context, ev *eventsv1.Event) error {
		var zone zonesv1.Zone
		if err := ev.UnmarshalObject(&zone); err != nil {
			return err
		}
		return h(ctx, &zone)
	}
}
