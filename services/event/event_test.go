package event

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
)

const bufSize = 1024 * 1024

func initTestServer(t *testing.T) (*events.Exchange, eventsv1.EventServiceClient) {
	t.Helper()

	log := &logger.DevNullLogger{}
	exchange := events.NewExchange(events.WithLogger(log))
	svc := NewService(repository.NewEventInMemRepo(), WithLogger(log), WithExchange(exchange))

	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer()
	require.NoError(t, svc.Register(s))
	go func() {
		_ = s.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		s.Stop()
	})

	return exchange, eventsv1.NewEventServiceClient(conn)
}

func publish(t *testing.T, ctx context.Context, e *events.Exchange, typ eventsv1.EventType, nodeID string) *eventsv1.Event {
	t.Helper()
	ev := events.NewEvent(ctx, typ, nodeID, typ.String(), nil)
	require.NoError(t, e.Publish(ctx, typ, ev))
	return ev
}

func TestEventService_Persist(t *testing.T) {
	exchange, client := initTestServer(t)
	ctx := context.Background()

	incoming := metadata.NewIncomingContext(ctx, metadata.Pairs(eventsv1.EndpointMetadataKey, "cli"))
	first := publish(t, incoming, exchange, eventsv1.EventType_NodeCreated, "aaaaaa")
	publish(t, ctx, exchange, eventsv1.EventType_TagCreated, "")
	publish(t, ctx, exchange, eventsv1.EventType_ScriptResultError, "aaaaaa")

	got, err := client.Get(ctx, &eventsv1.GetRequest{Id: first.GetMeta().GetName()})
	require.NoError(t, err)
	assert.Equal(t, eventsv1.EventType_NodeCreated, got.Event.Type)
	assert.Equal(t, eventsv1.Endpoint_CLI, got.Event.Endpoint)

	all, err := client.List(ctx, &eventsv1.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Events, 3)

	forNode, err := client.List(ctx, &eventsv1.ListRequest{NodeID: "aaaaaa"})
	require.NoError(t, err)
	require.Len(t, forNode.Events, 2)
	assert.Equal(t, eventsv1.EventType_NodeCreated, forNode.Events[0].Type)
	assert.Equal(t, eventsv1.EventType_ScriptResultError, forNode.Events[1].Type)

	_, err = client.Get(ctx, &eventsv1.GetRequest{Id: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestEventService_Subscribe(t *testing.T) {
	exchange, client := initTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := client.Subscribe(ctx, &eventsv1.SubscribeRequest{
		ClientId: "test",
		Types:    []eventsv1.EventType{eventsv1.EventType_ZoneCreated},
	})
	require.NoError(t, err)

	// The server subscribes asynchronously, keep publishing until the stream delivers
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = exchange.Publish(ctx, eventsv1.EventType_NodeCreated, events.NewEvent(ctx, eventsv1.EventType_NodeCreated, "aaaaaa", "", nil))
				_ = exchange.Publish(ctx, eventsv1.EventType_ZoneCreated, events.NewEvent(ctx, eventsv1.EventType_ZoneCreated, "", "rack-1", nil))
			}
		}
	}()

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, eventsv1.EventType_ZoneCreated, ev.Type)
	assert.Equal(t, "rack-1", ev.Description)
}
