package zone

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/labels"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	zonesv1 "github.com/amimof/metal/api/services/zones/v1"
)

const bufSize = 1024 * 1024

type testEnv struct {
	nodes  repository.NodeRepository
	client zonesv1.ZoneServiceClient
}

func initTestServer(t *testing.T) *testEnv {
	t.Helper()

	nodes := repository.NewNodeInMemRepo()
	svc := NewService(repository.NewZoneInMemRepo(), nodes, WithLogger(&logger.DevNullLogger{}))
	require.NoError(t, svc.EnsureDefault(context.Background()))
	require.NoError(t, svc.EnsureDefault(context.Background()))

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

	return &testEnv{
		nodes:  nodes,
		client: zonesv1.NewZoneServiceClient(conn),
	}
}

func (e *testEnv) addNode(t *testing.T, id, zone string) {
	t.Helper()
	require.NoError(t, e.nodes.Create(context.Background(), &nodesv1.Node{Meta: &types.Meta{Name: id}, Zone: zone}))
}

func (e *testEnv) nodeZone(t *testing.T, id string) string {
	t.Helper()
	n, err := e.nodes.Get(context.Background(), id)
	require.NoError(t, err)
	return n.Zone
}

func newZone(name, description string) *zonesv1.Zone {
	return &zonesv1.Zone{Meta: &types.Meta{Name: name}, Description: description}
}

func TestZoneService_Create(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		zone   *zonesv1.Zone
		expect codes.Code
	}{
		{name: "valid", zone: newZone("rack-1", "first rack"), expect: codes.OK},
		{name: "underscore", zone: newZone("dc_east", ""), expect: codes.OK},
		{name: "duplicate", zone: newZone("rack-1", ""), expect: codes.AlreadyExists},
		{name: "default exists", zone: newZone("default", ""), expect: codes.AlreadyExists},
		{name: "space", zone: newZone("rack 1", ""), expect: codes.InvalidArgument},
		{name: "empty", zone: newZone("", ""), expect: codes.InvalidArgument},
		{name: "missing", zone: nil, expect: codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client.Create(ctx, &zonesv1.CreateRequest{Zone: tt.zone})
			assert.Equal(t, tt.expect, status.Code(err))
		})
	}
}

func TestZoneService_List(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	for i := 1; i <= 120; i++ {
		_, err := env.client.Create(ctx, &zonesv1.CreateRequest{Zone: newZone(fmt.Sprintf("zone-%03d", i), "")})
		require.NoError(t, err)
	}

	first, err := env.client.List(ctx, &zonesv1.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, first.Zones, DefaultPageSize)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, 121, first.Total)
	assert.Equal(t, "default", first.Zones[0].GetName())
	assert.Equal(t, "zone-001", first.Zones[1].GetName())

	last, err := env.client.List(ctx, &zonesv1.ListRequest{Page: 3})
	require.NoError(t, err)
	assert.Len(t, last.Zones, 21)
	assert.Equal(t, "zone-120", last.Zones[20].GetName())

	custom, err := env.client.List(ctx, &zonesv1.ListRequest{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "zone-010", custom.Zones[0].GetName())
	assert.Equal(t, 13, custom.TotalPages)

	_, err = env.client.List(ctx, &zonesv1.ListRequest{Page: 4})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = env.client.List(ctx, &zonesv1.ListRequest{Page: -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestZoneService_Get(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	_, err := env.client.Create(ctx, &zonesv1.CreateRequest{Zone: newZone("rack-1", "first rack")})
	require.NoError(t, err)
	env.addNode(t, "aaaaaa", "rack-1")
	env.addNode(t, "bbbbbb", "rack-1")
	env.addNode(t, "cccccc", "default")

	resp, err := env.client.Get(ctx, &zonesv1.GetRequest{Id: "rack-1"})
	require.NoError(t, err)
	assert.Equal(t, "first rack", resp.Zone.Description)
	assert.Equal(t, 2, resp.NodeCount)
	assert.Equal(t, "/nodes/?query=zone%3Drack-1", resp.NodeListLink)

	// The link is understood by the node list query parser
	sel, err := labels.ParseQuery(resp.NodeListLink)
	require.NoError(t, err)
	assert.True(t, sel.Matches(labels.Label{labels.KeyZone: "rack-1"}))
	assert.False(t, sel.Matches(labels.Label{labels.KeyZone: "default"}))

	_, err = env.client.Get(ctx, &zonesv1.GetRequest{Id: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestZoneService_Rename(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	_, err := env.client.Create(ctx, &zonesv1.CreateRequest{Zone: newZone("rack-1", "first rack")})
	require.NoError(t, err)
	_, err = env.client.Create(ctx, &zonesv1.CreateRequest{Zone: newZone("rack-2", "")})
	require.NoError(t, err)
	env.addNode(t, "aaaaaa", "rack-1")
	env.addNode(t, "bbbbbb", "default")

	resp, err := env.client.Update(ctx, &zonesv1.UpdateRequest{Id: "rack-1", Zone: newZone("row-a", "moved")})
	require.NoError(t, err)
	assert.Equal(t, "row-a", resp.Zone.GetName())
	assert.Equal(t, "moved", resp.Zone.Description)
	assert.Equal(t, "row-a", env.nodeZone(t, "aaaaaa"))
	assert.Equal(t, "default", env.nodeZone(t, "bbbbbb"))

	_, err = env.client.Get(ctx, &zonesv1.GetRequest{Id: "rack-1"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	patched, err := env.client.Patch(ctx, &zonesv1.PatchRequest{Id: "row-a", Patch: []byte(`{"description":"row A"}`)})
	require.NoError(t, err)
	assert.Equal(t, "row-a", patched.Zone.GetName())
	assert.Equal(t, "row A", patched.Zone.Description)

	_, err = env.client.Patch(ctx, &zonesv1.PatchRequest{Id: "row-a", Patch: []byte(`{"meta":{"name":"rack-2"}}`)})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = env.client.Update(ctx, &zonesv1.UpdateRequest{Id: "default", Zone: newZone("other", "")})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = env.client.Update(ctx, &zonesv1.UpdateRequest{Id: "default", Zone: newZone("", "where nodes land")})
	assert.NoError(t, err)
}

func TestZoneService_Delete(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	_, err := env.client.Create(ctx, &zonesv1.CreateRequest{Zone: newZone("rack-1", "")})
	require.NoError(t, err)
	env.addNode(t, "aaaaaa", "rack-1")

	_, err = env.client.Delete(ctx, &zonesv1.DeleteRequest{Id: "rack-1"})
	require.NoError(t, err)
	assert.Equal(t, "default", env.nodeZone(t, "aaaaaa"))

	_, err = env.client.Delete(ctx, &zonesv1.DeleteRequest{Id: "default"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = env.client.Delete(ctx, &zonesv1.DeleteRequest{Id: "rack-1"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestZoneService_DeleteKeepsConcurrentNodeEdits(t *testing.T) {
	ctx := context.Background()

	for i := range 20 {
		env := initTestServer(t)
		_, err := env.client.Create(ctx, &zonesv1.CreateRequest{Zone: newZone("rack-1", "")})
		require.NoError(t, err)
		for n := range 100 {
			env.addNode(t, fmt.Sprintf("node%02d", n), "rack-1")
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := env.client.Delete(ctx, &zonesv1.DeleteRequest{Id: "rack-1"})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _, err := repository.Modify[nodesv1.Node](ctx, env.nodes, "node99", func(n *nodesv1.Node) (bool, error) {
				return n.AddTag("manual"), nil
			})
			assert.NoError(t, err)
		}()
		wg.Wait()

		n, err := env.nodes.Get(ctx, "node99")
		require.NoError(t, err)
		assert.Equal(t, "default", n.Zone, "iteration %d", i)
		assert.Equal(t, []string{"manual"}, n.Tags, "iteration %d", i)
	}
}
