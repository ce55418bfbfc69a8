package tag

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
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
)

const bufSize = 1024 * 1024

const (
	lshwGPU   = `<list><node id="pc" class="system"><node id="display" class="display"/><node id="cpu" class="processor"><product>Xeon</product></node></node></list>`
	lshwPlain = `<list><node id="pc" class="system"><node id="cpu" class="processor"><product>Atom</product></node></node></list>`
)

type testEnv struct {
	nodes    repository.NodeRepository
	tags     repository.TagRepository
	exchange *events.Exchange
	client   tagsv1.TagServiceClient
}

func initTestServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	nodes := repository.NewNodeInMemRepo()
	tags := repository.NewTagInMemRepo()
	for _, n := range []*nodesv1.Node{
		{Meta: &types.Meta{Name: "gpu001"}, Hostname: "gpu", HardwareDetails: &nodesv1.HardwareDetails{LSHW: []byte(lshwGPU)}},
		{Meta: &types.Meta{Name: "pln001"}, Hostname: "plain", HardwareDetails: &nodesv1.HardwareDetails{LSHW: []byte(lshwPlain)}},
		{Meta: &types.Meta{Name: "new001"}, Hostname: "new", Tags: []string{"manual"}},
	} {
		require.NoError(t, nodes.Create(ctx, n))
	}

	log := &logger.DevNullLogger{}
	exchange := events.NewExchange(events.WithLogger(log))
	svc := NewService(tags, nodes, WithLogger(log), WithExchange(exchange))

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
		nodes:    nodes,
		tags:     tags,
		exchange: exchange,
		client:   tagsv1.NewTagServiceClient(conn),
	}
}

func (e *testEnv) nodeTags(t *testing.T, id string) []string {
	t.Helper()
	n, err := e.nodes.Get(context.Background(), id)
	require.NoError(t, err)
	return n.Tags
}

func newTag(name, definition string) *tagsv1.Tag {
	return &tagsv1.Tag{Meta: &types.Meta{Name: name}, Definition: definition}
}

func TestTagService_CreateValidation(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		tag    *tagsv1.Tag
		expect codes.Code
	}{
		{name: "dash", tag: newTag("valid-dash", ""), expect: codes.OK},
		{name: "underscore", tag: newTag("under_score", ""), expect: codes.OK},
		{name: "colon", tag: newTag("invalid:name", ""), expect: codes.InvalidArgument},
		{name: "space", tag: newTag("no spaces", ""), expect: codes.InvalidArgument},
		{name: "ampersand", tag: newTag("a&b", ""), expect: codes.InvalidArgument},
		{name: "empty", tag: newTag("", ""), expect: codes.InvalidArgument},
		{name: "invalid definition", tag: newTag("broken", "//node["), expect: codes.InvalidArgument},
		{name: "duplicate", tag: newTag("valid-dash", ""), expect: codes.AlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.client.Create(ctx, &tagsv1.CreateRequest{Tag: tt.tag})
			assert.Equal(t, tt.expect, status.Code(err))
		})
	}

	_, err := env.tags.Get(ctx, "broken")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTagService_CreatePopulates(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	populated := env.exchange.Subscribe(ctx, eventsv1.EventType_TagPopulated)

	_, err := env.client.Create(ctx, &tagsv1.CreateRequest{Tag: newTag("gpu", `//node[@class="display"]`)})
	require.NoError(t, err)

	assert.Equal(t, []string{"gpu"}, env.nodeTags(t, "gpu001"))
	assert.Empty(t, env.nodeTags(t, "pln001"))
	assert.Equal(t, []string{"manual"}, env.nodeTags(t, "new001"))

	ev := <-populated
	assert.Equal(t, "Tag gpu applied to 1 nodes", ev.Description)

	resp, err := env.client.ListNodes(ctx, &tagsv1.ListNodesRequest{Id: "gpu"})
	require.NoError(t, err)
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, "gpu001", resp.Nodes[0].SystemID())
}

func TestTagService_UpdateDefinition(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	_, err := env.client.Create(ctx, &tagsv1.CreateRequest{Tag: newTag("cpu", `//node[@class="display"]`)})
	require.NoError(t, err)
	_, err = env.client.Create(ctx, &tagsv1.CreateRequest{Tag: newTag("other", `//node[@id="cpu"]`)})
	require.NoError(t, err)

	_, err = env.client.Update(ctx, &tagsv1.UpdateRequest{Id: "cpu", Tag: newTag("", `//product[contains(., "Atom")]`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, env.nodeTags(t, "gpu001"))
	assert.Equal(t, []string{"cpu", "other"}, env.nodeTags(t, "pln001"))

	// Invalid definitions leave the tag and its membership as they were
	_, err = env.client.Update(ctx, &tagsv1.UpdateRequest{Id: "cpu", Tag: newTag("", "//node[")})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	stored, err := env.tags.Get(ctx, "cpu")
	require.NoError(t, err)
	assert.Equal(t, `//product[contains(., "Atom")]`, stored.Definition)
	assert.Equal(t, []string{"cpu", "other"}, env.nodeTags(t, "pln001"))

	// Clearing the definition keeps existing membership
	_, err = env.client.Update(ctx, &tagsv1.UpdateRequest{Id: "cpu", Tag: newTag("", "")})
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu", "other"}, env.nodeTags(t, "pln001"))
}

func TestTagService_Rename(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	resp, err := env.client.Patch(ctx, &tagsv1.PatchRequest{Id: "manual", Patch: []byte(`{}`)})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Nil(t, resp)

	_, err = env.client.Create(ctx, &tagsv1.CreateRequest{Tag: newTag("manual", "")})
	require.NoError(t, err)

	patched, err := env.client.Patch(ctx, &tagsv1.PatchRequest{Id: "manual", Patch: []byte(`{"meta":{"name":"hand-picked"},"comment":"picked by hand"}`)})
	require.NoError(t, err)
	assert.Equal(t, "hand-picked", patched.Tag.GetName())
	assert.Equal(t, "picked by hand", patched.Tag.Comment)

	assert.Equal(t, []string{"hand-picked"}, env.nodeTags(t, "new001"))
	_, err = env.tags.Get(ctx, "manual")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = env.client.Patch(ctx, &tagsv1.PatchRequest{Id: "hand-picked", Patch: []byte(`{"meta":{"name":"bad name"}}`)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestTagService_Delete(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	_, err := env.client.Create(ctx, &tagsv1.CreateRequest{Tag: newTag("gpu", `//node[@class="display"]`)})
	require.NoError(t, err)

	_, err = env.client.Delete(ctx, &tagsv1.DeleteRequest{Id: "gpu"})
	require.NoError(t, err)
	assert.Empty(t, env.nodeTags(t, "gpu001"))

	_, err = env.client.Get(ctx, &tagsv1.GetRequest{Id: "gpu"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestTagService_UpdateNodes(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	_, err := env.client.Create(ctx, &tagsv1.CreateRequest{Tag: newTag("manual", "")})
	require.NoError(t, err)

	resp, err := env.client.UpdateNodes(ctx, &tagsv1.UpdateNodesRequest{Id: "manual", Add: []string{"gpu001", "new001"}, Remove: []string{"pln001"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Added)
	assert.Equal(t, 0, resp.Removed)
	assert.Equal(t, []string{"manual"}, env.nodeTags(t, "gpu001"))

	_, err = env.client.UpdateNodes(ctx, &tagsv1.UpdateNodesRequest{Id: "manual", Add: []string{"pln001", "missing"}})
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Empty(t, env.nodeTags(t, "pln001"))

	_, err = env.client.Create(ctx, &tagsv1.CreateRequest{Tag: newTag("gpu", `//node[@class="display"]`)})
	require.NoError(t, err)
	_, err = env.client.UpdateNodes(ctx, &tagsv1.UpdateNodesRequest{Id: "gpu", Add: []string{"pln001"}})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestTagService_Rebuild(t *testing.T) {
	env := initTestServer(t)
	ctx := context.Background()

	_, err := env.client.Create(ctx, &tagsv1.CreateRequest{Tag: newTag("gpu", `//node[@class="display"]`)})
	require.NoError(t, err)

	// Membership drifts when a node loses the tag outside of the tag service
	n, err := env.nodes.Get(ctx, "gpu001")
	require.NoError(t, err)
	n.RemoveTag("gpu")
	n.Meta.Touch(time.Now())
	require.NoError(t, env.nodes.Update(ctx, n))

	resp, err := env.client.Rebuild(ctx, &tagsv1.RebuildRequest{Id: "gpu"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Matched)
	assert.Equal(t, []string{"gpu"}, env.nodeTags(t, "gpu001"))

	_, err = env.client.Create(ctx, &tagsv1.CreateRequest{Tag: newTag("manual", "")})
	require.NoError(t, err)
	_, err = env.client.Rebuild(ctx, &tagsv1.RebuildRequest{Id: "manual"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}
