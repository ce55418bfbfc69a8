package script

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/api/types/v1"
	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/pkg/scriptresult"
	"github.com/amimof/metal/services/node"
	"github.com/amimof/metal/services/tag"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	scriptsv1 "github.com/amimof/metal/api/services/scripts/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
)

const lshwGPU = `<list><node id="pc" class="system"><node id="display" class="display"/></node></list>`

type testEnv struct {
	repos    *repository.Repositories
	exchange *events.Exchange
	client   scriptsv1.ScriptServiceClient
}

func intPtr(i int) *int {
	return &i
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	log := &logger.DevNullLogger{}
	repos := repository.NewInMemRepositories()
	exchange := events.NewExchange(events.WithLogger(log))

	nodeSvc := node.NewService(repos.Nodes, node.WithLogger(log), node.WithExchange(exchange), node.WithTagRepo(repos.Tags))
	tagSvc := tag.NewService(repos.Tags, repos.Nodes, tag.WithLogger(log), tag.WithExchange(exchange))

	storeOpts := scriptresult.NodeInfoHooks(nodeSvc.Local(), tagSvc.Local(), log)
	storeOpts = append(storeOpts,
		scriptresult.WithLogger(log),
		scriptresult.WithErrorRecorder(EventRecorder(exchange, log)),
	)
	svc := NewService(repos.Scripts, repos.ScriptSets, repos.ScriptResults, repos.Nodes,
		WithLogger(log),
		WithExchange(exchange),
		WithStore(scriptresult.NewStore(storeOpts...)),
	)

	_, err := nodeSvc.Local().Create(ctx, &nodesv1.CreateRequest{Node: &nodesv1.Node{
		Meta:     &types.Meta{Name: "aaaaaa"},
		Hostname: "node-01",
		Domain:   "maas",
	}})
	require.NoError(t, err)
	_, err = nodeSvc.Local().Create(ctx, &nodesv1.CreateRequest{Node: &nodesv1.Node{
		Meta:     &types.Meta{Name: "rackrk"},
		Hostname: "rack",
		Domain:   "maas",
		NodeType: nodesv1.NodeTypeRackController,
	}})
	require.NoError(t, err)
	_, err = tagSvc.Local().Create(ctx, &tagsv1.CreateRequest{Tag: &tagsv1.Tag{
		Meta:       &types.Meta{Name: "gpu"},
		Definition: `//node[@class="display"]`,
	}})
	require.NoError(t, err)

	for _, name := range []string{"smartctl", scriptresult.LSHWScript, scriptresult.VirtualityScript} {
		_, err := svc.Local().CreateScript(ctx, &scriptsv1.CreateScriptRequest{
			Script: &scriptsv1.Script{Meta: &types.Meta{Name: name}},
			Data:   "#!/bin/sh\n",
		})
		require.NoError(t, err)
	}

	return &testEnv{
		repos:    repos,
		exchange: exchange,
		client:   svc.Local(),
	}
}

func (e *testEnv) newResult(t *testing.T, nodeID string, resultType scriptsv1.ResultType, script string) *scriptsv1.ScriptResult {
	t.Helper()
	resp, err := e.client.CreateScriptSet(context.Background(), &scriptsv1.CreateScriptSetRequest{
		NodeID:     nodeID,
		ResultType: resultType,
		Scripts:    []string{script},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	return resp.Results[0]
}

func TestScriptService_Versions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	list, err := env.client.ListScripts(ctx, &scriptsv1.ListScriptsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Scripts, 3)

	resp, err := env.client.UpdateScript(ctx, &scriptsv1.UpdateScriptRequest{Name: "smartctl", Data: "#!/bin/sh\nsmartctl -a\n"})
	require.NoError(t, err)
	require.Len(t, resp.Script.Versions, 2)
	assert.Equal(t, 2, resp.Script.Current().ID)
	assert.Equal(t, []int{2, 1}, []int{resp.Script.PreviousVersions()[0].ID, resp.Script.PreviousVersions()[1].ID})

	// Unchanged contents do not add a version
	resp, err = env.client.UpdateScript(ctx, &scriptsv1.UpdateScriptRequest{Name: "smartctl", Data: "#!/bin/sh\nsmartctl -a\n"})
	require.NoError(t, err)
	assert.Len(t, resp.Script.Versions, 2)

	_, err = env.client.CreateScript(ctx, &scriptsv1.CreateScriptRequest{Script: &scriptsv1.Script{Meta: &types.Meta{Name: "smartctl"}}})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = env.client.CreateScript(ctx, &scriptsv1.CreateScriptRequest{Script: &scriptsv1.Script{Meta: &types.Meta{Name: "bad name"}}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestScriptService_CreateScriptSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.client.CreateScriptSet(ctx, &scriptsv1.CreateScriptSetRequest{
		NodeID:     "aaaaaa",
		ResultType: scriptsv1.ResultTypeTesting,
		Scripts:    []string{"smartctl", scriptresult.LSHWScript},
		Parameters: map[string]any{"storage": "sda"},
	})
	require.NoError(t, err)
	assert.Equal(t, "aaaaaa", resp.ScriptSet.NodeID)
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Equal(t, scriptsv1.StatusPending, r.Status)
		assert.Equal(t, resp.ScriptSet.ID(), r.ScriptSetID)
		assert.Equal(t, "sda", r.Parameters["storage"])
	}

	results, err := env.client.ListResults(ctx, &scriptsv1.ListResultsRequest{ScriptSetID: resp.ScriptSet.ID()})
	require.NoError(t, err)
	require.Len(t, results.Results, 2)
	assert.Equal(t, scriptresult.LSHWScript, results.Results[0].Name())

	sets, err := env.client.ListScriptSets(ctx, &scriptsv1.ListScriptSetsRequest{NodeID: "aaaaaa"})
	require.NoError(t, err)
	assert.Len(t, sets.ScriptSets, 1)

	_, err = env.client.CreateScriptSet(ctx, &scriptsv1.CreateScriptSetRequest{NodeID: "aaaaaa", Scripts: []string{"missing"}})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = env.client.CreateScriptSet(ctx, &scriptsv1.CreateScriptSetRequest{NodeID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestScriptService_StoreResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.newResult(t, "aaaaaa", scriptsv1.ResultTypeTesting, "smartctl")

	_, err := env.client.SetStatus(ctx, &scriptsv1.SetStatusRequest{Id: res.ID(), Status: scriptsv1.StatusPassed})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	running, err := env.client.SetStatus(ctx, &scriptsv1.SetStatusRequest{Id: res.ID(), Status: scriptsv1.StatusRunning})
	require.NoError(t, err)
	assert.NotNil(t, running.Result.Started)
	assert.Nil(t, running.Result.Ended)

	stored, err := env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{
		Id:         res.ID(),
		ExitStatus: intPtr(0),
		Stdout:     []byte("all good"),
	})
	require.NoError(t, err)
	assert.Equal(t, scriptsv1.StatusPassed, stored.Result.Status)
	assert.Equal(t, 0, *stored.Result.ExitStatus)
	assert.Equal(t, []byte("all good"), stored.Result.Stdout)
	assert.Equal(t, 1, *stored.Result.ScriptVersionID)
	assert.NotNil(t, stored.Result.Ended)
	assert.NotEmpty(t, stored.Result.Runtime())

	// Results of machines are never overwritten
	_, err = env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{Id: res.ID(), ExitStatus: intPtr(1)})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestScriptService_StoreResultStatus(t *testing.T) {
	tests := []struct {
		name    string
		initial scriptsv1.Status
		req     *scriptsv1.StoreResultRequest
		expect  scriptsv1.Status
		ended   bool
	}{
		{name: "failed", req: &scriptsv1.StoreResultRequest{ExitStatus: intPtr(2)}, expect: scriptsv1.StatusFailed, ended: true},
		{name: "failed installing", initial: scriptsv1.StatusInstalling, req: &scriptsv1.StoreResultRequest{ExitStatus: intPtr(1)}, expect: scriptsv1.StatusFailedInstalling},
		{name: "timed out", req: &scriptsv1.StoreResultRequest{ExitStatus: intPtr(0), TimedOut: true}, expect: scriptsv1.StatusTimedOut, ended: true},
		{name: "yaml degraded", req: &scriptsv1.StoreResultRequest{ExitStatus: intPtr(0), Result: []byte("status: degraded\n")}, expect: scriptsv1.StatusDegraded},
		{name: "yaml failed", req: &scriptsv1.StoreResultRequest{ExitStatus: intPtr(0), Result: []byte("status: failed\n")}, expect: scriptsv1.StatusFailed, ended: true},
		{name: "nothing supplied", req: &scriptsv1.StoreResultRequest{Output: []byte("partial")}, expect: scriptsv1.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			res := env.newResult(t, "aaaaaa", scriptsv1.ResultTypeTesting, "smartctl")
			if tt.initial != scriptsv1.StatusPending {
				_, err := env.client.SetStatus(ctx, &scriptsv1.SetStatusRequest{Id: res.ID(), Status: tt.initial})
				require.NoError(t, err)
			}

			tt.req.Id = res.ID()
			resp, err := env.client.StoreResult(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, resp.Result.Status)
			assert.Equal(t, tt.ended, resp.Result.Ended != nil)
		})
	}
}

func TestScriptService_StoreResultErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	errs := env.exchange.Subscribe(ctx, eventsv1.EventType_ScriptResultError)

	res := env.newResult(t, "aaaaaa", scriptsv1.ResultTypeTesting, "smartctl")
	resp, err := env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{
		Id:         res.ID(),
		ExitStatus: intPtr(1),
		Result:     []byte("- a\n- b\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, scriptsv1.StatusFailed, resp.Result.Status)

	ev := <-errs
	assert.Equal(t, "aaaaaa", ev.NodeID)
	assert.Equal(t, "node-01.maas(aaaaaa) sent a script result with invalid YAML: YAML must be a dictionary.", ev.Description)

	_, err = env.client.ReadResults(ctx, &scriptsv1.ReadResultsRequest{Id: res.ID()})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	script, err := env.repos.Scripts.Get(ctx, "smartctl")
	require.NoError(t, err)

	res = env.newResult(t, "aaaaaa", scriptsv1.ResultTypeTesting, "smartctl")
	resp, err = env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{
		Id:              res.ID(),
		ExitStatus:      intPtr(0),
		ScriptVersionID: intPtr(9),
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Result.ScriptVersionID)

	ev = <-errs
	assert.Equal(t, "node-01.maas(aaaaaa) sent a script result for smartctl("+strconv.Itoa(script.ID)+") with an unknown script version(9).", ev.Description)
}

func TestScriptService_ReadResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.newResult(t, "aaaaaa", scriptsv1.ResultTypeTesting, "smartctl")
	_, err := env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{
		Id:         res.ID(),
		ExitStatus: intPtr(0),
		Result:     []byte("status: passed\nresults:\n  read_speed: 120.5\n  disks: [sda, sdb]\n"),
	})
	require.NoError(t, err)

	resp, err := env.client.ReadResults(ctx, &scriptsv1.ReadResultsRequest{Id: res.ID()})
	require.NoError(t, err)
	assert.Equal(t, "passed", resp.Parsed["status"])
	results, ok := resp.Parsed["results"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 120.5, results["read_speed"])
}

func TestScriptService_ControllerOverwrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.newResult(t, "rackrk", scriptsv1.ResultTypeCommissioning, "smartctl")
	for _, exit := range []int{0, 1} {
		resp, err := env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{Id: res.ID(), ExitStatus: intPtr(exit)})
		require.NoError(t, err)
		assert.Equal(t, exit, *resp.Result.ExitStatus)
	}
}

func TestScriptService_NodeInfoHooks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lshw := env.newResult(t, "aaaaaa", scriptsv1.ResultTypeCommissioning, scriptresult.LSHWScript)
	_, err := env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{Id: lshw.ID(), ExitStatus: intPtr(0), Stdout: []byte(lshwGPU)})
	require.NoError(t, err)

	n, err := env.repos.Nodes.Get(ctx, "aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, []byte(lshwGPU), n.HardwareDetails.LSHW)
	assert.Equal(t, []string{"gpu"}, n.Tags)

	virt := env.newResult(t, "aaaaaa", scriptsv1.ResultTypeCommissioning, scriptresult.VirtualityScript)
	_, err = env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{Id: virt.ID(), ExitStatus: intPtr(0), Stdout: []byte("kvm\n")})
	require.NoError(t, err)

	n, err = env.repos.Nodes.Get(ctx, "aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "kvm", n.HardwareDetails.Virtuality)
	assert.Equal(t, []string{"gpu", scriptresult.VirtualTag}, n.Tags)

	virt = env.newResult(t, "aaaaaa", scriptsv1.ResultTypeCommissioning, scriptresult.VirtualityScript)
	_, err = env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{Id: virt.ID(), ExitStatus: intPtr(0), Stdout: []byte("none\n")})
	require.NoError(t, err)

	n, err = env.repos.Nodes.Get(ctx, "aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, []string{"gpu"}, n.Tags)
}

func TestScriptService_VirtualityWithDefinedTag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.repos.Tags.Create(ctx, &tagsv1.Tag{
		Meta:       &types.Meta{Name: scriptresult.VirtualTag},
		Definition: `//node[@class="system"]`,
	}))

	virt := env.newResult(t, "aaaaaa", scriptsv1.ResultTypeCommissioning, scriptresult.VirtualityScript)
	resp, err := env.client.StoreResult(ctx, &scriptsv1.StoreResultRequest{Id: virt.ID(), ExitStatus: intPtr(0), Stdout: []byte("kvm")})
	require.NoError(t, err)
	assert.Equal(t, scriptsv1.StatusPassed, resp.Result.Status)
	require.NotNil(t, resp.Result.ExitStatus)
	assert.Equal(t, 0, *resp.Result.ExitStatus)

	n, err := env.repos.Nodes.Get(ctx, "aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "kvm", n.HardwareDetails.Virtuality)
	assert.NotContains(t, n.Tags, scriptresult.VirtualTag, "membership of a defined tag follows its definition")
}

func TestScriptService_EnsureBuiltin(t *testing.T) {
	ctx := context.Background()
	log := &logger.DevNullLogger{}
	repos := repository.NewInMemRepositories()
	svc := NewService(repos.Scripts, repos.ScriptSets, repos.ScriptResults, repos.Nodes, WithLogger(log))

	require.NoError(t, svc.EnsureBuiltin(ctx))
	require.NoError(t, svc.EnsureBuiltin(ctx))

	list, err := svc.Local().ListScripts(ctx, &scriptsv1.ListScriptsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Scripts, 2)
	for _, s := range list.Scripts {
		assert.Equal(t, scriptsv1.ScriptTypeCommissioning, s.ScriptType)
		assert.Len(t, s.Versions, 1)
	}

	lshw, err := svc.Local().GetScript(ctx, &scriptsv1.GetScriptRequest{Name: scriptresult.LSHWScript})
	require.NoError(t, err)
	assert.Contains(t, lshw.Script.Current().Data, "lshw -xml")
}
