package scriptresult

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/amimof/metal/pkg/logger"

	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
	tagsv1 "github.com/amimof/metal/api/services/tags/v1"
)

type fakeNodes struct {
	nodesv1.NodeServiceClient
	hardware []*nodesv1.UpdateHardwareDetailsRequest
	patches  []*nodesv1.PatchRequest
}

func (f *fakeNodes) UpdateHardwareDetails(_ context.Context, req *nodesv1.UpdateHardwareDetailsRequest, _ ...grpc.CallOption) (*nodesv1.UpdateHardwareDetailsResponse, error) {
	f.hardware = append(f.hardware, req)
	return &nodesv1.UpdateHardwareDetailsResponse{}, nil
}

func (f *fakeNodes) Patch(_ context.Context, req *nodesv1.PatchRequest, _ ...grpc.CallOption) (*nodesv1.PatchResponse, error) {
	f.patches = append(f.patches, req)
	return &nodesv1.PatchResponse{}, nil
}

type fakeTags struct {
	tagsv1.TagServiceClient
	exists    bool
	updateErr error
	created   []string
	updates   []*tagsv1.UpdateNodesRequest
}

func (f *fakeTags) Get(_ context.Context, req *tagsv1.GetRequest, _ ...grpc.CallOption) (*tagsv1.GetResponse, error) {
	if !f.exists {
		return nil, status.Error(codes.NotFound, "tag not found")
	}
	return &tagsv1.GetResponse{Tag: &tagsv1.Tag{}}, nil
}

func (f *fakeTags) Create(_ context.Context, req *tagsv1.CreateRequest, _ ...grpc.CallOption) (*tagsv1.CreateResponse, error) {
	f.created = append(f.created, req.Tag.GetName())
	f.exists = true
	return &tagsv1.CreateResponse{Tag: req.Tag}, nil
}

func (f *fakeTags) UpdateNodes(_ context.Context, req *tagsv1.UpdateNodesRequest, _ ...grpc.CallOption) (*tagsv1.UpdateNodesResponse, error) {
	f.updates = append(f.updates, req)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &tagsv1.UpdateNodesResponse{}, nil
}

func TestLSHWHook(t *testing.T) {
	nodes := &fakeNodes{}
	hook := LSHWHook(nodes)
	node := testNode(nodesv1.NodeTypeMachine)

	require.NoError(t, hook(context.Background(), node, []byte("<node/>"), intPtr(1)))
	require.NoError(t, hook(context.Background(), node, []byte("<node/>"), nil))
	assert.Empty(t, nodes.hardware, "failed runs should not replace hardware details")

	require.NoError(t, hook(context.Background(), node, []byte("<node/>"), intPtr(0)))
	require.Len(t, nodes.hardware, 1)
	assert.Equal(t, "xyz789", nodes.hardware[0].Id)
	assert.Equal(t, []byte("<node/>"), nodes.hardware[0].LSHW)
}

func TestVirtualityHook(t *testing.T) {
	nodes := &fakeNodes{}
	tags := &fakeTags{}
	hook := VirtualityHook(nodes, tags, &logger.DevNullLogger{})
	node := testNode(nodesv1.NodeTypeMachine)

	require.NoError(t, hook(context.Background(), node, []byte("kvm\n"), intPtr(0)))
	assert.Equal(t, []string{VirtualTag}, tags.created, "manual tag should be created on first use")
	require.Len(t, tags.updates, 1)
	assert.Equal(t, []string{"xyz789"}, tags.updates[0].Add)

	require.Len(t, nodes.patches, 1)
	var patch map[string]map[string]string
	require.NoError(t, json.Unmarshal(nodes.patches[0].Patch, &patch))
	assert.Equal(t, "kvm", patch["hardware_details"]["virtuality"])

	require.NoError(t, hook(context.Background(), node, []byte("none"), intPtr(0)))
	assert.Len(t, tags.created, 1)
	require.Len(t, tags.updates, 2)
	assert.Equal(t, []string{"xyz789"}, tags.updates[1].Remove)

	require.NoError(t, hook(context.Background(), node, []byte("  "), intPtr(0)))
	assert.Len(t, tags.updates, 2, "empty output is ignored")
}

func TestVirtualityHookTagErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "defined tag", err: status.Error(codes.FailedPrecondition, "tag virtual has a definition")},
		{name: "unavailable", err: status.Error(codes.Unavailable, "tag service down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := &fakeNodes{}
			tags := &fakeTags{exists: true, updateErr: tt.err}
			hook := VirtualityHook(nodes, tags, &logger.DevNullLogger{})

			require.NoError(t, hook(context.Background(), testNode(nodesv1.NodeTypeMachine), []byte("kvm"), intPtr(0)))
			assert.Len(t, nodes.patches, 1, "virtuality should still be recorded")
			assert.Len(t, tags.updates, 1)
		})
	}
}
