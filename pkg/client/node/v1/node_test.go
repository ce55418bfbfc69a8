package v1

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/amimof/metal/api/types/v1"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	nodesv1 "github.com/amimof/metal/api/services/nodes/v1"
)

func TestClientV1_SendsMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := NewMockNodeServiceClient(ctrl)

	c := &clientV1{Client: mock, id: "client-1", endpoint: eventsv1.Endpoint_CLI}

	mock.EXPECT().
		Get(gomock.Any(), &nodesv1.GetRequest{Id: "aaaaaa"}).
		DoAndReturn(func(ctx context.Context, _ *nodesv1.GetRequest, _ ...grpc.CallOption) (*nodesv1.GetResponse, error) {
			md, ok := metadata.FromOutgoingContext(ctx)
			require.True(t, ok)
			assert.Equal(t, []string{"client-1"}, md.Get(eventsv1.ClientIDMetadataKey))
			assert.Equal(t, []string{"CLI"}, md.Get(eventsv1.EndpointMetadataKey))
			return &nodesv1.GetResponse{Node: &nodesv1.Node{Meta: &types.Meta{Name: "aaaaaa"}}}, nil
		})

	node, err := c.Get(context.Background(), "aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "aaaaaa", node.SystemID())
}

func TestClientV1_Calls(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")
	node := &nodesv1.Node{Meta: &types.Meta{Name: "aaaaaa"}, Hostname: "node-01"}

	tests := []struct {
		name    string
		expect  func(m *MockNodeServiceClient)
		call    func(c ClientV1) (any, error)
		want    any
		wantErr error
	}{
		{
			name: "list forwards the query",
			expect: func(m *MockNodeServiceClient) {
				m.EXPECT().List(gomock.Any(), &nodesv1.ListRequest{Query: "zone=rack-1"}).
					Return(&nodesv1.ListResponse{Nodes: []*nodesv1.Node{node}}, nil)
			},
			call: func(c ClientV1) (any, error) { return c.List(ctx, "zone=rack-1") },
			want: []*nodesv1.Node{node},
		},
		{
			name: "patch forwards the merge patch",
			expect: func(m *MockNodeServiceClient) {
				m.EXPECT().Patch(gomock.Any(), &nodesv1.PatchRequest{Id: "aaaaaa", Patch: json.RawMessage(`{"hostname":"node-01"}`)}).
					Return(&nodesv1.PatchResponse{Node: node}, nil)
			},
			call: func(c ClientV1) (any, error) { return c.Patch(ctx, "aaaaaa", json.RawMessage(`{"hostname":"node-01"}`)) },
			want: node,
		},
		{
			name: "hardware details",
			expect: func(m *MockNodeServiceClient) {
				m.EXPECT().UpdateHardwareDetails(gomock.Any(), &nodesv1.UpdateHardwareDetailsRequest{Id: "aaaaaa", LSHW: []byte("<list/>")}).
					Return(&nodesv1.UpdateHardwareDetailsResponse{Node: node}, nil)
			},
			call: func(c ClientV1) (any, error) { return c.UpdateHardwareDetails(ctx, "aaaaaa", []byte("<list/>")) },
			want: node,
		},
		{
			name: "errors are returned as is",
			expect: func(m *MockNodeServiceClient) {
				m.EXPECT().Delete(gomock.Any(), &nodesv1.DeleteRequest{Id: "aaaaaa"}).Return(nil, errBoom)
			},
			call:    func(c ClientV1) (any, error) { return nil, c.Delete(ctx, "aaaaaa") },
			wantErr: errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mock := NewMockNodeServiceClient(ctrl)
			tt.expect(mock)

			got, err := tt.call(NewClientV1(WithClient(mock)))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
