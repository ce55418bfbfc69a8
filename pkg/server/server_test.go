package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	healthv1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/amimof/metal/pkg/config"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"

	configsvc "github.com/amimof/metal/services/config"
)

const bufSize = 1024 * 1024

func TestServer_RegisterService(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	log := &logger.DevNullLogger{}
	svc := configsvc.NewService(config.NewManager(repository.NewConfigInMemRepo(), config.WithLogger(log)), configsvc.WithLogger(log))
	require.NoError(t, s.RegisterService(svc))
	assert.Contains(t, s.Services(), "metal.configs.v1.ConfigService")

	lis := bufconn.Listen(bufSize)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.ForceShutdown)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := healthv1.NewHealthClient(conn)
	tests := []struct {
		service string
		want    healthv1.HealthCheckResponse_ServingStatus
	}{
		{service: "", want: healthv1.HealthCheckResponse_SERVING},
		{service: "metal.configs.v1.ConfigService", want: healthv1.HealthCheckResponse_SERVING},
	}
	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			res, err := client.Check(context.Background(), &healthv1.HealthCheckRequest{Service: tt.service})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
		})
	}
}
