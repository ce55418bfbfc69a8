package config

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/amimof/metal/pkg/events"
	"github.com/amimof/metal/pkg/logger"
	"github.com/amimof/metal/pkg/repository"

	configsv1 "github.com/amimof/metal/api/services/configs/v1"
	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	settings "github.com/amimof/metal/pkg/config"
)

const bufSize = 1024 * 1024

func initTestServer(t *testing.T) (*events.Exchange, configsv1.ConfigServiceClient) {
	t.Helper()

	log := &logger.DevNullLogger{}
	exchange := events.NewExchange(events.WithLogger(log))
	manager := settings.NewManager(repository.NewConfigInMemRepo(), settings.WithLogger(log))
	svc := NewService(manager, WithLogger(log), WithExchange(exchange))

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

	return exchange, configsv1.NewConfigServiceClient(conn)
}

func TestConfigService_Get(t *testing.T) {
	_, client := initTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		req         *configsv1.GetRequest
		wantValue   string
		wantDefault bool
		wantCode    codes.Code
	}{
		{
			name:        "known default",
			req:         &configsv1.GetRequest{Name: settings.DNSSECValidation},
			wantValue:   `"auto"`,
			wantDefault: true,
		},
		{
			name:        "unknown falls back to request default",
			req:         &configsv1.GetRequest{Name: "custom", Default: json.RawMessage(`42`)},
			wantValue:   `42`,
			wantDefault: true,
		},
		{
			name:        "unknown without default",
			req:         &configsv1.GetRequest{Name: "custom"},
			wantValue:   `null`,
			wantDefault: true,
		},
		{
			name:     "missing name",
			req:      &configsv1.GetRequest{},
			wantCode: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := client.Get(ctx, tt.req)
			if tt.wantCode != codes.OK {
				assert.Equal(t, tt.wantCode, status.Code(err))
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantValue, string(res.Config.Value))
			assert.Equal(t, tt.wantDefault, res.Config.Default)
		})
	}
}

func TestConfigService_Set(t *testing.T) {
	exchange, client := initTestServer(t)
	ctx := context.Background()

	var changed []*eventsv1.Event
	exchange.On(eventsv1.EventType_ConfigChanged, func(_ context.Context, ev *eventsv1.Event) error {
		changed = append(changed, ev)
		return nil
	})

	res, err := client.Set(ctx, &configsv1.SetRequest{Name: settings.NTPServer, Value: json.RawMessage(` "ntp.example.com" `)})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, `"ntp.example.com"`, string(res.Config.Value))

	res, err = client.Set(ctx, &configsv1.SetRequest{Name: settings.NTPServer, Value: json.RawMessage(`"pool.ntp.org"`)})
	require.NoError(t, err)
	assert.False(t, res.Created)

	got, err := client.Get(ctx, &configsv1.GetRequest{Name: settings.NTPServer})
	require.NoError(t, err)
	assert.Equal(t, `"pool.ntp.org"`, string(got.Config.Value))
	assert.False(t, got.Config.Default)

	require.Len(t, changed, 2)
	assert.Equal(t, `Config ntp_server set to "pool.ntp.org"`, changed[1].Description)

	_, err = client.Set(ctx, &configsv1.SetRequest{Name: settings.DNSSECValidation, Value: json.RawMessage(`"maybe"`)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Set(ctx, &configsv1.SetRequest{Name: settings.CheckCompatibility, Value: json.RawMessage(`"yes"`)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Len(t, changed, 2)
}

func TestConfigService_List(t *testing.T) {
	_, client := initTestServer(t)
	ctx := context.Background()

	_, err := client.Set(ctx, &configsv1.SetRequest{Name: settings.MaasName, Value: json.RawMessage(`"lab"`)})
	require.NoError(t, err)

	res, err := client.List(ctx, &configsv1.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Configs, len(settings.Defaults()))

	for _, c := range res.Configs {
		if c.GetName() == settings.MaasName {
			assert.False(t, c.Default)
			assert.Equal(t, `"lab"`, string(c.Value))
		} else {
			assert.True(t, c.Default, c.GetName())
		}
	}
}
