// Package client provides a client interface to interact with server APIs
package client

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"

	"github.com/amimof/metal/pkg/logger"

	eventsv1 "github.com/amimof/metal/api/services/events/v1"
	configv1 "github.com/amimof/metal/pkg/client/config/v1"
	eventv1 "github.com/amimof/metal/pkg/client/event/v1"
	healthv1 "github.com/amimof/metal/pkg/client/health/v1"
	nodev1 "github.com/amimof/metal/pkg/client/node/v1"
	scriptv1 "github.com/amimof/metal/pkg/client/script/v1"
	tagv1 "github.com/amimof/metal/pkg/client/tag/v1"
	zonev1 "github.com/amimof/metal/pkg/client/zone/v1"
)

var DefaultTLSConfig = &tls.Config{
	InsecureSkipVerify: false,
}

type NewClientOption func(c *ClientSet) error

func WithClientID(id string) NewClientOption {
	return func(c *ClientSet) error {
		c.clientId = id
		return nil
	}
}

func WithGrpcDialOption(opts ...grpc.DialOption) NewClientOption {
	return func(c *ClientSet) error {
		c.grpcOpts = opts
		return nil
	}
}

func WithTLSConfig(t *tls.Config) NewClientOption {
	return func(c *ClientSet) error {
		c.tlsConfig = t
		return nil
	}
}

// WithEndpoint sets the endpoint recorded on events caused by this clientset
func WithEndpoint(e eventsv1.Endpoint) NewClientOption {
	return func(c *ClientSet) error {
		c.endpoint = e
		return nil
	}
}

func WithLogger(l logger.Logger) NewClientOption {
	return func(c *ClientSet) error {
		c.logger = l
		return nil
	}
}

func WithTLSConfigFromFlags(f *pflag.FlagSet) NewClientOption {
	insecure, _ := f.GetBool("insecure")
	tlsCertificate, _ := f.GetString("tls-certificate")
	tlsCertificateKey, _ := f.GetString("tls-certificate-key")
	tlsCaCertificate, _ := f.GetString("tls-ca-certificate")
	return func(c *ClientSet) error {
		tlsConfig, err := getTLSConfig(tlsCertificate, tlsCertificateKey, tlsCaCertificate, insecure)
		if err != nil {
			return err
		}
		c.tlsConfig = tlsConfig
		return nil
	}
}

// WithTLSConfigFromCfg returns a NewClientOption using the provided client.Config.
// It runs Validate() on the config before returning
func WithTLSConfigFromCfg(cfg *Config) NewClientOption {
	return func(c *ClientSet) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		current, err := cfg.CurrentServer()
		if err != nil {
			return err
		}

		// Servers always speak TLS. Without a tls section the system roots are used
		t := current.TLSConfig
		if t == nil {
			t = &TLSConfig{}
		}

		tlsConfig, err := getTLSConfig(t.Certificate, t.Key, t.CA, t.Insecure)
		if err != nil {
			return err
		}
		c.tlsConfig = tlsConfig
		return nil
	}
}

func getTLSConfig(cert, key, ca string, insecure bool) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: insecure,
	}

	if ca != "" {
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM([]byte(ca)) {
			return nil, fmt.Errorf("error appending CA certitifacte to pool")
		}
		tlsConfig.RootCAs = certPool
	}

	// Add certificate pair to tls config
	if cert != "" && key != "" {
		certificate, err := tls.X509KeyPair([]byte(cert), []byte(key))
		if err != nil {
			return nil, fmt.Errorf("error loading x509 cert key pair: %v", err)
		}
		tlsConfig.Certificates = []tls.Certificate{certificate}
	}
	return tlsConfig, nil
}

type ClientSet struct {
	conn           *grpc.ClientConn
	nodeV1Client   nodev1.ClientV1
	tagV1Client    tagv1.ClientV1
	zoneV1Client   zonev1.ClientV1
	scriptV1Client scriptv1.ClientV1
	configV1Client configv1.ClientV1
	eventV1Client  *eventv1.ClientV1
	healthV1Client *healthv1.ClientV1
	mu             sync.Mutex
	grpcOpts       []grpc.DialOption
	tlsConfig      *tls.Config
	clientId       string
	endpoint       eventsv1.Endpoint
	logger         logger.Logger
}

func (c *ClientSet) NodeV1() nodev1.ClientV1 {
	return c.nodeV1Client
}

func (c *ClientSet) TagV1() tagv1.ClientV1 {
	return c.tagV1Client
}

func (c *ClientSet) ZoneV1() zonev1.ClientV1 {
	return c.zoneV1Client
}

func (c *ClientSet) ScriptV1() scriptv1.ClientV1 {
	return c.scriptV1Client
}

func (c *ClientSet) ConfigV1() configv1.ClientV1 {
	return c.configV1Client
}

func (c *ClientSet) EventV1() *eventv1.ClientV1 {
	return c.eventV1Client
}

func (c *ClientSet) HealthV1() *healthv1.ClientV1 {
	return c.healthV1Client
}

func (c *ClientSet) State() connectivity.State {
	return c.conn.GetState()
}

func (c *ClientSet) Connect() {
	c.conn.Connect()
}

func (c *ClientSet) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

func (c *ClientSet) ID() string {
	return c.clientId
}

func New(server string, opts ...NewClientOption) (*ClientSet, error) {
	// Define connection backoff policy
	backoffConfig := backoff.Config{
		BaseDelay:  time.Second,       // Initial delay before retry
		Multiplier: 1.6,               // Multiplier for successive retries
		MaxDelay:   120 * time.Second, // Maximum delay
	}

	// Define keepalive parameters
	keepAliveParams := keepalive.ClientParameters{
		Time:                10 * time.Minute, // Ping the server if no activity
		Timeout:             20 * time.Second, // Timeout for server response
		PermitWithoutStream: true,             // Ping even without active streams
	}

	// Default options
	defaultOpts := []grpc.DialOption{
		grpc.WithKeepaliveParams(keepAliveParams),
		grpc.WithConnectParams(
			grpc.ConnectParams{
				Backoff:           backoffConfig,
				MinConnectTimeout: 20 * time.Second,
			},
		),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}

	// Default clientset
	c := &ClientSet{
		grpcOpts: defaultOpts,
		tlsConfig: &tls.Config{
			InsecureSkipVerify: false,
		},
		clientId: uuid.New().String(),
		logger:   logger.ConsoleLogger{},
	}

	// Allow passing in custom dial options
	for _, opt := range opts {
		err := opt(c)
		if err != nil {
			return nil, err
		}
	}

	// Transport credentials go last so WithTLSConfig options are honoured
	c.grpcOpts = append(c.grpcOpts, grpc.WithTransportCredentials(credentials.NewTLS(c.tlsConfig)))

	conn, err := grpc.NewClient(server, c.grpcOpts...)
	if err != nil {
		return nil, err
	}

	c.conn = conn
	c.nodeV1Client = nodev1.NewClientV1WithConn(conn, c.clientId, nodev1.WithEndpoint(c.endpoint))
	c.tagV1Client = tagv1.NewClientV1WithConn(conn, c.clientId, tagv1.WithEndpoint(c.endpoint))
	c.zoneV1Client = zonev1.NewClientV1WithConn(conn, c.clientId, zonev1.WithEndpoint(c.endpoint))
	c.scriptV1Client = scriptv1.NewClientV1WithConn(conn, c.clientId, scriptv1.WithEndpoint(c.endpoint))
	c.configV1Client = configv1.NewClientV1WithConn(conn, c.clientId, configv1.WithEndpoint(c.endpoint))
	c.eventV1Client = eventv1.NewClientV1(conn, c.clientId, eventv1.WithLogger(c.logger), eventv1.WithEndpoint(c.endpoint))
	c.healthV1Client = healthv1.NewClientV1WithConn(conn)

	return c, nil
}
