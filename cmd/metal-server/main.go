package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/amimof/metal/pkg/config"
	"github.com/amimof/metal/pkg/events"
	natsfwd "github.com/amimof/metal/pkg/events/nats"
	"github.com/amimof/metal/pkg/instrumentation"
	"github.com/amimof/metal/pkg/repository"
	"github.com/amimof/metal/pkg/scriptresult"
	"github.com/amimof/metal/pkg/server"
	"github.com/amimof/metal/pkg/tagging"
	configsvc "github.com/amimof/metal/services/config"
	"github.com/amimof/metal/services/event"
	"github.com/amimof/metal/services/node"
	"github.com/amimof/metal/services/script"
	"github.com/amimof/metal/services/tag"
	"github.com/amimof/metal/services/zone"
)

var (
	// VERSION of the app. Is set when project is built and should never be set manually
	VERSION string
	// COMMIT is the Git commit currently used when compiling. Is set when project is built and should never be set manually
	COMMIT string
	// BRANCH is the Git branch currently used when compiling. Is set when project is built and should never be set manually
	BRANCH string
	// GOVERSION used to compile. Is set when project is built and should never be set manually
	GOVERSION string

	configFile        string
	cleanupTimeout    time.Duration
	socketPath        string
	serverAddress     string
	metricsAddress    string
	logLevel          string
	tlsCertificate    string
	tlsCertificateKey string
	tlsCACertificate  string
	otelEndpoint      string
	natsURL           string
	natsSubjectPrefix string
	dbPath            string
	maxEvents         int
	tagWorkers        int
	log               *slog.Logger
)

func init() {
	pflag.StringVar(&configFile, "config", "", "Optional yaml file with flag values, keyed by flag name")
	pflag.StringVar(&serverAddress, "server-address", "0.0.0.0:5743", "Address to listen the TCP server on")
	pflag.StringVar(&metricsAddress, "metrics-address", "0.0.0.0:8888", "Address to listen the metrics server on")
	pflag.StringVar(&socketPath, "socket-path", "/var/run/metal/metal.sock", "the unix socket to listen on")
	pflag.StringVar(&tlsCertificate, "tls-certificate", "", "the certificate to use for secure connections")
	pflag.StringVar(&tlsCertificateKey, "tls-key", "", "the private key to use for secure conections")
	pflag.StringVar(&tlsCACertificate, "tls-ca", "", "the certificate authority file to be used with mutual tls auth")
	pflag.StringVar(&logLevel, "log-level", "info", "The level of verbosity of log output")
	pflag.StringVar(&otelEndpoint, "otel-endpoint", "", "Endpoint address of OpenTelemetry collector")
	pflag.StringVar(&natsURL, "nats-url", "", "NATS server to forward events to. Forwarding is disabled when empty")
	pflag.StringVar(&natsSubjectPrefix, "nats-subject-prefix", natsfwd.DefaultSubjectPrefix, "Subject prefix of forwarded events")
	pflag.StringVar(&dbPath, "db-path", "/var/lib/metal/db", "Directory to store database state")
	pflag.IntVar(&maxEvents, "max-events", 10000, "Number of events to keep in the database, 0 keeps all")
	pflag.IntVar(&tagWorkers, "tag-workers", 0, "Number of nodes evaluated in parallel when a tag is populated, defaults to GOMAXPROCS")
	pflag.DurationVar(&cleanupTimeout, "cleanup-timeout", 10*time.Second, "grace period for which to wait before shutting down the server")
}

func parseSlogLevel(lvl string) (slog.Level, error) {
	switch strings.ToLower(lvl) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}

	var l slog.Level
	return l, fmt.Errorf("not a valid log level: %q", lvl)
}

// loadSettings fills in flags not given on the command line from METAL_*
// environment variables and the optional config file
func loadSettings() error {
	v := viper.New()
	v.SetEnvPrefix("METAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var err error
	pflag.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || f.Name == "config" {
			return
		}
		if val := v.GetString(f.Name); val != f.DefValue {
			err = f.Value.Set(val)
		}
	})
	return err
}

func main() {
	showver := pflag.Bool("version", false, "Print version")

	pflag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage:\n")
		fmt.Fprint(os.Stderr, "  metal-server [OPTIONS]\n\n")
		fmt.Fprint(os.Stderr, "Bare metal inventory with hardware tagging and commissioning results\n\n")
		fmt.Fprintln(os.Stderr, pflag.CommandLine.FlagUsages())
	}

	// Parse the CLI flags
	pflag.Parse()

	// Show version if requested
	if *showver {
		fmt.Printf("Version: %s\nCommit: %s\nBranch: %s\nGoVersion: %s\n", VERSION, COMMIT, BRANCH, GOVERSION)
		return
	}

	if err := loadSettings(); err != nil {
		fmt.Printf("error loading settings: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	lvl, err := parseSlogLevel(logLevel)
	if err != nil {
		fmt.Printf("error parsing log level: %v\n", err)
		os.Exit(1)
	}
	log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl, AddSource: true}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup tracing
	if len(otelEndpoint) > 0 {
		shutdownTraceProvider, err := instrumentation.InitTracing(ctx, "metal-server", VERSION, otelEndpoint)
		if err != nil {
			log.Error("error setting up tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := shutdownTraceProvider(context.Background()); err != nil {
				log.Error("error shutting down trace provider", "error", err)
			}
		}()
	}

	// Load in certificates either from flags or auto-generated
	cert, err := generateCertificates()
	if err != nil {
		log.Error("error loading x509 certificates", "error", err)
		os.Exit(1)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
	}

	// Enable mTLS if CA cert provided
	if tlsCACertificate != "" {
		caCert, err := os.ReadFile(tlsCACertificate)
		if err != nil {
			log.Error("error reading CA certificate file", "error", err)
			os.Exit(1)
		}
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			log.Error("error appending CA certificate to pool")
			os.Exit(1)
		}
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
		tlsConfig.ClientCAs = certPool
		log.Info("mutual TLS enabled for gRPC server")
	}

	// Setup signal handlers
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	// Setup badgerdb and repos
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		log.Error("error opening badger database", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	}()
	repos := repository.NewBadgerRepositories(db, repository.WithMaxItems(maxEvents))

	// Setup event exchange bus, optionally forwarding to NATS
	exchangeOpts := []events.NewExchangeOption{events.WithLogger(log)}
	if natsURL != "" {
		nc, err := nats.Connect(natsURL,
			nats.Name("metal-server"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn("disconnected from nats", "error", err)
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				log.Info("reconnected to nats", "url", c.ConnectedUrl())
			}),
		)
		if err != nil {
			log.Error("error connecting to nats", "url", natsURL, "error", err)
			os.Exit(1)
		}
		defer nc.Close()

		fwd, err := natsfwd.NewForwarder(nc, natsfwd.WithSubjectPrefix(natsSubjectPrefix))
		if err != nil {
			log.Error("error setting up nats forwarder", "error", err)
			os.Exit(1)
		}
		exchangeOpts = append(exchangeOpts, events.WithForwarder(fwd))
		log.Info("forwarding events to nats", "url", natsURL, "prefix", natsSubjectPrefix)
	}
	exchange := events.NewExchange(exchangeOpts...)

	// Setup metrics
	metrics, err := instrumentation.NewMetrics(prometheus.DefaultRegisterer, instrumentation.BuildInfo{
		Version:   VERSION,
		Commit:    COMMIT,
		Branch:    BRANCH,
		GoVersion: GOVERSION,
	})
	if err != nil {
		log.Error("error registering metrics", "error", err)
		os.Exit(1)
	}
	metrics.Observe(exchange)
	go serveMetrics(metricsAddress, promhttp.Handler())

	// Settings
	settings := config.NewManager(repos.Configs, config.WithLogger(log))
	settings.ConnectChanged(config.MaasName, func(_ context.Context, name string, value json.RawMessage, _ bool) {
		log.Info("region renamed", "setting", name, "value", string(value))
	})

	// Setup services
	evaluator := tagging.NewEvaluator(tagging.WithLogger(log), tagging.WithWorkers(tagWorkers))

	zoneService := zone.NewService(
		repos.Zones,
		repos.Nodes,
		zone.WithLogger(log),
		zone.WithExchange(exchange),
	)
	if err := zoneService.EnsureDefault(ctx); err != nil {
		log.Error("error creating default zone", "error", err)
		os.Exit(1)
	}

	nodeService := node.NewService(
		repos.Nodes,
		node.WithLogger(log),
		node.WithExchange(exchange),
		node.WithTagRepo(repos.Tags),
		node.WithZoneRepo(repos.Zones),
		node.WithConfig(settings),
		node.WithEvaluator(evaluator),
	)

	tagService := tag.NewService(
		repos.Tags,
		repos.Nodes,
		tag.WithLogger(log),
		tag.WithExchange(exchange),
		tag.WithEvaluator(evaluator),
	)

	storeOpts := scriptresult.NodeInfoHooks(nodeService.Local(), tagService.Local(), log)
	storeOpts = append(storeOpts,
		scriptresult.WithLogger(log),
		scriptresult.WithErrorRecorder(script.EventRecorder(exchange, log)),
	)
	scriptService := script.NewService(
		repos.Scripts,
		repos.ScriptSets,
		repos.ScriptResults,
		repos.Nodes,
		script.WithLogger(log),
		script.WithExchange(exchange),
		script.WithStore(scriptresult.NewStore(storeOpts...)),
	)
	if err := scriptService.EnsureBuiltin(ctx); err != nil {
		log.Error("error creating builtin scripts", "error", err)
		os.Exit(1)
	}

	eventService := event.NewService(
		repos.Events,
		event.WithLogger(log),
		event.WithExchange(exchange),
	)

	configService := configsvc.NewService(
		settings,
		configsvc.WithLogger(log),
		configsvc.WithExchange(exchange),
	)

	// Setup server
	s, err := server.New(
		server.WithGrpcOption(
			grpc.Creds(credentials.NewTLS(tlsConfig)),
			grpc.StatsHandler(otelgrpc.NewServerHandler()),
		),
	)
	if err != nil {
		log.Error("error setting up gRPC server", "error", err)
		os.Exit(1)
	}

	err = s.RegisterService(
		zoneService,
		nodeService,
		tagService,
		scriptService,
		eventService,
		configService,
	)
	if err != nil {
		log.Error("error registering services to server", "error", err)
		os.Exit(1)
	}
	log.Info("registered services", "services", s.Services())

	go serveTCP(serverAddress, s)
	go serveUnix(s)

	// Wait for exit signal, begin shutdown process after this point
	<-exit
	cancel()

	go func() {
		time.Sleep(cleanupTimeout)
		log.Info("deadline exceeded, shutting down forcefully")
		s.ForceShutdown()
	}()

	log.Info("shutting down server")
	s.Shutdown()
}

func serveMetrics(addr string, h http.Handler) {
	log.Info("metrics listening", "address", addr)
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("error serving metrics", "error", err)
		return
	}
}

func serveUnix(s *server.Server) {
	// Remove the socket file if it already exists
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.RemoveAll(socketPath); err != nil {
			log.Error("failed to remove existing Unix socket", "error", err)
			return
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		log.Error("failed to create socket directory", "error", err)
		return
	}
	unixListener, err := net.Listen("unix", socketPath)
	if err != nil {
		log.Error("error setting up Unix socket listener", "error", err.Error())
		os.Exit(1)
	}

	log.Info("server listening", "socket", socketPath)
	if err := s.Serve(unixListener); err != nil {
		log.Error("error serving server", "error", err)
		os.Exit(1)
	}
}

func serveTCP(addr string, s *server.Server) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("error setting up server listener", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server listening", "address", addr)
	if err := s.Serve(l); err != nil {
		log.Error("error serving server", "error", err)
		os.Exit(1)
	}
}

func generateCertificates() (tls.Certificate, error) {
	if tlsCertificate != "" && tlsCertificateKey != "" {
		return tls.LoadX509KeyPair(tlsCertificate, tlsCertificateKey)
	}

	cert := tls.Certificate{}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return cert, err
	}

	notBefore := time.Now()
	notAfter := notBefore.Add(365 * 24 * time.Hour) // Valid for 1 year

	parent := &x509.Certificate{
		KeyUsage: x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageServerAuth,
			x509.ExtKeyUsageClientAuth,
		},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost", "metal-server"},
		IPAddresses: []net.IP{
			net.IPv4(127, 0, 0, 1),
		},
		Subject: pkix.Name{
			CommonName:   "metal-server",
			Organization: []string{"metal"},
		},
		SerialNumber: serial,
		NotAfter:     notAfter,
		NotBefore:    notBefore,
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return cert, err
	}

	certData, err := x509.CreateCertificate(rand.Reader, parent, parent, &key.PublicKey, key)
	if err != nil {
		return cert, err
	}

	cert = tls.Certificate{
		Certificate: [][]byte{certData},
		PrivateKey:  key,
	}

	log.Info("generated x509 key pair")

	return cert, nil
}
