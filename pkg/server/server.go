// Package server wraps the gRPC server that metal-server exposes its services on
package server

import (
	"io"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/grpclog"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/keepalive"

	healthv1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/amimof/metal/services"
)

func init() {
	grpclog.SetLoggerV2(grpclog.NewLoggerV2(io.Discard, io.Discard, io.Discard))
}

type NewServerOption func(s *Server)

// WithGrpcOption appends options passed to grpc.NewServer
func WithGrpcOption(opts ...grpc.ServerOption) NewServerOption {
	return func(s *Server) {
		s.grpcOpts = append(s.grpcOpts, opts...)
	}
}

type Server struct {
	grpcServer *grpc.Server
	grpcOpts   []grpc.ServerOption
	health     *health.Server
	mu         sync.Mutex
	registered []string
}

// RegisterService registers every service on the underlying gRPC server and
// marks the server as serving
func (s *Server) RegisterService(svcs ...services.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, svc := range svcs {
		if err := svc.Register(s.grpcServer); err != nil {
			return err
		}
	}
	s.registered = s.registered[:0]
	for name := range s.grpcServer.GetServiceInfo() {
		s.registered = append(s.registered, name)
		s.health.SetServingStatus(name, healthv1.HealthCheckResponse_SERVING)
	}
	s.health.SetServingStatus("", healthv1.HealthCheckResponse_SERVING)
	return nil
}

// Services returns the names of the registered gRPC services
func (s *Server) Services() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.registered...)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Shutdown stops accepting connections and waits for pending RPCs
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *Server) ForceShutdown() {
	s.grpcServer.Stop()
}

func New(opts ...NewServerOption) (*Server, error) {
	s := &Server{
		grpcOpts: []grpc.ServerOption{
			grpc.KeepaliveParams(keepalive.ServerParameters{}),
		},
		health: health.NewServer(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.grpcServer = grpc.NewServer(s.grpcOpts...)
	healthv1.RegisterHealthServer(s.grpcServer, s.health)

	return s, nil
}
