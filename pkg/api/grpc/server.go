package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the component catalog
const ServiceName = "gridmock.Components"

const pingTimeout = 2 * time.Second

// Pinger reports whether the component store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the gRPC API server
type Server struct {
	server   *grpc.Server
	listener net.Listener
	health   *health.Server
	catalog  Pinger
	interval time.Duration
	logger   *zap.Logger
}

// Config holds gRPC server configuration
type Config struct {
	Port           int
	Catalog        Pinger
	HealthInterval time.Duration
	Logger         *zap.Logger
}

// NewServer creates a new gRPC server exposing the standard health service
func NewServer(cfg *Config) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		server:   grpcServer,
		listener: listener,
		health:   healthServer,
		catalog:  cfg.Catalog,
		interval: cfg.HealthInterval,
		logger:   cfg.Logger,
	}

	s.setStatus(healthpb.HealthCheckResponse_SERVING)

	return s, nil
}

// Addr returns the listening address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start starts the gRPC server
func (s *Server) Start() error {
	s.logger.Info("starting gRPC server", zap.String("addr", s.listener.Addr().String()))

	if err := s.server.Serve(s.listener); err != nil {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}

	return nil
}

// MonitorHealth pings the catalog every interval and mirrors the result in
// the health service until ctx is cancelled
func (s *Server) MonitorHealth(ctx context.Context) {
	if s.catalog == nil || s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckHealth(ctx)
		}
	}
}

// CheckHealth runs one store ping and updates the serving status
func (s *Server) CheckHealth(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.catalog.Ping(pingCtx); err != nil {
		s.logger.Warn("component store unhealthy", zap.Error(err))
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}

	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down gRPC server")

	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.server.Stop()
	}

	s.logger.Info("gRPC server shut down complete")
	return nil
}
