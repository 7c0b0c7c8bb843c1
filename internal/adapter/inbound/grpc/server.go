package grpc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/0xsj/overwatch-pkg/log"
)

// ServiceName is the health-check service name reported for the linker.
const ServiceName = "presence.v1.Linker"

// ServerConfig holds configuration for the health gRPC server.
type ServerConfig struct {
	Host             string
	Port             int
	EnableReflection bool
}

// Address returns the server address.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the server configuration. Port 0 picks a free port.
func (c ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Server exposes grpc.health.v1 for the linker process.
type Server struct {
	config     ServerConfig
	grpcServer *grpc.Server
	health     *health.Server
	listener   net.Listener
	logger     log.Logger
}

// NewServer creates a new health gRPC server. It reports NOT_SERVING until
// SetServing(true) is called.
func NewServer(config ServerConfig, logger log.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(BuildUnaryInterceptors(logger)...),
		grpc.ChainStreamInterceptor(BuildStreamInterceptors(logger)...),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	if config.EnableReflection {
		reflection.Register(grpcServer)
	}

	return &Server{
		config:     config,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger,
	}, nil
}

// Listen binds the listener without serving, so Address is known before Serve.
func (s *Server) Listen() error {
	addr := s.config.Address()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	return nil
}

// Start listens if needed and serves until Stop.
func (s *Server) Start() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.Info("health gRPC server starting",
		log.String("address", s.listener.Addr().String()),
		log.Any("reflection", s.config.EnableReflection),
	)

	return s.grpcServer.Serve(s.listener)
}

// SetServing flips both the linker and the overall ("") health status.
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("health gRPC server stopping")
	s.SetServing(false)

	stopped := make(chan struct{})

	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("health gRPC server force stopping")
		s.grpcServer.Stop()
		return ctx.Err()
	case <-stopped:
		s.logger.Info("health gRPC server stopped gracefully")
		return nil
	}
}

// Address returns the server's listening address.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
