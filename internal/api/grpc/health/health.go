// Package health exposes the status connection through the standard gRPC health service.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/rig-panel/internal/logger"
)

// StatusService is the health service name tracking the status connection.
const StatusService = "rig.status"

// Server reports whether the status connection is up.
type Server struct {
	// grpcServer serves the health API.
	grpcServer *grpc.Server
	// health stores serving statuses.
	health *health.Server
}

// NewServer creates a health server; the status service starts NOT_SERVING.
func NewServer() *Server {
	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
	}

	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(StatusService, healthpb.HealthCheckResponse_NOT_SERVING)

	return s
}

// SetConnected marks the status service SERVING or NOT_SERVING.
// Its signature matches receiver.StateListener.
func (s *Server) SetConnected(ctx context.Context, connected bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if connected {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus(StatusService, status)
	logger.DebugKV(ctx, "Health status changed", "service", StatusService, "status", status.String())
}

// Serve accepts health checks on lis until ctx is canceled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down health server")
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		close(done)
	}()

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve health: %w", err)
	}

	<-done
	logger.Info(ctx, "Health server stopped")

	return nil
}

// Run listens on address and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context, address string) error {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	logger.InfoKV(ctx, "Health server listening", "listen_address", lis.Addr().String())

	return s.Serve(ctx, lis)
}
