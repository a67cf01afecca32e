// Package server provides gRPC server lifecycle management.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/solatis/shelfwright/internal/core/api"
	"github.com/solatis/shelfwright/internal/core/auth"
	"github.com/solatis/shelfwright/internal/core/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const shutdownTimeout = 30 * time.Second

// GRPCServer manages gRPC server lifecycle.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	config *config.ConfiguratorConfig
	logger *slog.Logger
}

// NewGRPCServer wires the configurator service behind the interceptor
// chain: metrics, access log, request deadline, then authentication.
// metrics may be nil.
func NewGRPCServer(cfg *config.ConfiguratorConfig, service api.ConfiguratorServer, authenticator *auth.Authenticator, metrics *Metrics, logger *slog.Logger) (*GRPCServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if authenticator == nil {
		return nil, fmt.Errorf("authenticator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	authenticator.SkipMethods(grpc_health_v1.Health_Check_FullMethodName)

	var interceptors []grpc.UnaryServerInterceptor
	if metrics != nil {
		interceptors = append(interceptors, metrics.UnaryInterceptor())
	}
	interceptors = append(interceptors,
		accessLog(logger),
		deadline(cfg.RequestTimeout),
		authenticator.UnaryInterceptor(),
	)

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	api.RegisterConfiguratorServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}, nil
}

// Start binds the configured address and serves until Shutdown.
func (s *GRPCServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.config.Addr(), err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener.
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.logger.Info("serving configurator", "addr", lis.Addr().String())
	return s.server.Serve(lis)
}

// Shutdown marks the server NOT_SERVING and stops gracefully, forcing a
// stop after 30 seconds or when ctx is done.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownTimeout):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}

func accessLog(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("rpc",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

func deadline(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}
