// Package grpcserver runs the side gRPC listener that carries the standard
// health service and server reflection.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Server struct {
	GRPC   *grpc.Server
	Health *health.Server
	addr   string
	log    *zap.Logger
}

func New(addr, serviceName string, log *zap.Logger) *Server {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	if serviceName != "" {
		hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	}
	return &Server{GRPC: srv, Health: hs, addr: addr, log: log}
}

// Serve blocks until the listener fails or the server is stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.ServeListener(lis)
}

func (s *Server) ServeListener(lis net.Listener) error {
	s.log.Info("grpc server starting", zap.String("addr", lis.Addr().String()))
	return s.GRPC.Serve(lis)
}

// WatchReady polls ready and mirrors its result into the health status of
// the given service until ctx is done.
func (s *Server) WatchReady(ctx context.Context, service string, every time.Duration, ready func() error) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		status := healthpb.HealthCheckResponse_SERVING
		if err := ready(); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.Health.SetServingStatus(service, status)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Shutdown marks every service NOT_SERVING before draining.
func (s *Server) Shutdown(timeout time.Duration) {
	s.Health.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.GRPC.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		s.GRPC.Stop()
	}
}
