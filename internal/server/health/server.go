// Package health serves the standard gRPC health protocol for the vault.
// Status follows a periodic ping of the storage backend.
package health

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service reported next to the overall "" status.
const ServiceName = "zkvault.Vault"

const DefaultInterval = 10 * time.Second

// Pinger is satisfied by the repository manager.
type Pinger interface {
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	address  string
	logger   logging.Logger
	store    Pinger
	interval time.Duration
	hs       *health.Server
}

func NewGRPCServer(a string, l logging.Logger, store Pinger, interval time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "health_server"),
		store:    store,
		interval: interval,
		hs:       health.NewServer(),
	}
}

// Probe pings the store once and publishes the result.
func (s *GRPCServer) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "storage ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.hs.SetServingStatus("", status)
	s.hs.SetServingStatus(ServiceName, status)
}

func (s *GRPCServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(s.logCalls))
	healthpb.RegisterHealthServer(srv, s.hs)

	s.Probe(ctx)

	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping health server...")
				s.hs.Shutdown()
				srv.GracefulStop()
				return
			case <-t.C:
				s.Probe(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting health server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
