// Package grpc serves the data service over gRPC: row-oriented CRUD over the
// named collections, guarded by a service key and counted in Prometheus.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/prestigeforum/internal/dataservice"
	"github.com/dmitrijs2005/prestigeforum/internal/logging"
	"github.com/dmitrijs2005/prestigeforum/internal/server/repositories/collections"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	repo      collections.Repository
	logger    logging.Logger
	jwtSecret []byte
	metrics   *Metrics
}

var _ dataservice.DataServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, repo collections.Repository, secretKey string, m *Metrics) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		repo:      repo,
		jwtSecret: []byte(secretKey),
		metrics:   m,
	}
}

// newServer creates the gRPC server with the interceptor chain and the data
// service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{}
	if s.metrics != nil {
		interceptors = append(interceptors, s.metrics.unaryInterceptor)
	}
	interceptors = append(interceptors, s.serviceKeyInterceptor)

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	dataservice.RegisterDataServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, l net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", l.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(l); err != nil {
		return err
	}

	return nil
}
