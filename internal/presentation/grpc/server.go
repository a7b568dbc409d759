package grpc

import (
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/bibbank/finance-service/internal/infrastructure/config"
	"github.com/bibbank/finance-service/pkg/auth"
	"github.com/bibbank/finance-service/pkg/tlsutil"
)

const healthService = "finance-service"

var (
	writers   = []string{auth.RoleAdmin, auth.RoleAccountant, auth.RoleService}
	operators = []string{auth.RoleAdmin, auth.RoleService}
)

// MethodRoles lists the roles allowed to call each mutating method.
// Queries are open to every authenticated caller.
func MethodRoles() auth.MethodRoles {
	roles := auth.MethodRoles{}
	for _, m := range []string{
		"CreateLoan", "CreateInstallmentPlan", "RegisterFixedAsset", "PlaceAssetInService",
		"Activate", "ApplyPayment", "Restructure", "Close", "Cancel", "MarkDefaulted",
		"RevalueAsset", "AddToCost", "DisposeAsset",
	} {
		roles[FullMethod(m)] = writers
	}
	roles[FullMethod("RunDepreciation")] = operators
	roles[FullMethod("RetryPostings")] = operators
	return roles
}

// Server wraps a gRPC server with the finance handler registered.
type Server struct {
	gs     *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// NewServer creates and configures the gRPC server.
func NewServer(handler FinanceServiceServer, validator *auth.Validator, cfg config.GRPCConfig, logger *slog.Logger) (*Server, error) {
	authInterceptor := auth.UnaryAuthInterceptor(validator, MethodRoles(),
		"/grpc.health.v1.Health/Check",
		"/grpc.health.v1.Health/Watch",
	)

	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(authInterceptor),
	}

	if cfg.TLSCertFile != "" {
		creds, err := tlsutil.ServerTLSConfig(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.Creds(creds))
		logger.Info("gRPC TLS enabled", "cert", cfg.TLSCertFile)
	} else {
		logger.Info("gRPC TLS not configured, running without TLS")
	}

	gs := grpc.NewServer(opts...)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(gs, healthSrv)
	healthSrv.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	if cfg.Reflection {
		reflection.Register(gs)
	}

	RegisterFinanceServiceServer(gs, handler)

	return &Server{gs: gs, health: healthSrv, logger: logger}, nil
}

// Serve starts the gRPC server on the specified address.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	s.logger.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.gs.Serve(lis)
}

// GracefulStop marks the service as not serving and drains in-flight calls.
func (s *Server) GracefulStop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.gs.GracefulStop()
}
