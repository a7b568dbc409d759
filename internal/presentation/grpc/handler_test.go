package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bibbank/finance-service/internal/application/dto"
	"github.com/bibbank/finance-service/internal/application/usecase"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/internal/infrastructure/config"
	"github.com/bibbank/finance-service/pkg/auth"
	"github.com/bibbank/finance-service/pkg/tlsutil"
)

const testSecret = "handler-test-secret"

var (
	tenantA = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	tenantB = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

type commandFunc[Req, Resp any] func(context.Context, Req) (Resp, error)

func (f commandFunc[Req, Resp]) Execute(ctx context.Context, req Req) (Resp, error) {
	return f(ctx, req)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func getOwner(resp dto.OwnerResponse, err error) commandFunc[dto.OwnerRequest, dto.OwnerResponse] {
	return func(context.Context, dto.OwnerRequest) (dto.OwnerResponse, error) { return resp, err }
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("rate: %w", model.ErrInvalidArgument), codes.InvalidArgument},
		{model.ErrCurrencyMismatch, codes.InvalidArgument},
		{fmt.Errorf("activate: %w", model.ErrInvalidState), codes.FailedPrecondition},
		{model.ErrAlreadySettled, codes.FailedPrecondition},
		{model.ErrPeriodClosed, codes.FailedPrecondition},
		{port.ErrAlreadyExists, codes.AlreadyExists},
		{fmt.Errorf("owner x: %w", port.ErrNotFound), codes.NotFound},
		{port.ErrConcurrentModification, codes.Aborted},
		{usecase.ErrNoJournal, codes.Unavailable},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{status.Error(codes.PermissionDenied, "no"), codes.PermissionDenied},
		{errors.New("connection reset"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, toStatus(tt.err).Code())
		})
	}

	t.Run("internal errors are not leaked", func(t *testing.T) {
		assert.Equal(t, "internal error", toStatus(errors.New("password=secret")).Message())
	})
}

func TestFinanceHandler(t *testing.T) {
	ctx := context.Background()
	owner := dto.OwnerResponse{ID: "owner-1", TenantID: tenantA.String(), Status: "ACTIVE"}

	t.Run("returns the use case response", func(t *testing.T) {
		h := NewFinanceHandler(UseCases{GetOwner: getOwner(owner, nil)}, discardLogger())
		got, err := h.GetOwner(ctx, &dto.OwnerRequest{TenantID: tenantA.String(), OwnerID: "owner-1"})
		require.NoError(t, err)
		assert.Equal(t, "owner-1", got.ID)
	})

	t.Run("maps use case errors", func(t *testing.T) {
		h := NewFinanceHandler(UseCases{GetOwner: getOwner(dto.OwnerResponse{}, port.ErrNotFound)}, discardLogger())
		_, err := h.GetOwner(ctx, &dto.OwnerRequest{TenantID: tenantA.String(), OwnerID: "missing"})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("pending postings still succeed", func(t *testing.T) {
		pay := commandFunc[dto.ApplyPaymentRequest, dto.PaymentResponse](
			func(context.Context, dto.ApplyPaymentRequest) (dto.PaymentResponse, error) {
				return dto.PaymentResponse{OwnerID: "owner-1", Applied: decimal.NewFromInt(1030), PendingPostings: 2},
					&usecase.PostingError{OwnerID: "owner-1", RequestIDs: []string{"r1", "r2"}, Err: errors.New("broker down")}
			})
		h := NewFinanceHandler(UseCases{ApplyPayment: pay}, discardLogger())

		got, err := h.ApplyPayment(ctx, &dto.ApplyPaymentRequest{TenantID: tenantA.String(), OwnerID: "owner-1"})
		require.NoError(t, err)
		assert.Equal(t, 2, got.PendingPostings)
		assert.True(t, got.Applied.Equal(decimal.NewFromInt(1030)))
	})

	t.Run("requires a tenant", func(t *testing.T) {
		h := NewFinanceHandler(UseCases{GetOwner: getOwner(owner, nil)}, discardLogger())
		_, err := h.GetOwner(ctx, &dto.OwnerRequest{OwnerID: "owner-1"})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("rejects another tenant", func(t *testing.T) {
		called := false
		cmd := commandFunc[dto.OwnerRequest, dto.OwnerResponse](
			func(context.Context, dto.OwnerRequest) (dto.OwnerResponse, error) {
				called = true
				return owner, nil
			})
		h := NewFinanceHandler(UseCases{GetOwner: cmd}, discardLogger())

		claims := &auth.Claims{TenantID: tenantA, Roles: []string{auth.RoleAccountant}}
		_, err := h.GetOwner(auth.ContextWithClaims(ctx, claims), &dto.OwnerRequest{TenantID: tenantB.String()})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
		assert.False(t, called)
	})
}

func startServer(t *testing.T, uc UseCases) *grpclib.ClientConn {
	t.Helper()
	validator, err := auth.NewValidator(auth.ValidatorConfig{Secret: testSecret, Issuer: "bib-gateway"})
	require.NoError(t, err)
	srv, err := NewServer(NewFinanceHandler(uc, discardLogger()), validator, config.GRPCConfig{}, discardLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func bearer(t *testing.T, roles ...string) context.Context {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "bib-gateway",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   uuid.New(),
		TenantID: tenantA,
		Roles:    roles,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestServer(t *testing.T) {
	closeCmd := commandFunc[dto.OwnerRequest, dto.OwnerResponse](
		func(_ context.Context, req dto.OwnerRequest) (dto.OwnerResponse, error) {
			return dto.OwnerResponse{ID: req.OwnerID, TenantID: req.TenantID, Status: "CLOSED"}, nil
		})
	conn := startServer(t, UseCases{
		GetOwner: getOwner(dto.OwnerResponse{ID: "owner-1", Status: "ACTIVE"}, nil),
		Close:    closeCmd,
	})
	req := &dto.OwnerRequest{TenantID: tenantA.String(), OwnerID: "owner-1"}
	jsonCall := grpclib.CallContentSubtype("json")

	t.Run("json round trip", func(t *testing.T) {
		var resp dto.OwnerResponse
		err := conn.Invoke(bearer(t, auth.RoleAuditor), FullMethod("GetOwner"), req, &resp, jsonCall)
		require.NoError(t, err)
		assert.Equal(t, "ACTIVE", resp.Status)
	})

	t.Run("writers may mutate", func(t *testing.T) {
		var resp dto.OwnerResponse
		err := conn.Invoke(bearer(t, auth.RoleAccountant), FullMethod("Close"), req, &resp, jsonCall)
		require.NoError(t, err)
		assert.Equal(t, "CLOSED", resp.Status)
	})

	t.Run("auditors may not mutate", func(t *testing.T) {
		var resp dto.OwnerResponse
		err := conn.Invoke(bearer(t, auth.RoleAuditor), FullMethod("Close"), req, &resp, jsonCall)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("missing token", func(t *testing.T) {
		var resp dto.OwnerResponse
		err := conn.Invoke(context.Background(), FullMethod("GetOwner"), req, &resp, jsonCall)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("unwired methods are unimplemented", func(t *testing.T) {
		var resp dto.RetryPostingsResponse
		err := conn.Invoke(bearer(t, auth.RoleService), FullMethod("RetryPostings"), req, &resp, jsonCall)
		assert.Equal(t, codes.Unimplemented, status.Code(err))
	})

	t.Run("health needs no token", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
			&healthpb.HealthCheckRequest{Service: healthService})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})
}

func TestServer_TLS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, tlsutil.GenerateSelfSignedCert([]string{"bufnet"}, dir))

	validator, err := auth.NewValidator(auth.ValidatorConfig{Secret: testSecret, Issuer: "bib-gateway"})
	require.NoError(t, err)
	cfg := config.GRPCConfig{
		TLSCertFile: filepath.Join(dir, "server.pem"),
		TLSKeyFile:  filepath.Join(dir, "server-key.pem"),
	}
	srv, err := NewServer(NewFinanceHandler(UseCases{}, discardLogger()), validator, cfg, discardLogger())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.ServeListener(lis) }()
	t.Cleanup(srv.GracefulStop)

	creds, err := tlsutil.ClientTLSConfig(filepath.Join(dir, "ca.pem"))
	require.NoError(t, err)
	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpclib.WithTransportCredentials(creds),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: healthService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	t.Run("missing key pair", func(t *testing.T) {
		bad := config.GRPCConfig{TLSCertFile: filepath.Join(dir, "nope.pem"), TLSKeyFile: filepath.Join(dir, "nope-key.pem")}
		_, err := NewServer(NewFinanceHandler(UseCases{}, discardLogger()), validator, bad, discardLogger())
		require.Error(t, err)
	})
}
