package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testSecret = "test-secret-key-for-unit-tests"

var tenantID = uuid.MustParse("00000000-0000-0000-0000-000000000010")

func claimsFor(roles ...string) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "bib-gateway",
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   uuid.New(),
		TenantID: tenantID,
		Roles:    roles,
	}
}

func sign(t *testing.T, c Claims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func hmacValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(ValidatorConfig{Secret: testSecret, Issuer: "bib-gateway"})
	require.NoError(t, err)
	return v
}

func TestValidator_HMAC(t *testing.T) {
	v := hmacValidator(t)

	t.Run("valid", func(t *testing.T) {
		want := claimsFor(RoleAccountant)
		got, err := v.Validate(sign(t, want, testSecret))
		require.NoError(t, err)
		assert.Equal(t, want.UserID, got.UserID)
		assert.Equal(t, tenantID, got.TenantID)
		assert.Equal(t, []string{RoleAccountant}, got.Roles)
	})

	tests := []struct {
		name  string
		token func() string
	}{
		{"expired", func() string {
			c := claimsFor(RoleAccountant)
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return sign(t, c, testSecret)
		}},
		{"no expiry", func() string {
			c := claimsFor(RoleAccountant)
			c.ExpiresAt = nil
			return sign(t, c, testSecret)
		}},
		{"wrong secret", func() string { return sign(t, claimsFor(RoleAccountant), "other-secret") }},
		{"wrong issuer", func() string {
			c := claimsFor(RoleAccountant)
			c.Issuer = "someone-else"
			return sign(t, c, testSecret)
		}},
		{"garbage", func() string { return "not-a-token" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.token())
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidator_RSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})

	v, err := NewValidator(ValidatorConfig{PublicKeyPEM: string(pubPEM)})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claimsFor(RoleAuditor)).SignedString(key)
	require.NoError(t, err)
	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(RoleAuditor))

	t.Run("rejects HMAC tokens", func(t *testing.T) {
		_, err := v.Validate(sign(t, claimsFor(RoleAdmin), testSecret))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("requires a key", func(t *testing.T) {
		_, err := NewValidator(ValidatorConfig{})
		assert.Error(t, err)
	})
}

func TestClaims_CanAccessTenant(t *testing.T) {
	assert.True(t, claimsFor(RoleAccountant).CanAccessTenant(tenantID.String()))
	assert.False(t, claimsFor(RoleAccountant).CanAccessTenant(uuid.NewString()))
	assert.True(t, claimsFor(RoleAdmin).CanAccessTenant(uuid.NewString()))
	assert.False(t, Claims{Roles: []string{RoleService}}.CanAccessTenant(uuid.Nil.String()))
}

func TestUnaryAuthInterceptor(t *testing.T) {
	v := hmacValidator(t)
	const method = "/bib.finance.v1.FinanceService/RunDepreciation"
	interceptor := UnaryAuthInterceptor(v, MethodRoles{method: {RoleAdmin, RoleService}}, "/grpc.health.v1.Health/Check")

	call := func(ctx context.Context, fullMethod string) (*Claims, error) {
		var seen *Claims
		_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: fullMethod},
			func(ctx context.Context, _ interface{}) (interface{}, error) {
				seen, _ = ClaimsFromContext(ctx)
				return nil, nil
			})
		return seen, err
	}
	withToken := func(token string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
	}

	t.Run("skipped method", func(t *testing.T) {
		_, err := call(context.Background(), "/grpc.health.v1.Health/Check")
		assert.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := call(metadata.NewIncomingContext(context.Background(), metadata.MD{}), method)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("wrong role", func(t *testing.T) {
		_, err := call(withToken(sign(t, claimsFor(RoleAuditor), testSecret)), method)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("allowed role attaches claims", func(t *testing.T) {
		claims, err := call(withToken(sign(t, claimsFor(RoleService), testSecret)), method)
		require.NoError(t, err)
		require.NotNil(t, claims)
		assert.True(t, claims.HasRole(RoleService))
	})

	t.Run("unlisted method takes any caller", func(t *testing.T) {
		_, err := call(withToken(sign(t, claimsFor(RoleAuditor), testSecret)), "/bib.finance.v1.FinanceService/GetOwner")
		assert.NoError(t, err)
	})
}

func TestAuthorizeTenant(t *testing.T) {
	assert.NoError(t, AuthorizeTenant(context.Background(), "any"), "no claims means auth is off")

	c := claimsFor(RoleAccountant)
	ctx := ContextWithClaims(context.Background(), &c)
	assert.NoError(t, AuthorizeTenant(ctx, tenantID.String()))
	assert.Equal(t, codes.PermissionDenied, status.Code(AuthorizeTenant(ctx, uuid.NewString())))
}
