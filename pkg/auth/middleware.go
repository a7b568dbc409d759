package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const claimsContextKey contextKey = "claims"

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// MethodRoles maps a full gRPC method name to the roles allowed to call it.
// Methods missing from the map accept any authenticated caller.
type MethodRoles map[string][]string

// UnaryAuthInterceptor authenticates every call except skipMethods and
// enforces roles.
func UnaryAuthInterceptor(validator *Validator, roles MethodRoles, skipMethods ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]struct{}, len(skipMethods))
	for _, m := range skipMethods {
		skip[m] = struct{}{}
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		header := md.Get("authorization")
		if len(header) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		claims, err := validator.Validate(strings.TrimPrefix(header[0], "Bearer "))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		if allowed, ok := roles[info.FullMethod]; ok && !hasAnyRole(claims, allowed) {
			return nil, status.Errorf(codes.PermissionDenied, "%s requires one of %v", info.FullMethod, allowed)
		}

		return handler(ContextWithClaims(ctx, claims), req)
	}
}

// AuthorizeTenant rejects a request for a tenant the caller is not bound
// to. A context without claims (auth disabled) is allowed.
func AuthorizeTenant(ctx context.Context, tenantID string) error {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil
	}
	if !claims.CanAccessTenant(tenantID) {
		return status.Errorf(codes.PermissionDenied, "tenant %q is not accessible", tenantID)
	}
	return nil
}

func hasAnyRole(c *Claims, roles []string) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}
