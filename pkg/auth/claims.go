package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the gateway-issued token claims the finance service reads.
type Claims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Roles    []string  `json:"roles"`
}

func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// CanAccessTenant reports whether the caller may act on tenantID. Admins
// cross tenants; everyone else is bound to the tenant in the token.
func (c Claims) CanAccessTenant(tenantID string) bool {
	if c.HasRole(RoleAdmin) {
		return true
	}
	return c.TenantID != uuid.Nil && c.TenantID.String() == tenantID
}

const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleAuditor    = "auditor"
	// RoleService is held by platform jobs such as the ledger and schedulers.
	RoleService = "service"
)
