package auth

import (
	"context"
	"strings"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RolePatient      Role = "patient"
	RoleCashier      Role = "cashier"
	RolePharmacist   Role = "pharmacist"
	RoleReceptionist Role = "receptionist"
	RoleLaboratory   Role = "laboratory"
)

var validRoles = map[Role]bool{
	RoleAdmin:        true,
	RoleDoctor:       true,
	RoleNurse:        true,
	RolePatient:      true,
	RoleCashier:      true,
	RolePharmacist:   true,
	RoleReceptionist: true,
	RoleLaboratory:   true,
}

// ResolveRole lowercases a claimed role. Signed-in users with a missing or
// unknown role are treated as patients.
func ResolveRole(raw string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if validRoles[r] {
		return r
	}
	return RolePatient
}

// RequestContext identifies the caller of a single request. It is built once
// by the authentication middleware and passed explicitly to services.
type RequestContext struct {
	UserID string
	Role   Role
}

// Is reports whether the caller holds any of roles.
func (rc RequestContext) Is(roles ...Role) bool {
	for _, r := range roles {
		if rc.Role == r {
			return true
		}
	}
	return false
}

type contextKey string

const requestContextKey contextKey = "request_context"

func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// FromContext returns the caller stored by the middleware.
func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey).(RequestContext)
	return rc, ok
}
