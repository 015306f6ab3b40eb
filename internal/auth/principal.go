package auth

import (
	"context"
	"slices"
)

// PrincipalSource describes how a principal was authenticated.
type PrincipalSource string

const (
	// SourceIdP marks principals verified against the identity provider's key set.
	SourceIdP PrincipalSource = "idp"
	// SourceMock marks principals parsed from locally issued mock tokens.
	SourceMock PrincipalSource = "mock"
	// SourceDevBypass marks the synthetic development principal.
	SourceDevBypass PrincipalSource = "dev_bypass"
)

// Principal captures the authenticated party making a request.
//
// This struct is immutable after construction: roles and permissions are
// derived once from verified token claims (never from request content)
// and stay fixed for the request's lifetime.
type Principal struct {
	// ID is the stable subject identifier ("sub" claim).
	ID string

	// Email is optional and present for human users when available.
	Email string

	// DisplayName is the optional display name.
	DisplayName string

	// Roles lists coarse capability bundles (admin, moderator, user).
	Roles []string

	// Permissions lists "<resource>:<action>" capabilities, the union of
	// the token's permission claims and the casbin closure of Roles.
	Permissions []string

	// Source records the authentication path that produced this principal.
	Source PrincipalSource
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// HasAnyRole reports whether the principal's roles intersect the given set.
func (p Principal) HasAnyRole(oneOf ...string) bool {
	for _, role := range oneOf {
		if slices.Contains(p.Roles, role) {
			return true
		}
	}
	return false
}

// HasPermission reports whether the principal carries the given permission.
func (p Principal) HasPermission(perm string) bool {
	return slices.Contains(p.Permissions, perm)
}

// HasAnyPermission reports whether the principal's permissions intersect
// the given set.
func (p Principal) HasAnyPermission(anyOf ...string) bool {
	for _, perm := range anyOf {
		if slices.Contains(p.Permissions, perm) {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// SetPrincipal stores the authenticated principal on the context for
// downstream handlers.
func SetPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext retrieves the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	return principal, ok
}
