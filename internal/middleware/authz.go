package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pallavilagisetti/admin-control-sub001/internal/auth"
	"github.com/pallavilagisetti/admin-control-sub001/internal/httpx"
)

const (
	msgAuthRequired       = "Authentication required"
	msgInsufficientRole   = "Insufficient role"
	msgMissingPermissions = "Missing required permissions"
	msgNotResourceOwner   = "Not the resource owner"
)

// RequireRole admits requests whose principal holds at least one of the
// given roles. It assumes the auth gate already ran; a missing principal
// is treated as unauthenticated, not as a server bug.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, msgAuthRequired)
				return
			}

			if !principal.HasAnyRole(roles...) {
				httpx.ErrorForbiddenSets(w, r, msgInsufficientRole, roles, principal.Roles)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission admits requests whose principal holds at least one
// of the given permissions.
func RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, msgAuthRequired)
				return
			}

			if !principal.HasAnyPermission(permissions...) {
				httpx.ErrorForbiddenSets(w, r, msgMissingPermissions, permissions, principal.Permissions)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnershipOrRole admits the request when the principal's subject
// matches the URL parameter named by idParam, or when the principal holds
// one of the override roles. Used for "own data or admin" routes.
func RequireOwnershipOrRole(idParam string, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, msgAuthRequired)
				return
			}

			owner := chi.URLParam(r, idParam)
			if owner != "" && owner == principal.ID {
				next.ServeHTTP(w, r)
				return
			}

			if principal.HasAnyRole(roles...) {
				next.ServeHTTP(w, r)
				return
			}

			httpx.ErrorForbiddenSets(w, r, msgNotResourceOwner, roles, principal.Roles)
		})
	}
}
