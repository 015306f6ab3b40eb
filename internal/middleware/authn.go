package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pallavilagisetti/admin-control-sub001/internal/auth"
	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
	"github.com/pallavilagisetti/admin-control-sub001/internal/httpx"
)

// Stable rejection messages. Verification detail goes to the log, never
// to the client.
const (
	msgTokenRequired   = "Access token required"
	msgTokenInvalid    = "Invalid or expired token"
	msgTokenRejected   = "Token not accepted for this API"
	msgAuthUnavailable = "Authentication temporarily unavailable"
)

// Skipper defines a function to skip authentication for matching requests.
type Skipper func(*http.Request) bool

// AuthGateDeps bundles collaborators required by the authentication gate.
type AuthGateDeps struct {
	Mock     *auth.MockIssuer
	Verifier *auth.Verifier // nil when no identity provider is configured
	Expander *auth.RoleExpander
}

// GateOption customises the gate's behaviour.
type GateOption func(*gateOptions)

type gateOptions struct {
	skipper Skipper
}

// WithSkipper overrides the default skipper used by the gate.
func WithSkipper(skipper Skipper) GateOption {
	return func(o *gateOptions) {
		if skipper != nil {
			o.skipper = skipper
		}
	}
}

// NewAuthGate turns incoming requests into either an authenticated
// request context or a typed rejection.
//
// Order of evaluation per request:
//  1. Dev bypass (development AND no real IdP domain): synthetic admin.
//  2. Missing bearer token: unauthorized.
//  3. Mock-marked token: local HS256 verification, expiry checked.
//  4. Anything else: identity provider verification via the key set.
func NewAuthGate(cfg *config.Config, deps AuthGateDeps, opts ...GateOption) (func(http.Handler) http.Handler, error) {
	if deps.Mock == nil {
		return nil, errors.New("auth gate requires a mock token issuer")
	}
	if deps.Expander == nil {
		return nil, errors.New("auth gate requires a role expander")
	}
	if cfg.IdPConfigured() && deps.Verifier == nil {
		return nil, errors.New("auth gate requires a verifier when an identity provider is configured")
	}

	gOpts := gateOptions{skipper: defaultSkipper}
	for _, opt := range opts {
		opt(&gOpts)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gOpts.skipper(r) {
				next.ServeHTTP(w, r)
				return
			}

			principal, ok := authenticate(cfg, deps, w, r)
			if !ok {
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetPrincipal(r.Context(), principal)))
		})
	}, nil
}

// authenticate resolves the request's principal or writes the rejection.
func authenticate(cfg *config.Config, deps AuthGateDeps, w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	token := bearerToken(r)

	if token == "" {
		if principal, err := devPrincipal(cfg, deps.Expander); err == nil {
			return principal, true
		}
		log.Printf("request rejected for %s %s: %v", r.Method, r.URL.Path, auth.ErrNoToken)
		httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, msgTokenRequired)
		return auth.Principal{}, false
	}

	if auth.IsMockToken(token) {
		if !cfg.InternalAuthEnabled() {
			log.Printf("rejected mock token for %s %s: internal auth disabled", r.Method, r.URL.Path)
			httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, msgTokenInvalid)
			return auth.Principal{}, false
		}

		claims, err := deps.Mock.Parse(token)
		if err != nil {
			log.Printf("mock token rejected for %s %s: %v", r.Method, r.URL.Path, err)
			httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, msgTokenInvalid)
			return auth.Principal{}, false
		}

		principal, err := deps.Mock.PrincipalFromMockClaims(claims)
		if err != nil {
			log.Printf("mock token claims rejected for %s %s: %v", r.Method, r.URL.Path, err)
			httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, msgTokenInvalid)
			return auth.Principal{}, false
		}

		principal.Permissions = deps.Expander.MergePermissions(principal.Permissions, principal.Roles)
		return principal, true
	}

	if deps.Verifier == nil {
		log.Printf("rejected non-mock token for %s %s: no identity provider configured", r.Method, r.URL.Path)
		httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, msgTokenInvalid)
		return auth.Principal{}, false
	}

	principal, err := deps.Verifier.Verify(token)
	if err != nil {
		log.Printf("token verification failed for %s %s: %v", r.Method, r.URL.Path, err)
		switch {
		case errors.Is(err, auth.ErrKeysetUnavailable):
			httpx.Error(w, r, http.StatusServiceUnavailable, httpx.CodeServerError, msgAuthUnavailable)
		case errors.Is(err, auth.ErrClaimMismatch):
			httpx.Error(w, r, http.StatusForbidden, httpx.CodeForbidden, msgTokenRejected)
		default:
			httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, msgTokenInvalid)
		}
		return auth.Principal{}, false
	}

	principal.Permissions = deps.Expander.MergePermissions(principal.Permissions, principal.Roles)
	return principal, true
}

// devPrincipal installs the synthetic development admin. The production
// guard is positive: the synthetic path errors out in production even if
// the bypass predicate were ever to regress.
func devPrincipal(cfg *config.Config, expander *auth.RoleExpander) (auth.Principal, error) {
	if cfg.IsProduction() {
		return auth.Principal{}, fmt.Errorf("dev bypass unreachable in production")
	}
	if !cfg.DevBypassEnabled() {
		return auth.Principal{}, fmt.Errorf("dev bypass disabled")
	}

	return auth.Principal{
		ID:          "dev",
		Email:       "dev@localhost",
		DisplayName: "Development Admin",
		Roles:       []string{auth.RoleAdmin},
		Permissions: expander.FullPermissionSet(),
		Source:      auth.SourceDevBypass,
	}, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func defaultSkipper(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}

	path := r.URL.Path

	// Public prefixes that are not subject to bearer token authentication.
	publicPrefixes := []string{
		"/api/health",
		"/api/system/health",
		"/api/login",
	}

	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}
