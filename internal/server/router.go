package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/uptrace/bun"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/pallavilagisetti/admin-control-sub001/internal/auth"
	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
	consolemw "github.com/pallavilagisetti/admin-control-sub001/internal/middleware"
	"github.com/pallavilagisetti/admin-control-sub001/internal/repository"
)

// Repositories bundles the persistence dependencies of the handlers.
type Repositories struct {
	Users    repository.UserRepository
	Resumes  repository.ResumeRepository
	Jobs     repository.JobRepository
	Skills   repository.SkillRepository
	Payments repository.PaymentRepository
}

// RouterOptions controls the construction of the console HTTP router.
// The zero value is valid; sensible defaults are applied where fields are not set.
type RouterOptions struct {
	Cfg   *config.Config
	Repos Repositories

	// Mock issues tokens for POST /api/login; nil disables local login.
	Mock *auth.MockIssuer

	// Keys backs the identity_provider component of the system health
	// endpoint; nil when no provider is configured.
	Keys *auth.KeysetCache

	// DB backs the database component of the system health endpoint.
	DB *bun.DB

	CORSOptions *cors.Options

	// Middleware is applied after the baseline chain, typically the rate
	// limiter followed by the auth gate.
	Middleware []func(http.Handler) http.Handler

	Version     string
	ExtraRoutes func(chi.Router)
}

// CORSOptionsFromConfig translates the configured origin allow-list into
// the chi cors policy the panel expects.
func CORSOptionsFromConfig(cfg *config.Config) cors.Options {
	return cors.Options{
		AllowedOrigins: cfg.CORS.Origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodPatch,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"X-Requested-With",
			"X-Correlation-ID",
		},
		ExposedHeaders: []string{
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		AllowCredentials: cfg.CORS.Credentials,
		MaxAge:           86400,
	}
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy,
// and the console handlers mounted. The router can be tailored via
// RouterOptions for CLI usage, tests, or other entrypoints.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(consolemw.SecureHeaders)

	if opts.Cfg != nil {
		corsCfg := CORSOptionsFromConfig(opts.Cfg)
		if opts.CORSOptions != nil {
			corsCfg = *opts.CORSOptions
		}
		r.Use(cors.Handler(corsCfg))
	}

	// Apply custom middleware passed from the caller.
	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	h := NewHandlers(opts)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/api/health", h.Health)
	r.Get("/api/system/health", h.SystemHealth)

	if opts.Mock != nil {
		r.Post("/api/login", h.Login)
		r.Post("/api/logout", h.Logout)
	}
	r.Get("/api/auth/whoami", h.WhoAmI)

	r.Route("/api", func(r chi.Router) {
		r.With(consolemw.RequirePermission("users:read")).
			Get("/users", h.ListUsers)
		r.With(consolemw.RequirePermission("users:read")).
			Get("/users/{id}", h.GetUser)
		r.With(consolemw.RequireOwnershipOrRole("id", auth.RoleAdmin)).
			Get("/users/{id}/resumes", h.ListUserResumes)

		r.With(consolemw.RequirePermission("resumes:read")).
			Get("/resumes", h.ListResumes)
		r.With(consolemw.RequirePermission("resumes:write")).
			Post("/resumes/upload", h.UploadResume)

		r.With(consolemw.RequirePermission("jobs:read")).
			Get("/jobs", h.ListJobs)
		r.With(consolemw.RequirePermission("skills:read")).
			Get("/skills", h.ListSkills)

		r.With(consolemw.RequirePermission("payments:read")).
			Get("/payments", h.ListPayments)
		r.With(consolemw.RequirePermission("payments:refund")).
			Post("/payments/{id}/refund", h.RefundPayment)

		r.With(consolemw.RequirePermission("metrics:read")).
			Get("/metrics", h.Metrics)
		r.With(consolemw.RequirePermission("reports:read")).
			Get("/reports/analytics", h.AnalyticsReport)
	})

	if opts.ExtraRoutes != nil {
		opts.ExtraRoutes(r)
	}

	return r
}

// NewH2CHandler wraps the shared router with an h2c server to provide
// HTTP/2 over cleartext on loopback during development.
func NewH2CHandler(opts RouterOptions) http.Handler {
	return h2c.NewHandler(NewRouter(opts), &http2.Server{})
}
