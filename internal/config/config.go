package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment names recognised by the server. The dev bypass is only ever
// reachable in EnvDevelopment.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// SentinelIdPDomain is the placeholder domain shipped in example configs.
// A deployment that still carries it has no real identity provider, so it
// is treated the same as an empty domain for bypass purposes.
const SentinelIdPDomain = "your-domain.auth0.com"

// Default namespaced claim names for roles and permissions. Tenants with
// their own namespace override them via IDP_*_CLAIM.
const (
	DefaultRolesClaim       = "https://resumatch.io/roles"
	DefaultPermissionsClaim = "https://resumatch.io/permissions"
)

// Config holds the application configuration
type Config struct {
	// Env is the deployment environment (development, production, test)
	Env string

	// Server bind address (host:port)
	ServerAddr string

	// Base URL the panel uses to reach this server
	ServerURL string

	// Database connection string (DSN); postgres:// or a sqlite path
	DatabaseURL string

	// SessionSecret signs locally issued mock tokens
	SessionSecret string

	// IdP is the federated identity provider configuration.
	// Nil when no provider is configured (internal auth only).
	IdP *IdPConfig

	// CORS policy applied to panel origins
	CORS CORSConfig

	// RateLimit budgets per route class
	RateLimit RateLimitConfig

	// Enable debug logging
	Debug bool
}

// IdPConfig holds configuration for the federated identity provider.
// Tokens are verified against the provider's JWKS endpoint at
// https://<Domain>/.well-known/jwks.json.
type IdPConfig struct {
	// Domain of the identity provider (e.g. "tenant.auth0.com")
	Domain string

	// Audience expected in the token's aud claim
	Audience string

	// RolesClaim is the namespaced custom claim carrying role strings.
	// Treated as configuration, not a constant: tenants choose their own
	// namespace.
	RolesClaim string

	// PermissionsClaim is the namespaced custom claim carrying
	// "<resource>:<action>" permission strings.
	PermissionsClaim string
}

// CORSConfig holds the origin allow-list for the admin panel.
type CORSConfig struct {
	Origins     []string
	Credentials bool
}

// RateLimitConfig holds fixed-window budgets per route class.
type RateLimitConfig struct {
	GeneralLimit  int
	GeneralWindow time.Duration
	AuthLimit     int
	AuthWindow    time.Duration
	UploadLimit   int
	UploadWindow  time.Duration
}

// IsDevelopment reports whether the deployment runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment || c.Env == EnvTest
}

// IsProduction reports whether the deployment runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IdPConfigured reports whether a real identity provider domain is set.
// The sentinel placeholder counts as unconfigured.
func (c *Config) IdPConfigured() bool {
	return c.IdP != nil && c.IdP.Domain != "" && c.IdP.Domain != SentinelIdPDomain
}

// DevBypassEnabled reports whether requests may be served with a synthetic
// admin principal. The condition carries a positive production guard: the
// bypass is unreachable outside development regardless of IdP state.
func (c *Config) DevBypassEnabled() bool {
	if c.IsProduction() {
		return false
	}
	return c.IsDevelopment() && !c.IdPConfigured()
}

// InternalAuthEnabled reports whether locally issued mock tokens are
// accepted. Mock tokens are honoured when no identity provider is
// configured, or in development alongside one.
func (c *Config) InternalAuthEnabled() bool {
	return !c.IdPConfigured() || c.IsDevelopment()
}

// Load reads configuration from environment variables with fallback
// defaults. A .env file in the working directory is applied first when
// present.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", getEnv("NODE_ENV", EnvDevelopment))

	cfg := &Config{
		Env:           env,
		ServerAddr:    getEnv("SERVER_ADDR", "localhost:8080"),
		ServerURL:     getEnv("SERVER_URL", "http://localhost:8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "file:console.db"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		IdP:           loadIdPConfig(),
		CORS: CORSConfig{
			Origins:     splitList(getEnv("CORS_ORIGIN", "http://localhost:5173")),
			Credentials: getEnvBool("CORS_CREDENTIALS", true),
		},
		RateLimit: RateLimitConfig{
			GeneralLimit:  getEnvInt("RATE_LIMIT_GENERAL", 60),
			GeneralWindow: getEnvDuration("RATE_LIMIT_GENERAL_WINDOW", 60*time.Second),
			AuthLimit:     getEnvInt("RATE_LIMIT_AUTH", 5),
			AuthWindow:    getEnvDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),
			UploadLimit:   getEnvInt("RATE_LIMIT_UPLOAD", 10),
			UploadWindow:  getEnvDuration("RATE_LIMIT_UPLOAD_WINDOW", 60*time.Minute),
		},
		Debug: getEnvBool("DEBUG", false),
	}

	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction && cfg.Env != EnvTest {
		return nil, fmt.Errorf("unknown environment %q (expected development, production or test)", cfg.Env)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET is required in production")
		}
		cfg.SessionSecret = "dev-session-secret"
	}

	// Production without a real IdP is allowed only when mock tokens can
	// still be minted (internal auth with a strong secret); warnings about
	// that combination belong to the operator, not this loader.
	if cfg.IsProduction() && cfg.IdP != nil && !cfg.IdPConfigured() {
		return nil, fmt.Errorf("IDP_DOMAIN is set to the placeholder %q in production", cfg.IdP.Domain)
	}

	if cfg.IdPConfigured() && cfg.IdP.Audience == "" {
		return nil, fmt.Errorf("IDP_AUDIENCE is required when IDP_DOMAIN is configured")
	}

	return cfg, nil
}

// loadIdPConfig loads identity provider configuration from environment
// variables. Returns nil when no domain is set at all.
func loadIdPConfig() *IdPConfig {
	domain := getEnv("IDP_DOMAIN", "")
	if domain == "" {
		return nil
	}

	return &IdPConfig{
		Domain:           domain,
		Audience:         getEnv("IDP_AUDIENCE", ""),
		RolesClaim:       getEnv("IDP_ROLES_CLAIM", DefaultRolesClaim),
		PermissionsClaim: getEnv("IDP_PERMISSIONS_CLAIM", DefaultPermissionsClaim),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable ("90s", "15m")
// or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
