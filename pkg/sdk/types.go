// Package sdk is the panel-side client layer for the admin console API.
// It wraps the REST surface with a typed client, connection monitoring,
// and session handling suitable for a browser-hosted panel.
package sdk

import "time"

// Principal mirrors the authenticated identity returned by the API.
type Principal struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Source      string   `json:"source,omitempty"`
}

// HasRole reports whether the principal holds any of the given roles.
func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, want := range roles {
		for _, have := range p.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// ComponentHealth is one entry of the detailed health report.
type ComponentHealth struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HealthSummary is the last-known result of a health probe pair: the
// shallow endpoint supplies status and version, the system endpoint
// supplies per-component statuses when reachable.
type HealthSummary struct {
	APIStatus  string                     `json:"status"`
	Version    string                     `json:"version"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// healthResponse mirrors GET /api/health.
type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Uptime      string `json:"uptime"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// systemHealthResponse mirrors GET /api/system/health.
type systemHealthResponse struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// errorEnvelope mirrors the service's non-2xx response body.
type errorEnvelope struct {
	Error        string   `json:"error"`
	Code         string   `json:"code"`
	RetryAfter   int      `json:"retryAfter,omitempty"`
	RetryAfterMs int64    `json:"retryAfterMs,omitempty"`
	Required     []string `json:"required,omitempty"`
	Current      []string `json:"current,omitempty"`
}

// Pagination mirrors the list-response pagination block.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Credentials is the persisted session material: the bearer token, its
// wall-clock expiry, and the principal derived from it at login time.
type Credentials struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Principal Principal `json:"principal"`
}

// IsExpired reports whether the token has passed its wall-clock expiry.
func (c *Credentials) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
