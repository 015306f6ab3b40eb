package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"github.com/pallavilagisetti/admin-control-sub001/internal/auth"
	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
	"github.com/pallavilagisetti/admin-control-sub001/internal/httpx"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// Handlers carries the dependencies shared by all HTTP handlers.
type Handlers struct {
	cfg     *config.Config
	repos   Repositories
	mock    *auth.MockIssuer
	keys    *auth.KeysetCache
	db      *bun.DB
	version string
	started time.Time
}

// NewHandlers builds the handler set from router options.
func NewHandlers(opts RouterOptions) *Handlers {
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Handlers{
		cfg:     opts.Cfg,
		repos:   opts.Repos,
		mock:    opts.Mock,
		keys:    opts.Keys,
		db:      opts.DB,
		version: version,
		started: time.Now(),
	}
}

// NotFound emits the error envelope for unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	httpx.Error(w, r, http.StatusNotFound, httpx.CodeNotFound, "Resource not found")
}

// MethodNotAllowed emits the error envelope for bad verbs on known routes.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpx.Error(w, r, http.StatusMethodNotAllowed, httpx.CodeBadRequest, "Method not allowed")
}

// pageParams reads ?page= and ?limit= with defaults 1/20 and a cap of 100.
func pageParams(r *http.Request) (page, limit int) {
	page = defaultPage
	limit = defaultLimit

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
