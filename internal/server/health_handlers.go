package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/pallavilagisetti/admin-control-sub001/internal/httpx"
)

const healthProbeTimeout = 2 * time.Second

type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Uptime      string `json:"uptime"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type componentStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type systemHealthResponse struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]componentStatus `json:"components"`
}

// Health is the shallow liveness endpoint polled by the panel.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	env := ""
	if h.cfg != nil {
		env = h.cfg.Env
	}
	httpx.JSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.started).Round(time.Second).String(),
		Version:     h.version,
		Environment: env,
	})
}

// SystemHealth reports per-component statuses. Component failures do
// not fail the endpoint; the panel renders them as degraded.
func (h *Handlers) SystemHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]componentStatus{}
	overall := "ok"

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		if err := h.db.PingContext(ctx); err != nil {
			log.Printf("WARNING: database health probe failed: %v", err)
			components["database"] = componentStatus{Status: "down", Detail: "ping failed"}
			overall = "degraded"
		} else {
			components["database"] = componentStatus{Status: "ok"}
		}
		cancel()
	}

	if h.keys != nil {
		if err := h.keys.Probe(); err != nil {
			log.Printf("WARNING: identity provider health probe failed: %v", err)
			components["identity_provider"] = componentStatus{Status: "down", Detail: "key set unreachable"}
			overall = "degraded"
		} else {
			components["identity_provider"] = componentStatus{Status: "ok"}
		}
	}

	httpx.JSON(w, http.StatusOK, systemHealthResponse{
		Status:     overall,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	})
}
