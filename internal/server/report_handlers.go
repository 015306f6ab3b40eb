package server

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
	"github.com/pallavilagisetti/admin-control-sub001/internal/httpx"
)

const topSkillCount = 10

type metricsResponse struct {
	Users        map[string]int `json:"users"`
	Resumes      map[string]int `json:"resumes"`
	Jobs         map[string]int `json:"jobs"`
	Payments     map[string]int `json:"payments"`
	TopSkills    []models.Skill `json:"topSkills"`
	RevenueCents int64          `json:"revenueCents"`
	GeneratedAt  time.Time      `json:"generatedAt"`
}

// Metrics aggregates entity counts by status plus total revenue.
func (h *Handlers) Metrics(w http.ResponseWriter, r *http.Request) {
	report, err := h.aggregate(r)
	if err != nil {
		log.Printf("ERROR: metrics aggregation: %v", err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeServerError, "Failed to compute metrics")
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// AnalyticsReport returns the same aggregates as Metrics, downloadable
// as CSV via ?format=csv.
func (h *Handlers) AnalyticsReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.aggregate(r)
	if err != nil {
		log.Printf("ERROR: report aggregation: %v", err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeServerError, "Failed to generate report")
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		httpx.JSON(w, http.StatusOK, report)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="analytics-report.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"entity", "status", "count"})
	writeSection := func(entity string, counts map[string]int) {
		statuses := make([]string, 0, len(counts))
		for status := range counts {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)
		for _, status := range statuses {
			_ = cw.Write([]string{entity, status, fmt.Sprintf("%d", counts[status])})
		}
	}
	writeSection("users", report.Users)
	writeSection("resumes", report.Resumes)
	writeSection("jobs", report.Jobs)
	writeSection("payments", report.Payments)
	for _, skill := range report.TopSkills {
		_ = cw.Write([]string{"skills", skill.Name, fmt.Sprintf("%d", skill.UsageCount)})
	}
	_ = cw.Write([]string{"revenue", "succeeded", fmt.Sprintf("%d", report.RevenueCents)})
	cw.Flush()
}

func (h *Handlers) aggregate(r *http.Request) (*metricsResponse, error) {
	ctx := r.Context()

	users, err := h.repos.Users.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	resumes, err := h.repos.Resumes.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count resumes: %w", err)
	}
	jobs, err := h.repos.Jobs.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	payments, err := h.repos.Payments.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}
	revenue, err := h.repos.Payments.RevenueCents(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	topSkills, err := h.repos.Skills.TopByUsage(ctx, topSkillCount)
	if err != nil {
		return nil, fmt.Errorf("rank skills: %w", err)
	}

	return &metricsResponse{
		Users:        users,
		Resumes:      resumes,
		Jobs:         jobs,
		Payments:     payments,
		TopSkills:    topSkills,
		RevenueCents: revenue,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}
