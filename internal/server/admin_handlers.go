package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
	"github.com/pallavilagisetti/admin-control-sub001/internal/httpx"
	"github.com/pallavilagisetti/admin-control-sub001/internal/repository"
)

// listError maps repository failures on list endpoints to the envelope.
func (h *Handlers) listError(w http.ResponseWriter, r *http.Request, what string, err error) {
	log.Printf("ERROR: list %s: %v", what, err)
	httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeServerError, "Failed to load "+what)
}

// ListUsers returns one page of console accounts.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	users, total, err := h.repos.Users.List(r.Context(), page, limit)
	if err != nil {
		h.listError(w, r, "users", err)
		return
	}

	items := make([]userView, 0, len(users))
	for i := range users {
		items = append(items, newUserView(&users[i]))
	}
	httpx.List(w, items, httpx.NewPagination(page, limit, total))
}

// GetUser returns a single account by id.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.repos.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httpx.Error(w, r, http.StatusNotFound, httpx.CodeNotFound, "User not found")
			return
		}
		h.listError(w, r, "user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserView(user))
}

// ListUserResumes returns one page of a single user's resumes. Access is
// restricted to the owner or an admin by the route guard.
func (h *Handlers) ListUserResumes(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	userID := chi.URLParam(r, "id")

	resumes, total, err := h.repos.Resumes.ListByUser(r.Context(), userID, page, limit)
	if err != nil {
		h.listError(w, r, "resumes", err)
		return
	}
	httpx.List(w, resumes, httpx.NewPagination(page, limit, total))
}

// ListResumes returns one page of all resumes.
func (h *Handlers) ListResumes(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	resumes, total, err := h.repos.Resumes.List(r.Context(), page, limit)
	if err != nil {
		h.listError(w, r, "resumes", err)
		return
	}
	httpx.List(w, resumes, httpx.NewPagination(page, limit, total))
}

type uploadResumeRequest struct {
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	FileName  string `json:"fileName"`
	SizeBytes int64  `json:"sizeBytes"`
}

// UploadResume registers an uploaded resume's metadata. The binary
// itself lands in object storage via the ingestion pipeline; the console
// only records the entry for parsing.
func (h *Handlers) UploadResume(w http.ResponseWriter, r *http.Request) {
	var req uploadResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.FileName == "" {
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "userId and fileName required")
		return
	}

	resume := &models.Resume{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Title:     req.Title,
		FileName:  req.FileName,
		SizeBytes: req.SizeBytes,
		Status:    models.ResumeStatusUploaded,
		CreatedAt: time.Now(),
	}
	if err := h.repos.Resumes.Create(r.Context(), resume); err != nil {
		log.Printf("ERROR: create resume: %v", err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeServerError, "Failed to register resume")
		return
	}

	httpx.JSON(w, http.StatusCreated, resume)
}

// ListJobs returns one page of job postings.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	jobs, total, err := h.repos.Jobs.List(r.Context(), page, limit)
	if err != nil {
		h.listError(w, r, "jobs", err)
		return
	}
	httpx.List(w, jobs, httpx.NewPagination(page, limit, total))
}

// ListSkills returns one page of the skill taxonomy.
func (h *Handlers) ListSkills(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	skills, total, err := h.repos.Skills.List(r.Context(), page, limit)
	if err != nil {
		h.listError(w, r, "skills", err)
		return
	}
	httpx.List(w, skills, httpx.NewPagination(page, limit, total))
}

// ListPayments returns one page of billing records.
func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	payments, total, err := h.repos.Payments.List(r.Context(), page, limit)
	if err != nil {
		h.listError(w, r, "payments", err)
		return
	}
	httpx.List(w, payments, httpx.NewPagination(page, limit, total))
}

// RefundPayment marks a succeeded charge as refunded. The provider-side
// refund is issued by the billing worker picking up the status change.
func (h *Handlers) RefundPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.repos.Payments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httpx.Error(w, r, http.StatusNotFound, httpx.CodeNotFound, "Payment not found")
			return
		}
		h.listError(w, r, "payment", err)
		return
	}

	if payment.Status != models.PaymentStatusSucceeded {
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Only succeeded payments can be refunded")
		return
	}

	now := time.Now()
	payment.Status = models.PaymentStatusRefunded
	payment.RefundedAt = &now
	if err := h.repos.Payments.Update(r.Context(), payment); err != nil {
		log.Printf("ERROR: refund payment %s: %v", payment.ID, err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeServerError, "Failed to refund payment")
		return
	}

	httpx.JSON(w, http.StatusOK, payment)
}
