package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pallavilagisetti/admin-control-sub001/internal/auth"
	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
	"github.com/pallavilagisetti/admin-control-sub001/internal/httpx"
	"github.com/pallavilagisetti/admin-control-sub001/internal/repository"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userView  `json:"user"`
}

type userView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Roles       []string   `json:"roles"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Roles:       u.Roles,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// Login authenticates a local account and issues a signed console token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.mock == nil || !h.cfg.InternalAuthEnabled() {
		httpx.Error(w, r, http.StatusForbidden, httpx.CodeForbidden, "Local login disabled")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		httpx.Error(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "Email and password required")
		return
	}

	user, err := h.repos.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("ERROR: login lookup failed: %v", err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeServerError, "Login failed")
		return
	}

	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, "Invalid email or password")
		return
	}

	if user.Status != models.UserStatusActive {
		httpx.Error(w, r, http.StatusForbidden, httpx.CodeForbidden, "Account suspended")
		return
	}

	expiresAt := time.Now().Add(auth.MockTokenTTL)
	token, err := h.mock.Mint(user.ID, user.Email, user.Name, user.Roles, nil, expiresAt)
	if err != nil {
		log.Printf("ERROR: token mint failed for %s: %v", user.ID, err)
		httpx.Error(w, r, http.StatusInternalServerError, httpx.CodeServerError, "Login failed")
		return
	}

	if err := h.repos.Users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.Printf("WARNING: failed to record last login for %s: %v", user.ID, err)
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      newUserView(user),
	})
}

// Logout acknowledges the client discarding its token. Console tokens
// are stateless, so there is nothing to revoke server-side.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// WhoAmI returns the authenticated principal installed by the auth gate.
// Principals verified by the identity provider are joined with their
// linked local account, when one exists, so the panel can surface the
// account status and last login alongside the token claims.
func (h *Handlers) WhoAmI(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, "Authentication required")
		return
	}

	body := map[string]any{
		"id":          principal.ID,
		"email":       principal.Email,
		"name":        principal.DisplayName,
		"roles":       principal.Roles,
		"permissions": principal.Permissions,
		"source":      principal.Source,
	}

	if principal.Source == auth.SourceIdP {
		account, err := h.repos.Users.GetBySubject(r.Context(), principal.ID)
		switch {
		case err == nil:
			body["account"] = newUserView(account)
		case !errors.Is(err, repository.ErrNotFound):
			log.Printf("WARNING: account lookup failed for subject %s: %v", principal.ID, err)
		}
	}

	httpx.JSON(w, http.StatusOK, body)
}
