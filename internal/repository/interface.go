package repository

import (
	"context"
	"errors"

	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
)

// ErrNotFound is wrapped by lookups that matched no row. Handlers map it
// to a NOT_FOUND envelope.
var ErrNotFound = errors.New("not found")

// UserRepository exposes persistence operations for console accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	SetPasswordHash(ctx context.Context, id string, passwordHash string) error
	List(ctx context.Context, page, limit int) ([]models.User, int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// ResumeRepository exposes persistence operations for uploaded resumes.
type ResumeRepository interface {
	Create(ctx context.Context, resume *models.Resume) error
	GetByID(ctx context.Context, id string) (*models.Resume, error)
	List(ctx context.Context, page, limit int) ([]models.Resume, int, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Resume, int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// JobRepository exposes persistence operations for job postings.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, page, limit int) ([]models.Job, int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// SkillRepository exposes persistence operations for the skill taxonomy.
type SkillRepository interface {
	Create(ctx context.Context, skill *models.Skill) error
	List(ctx context.Context, page, limit int) ([]models.Skill, int, error)
	TopByUsage(ctx context.Context, n int) ([]models.Skill, error)
}

// PaymentRepository exposes persistence operations for billing records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	List(ctx context.Context, page, limit int) ([]models.Payment, int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	RevenueCents(ctx context.Context) (int64, error)
}

// pageOffset converts 1-based page/limit into a SQL offset.
func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
