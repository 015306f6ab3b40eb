package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
)

// BunResumeRepository implements ResumeRepository using Bun ORM
type BunResumeRepository struct {
	db *bun.DB
}

// NewBunResumeRepository creates a new Bun-based resume repository
func NewBunResumeRepository(db *bun.DB) *BunResumeRepository {
	return &BunResumeRepository{db: db}
}

// Create inserts a new resume record
func (r *BunResumeRepository) Create(ctx context.Context, resume *models.Resume) error {
	_, err := r.db.NewInsert().
		Model(resume).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create resume: %w", err)
	}
	return nil
}

// GetByID retrieves a resume by its ID
func (r *BunResumeRepository) GetByID(ctx context.Context, id string) (*models.Resume, error) {
	resume := new(models.Resume)
	err := r.db.NewSelect().
		Model(resume).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("resume %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get resume by ID: %w", err)
	}
	return resume, nil
}

// List retrieves one page of resumes, newest first, with the total count.
func (r *BunResumeRepository) List(ctx context.Context, page, limit int) ([]models.Resume, int, error) {
	var resumes []models.Resume
	total, err := r.db.NewSelect().
		Model(&resumes).
		Order("created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list resumes: %w", err)
	}
	return resumes, total, nil
}

// ListByUser retrieves one page of a single user's resumes.
func (r *BunResumeRepository) ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Resume, int, error) {
	var resumes []models.Resume
	total, err := r.db.NewSelect().
		Model(&resumes).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list resumes for user %s: %w", userID, err)
	}
	return resumes, total, nil
}

// CountByStatus returns resume counts grouped by processing status.
func (r *BunResumeRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.db, (*models.Resume)(nil))
}
