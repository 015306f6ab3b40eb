package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
)

// BunJobRepository implements JobRepository using Bun ORM
type BunJobRepository struct {
	db *bun.DB
}

// NewBunJobRepository creates a new Bun-based job repository
func NewBunJobRepository(db *bun.DB) *BunJobRepository {
	return &BunJobRepository{db: db}
}

// Create inserts a new job posting
func (r *BunJobRepository) Create(ctx context.Context, job *models.Job) error {
	_, err := r.db.NewInsert().
		Model(job).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by its ID
func (r *BunJobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	job := new(models.Job)
	err := r.db.NewSelect().
		Model(job).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get job by ID: %w", err)
	}
	return job, nil
}

// List retrieves one page of jobs, newest first, with the total count.
func (r *BunJobRepository) List(ctx context.Context, page, limit int) ([]models.Job, int, error) {
	var jobs []models.Job
	total, err := r.db.NewSelect().
		Model(&jobs).
		Order("created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, total, nil
}

// CountByStatus returns job counts grouped by listing status.
func (r *BunJobRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.db, (*models.Job)(nil))
}
