package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
)

// BunSkillRepository implements SkillRepository using Bun ORM
type BunSkillRepository struct {
	db *bun.DB
}

// NewBunSkillRepository creates a new Bun-based skill repository
func NewBunSkillRepository(db *bun.DB) *BunSkillRepository {
	return &BunSkillRepository{db: db}
}

// Create inserts a new skill into the taxonomy
func (r *BunSkillRepository) Create(ctx context.Context, skill *models.Skill) error {
	_, err := r.db.NewInsert().
		Model(skill).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create skill: %w", err)
	}
	return nil
}

// List retrieves one page of skills ordered by name, with the total count.
func (r *BunSkillRepository) List(ctx context.Context, page, limit int) ([]models.Skill, int, error) {
	var skills []models.Skill
	total, err := r.db.NewSelect().
		Model(&skills).
		Order("name ASC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list skills: %w", err)
	}
	return skills, total, nil
}

// TopByUsage retrieves the n most referenced skills.
func (r *BunSkillRepository) TopByUsage(ctx context.Context, n int) ([]models.Skill, error) {
	var skills []models.Skill
	err := r.db.NewSelect().
		Model(&skills).
		Order("usage_count DESC").
		Limit(n).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("top skills by usage: %w", err)
	}
	return skills, nil
}
