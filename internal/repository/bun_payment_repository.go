package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pallavilagisetti/admin-control-sub001/internal/db/models"
)

// BunPaymentRepository implements PaymentRepository using Bun ORM
type BunPaymentRepository struct {
	db *bun.DB
}

// NewBunPaymentRepository creates a new Bun-based payment repository
func NewBunPaymentRepository(db *bun.DB) *BunPaymentRepository {
	return &BunPaymentRepository{db: db}
}

// Create inserts a new payment record
func (r *BunPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	_, err := r.db.NewInsert().
		Model(payment).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// Update persists changes to an existing payment
func (r *BunPaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	result, err := r.db.NewUpdate().
		Model(payment).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("payment %s: %w", payment.ID, ErrNotFound)
	}
	return nil
}

// GetByID retrieves a payment by its ID
func (r *BunPaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	payment := new(models.Payment)
	err := r.db.NewSelect().
		Model(payment).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get payment by ID: %w", err)
	}
	return payment, nil
}

// List retrieves one page of payments, newest first, with the total count.
func (r *BunPaymentRepository) List(ctx context.Context, page, limit int) ([]models.Payment, int, error) {
	var payments []models.Payment
	total, err := r.db.NewSelect().
		Model(&payments).
		Order("created_at DESC").
		Limit(limit).
		Offset(pageOffset(page, limit)).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	return payments, total, nil
}

// CountByStatus returns payment counts grouped by charge status.
func (r *BunPaymentRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return countByStatus(ctx, r.db, (*models.Payment)(nil))
}

// RevenueCents sums successful charges net of refunds.
func (r *BunPaymentRepository) RevenueCents(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	err := r.db.NewSelect().
		Model((*models.Payment)(nil)).
		ColumnExpr("sum(amount_cents)").
		Where("status = ?", models.PaymentStatusSucceeded).
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total.Int64, nil
}
