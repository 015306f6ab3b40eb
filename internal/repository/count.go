package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

type statusCount struct {
	Status string `bun:"status"`
	Count  int    `bun:"count"`
}

// countByStatus groups the model's rows by their status column. Every
// listed entity carries one, so the aggregate is shared.
func countByStatus(ctx context.Context, db *bun.DB, model any) (map[string]int, error) {
	var rows []statusCount
	err := db.NewSelect().
		Model(model).
		ColumnExpr("status").
		ColumnExpr("count(*) AS count").
		GroupExpr("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
