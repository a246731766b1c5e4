package report

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
)

// Repository manages the order_reports aggregation table.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// GetByDate returns previously computed rows for the date, ordered by order
// id. Reading never triggers recomputation.
func (r *Repository) GetByDate(ctx context.Context, reportAt time.Time) ([]*entity.OrderReport, error) {
	day := Day(reportAt)
	var rows []*entity.OrderReport
	err := r.reader.NewSelect().Model(&rows).
		Where("report_at = ?", day).
		Order("order_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertForDate aggregates per-order item quantities for orders created on
// the given date and upserts one row per (date, order_id). Re-running the
// same date converges to the same rows.
func (r *Repository) UpsertForDate(ctx context.Context, reportAt time.Time) ([]*entity.OrderReport, error) {
	day := Day(reportAt)
	next := day.AddDate(0, 0, 1)

	var aggregates []struct {
		OrderID      int64 `bun:"order_id"`
		CountProduct int64 `bun:"count_product"`
	}
	err := r.writer.NewSelect().
		TableExpr("orders AS o").
		ColumnExpr("o.id AS order_id").
		ColumnExpr("COALESCE(SUM(oi.quantity), 0) AS count_product").
		Join("JOIN order_items AS oi ON oi.order_id = o.id").
		Where("o.created_at >= ? AND o.created_at < ?", day, next).
		GroupExpr("o.id").
		Scan(ctx, &aggregates)
	if err != nil {
		return nil, err
	}
	if len(aggregates) == 0 {
		return nil, nil
	}

	rows := make([]*entity.OrderReport, 0, len(aggregates))
	for _, agg := range aggregates {
		rows = append(rows, &entity.OrderReport{
			ReportAt:     day,
			OrderID:      agg.OrderID,
			CountProduct: agg.CountProduct,
		})
	}

	_, err = r.writer.NewInsert().Model(&rows).
		On("CONFLICT (report_at, order_id) DO UPDATE").
		Set("count_product = EXCLUDED.count_product").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return r.GetByDate(ctx, day)
}

// Day truncates t to its UTC calendar date, the key rows are stored under.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
