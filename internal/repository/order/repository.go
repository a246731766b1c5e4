package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/mercury/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// ErrNoItems is returned when an order would be created without any items.
var ErrNoItems = errors.New("order must contain at least one item")

// Filter enumerates the supported equality filters for order listings.
type Filter struct {
	Status string
	UserID int64
}

// Repository encapsulates read/write access for orders and their items.
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

// WithTx returns a copy of the repository bound to the given transaction.
func (r *Repository) WithTx(tx bun.Tx) *Repository {
	return &Repository{writer: tx, reader: tx}
}

// GetByID fetches an order with its items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.reader.NewSelect().Model(order).Relation("Items").Where("o.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// List returns one page of orders with their items plus the total count
// under the same filter, newest first.
func (r *Repository) List(ctx context.Context, count, page int, filter Filter) ([]*entity.Order, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	var orders []*entity.Order
	q := r.applyFilter(r.reader.NewSelect().Model(&orders).Relation("Items"), filter)
	err := q.Order("o.created_at DESC").Limit(count).Offset((page - 1) * count).Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}

	total, err := r.applyFilter(r.reader.NewSelect().Model((*entity.Order)(nil)), filter).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return nil, 0, err
	}
	return orders, total, nil
}

// Create persists an order with its items. The order's total is recomputed
// from the item set here, never trusted from the caller.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	if len(order.Items) == 0 {
		return ErrNoItems
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.Int64("order.user_id", order.UserID)))
	defer span.End()

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	order.TotalPrice = totalOf(order.Items)

	if _, err := r.writer.NewInsert().Model(order).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert order failed")
		return err
	}

	for _, item := range order.Items {
		item.OrderID = order.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.UpdatedAt = now
	}
	if _, err := r.writer.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert items failed")
		return err
	}
	return nil
}

// UpdateStatus sets the order status without touching items or stock.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", status),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// ReplaceItems swaps the order's entire item set: prior items are deleted,
// the new ones inserted, and the total re-established from the new set.
func (r *Repository) ReplaceItems(ctx context.Context, id int64, items []*entity.OrderItem) (*entity.Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ReplaceItems", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.writer.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	if _, err := r.writer.NewDelete().Model((*entity.OrderItem)(nil)).Where("order_id = ?", id).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete items failed")
		return nil, err
	}

	now := time.Now().UTC()
	for _, item := range items {
		item.OrderID = id
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.UpdatedAt = now
	}
	if _, err := r.writer.NewInsert().Model(&items).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert items failed")
		return nil, err
	}

	if _, err := r.writer.NewUpdate().Model((*entity.Order)(nil)).
		Set("total_price = ?", totalOf(items)).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update total failed")
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// DeleteByID removes an order and its items.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.DeleteByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Order)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	_, err = r.writer.NewDelete().Model((*entity.OrderItem)(nil)).Where("order_id = ?", id).Exec(ctx)
	return err
}

func (r *Repository) applyFilter(q *bun.SelectQuery, filter Filter) *bun.SelectQuery {
	if filter.Status != "" {
		q = q.Where("o.status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		q = q.Where("o.user_id = ?", filter.UserID)
	}
	return q
}

func totalOf(items []*entity.OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}
