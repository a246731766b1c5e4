package product

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

var repoTracer = otel.Tracer("github.com/Additional-Code/mercury/repository/product")

// ErrNotFound is returned when a product is missing.
var ErrNotFound = errors.New("product not found")

// ErrInsufficientStock signals that a conditional stock decrement matched no
// row, i.e. the remaining stock is lower than the requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// Filter enumerates the supported equality filters for product listings.
type Filter struct {
	Name string
}

// Update carries the partial fields of a product update; nil means unchanged.
type Update struct {
	Name          *string
	Description   *string
	Price         *float64
	StockQuantity *int64
}

// Repository encapsulates read/write access for products.
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

// GetByID fetches a product by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.GetByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return product, nil
}

// GetByName fetches a product by name. The schema does not force names to be
// unique; the first match wins, mirroring the lookup used during order
// placement.
func (r *Repository) GetByName(ctx context.Context, name string) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.GetByName")
	defer span.End()

	product := new(entity.Product)
	err := r.reader.NewSelect().Model(product).Where("name = ?", name).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return product, nil
}

// List returns one page of products plus the total count under the same
// filter, newest first.
func (r *Repository) List(ctx context.Context, count, page int, filter Filter) ([]*entity.Product, int, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	var products []*entity.Product
	q := r.applyFilter(r.reader.NewSelect().Model(&products), filter)
	err := q.Order("created_at DESC").Limit(count).Offset((page - 1) * count).Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, err
	}

	total, err := r.applyFilter(r.reader.NewSelect().Model((*entity.Product)(nil)), filter).Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return nil, 0, err
	}
	return products, total, nil
}

// Create persists a new product.
func (r *Repository) Create(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	ctx, span := repoTracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if _, err := r.writer.NewInsert().Model(product).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// UpdateByID applies the non-nil fields of upd and returns the fresh record.
func (r *Repository) UpdateByID(ctx context.Context, id int64, upd Update) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.UpdateByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product := new(entity.Product)
	err := r.writer.NewSelect().Model(product).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	if upd.Name != nil {
		product.Name = *upd.Name
	}
	if upd.Description != nil {
		product.Description = *upd.Description
	}
	if upd.Price != nil {
		product.Price = *upd.Price
	}
	if upd.StockQuantity != nil {
		product.StockQuantity = *upd.StockQuantity
	}
	product.UpdatedAt = time.Now().UTC()

	if _, err := r.writer.NewUpdate().Model(product).WherePK().Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	return product, nil
}

// DecrementStock atomically subtracts qty from a product's stock. The guard
// in the WHERE clause keeps stock_quantity from ever going negative, even
// when two orders race on the same product.
func (r *Repository) DecrementStock(ctx context.Context, id, qty int64) error {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.DecrementStock", trace.WithAttributes(
		attribute.Int64("product.id", id),
		attribute.Int64("product.qty", qty),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Product)(nil)).
		Set("stock_quantity = stock_quantity - ?", qty).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// DeleteByID removes a product. Missing rows are reported as ErrNotFound.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "ProductRepository.DeleteByID", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Product)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) applyFilter(q *bun.SelectQuery, filter Filter) *bun.SelectQuery {
	if filter.Name != "" {
		q = q.Where("name = ?", filter.Name)
	}
	return q
}
