package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/cache"
	"github.com/Additional-Code/mercury/internal/config"
	"github.com/Additional-Code/mercury/internal/entity"
	repo "github.com/Additional-Code/mercury/internal/repository/product"
	"github.com/Additional-Code/mercury/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/mercury/service/product")

// Service encapsulates business logic around products.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.ProductTTL,
		logger:   p.Logger,
	}
}

// CreateInput carries the fields accepted when creating a product.
type CreateInput struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	StockQuantity int64   `json:"stock_quantity"`
}

// UpdateInput carries the optional fields of a product update.
type UpdateInput struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	StockQuantity *int64   `json:"stock_quantity"`
}

// Get retrieves a product by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Get", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if product, err := s.getFromCache(ctx, id); err == nil {
		return product, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("products cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("product %d not found", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, product); err != nil {
		s.logger.Warn("products cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return product, nil
}

// List returns one page of products plus the total count.
func (s *Service) List(ctx context.Context, count, page int, filter repo.Filter) ([]*entity.Product, int, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.List")
	defer span.End()

	products, total, err := s.repo.List(ctx, count, page, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list products", errorbank.WithCause(err))
	}
	return products, total, nil
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, input CreateInput) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Create")
	defer span.End()

	if strings.TrimSpace(input.Name) == "" {
		return nil, errorbank.BadRequest("product name is required")
	}
	if input.Price <= 0 {
		return nil, errorbank.BadRequest("product price must be positive")
	}
	if input.StockQuantity < 0 {
		return nil, errorbank.BadRequest("stock_quantity must not be negative")
	}

	product := &entity.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create product", errorbank.WithCause(err))
	}
	return product, nil
}

// Update applies a partial update and invalidates the cached entry.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Update", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if input.Price != nil && *input.Price <= 0 {
		return nil, errorbank.BadRequest("product price must be positive")
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return nil, errorbank.BadRequest("stock_quantity must not be negative")
	}

	product, err := s.repo.UpdateByID(ctx, id, repo.Update{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("product %d not found", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update product", errorbank.WithCause(err))
	}

	s.Invalidate(ctx, id)
	return product, nil
}

// MarkOutOfStock forces a product's stock to zero.
func (s *Service) MarkOutOfStock(ctx context.Context, id int64) (*entity.Product, error) {
	var zero int64
	return s.Update(ctx, id, UpdateInput{StockQuantity: &zero})
}

// Delete removes a product and invalidates the cached entry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "ProductService.Delete", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound(fmt.Sprintf("product %d not found", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete product", errorbank.WithCause(err))
	}

	s.Invalidate(ctx, id)
	return nil
}

// Invalidate drops the cached entry for a product. The order workflow calls
// this after stock decrements so readers never see a stale quantity.
func (s *Service) Invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("products cache invalidate failed", zap.Int64("id", id), zap.Error(err))
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Product, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, cacheKey(id))
	if err != nil {
		return nil, err
	}
	var product entity.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) storeInCache(ctx context.Context, product *entity.Product) error {
	if s.cache == nil || product == nil {
		return nil
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cacheKey(product.ID), raw, s.cacheTTL)
}
