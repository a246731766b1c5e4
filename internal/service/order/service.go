package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
	addressrepo "github.com/Additional-Code/mercury/internal/repository/address"
	orderrepo "github.com/Additional-Code/mercury/internal/repository/order"
	productrepo "github.com/Additional-Code/mercury/internal/repository/product"
	userrepo "github.com/Additional-Code/mercury/internal/repository/user"
	productsvc "github.com/Additional-Code/mercury/internal/service/product"
	"github.com/Additional-Code/mercury/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/mercury/service/order")

// Service is the order workflow engine: the only component that creates or
// mutates orders. Every mutating call runs as one store transaction; either
// all of its reads and writes commit or none do.
type Service struct {
	conns     *database.Connections
	orders    *orderrepo.Repository
	products  *productrepo.Repository
	users     *userrepo.Repository
	addresses *addressrepo.Repository
	prodSvc   *productsvc.Service
	logger    *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections *database.Connections
	Orders      *orderrepo.Repository
	Products    *productrepo.Repository
	Users       *userrepo.Repository
	Addresses   *addressrepo.Repository
	ProductSvc  *productsvc.Service
	Logger      *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		conns:     p.Connections,
		orders:    p.Orders,
		products:  p.Products,
		users:     p.Users,
		addresses: p.Addresses,
		prodSvc:   p.ProductSvc,
		logger:    p.Logger,
	}
}

// Get retrieves an order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("order %d not found", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	return order, nil
}

// List returns one page of orders plus the total count.
func (s *Service) List(ctx context.Context, count, page int, filter orderrepo.Filter) ([]*entity.Order, int, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	orders, total, err := s.orders.List(ctx, count, page, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, total, nil
}

// Create places an order: resolves or creates the user and address, checks
// and reserves stock, snapshots unit prices, and persists the order with its
// items, all inside one transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create")
	defer span.End()

	if err := input.validate(); err != nil {
		return nil, err
	}

	var (
		created    *entity.Order
		productIDs []int64
	)
	err := s.conns.Writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := s.users.WithTx(tx)
		addresses := s.addresses.WithTx(tx)
		products := s.products.WithTx(tx)
		orders := s.orders.WithTx(tx)

		user, err := s.resolveUser(ctx, users, input.UserID, input.User)
		if err != nil {
			return err
		}

		addr, err := s.resolveAddress(ctx, addresses, input.AddressID, input.Address, user.ID)
		if err != nil {
			return err
		}

		items, ids, err := s.reserveItems(ctx, products, input.Items)
		if err != nil {
			return err
		}
		productIDs = ids

		order := &entity.Order{
			UserID:    user.ID,
			AddressID: addr.ID,
			Status:    input.Status,
			Items:     items,
		}
		if err := orders.Create(ctx, order); err != nil {
			return errorbank.Internal("failed to persist order", errorbank.WithCause(err))
		}

		created, err = orders.GetByID(ctx, order.ID)
		if err != nil {
			return errorbank.Internal("failed to reload order", errorbank.WithCause(err))
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.From(err)
	}

	for _, id := range productIDs {
		s.prodSvc.Invalidate(ctx, id)
	}

	s.logger.Info("order created",
		zap.Int64("id", created.ID),
		zap.Int64("user_id", created.UserID),
		zap.Float64("total_price", created.TotalPrice),
		zap.Int("items", len(created.Items)),
	)
	return created, nil
}

// UpdateStatus sets the order status. Transitions are unconstrained; any
// status may replace any other. Stock and items are untouched.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", status),
	))
	defer span.End()

	if !entity.ValidOrderStatus(status) {
		return nil, errorbank.BadRequest(fmt.Sprintf("invalid order status: %s", status))
	}

	order, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("order %d not found", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order status", errorbank.WithCause(err))
	}
	return order, nil
}

// Update applies a status change and/or replaces the order's item set. Item
// replacement recomputes the total from the new set but does not restore or
// re-reserve stock; only order creation moves stock.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if input.Status != nil && !entity.ValidOrderStatus(*input.Status) {
		return nil, errorbank.BadRequest(fmt.Sprintf("invalid order status: %s", *input.Status))
	}
	for i, item := range input.Items {
		if item.ProductID == 0 && item.ProductName == "" {
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: product_id or product_name is required", i))
		}
		if item.Quantity <= 0 {
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: quantity must be positive", i))
		}
	}

	var updated *entity.Order
	err := s.conns.Writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		products := s.products.WithTx(tx)
		orders := s.orders.WithTx(tx)

		if input.Items != nil {
			items := make([]*entity.OrderItem, 0, len(input.Items))
			for _, payload := range input.Items {
				product, err := s.resolveProduct(ctx, products, payload)
				if err != nil {
					return err
				}
				unitPrice := payload.UnitPrice
				if unitPrice == 0 {
					unitPrice = product.Price
				}
				items = append(items, &entity.OrderItem{
					ProductID: product.ID,
					Quantity:  payload.Quantity,
					UnitPrice: unitPrice,
				})
			}
			if _, err := orders.ReplaceItems(ctx, id, items); err != nil {
				if errors.Is(err, orderrepo.ErrNotFound) {
					return errorbank.NotFound(fmt.Sprintf("order %d not found", id))
				}
				return errorbank.Internal("failed to replace order items", errorbank.WithCause(err))
			}
		}

		if input.Status != nil {
			if _, err := orders.UpdateStatus(ctx, id, *input.Status); err != nil {
				if errors.Is(err, orderrepo.ErrNotFound) {
					return errorbank.NotFound(fmt.Sprintf("order %d not found", id))
				}
				return errorbank.Internal("failed to update order status", errorbank.WithCause(err))
			}
		}

		var err error
		updated, err = orders.GetByID(ctx, id)
		if errors.Is(err, orderrepo.ErrNotFound) {
			return errorbank.NotFound(fmt.Sprintf("order %d not found", id))
		}
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.From(err)
	}
	return updated, nil
}

// Delete removes an order and its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if err := s.orders.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return errorbank.NotFound(fmt.Sprintf("order %d not found", id))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}
	return nil
}

// ApplyMessage dispatches a queue message to the matching order operation.
// Both transports share the same resolve/validate/persist procedure.
func (s *Service) ApplyMessage(ctx context.Context, msg Message) (*entity.Order, error) {
	switch msg.Action {
	case ActionCreate:
		return s.Create(ctx, CreateInput{
			UserID:    msg.UserID,
			AddressID: msg.AddressID,
			User:      msg.User,
			Address:   msg.Address,
			Items:     msg.Items,
			Status:    msg.Status,
		})
	case ActionUpdateStatus:
		if msg.OrderID == 0 {
			return nil, errorbank.BadRequest("order_id is required to update order status")
		}
		return s.UpdateStatus(ctx, msg.OrderID, msg.Status)
	default:
		return nil, errorbank.BadRequest(fmt.Sprintf("unsupported order action: %s", msg.Action))
	}
}

// resolveUser returns the referenced user, reuses an existing one matching
// the payload email, or creates a new record. A lost insert race on email is
// recovered by re-fetching; the conflict never reaches the caller.
func (s *Service) resolveUser(ctx context.Context, users *userrepo.Repository, userID int64, payload *UserPayload) (*entity.User, error) {
	if userID != 0 {
		user, err := users.GetByID(ctx, userID)
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("user %d not found", userID))
		}
		if err != nil {
			return nil, errorbank.Internal("failed to load user", errorbank.WithCause(err))
		}
		return user, nil
	}

	existing, err := users.GetByEmail(ctx, payload.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.Internal("failed to look up user by email", errorbank.WithCause(err))
	}

	user := &entity.User{
		Username:    payload.Username,
		Email:       payload.Email,
		Description: payload.Description,
	}
	err = users.Create(ctx, user)
	if errors.Is(err, userrepo.ErrEmailTaken) {
		return users.GetByEmail(ctx, payload.Email)
	}
	if err != nil {
		return nil, errorbank.Internal("failed to create user", errorbank.WithCause(err))
	}
	return user, nil
}

// resolveAddress returns the referenced address, reuses an existing one
// matching the full tuple for the user, or creates a new record.
func (s *Service) resolveAddress(ctx context.Context, addresses *addressrepo.Repository, addressID int64, payload *AddressPayload, userID int64) (*entity.Address, error) {
	if addressID != 0 {
		addr, err := addresses.GetByID(ctx, addressID)
		if errors.Is(err, addressrepo.ErrNotFound) {
			return nil, errorbank.NotFound(fmt.Sprintf("address %d not found", addressID))
		}
		if err != nil {
			return nil, errorbank.Internal("failed to load address", errorbank.WithCause(err))
		}
		return addr, nil
	}

	existing, err := addresses.FindExisting(ctx, userID, payload.Street, payload.City, payload.State, payload.Zip, payload.Country)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, addressrepo.ErrNotFound) {
		return nil, errorbank.Internal("failed to look up address", errorbank.WithCause(err))
	}

	addr := &entity.Address{
		UserID:    userID,
		Street:    payload.Street,
		City:      payload.City,
		State:     payload.State,
		Zip:       payload.Zip,
		Country:   payload.Country,
		IsPrimary: payload.IsPrimary,
	}
	if err := addresses.Create(ctx, addr); err != nil {
		return nil, errorbank.Internal("failed to create address", errorbank.WithCause(err))
	}
	return addr, nil
}

// reserveItems resolves each requested product, rejects zero-stock and
// over-quantity requests before any write, snapshots the unit price, and
// decrements stock. The conditional decrement is the last line of defence:
// even if a concurrent order depleted stock after our read, the guarded
// UPDATE refuses to drive the quantity negative.
func (s *Service) reserveItems(ctx context.Context, products *productrepo.Repository, payloads []ItemPayload) ([]*entity.OrderItem, []int64, error) {
	items := make([]*entity.OrderItem, 0, len(payloads))
	ids := make([]int64, 0, len(payloads))

	for _, payload := range payloads {
		product, err := s.resolveProduct(ctx, products, payload)
		if err != nil {
			return nil, nil, err
		}
		if product.StockQuantity == 0 {
			return nil, nil, errorbank.BadRequest(fmt.Sprintf("product %q is out of stock and cannot be ordered", product.Name))
		}
		if payload.Quantity > product.StockQuantity {
			return nil, nil, errorbank.BadRequest(fmt.Sprintf(
				"not enough stock for %q (%d requested, %d available)",
				product.Name, payload.Quantity, product.StockQuantity,
			))
		}

		unitPrice := payload.UnitPrice
		if unitPrice == 0 {
			unitPrice = product.Price
		}

		if err := products.DecrementStock(ctx, product.ID, payload.Quantity); err != nil {
			if errors.Is(err, productrepo.ErrInsufficientStock) {
				return nil, nil, errorbank.BadRequest(fmt.Sprintf("not enough stock for %q", product.Name))
			}
			return nil, nil, errorbank.Internal("failed to reserve stock", errorbank.WithCause(err))
		}

		items = append(items, &entity.OrderItem{
			ProductID: product.ID,
			Quantity:  payload.Quantity,
			UnitPrice: unitPrice,
		})
		ids = append(ids, product.ID)
	}
	return items, ids, nil
}

// resolveProduct looks a product up by id first, then by name.
func (s *Service) resolveProduct(ctx context.Context, products *productrepo.Repository, payload ItemPayload) (*entity.Product, error) {
	if payload.ProductID != 0 {
		product, err := products.GetByID(ctx, payload.ProductID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, productrepo.ErrNotFound) {
			return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
		}
	}
	if payload.ProductName != "" {
		product, err := products.GetByName(ctx, payload.ProductName)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, productrepo.ErrNotFound) {
			return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
		}
	}
	return nil, errorbank.NotFound("product not found for order item")
}
