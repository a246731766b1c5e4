package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/config"
	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
	addressrepo "github.com/Additional-Code/mercury/internal/repository/address"
	orderrepo "github.com/Additional-Code/mercury/internal/repository/order"
	productrepo "github.com/Additional-Code/mercury/internal/repository/product"
	userrepo "github.com/Additional-Code/mercury/internal/repository/user"
	service "github.com/Additional-Code/mercury/internal/service/order"
	productsvc "github.com/Additional-Code/mercury/internal/service/product"
	"github.com/Additional-Code/mercury/internal/testsupport"
	"github.com/Additional-Code/mercury/pkg/errorbank"
)

type env struct {
	conns    *database.Connections
	svc      *service.Service
	products *productrepo.Repository
	store    *testsupport.MemStore
	milk     *entity.Product
	water    *entity.Product
	empty    *entity.Product
}

func newEnv(t *testing.T) *env {
	t.Helper()
	conns := testsupport.NewDB(t)
	ctx := context.Background()

	products := productrepo.NewRepository(conns)
	store := testsupport.NewMemStore()

	prodSvc := productsvc.NewService(productsvc.Params{
		Repository: products,
		Cache:      store,
		Config:     config.Config{Cache: config.Cache{ProductTTL: time.Minute}},
		Logger:     zap.NewNop(),
	})

	svc := service.NewService(service.Params{
		Connections: conns,
		Orders:      orderrepo.NewRepository(conns),
		Products:    products,
		Users:       userrepo.NewRepository(conns),
		Addresses:   addressrepo.NewRepository(conns),
		ProductSvc:  prodSvc,
		Logger:      zap.NewNop(),
	})

	e := &env{
		conns:    conns,
		svc:      svc,
		products: products,
		store:    store,
		milk:     &entity.Product{Name: "Whole Milk 2.5%", Price: 89.90, StockQuantity: 120},
		water:    &entity.Product{Name: "Mineral Water", Price: 159.99, StockQuantity: 80},
		empty:    &entity.Product{Name: "Hard Cheese", Price: 249.99, StockQuantity: 0},
	}
	for _, p := range []*entity.Product{e.milk, e.water, e.empty} {
		require.NoError(t, products.Create(ctx, p))
	}
	return e
}

func milkOrder(quantity int64) service.CreateInput {
	return service.CreateInput{
		User:    &service.UserPayload{Username: "alice", Email: "alice@example.com"},
		Address: &service.AddressPayload{Street: "12 Baker St", City: "Springfield", State: "IL", Zip: "62701", Country: "US"},
		Items:   []service.ItemPayload{{ProductName: "Whole Milk 2.5%", Quantity: quantity}},
	}
}

func (e *env) stockOf(t *testing.T, id int64) int64 {
	t.Helper()
	p, err := e.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func TestCreateFullWorkflow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order, err := e.svc.Create(ctx, milkOrder(2))
	require.NoError(t, err)

	require.Equal(t, entity.OrderStatusPending, order.Status)
	require.InDelta(t, 179.80, order.TotalPrice, 1e-9)
	require.Len(t, order.Items, 1)
	require.Equal(t, e.milk.ID, order.Items[0].ProductID)
	require.Equal(t, 89.90, order.Items[0].UnitPrice)

	require.EqualValues(t, 118, e.stockOf(t, e.milk.ID))
	require.NotZero(t, order.UserID)
	require.NotZero(t, order.AddressID)
}

func TestCreateReusesUserByEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.svc.Create(ctx, milkOrder(1))
	require.NoError(t, err)

	input := milkOrder(1)
	input.User.Username = "somebody else"
	second, err := e.svc.Create(ctx, input)
	require.NoError(t, err)

	require.Equal(t, first.UserID, second.UserID)

	count, err := e.conns.Reader.NewSelect().Model((*entity.User)(nil)).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCreateDeduplicatesAddress(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.svc.Create(ctx, milkOrder(1))
	require.NoError(t, err)

	second, err := e.svc.Create(ctx, milkOrder(1))
	require.NoError(t, err)
	require.Equal(t, first.AddressID, second.AddressID)

	// A different street is a different address.
	input := milkOrder(1)
	input.Address.Street = "99 Elm St"
	third, err := e.svc.Create(ctx, input)
	require.NoError(t, err)
	require.NotEqual(t, first.AddressID, third.AddressID)
}

func TestCreateRejectsZeroStock(t *testing.T) {
	e := newEnv(t)

	input := milkOrder(1)
	input.Items = []service.ItemPayload{{ProductName: "Hard Cheese", Quantity: 1}}

	_, err := e.svc.Create(context.Background(), input)
	appErr := errorbank.From(err)
	require.Equal(t, errorbank.KindBadRequest, appErr.Kind())
	require.Contains(t, appErr.Message(), "out of stock")
}

func TestCreateRejectsOverQuantityAndRollsBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// First item would reserve stock; the second fails, so the whole
	// transaction must roll back.
	input := milkOrder(1)
	input.Items = []service.ItemPayload{
		{ProductName: "Whole Milk 2.5%", Quantity: 2},
		{ProductName: "Mineral Water", Quantity: 500},
	}

	_, err := e.svc.Create(ctx, input)
	appErr := errorbank.From(err)
	require.Equal(t, errorbank.KindBadRequest, appErr.Kind())
	require.Contains(t, appErr.Message(), "not enough stock")

	require.EqualValues(t, 120, e.stockOf(t, e.milk.ID))
	require.EqualValues(t, 80, e.stockOf(t, e.water.ID))

	count, err := e.conns.Reader.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCreateUnitPriceOverride(t *testing.T) {
	e := newEnv(t)

	input := milkOrder(2)
	input.Items[0].UnitPrice = 50

	order, err := e.svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 50.0, order.Items[0].UnitPrice)
	require.InDelta(t, 100.0, order.TotalPrice, 1e-9)
}

func TestCreateResolvesProductByIDThenName(t *testing.T) {
	e := newEnv(t)

	input := milkOrder(1)
	input.Items = []service.ItemPayload{{ProductID: e.water.ID, Quantity: 1}}

	order, err := e.svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, e.water.ID, order.Items[0].ProductID)

	input = milkOrder(1)
	input.Items = []service.ItemPayload{{ProductID: 999, ProductName: "Mineral Water", Quantity: 1}}
	order, err = e.svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, e.water.ID, order.Items[0].ProductID)

	input = milkOrder(1)
	input.Items = []service.ItemPayload{{ProductID: 999, Quantity: 1}}
	_, err = e.svc.Create(context.Background(), input)
	require.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestCreateInvalidatesProductCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	raw := []byte(`{"id":1}`)
	require.NoError(t, e.store.Set(ctx, "product:1", raw, time.Minute))

	_, err := e.svc.Create(ctx, milkOrder(1))
	require.NoError(t, err)
	require.False(t, e.store.Has("product:1"))
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, service.CreateInput{})
	require.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())

	input := milkOrder(1)
	input.Items[0].Quantity = 0
	_, err = e.svc.Create(ctx, input)
	require.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())

	input = milkOrder(1)
	input.Status = "shipped-to-mars"
	_, err = e.svc.Create(ctx, input)
	require.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestUpdateStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order, err := e.svc.Create(ctx, milkOrder(1))
	require.NoError(t, err)

	updated, err := e.svc.UpdateStatus(ctx, order.ID, entity.OrderStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusCompleted, updated.Status)

	// Any status may replace any other.
	back, err := e.svc.UpdateStatus(ctx, order.ID, entity.OrderStatusPending)
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusPending, back.Status)

	_, err = e.svc.UpdateStatus(ctx, order.ID, "bogus")
	require.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())

	_, err = e.svc.UpdateStatus(ctx, 999, entity.OrderStatusCompleted)
	require.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestUpdateReplacesItemsWithoutStockAdjustment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order, err := e.svc.Create(ctx, milkOrder(2))
	require.NoError(t, err)
	require.EqualValues(t, 118, e.stockOf(t, e.milk.ID))

	updated, err := e.svc.Update(ctx, order.ID, service.UpdateInput{
		Items: []service.ItemPayload{{ProductName: "Mineral Water", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.Equal(t, e.water.ID, updated.Items[0].ProductID)
	require.InDelta(t, 159.99, updated.TotalPrice, 1e-9)

	// Replacement never restores or reserves stock.
	require.EqualValues(t, 118, e.stockOf(t, e.milk.ID))
	require.EqualValues(t, 80, e.stockOf(t, e.water.ID))
}

func TestApplyMessage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.ApplyMessage(ctx, service.Message{
		Action:  service.ActionCreate,
		User:    &service.UserPayload{Username: "alice", Email: "alice@example.com"},
		Address: &service.AddressPayload{Street: "12 Baker St", City: "Springfield", State: "IL", Zip: "62701", Country: "US"},
		Items:   []service.ItemPayload{{ProductName: "Whole Milk 2.5%", Quantity: 2}},
	})
	require.NoError(t, err)
	require.InDelta(t, 179.80, created.TotalPrice, 1e-9)

	updated, err := e.svc.ApplyMessage(ctx, service.Message{
		Action:  service.ActionUpdateStatus,
		OrderID: created.ID,
		Status:  entity.OrderStatusProcessing,
	})
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusProcessing, updated.Status)

	_, err = e.svc.ApplyMessage(ctx, service.Message{Action: service.ActionUpdateStatus, Status: entity.OrderStatusPending})
	require.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())

	_, err = e.svc.ApplyMessage(ctx, service.Message{Action: "teleport"})
	appErr := errorbank.From(err)
	require.Equal(t, errorbank.KindBadRequest, appErr.Kind())
	require.Contains(t, appErr.Message(), "unsupported order action")
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	order, err := e.svc.Create(ctx, milkOrder(1))
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(ctx, order.ID))
	require.Equal(t, errorbank.KindNotFound, errorbank.From(e.svc.Delete(ctx, order.ID)).Kind())

	_, err = e.svc.Get(ctx, order.ID)
	require.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestListPagination(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.svc.Create(ctx, milkOrder(1))
		require.NoError(t, err)
	}

	orders, total, err := e.svc.List(ctx, 2, 1, orderrepo.Filter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, orders, 2)
}
