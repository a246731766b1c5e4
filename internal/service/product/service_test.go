package product_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/config"
	repo "github.com/Additional-Code/mercury/internal/repository/product"
	service "github.com/Additional-Code/mercury/internal/service/product"
	"github.com/Additional-Code/mercury/internal/testsupport"
	"github.com/Additional-Code/mercury/pkg/errorbank"
)

func newService(t *testing.T) (*service.Service, *testsupport.MemStore) {
	t.Helper()
	store := testsupport.NewMemStore()
	svc := service.NewService(service.Params{
		Repository: repo.NewRepository(testsupport.NewDB(t)),
		Cache:      store,
		Config:     config.Config{Cache: config.Cache{ProductTTL: time.Minute}},
		Logger:     zap.NewNop(),
	})
	return svc, store
}

func ptr[T any](v T) *T { return &v }

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, service.CreateInput{Name: "", Price: 10})
	require.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())

	_, err = svc.Create(ctx, service.CreateInput{Name: "Milk", Price: 0})
	require.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())

	_, err = svc.Create(ctx, service.CreateInput{Name: "Milk", Price: 10, StockQuantity: -1})
	require.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestGetPopulatesCache(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, service.CreateInput{Name: "Milk", Price: 89.90, StockQuantity: 120})
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, store.Has("product:1"))
}

func TestApplyMessageCreateUpsertsByName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.ApplyMessage(ctx, service.Message{
		Action:        service.ActionCreate,
		Name:          "Milk",
		Price:         ptr(89.90),
		StockQuantity: ptr(int64(120)),
	})
	require.NoError(t, err)

	// Same name again: the existing product is updated, not duplicated.
	second, err := svc.ApplyMessage(ctx, service.Message{
		Action: service.ActionCreate,
		Name:   "Milk",
		Price:  ptr(99.90),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 99.90, second.Price)

	_, total, err := svc.List(ctx, 10, 1, repo.Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestApplyMessageCreateRequiresNameAndPrice(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ApplyMessage(context.Background(), service.Message{Action: service.ActionCreate, Name: "Milk"})
	require.Equal(t, errorbank.KindBadRequest, errorbank.From(err).Kind())
}

func TestApplyMessageUpdateLocatesByIDThenName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, service.CreateInput{Name: "Milk", Price: 89.90, StockQuantity: 120})
	require.NoError(t, err)

	// Unknown id falls through to the name lookup.
	updated, err := svc.ApplyMessage(ctx, service.Message{
		Action:    service.ActionUpdate,
		ProductID: 999,
		Name:      "Milk",
		Price:     ptr(79.90),
	})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, 79.90, updated.Price)

	_, err = svc.ApplyMessage(ctx, service.Message{Action: service.ActionUpdate, Name: "Ghost"})
	require.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestApplyMessageMarkOutOfStock(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, service.CreateInput{Name: "Milk", Price: 89.90, StockQuantity: 120})
	require.NoError(t, err)

	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, store.Has("product:1"))

	updated, err := svc.ApplyMessage(ctx, service.Message{Action: service.ActionMarkOutOfStock, Name: "Milk"})
	require.NoError(t, err)
	require.Zero(t, updated.StockQuantity)
	require.False(t, store.Has("product:1"))
}

func TestApplyMessageUnsupportedAction(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ApplyMessage(context.Background(), service.Message{Action: "destroy_everything"})
	appErr := errorbank.From(err)
	require.Equal(t, errorbank.KindBadRequest, appErr.Kind())
	require.Contains(t, appErr.Message(), "unsupported product action")
}
