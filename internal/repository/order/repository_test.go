package order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
	"github.com/Additional-Code/mercury/internal/repository/order"
	"github.com/Additional-Code/mercury/internal/testsupport"
)

type fixture struct {
	conns *database.Connections
	repo  *order.Repository
	user  *entity.User
	addr  *entity.Address
	milk  *entity.Product
	bread *entity.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conns := testsupport.NewDB(t)
	ctx := context.Background()

	f := &fixture{
		conns: conns,
		repo:  order.NewRepository(conns),
		user:  &entity.User{Username: "alice", Email: "alice@example.com"},
		addr:  &entity.Address{Street: "12 Baker St", City: "Springfield", State: "IL", Zip: "62701", Country: "US"},
		milk:  &entity.Product{Name: "Whole Milk 2.5%", Price: 89.90, StockQuantity: 120},
		bread: &entity.Product{Name: "Rye Bread", Price: 65.50, StockQuantity: 60},
	}

	_, err := conns.Writer.NewInsert().Model(f.user).Exec(ctx)
	require.NoError(t, err)
	f.addr.UserID = f.user.ID
	_, err = conns.Writer.NewInsert().Model(f.addr).Exec(ctx)
	require.NoError(t, err)
	_, err = conns.Writer.NewInsert().Model(f.milk).Exec(ctx)
	require.NoError(t, err)
	_, err = conns.Writer.NewInsert().Model(f.bread).Exec(ctx)
	require.NoError(t, err)

	return f
}

func (f *fixture) place(t *testing.T, items ...*entity.OrderItem) *entity.Order {
	t.Helper()
	o := &entity.Order{
		UserID:    f.user.ID,
		AddressID: f.addr.ID,
		Status:    entity.OrderStatusPending,
		Items:     items,
	}
	require.NoError(t, f.repo.Create(context.Background(), o))
	return o
}

func TestCreateComputesTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.place(t,
		&entity.OrderItem{ProductID: f.milk.ID, Quantity: 2, UnitPrice: 89.90},
		&entity.OrderItem{ProductID: f.bread.ID, Quantity: 1, UnitPrice: 65.50},
	)
	require.InDelta(t, 245.30, o.TotalPrice, 1e-9)

	got, err := f.repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	require.InDelta(t, 245.30, got.TotalPrice, 1e-9)
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	f := newFixture(t)

	o := &entity.Order{UserID: f.user.ID, AddressID: f.addr.ID, Status: entity.OrderStatusPending}
	require.ErrorIs(t, f.repo.Create(context.Background(), o), order.ErrNoItems)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.place(t, &entity.OrderItem{ProductID: f.milk.ID, Quantity: 1, UnitPrice: 89.90})

	updated, err := f.repo.UpdateStatus(ctx, o.ID, entity.OrderStatusCompleted)
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusCompleted, updated.Status)
	require.InDelta(t, 89.90, updated.TotalPrice, 1e-9)

	_, err = f.repo.UpdateStatus(ctx, 999, entity.OrderStatusCompleted)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestReplaceItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.place(t, &entity.OrderItem{ProductID: f.milk.ID, Quantity: 2, UnitPrice: 89.90})

	updated, err := f.repo.ReplaceItems(ctx, o.ID, []*entity.OrderItem{
		{ProductID: f.bread.ID, Quantity: 3, UnitPrice: 65.50},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.Equal(t, f.bread.ID, updated.Items[0].ProductID)
	require.InDelta(t, 196.50, updated.TotalPrice, 1e-9)

	_, err = f.repo.ReplaceItems(ctx, o.ID, nil)
	require.ErrorIs(t, err, order.ErrNoItems)

	_, err = f.repo.ReplaceItems(ctx, 999, []*entity.OrderItem{
		{ProductID: f.milk.ID, Quantity: 1, UnitPrice: 89.90},
	})
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.place(t, &entity.OrderItem{ProductID: f.milk.ID, Quantity: 1, UnitPrice: 89.90})
	f.place(t, &entity.OrderItem{ProductID: f.bread.ID, Quantity: 1, UnitPrice: 65.50})

	_, err := f.repo.UpdateStatus(ctx, first.ID, entity.OrderStatusCompleted)
	require.NoError(t, err)

	completed, total, err := f.repo.List(ctx, 10, 1, order.Filter{Status: entity.OrderStatusCompleted})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, completed, 1)
	require.Equal(t, first.ID, completed[0].ID)

	all, total, err := f.repo.List(ctx, 10, 1, order.Filter{UserID: f.user.ID})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, all, 2)
}

func TestDeleteByIDRemovesItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o := f.place(t, &entity.OrderItem{ProductID: f.milk.ID, Quantity: 1, UnitPrice: 89.90})

	require.NoError(t, f.repo.DeleteByID(ctx, o.ID))
	require.ErrorIs(t, f.repo.DeleteByID(ctx, o.ID), order.ErrNotFound)

	count, err := f.conns.Reader.NewSelect().Model((*entity.OrderItem)(nil)).
		Where("order_id = ?", o.ID).Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}
