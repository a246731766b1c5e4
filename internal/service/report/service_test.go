package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
	repo "github.com/Additional-Code/mercury/internal/repository/report"
	service "github.com/Additional-Code/mercury/internal/service/report"
	"github.com/Additional-Code/mercury/internal/testsupport"
)

func newService(t *testing.T) (*service.Service, *database.Connections) {
	t.Helper()
	conns := testsupport.NewDB(t)
	svc := service.NewService(service.Params{
		Repository: repo.NewRepository(conns),
		Logger:     zap.NewNop(),
	})
	return svc, conns
}

func seedOrder(t *testing.T, conns *database.Connections, createdAt time.Time, qty int64) {
	t.Helper()
	ctx := context.Background()

	o := &entity.Order{UserID: 1, AddressID: 1, Status: entity.OrderStatusCompleted, CreatedAt: createdAt, UpdatedAt: createdAt}
	_, err := conns.Writer.NewInsert().Model(o).Exec(ctx)
	require.NoError(t, err)

	item := &entity.OrderItem{OrderID: o.ID, ProductID: 1, Quantity: qty, UnitPrice: 10, CreatedAt: createdAt, UpdatedAt: createdAt}
	_, err = conns.Writer.NewInsert().Model(item).Exec(ctx)
	require.NoError(t, err)
}

func TestGenerateDefaultsToToday(t *testing.T) {
	svc, conns := newService(t)
	ctx := context.Background()

	seedOrder(t, conns, time.Now().UTC(), 3)

	rows, err := svc.Generate(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 3, rows[0].CountProduct)
}

func TestGetDoesNotRecompute(t *testing.T) {
	svc, conns := newService(t)
	ctx := context.Background()

	day := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	seedOrder(t, conns, day.Add(time.Hour), 2)

	rows, err := svc.Get(ctx, day)
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = svc.Generate(ctx, day)
	require.NoError(t, err)

	rows, err = svc.Get(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 2, rows[0].CountProduct)
}
