package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
	"github.com/Additional-Code/mercury/internal/repository/report"
	"github.com/Additional-Code/mercury/internal/testsupport"
)

func seedOrder(t *testing.T, conns *database.Connections, createdAt time.Time, quantities ...int64) *entity.Order {
	t.Helper()
	ctx := context.Background()

	o := &entity.Order{
		UserID:    1,
		AddressID: 1,
		Status:    entity.OrderStatusCompleted,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	_, err := conns.Writer.NewInsert().Model(o).Exec(ctx)
	require.NoError(t, err)

	for i, qty := range quantities {
		item := &entity.OrderItem{
			OrderID:   o.ID,
			ProductID: int64(i + 1),
			Quantity:  qty,
			UnitPrice: 10,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		_, err := conns.Writer.NewInsert().Model(item).Exec(ctx)
		require.NoError(t, err)
	}
	return o
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2026, time.March, 5, 1, 30, 0, 0, loc)

	day := report.Day(ts)
	require.Equal(t, time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC), day)
}

func TestUpsertForDateAggregates(t *testing.T) {
	conns := testsupport.NewDB(t)
	repo := report.NewRepository(conns)
	ctx := context.Background()

	day := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	inDay := day.Add(10 * time.Hour)

	first := seedOrder(t, conns, inDay, 1, 2)
	second := seedOrder(t, conns, inDay, 3)
	seedOrder(t, conns, day.AddDate(0, 0, 1).Add(time.Hour), 7)

	rows, err := repo.UpsertForDate(ctx, inDay)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, first.ID, rows[0].OrderID)
	require.EqualValues(t, 3, rows[0].CountProduct)
	require.Equal(t, second.ID, rows[1].OrderID)
	require.EqualValues(t, 3, rows[1].CountProduct)
}

func TestUpsertForDateIdempotent(t *testing.T) {
	conns := testsupport.NewDB(t)
	repo := report.NewRepository(conns)
	ctx := context.Background()

	day := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	o := seedOrder(t, conns, day.Add(9*time.Hour), 2, 2)

	rows, err := repo.UpsertForDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 4, rows[0].CountProduct)

	// Add a late item and rerun: the existing row converges, never duplicates.
	item := &entity.OrderItem{OrderID: o.ID, ProductID: 9, Quantity: 1, UnitPrice: 5, CreatedAt: day, UpdatedAt: day}
	_, err = conns.Writer.NewInsert().Model(item).Exec(ctx)
	require.NoError(t, err)

	rows, err = repo.UpsertForDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 5, rows[0].CountProduct)
}

func TestUpsertForDateEmptyDay(t *testing.T) {
	conns := testsupport.NewDB(t)
	repo := report.NewRepository(conns)
	ctx := context.Background()

	rows, err := repo.UpsertForDate(ctx, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestGetByDateReadsWithoutRecompute(t *testing.T) {
	conns := testsupport.NewDB(t)
	repo := report.NewRepository(conns)
	ctx := context.Background()

	day := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	seedOrder(t, conns, day.Add(time.Hour), 4)

	// Nothing aggregated yet, so reads return nothing.
	rows, err := repo.GetByDate(ctx, day)
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = repo.UpsertForDate(ctx, day)
	require.NoError(t, err)

	rows, err = repo.GetByDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.EqualValues(t, 4, rows[0].CountProduct)
}
