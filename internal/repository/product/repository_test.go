package product_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/mercury/internal/entity"
	"github.com/Additional-Code/mercury/internal/repository/product"
	"github.com/Additional-Code/mercury/internal/testsupport"
)

func newRepo(t *testing.T) *product.Repository {
	t.Helper()
	return product.NewRepository(testsupport.NewDB(t))
}

func seed(t *testing.T, repo *product.Repository, name string, price float64, stock int64) *entity.Product {
	t.Helper()
	p := &entity.Product{Name: name, Price: price, StockQuantity: stock}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestGetByName(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	seeded := seed(t, repo, "Whole Milk 2.5%", 89.90, 120)

	got, err := repo.GetByName(ctx, "Whole Milk 2.5%")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, got.ID)
	require.Equal(t, 89.90, got.Price)

	_, err = repo.GetByName(ctx, "No Such Product")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestDecrementStock(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p := seed(t, repo, "Rye Bread", 65.50, 10)

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 4))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 6, got.StockQuantity)
}

func TestDecrementStockInsufficient(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p := seed(t, repo, "Hard Cheese", 249.99, 3)

	err := repo.DecrementStock(ctx, p.ID, 5)
	require.ErrorIs(t, err, product.ErrInsufficientStock)

	// The guarded update must not have touched the row.
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, got.StockQuantity)
}

func TestDecrementStockToZero(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p := seed(t, repo, "Mineral Water", 159.99, 5)

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 5))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, got.StockQuantity)

	require.ErrorIs(t, repo.DecrementStock(ctx, p.ID, 1), product.ErrInsufficientStock)
}

func TestUpdateByID(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p := seed(t, repo, "Chicken Eggs C1", 119.90, 200)

	price := 129.90
	updated, err := repo.UpdateByID(ctx, p.ID, product.Update{Price: &price})
	require.NoError(t, err)
	require.Equal(t, 129.90, updated.Price)
	require.EqualValues(t, 200, updated.StockQuantity)
}

func TestListFilterByName(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	seed(t, repo, "Rye Bread", 65.50, 60)
	seed(t, repo, "Hard Cheese", 249.99, 40)

	products, total, err := repo.List(ctx, 10, 1, product.Filter{Name: "Rye Bread"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, products, 1)
	require.Equal(t, "Rye Bread", products[0].Name)
}
