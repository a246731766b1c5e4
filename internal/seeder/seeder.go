package seeder

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/database"
	"github.com/Additional-Code/mercury/internal/entity"
)

// Module exposes the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Catalog seeds a sample grocery catalog if the products are missing.
func (s *Seeder) Catalog(ctx context.Context) error {
	samples := []entity.Product{
		{Name: "Whole Milk 2.5%", Description: "Pasteurized milk 1 l", Price: 89.90, StockQuantity: 120},
		{Name: "Rye Bread", Description: "Dark rye loaf 500 g", Price: 65.50, StockQuantity: 60},
		{Name: "Hard Cheese", Description: "Aged hard cheese 200 g", Price: 249.99, StockQuantity: 40},
		{Name: "Chicken Eggs C1", Description: "Table eggs, pack of 10", Price: 119.90, StockQuantity: 200},
		{Name: "Mineral Water", Description: "Sparkling mineral water 0.5 l", Price: 159.99, StockQuantity: 80},
	}

	for _, sample := range samples {
		product := sample
		_, err := s.db.NewInsert().Model(&product).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded products", zap.Int("count", len(samples)))
	}
	return nil
}

// Users seeds a couple of example customers with a primary address each.
func (s *Seeder) Users(ctx context.Context) error {
	samples := []struct {
		user    entity.User
		address entity.Address
	}{
		{
			user:    entity.User{Username: "alice", Email: "alice@example.com", Description: "sample customer"},
			address: entity.Address{Street: "12 Baker St", City: "Springfield", State: "IL", Zip: "62701", Country: "US", IsPrimary: true},
		},
		{
			user:    entity.User{Username: "bob", Email: "bob@example.com", Description: "sample customer"},
			address: entity.Address{Street: "7 Ocean Ave", City: "Portland", State: "OR", Zip: "97201", Country: "US", IsPrimary: true},
		},
	}

	for _, sample := range samples {
		user := sample.user
		res, err := s.db.NewInsert().Model(&user).
			On("CONFLICT (email) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			continue
		}

		address := sample.address
		address.UserID = user.ID
		if _, err := s.db.NewInsert().Model(&address).Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded users", zap.Int("count", len(samples)))
	}
	return nil
}

// Orders seeds a demo order per seeded user, priced from the catalog. It is
// a no-op once any order exists.
func (s *Seeder) Orders(ctx context.Context) error {
	count, err := s.db.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var users []*entity.User
	if err := s.db.NewSelect().Model(&users).Order("id ASC").Scan(ctx); err != nil {
		return err
	}
	var products []*entity.Product
	if err := s.db.NewSelect().Model(&products).Order("id ASC").Scan(ctx); err != nil {
		return err
	}
	if len(users) == 0 || len(products) < 2 {
		return nil
	}

	seeded := 0
	for i, u := range users {
		addr := new(entity.Address)
		err := s.db.NewSelect().Model(addr).Where("user_id = ?", u.ID).Limit(1).Scan(ctx)
		if err != nil {
			continue
		}

		p := products[i%len(products)]
		items := []*entity.OrderItem{
			{ProductID: p.ID, Quantity: 2, UnitPrice: p.Price},
			{ProductID: products[(i+1)%len(products)].ID, Quantity: 1, UnitPrice: products[(i+1)%len(products)].Price},
		}
		var total float64
		for _, item := range items {
			total += float64(item.Quantity) * item.UnitPrice
		}

		order := &entity.Order{
			UserID:     u.ID,
			AddressID:  addr.ID,
			Status:     entity.OrderStatusCompleted,
			TotalPrice: total,
		}
		if _, err := s.db.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		for _, item := range items {
			item.OrderID = order.ID
			if _, err := s.db.NewInsert().Model(item).Exec(ctx); err != nil {
				return err
			}
		}
		seeded++
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", seeded))
	}
	return nil
}

// All runs every seed step.
func (s *Seeder) All(ctx context.Context) error {
	if err := s.Users(ctx); err != nil {
		return err
	}
	if err := s.Catalog(ctx); err != nil {
		return err
	}
	return s.Orders(ctx)
}
