package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Product is a sellable item with a live stock counter.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID            int64     `bun:",pk,autoincrement"`
	Name          string    `bun:"name"`
	Description   string    `bun:"description"`
	Price         float64   `bun:"price"`
	StockQuantity int64     `bun:"stock_quantity"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero"`
}
