package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Address is a delivery address owned by a user. The full
// (user_id, street, city, state, zip, country) tuple acts as the natural key
// when order placement resolves addresses.
type Address struct {
	bun.BaseModel `bun:"table:addresses"`

	ID        int64     `bun:",pk,autoincrement"`
	UserID    int64     `bun:"user_id"`
	Street    string    `bun:"street"`
	City      string    `bun:"city"`
	State     string    `bun:"state"`
	Zip       string    `bun:"zip"`
	Country   string    `bun:"country"`
	IsPrimary bool      `bun:"is_primary"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
