package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User represents a registered customer.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID          int64     `bun:",pk,autoincrement"`
	Username    string    `bun:"username"`
	Email       string    `bun:"email"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero"`
}
