package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order statuses. Transitions are deliberately unconstrained; any status may
// replace any other via an explicit status update.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is a recognised order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order represents a purchase order. TotalPrice is derived from the item set
// and re-established on every item mutation; it is never taken from input.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID         int64        `bun:",pk,autoincrement"`
	UserID     int64        `bun:"user_id"`
	AddressID  int64        `bun:"address_id"`
	Status     string       `bun:"status"`
	TotalPrice float64      `bun:"total_price"`
	Items      []*OrderItem `bun:"rel:has-many,join:id=order_id"`
	CreatedAt  time.Time    `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `bun:"updated_at,nullzero"`
}

// OrderItem is a line of an order. UnitPrice is a snapshot taken at order
// creation time; later product price changes never affect existing orders.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID        int64     `bun:",pk,autoincrement"`
	OrderID   int64     `bun:"order_id"`
	ProductID int64     `bun:"product_id"`
	Quantity  int64     `bun:"quantity"`
	UnitPrice float64   `bun:"unit_price"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
