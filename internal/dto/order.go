package dto

import "time"

// OrderItemResponse is one line of an order.
type OrderItemResponse struct {
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderResponse represents an order as exposed via transport layers.
// TotalPrice and the item unit prices are the persisted snapshots; they are
// never re-derived from current product prices on read.
type OrderResponse struct {
	ID         int64               `json:"id"`
	UserID     int64               `json:"user_id"`
	AddressID  int64               `json:"address_id"`
	Status     string              `json:"status"`
	TotalPrice float64             `json:"total_price"`
	Items      []OrderItemResponse `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
}

// OrderListResponse is a paginated order payload.
type OrderListResponse struct {
	Total int             `json:"total"`
	Items []OrderResponse `json:"items"`
}
