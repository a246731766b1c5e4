package order

import (
	"fmt"

	"github.com/Additional-Code/mercury/internal/entity"
	"github.com/Additional-Code/mercury/pkg/errorbank"
)

// UserPayload carries inline user details for order placement. Email is the
// natural key: an existing user with the same email is reused and the other
// fields are ignored.
type UserPayload struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

// AddressPayload carries inline address details for order placement. The
// full tuple is the natural key for dedup within the resolved user.
type AddressPayload struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip_code"`
	Country   string `json:"country"`
	IsPrimary bool   `json:"is_primary"`
}

// ItemPayload is one requested order line. The product resolves by id first,
// then by name. UnitPrice, when positive, overrides the product's current
// price as the snapshot.
type ItemPayload struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// CreateInput is the full order placement request, shared verbatim between
// the HTTP handler and the queue consumer.
type CreateInput struct {
	UserID    int64           `json:"user_id"`
	AddressID int64           `json:"address_id"`
	User      *UserPayload    `json:"user"`
	Address   *AddressPayload `json:"address"`
	Items     []ItemPayload   `json:"items"`
	Status    string          `json:"status"`
}

func (in *CreateInput) validate() error {
	if len(in.Items) == 0 {
		return errorbank.BadRequest("order must include at least one item")
	}
	if in.UserID == 0 && in.User == nil {
		return errorbank.BadRequest("user details are required to create an order")
	}
	if in.AddressID == 0 && in.Address == nil {
		return errorbank.BadRequest("address details are required to create an order")
	}
	if in.User != nil && in.User.Email == "" {
		return errorbank.BadRequest("user email is required")
	}
	for i, item := range in.Items {
		if item.ProductID == 0 && item.ProductName == "" {
			return errorbank.BadRequest(fmt.Sprintf("item %d: product_id or product_name is required", i))
		}
		if item.Quantity <= 0 {
			return errorbank.BadRequest(fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.UnitPrice < 0 {
			return errorbank.BadRequest(fmt.Sprintf("item %d: unit_price must be positive", i))
		}
	}
	if in.Status == "" {
		in.Status = entity.OrderStatusPending
	}
	if !entity.ValidOrderStatus(in.Status) {
		return errorbank.BadRequest(fmt.Sprintf("invalid order status: %s", in.Status))
	}
	return nil
}

// UpdateInput carries the optional parts of an order update. A non-nil Items
// slice replaces the entire item set.
type UpdateInput struct {
	Status *string       `json:"status"`
	Items  []ItemPayload `json:"items"`
}

// Order message actions accepted from the queue.
const (
	ActionCreate       = "create"
	ActionUpdateStatus = "update_status"
)

// Message is the payload consumed from the order topic.
type Message struct {
	Action    string          `json:"action"`
	OrderID   int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	AddressID int64           `json:"address_id"`
	User      *UserPayload    `json:"user"`
	Address   *AddressPayload `json:"address"`
	Items     []ItemPayload   `json:"items"`
	Status    string          `json:"status"`
}
