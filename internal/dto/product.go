package dto

// ProductResponse represents a product as exposed via transport layers.
type ProductResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price"`
	StockQuantity int64   `json:"stock_quantity"`
}

// ProductListResponse is a paginated product payload.
type ProductListResponse struct {
	Total int               `json:"total"`
	Items []ProductResponse `json:"items"`
}
