package dto

import "time"

// UserResponse represents a user as exposed via transport layers. The same
// shape is produced whether the record came from the store or the cache.
type UserResponse struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserListResponse is a paginated user payload.
type UserListResponse struct {
	Total int            `json:"total"`
	Items []UserResponse `json:"items"`
}
