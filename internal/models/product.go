package models

import "time"

const (
	ProductStatusAvailable = "available"
	ProductStatusClaimed   = "claimed"
)

type Product struct {
	ID          int       `json:"id" db:"id"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category" db:"category"`
	Quantity    int       `json:"quantity" db:"quantity"`
	ExpiryDate  time.Time `json:"expiry_date" db:"expiry_date"`
	IsShareable bool      `json:"is_shareable" db:"is_shareable"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Joined fields
	OwnerName string `json:"owner_name,omitempty"`
}

type CreateProductRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Category    string `json:"category" validate:"required,max=100"`
	Quantity    *int   `json:"quantity" validate:"omitempty,min=1"`
	ExpiryDate  string `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	IsShareable bool   `json:"is_shareable"`
}

type UpdateProductRequest struct {
	IsShareable *bool `json:"is_shareable" validate:"required"`
}
