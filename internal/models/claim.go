package models

import "time"

const (
	ClaimStatusPending  = "pending"
	ClaimStatusAccepted = "accepted"
	ClaimStatusRejected = "rejected"
)

type Claim struct {
	ID        int       `json:"id" db:"id"`
	ProductID int       `json:"product_id" db:"product_id"`
	ClaimerID int       `json:"claimer_id" db:"claimer_id"`
	Message   *string   `json:"message" db:"message"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Joined fields
	ProductName string `json:"product_name,omitempty"`
	ClaimerName string `json:"claimer_name,omitempty"`
}

type SubmitClaimRequest struct {
	Message string `json:"message" validate:"max=1000"`
}

type ResolveClaimRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}
