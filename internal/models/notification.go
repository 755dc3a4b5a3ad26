package models

import (
	"encoding/json"
	"time"
)

const (
	NotificationNewClaim      = "new_claim"
	NotificationClaimAccepted = "claim_accepted"
	NotificationClaimRejected = "claim_rejected"
	NotificationExpiryWarning = "expiry_warning"
)

type Notification struct {
	ID        int             `json:"id" db:"id"`
	UserID    int             `json:"user_id" db:"user_id"`
	Type      string          `json:"type" db:"type"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	IsRead    bool            `json:"is_read" db:"is_read"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Payload shapes, interpreted by presentation logic keyed on Type.

type NewClaimPayload struct {
	ClaimID   int `json:"claim_id"`
	ProductID int `json:"product_id"`
	ClaimerID int `json:"claimer_id"`
}

type ClaimResolvedPayload struct {
	ProductID int `json:"product_id"`
}

type ExpiryWarningPayload struct {
	ProductID  int    `json:"product_id"`
	Name       string `json:"name"`
	ExpiryDate string `json:"expiry_date"`
}
