package domain

import "time"

// Merchant statuses.
const (
	MerchantStatusActive    = "active"
	MerchantStatusPending   = "pending"
	MerchantStatusSuspended = "suspended"
)

// Merchant represents a restaurant or shop offering discounts on the platform.
type Merchant struct {
	ID           string    `json:"id"            db:"id"`
	Name         string    `json:"name"          db:"name"`
	ContactEmail string    `json:"contact_email" db:"contact_email"`
	Website      string    `json:"website"       db:"website"`
	Status       string    `json:"status"        db:"status"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"    db:"updated_at"`
}
