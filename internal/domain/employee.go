package domain

import "time"

// Employee statuses.
const (
	EmployeeStatusActive    = "active"
	EmployeeStatusPending   = "pending"
	EmployeeStatusSuspended = "suspended"
)

// Employee represents a corporate employee enrolled through their company.
type Employee struct {
	ID        string    `json:"id"         db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	Email     string    `json:"email"      db:"email"`
	Name      string    `json:"name"       db:"name"`
	Role      string    `json:"role"       db:"role"`
	Status    string    `json:"status"     db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserContext is the authenticated user context injected into request handlers.
type UserContext struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
}
