package domain

import "time"

// AuditSeverity controls how urgently an entry must reach durable storage.
// CRITICAL entries bypass the normal batching delay.
type AuditSeverity string

const (
	SeverityInfo     AuditSeverity = "INFO"
	SeverityWarning  AuditSeverity = "WARNING"
	SeverityError    AuditSeverity = "ERROR"
	SeverityCritical AuditSeverity = "CRITICAL"
)

// Audit action constants.
const (
	AuditActionLogin           = "login"
	AuditActionLogout          = "logout"
	AuditActionRegister        = "register"
	AuditActionProfileUpdate   = "profile_update"
	AuditActionDiscountCreated = "discount_created"
	AuditActionCouponClaimed   = "coupon_claimed"
	AuditActionCouponRedeemed  = "coupon_redeemed"
	AuditActionAPIRequest      = "api_request"
	AuditActionAPIError        = "api_error"
	AuditActionRateLimited     = "rate_limited"
	AuditActionFraudDetected   = "fraud_detected"
	AuditActionFraudRuleError  = "fraud_rule_error"
)

// AuditContext carries the ambient identity of a logical unit of work
// (a request, a user session). It is immutable once captured: entering a
// request or attaching a user derives a new context, never mutates one.
type AuditContext struct {
	UserID    string `json:"user_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	UserRole  string `json:"user_role,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Merge returns a copy of c with every non-empty field of other applied on top.
func (c AuditContext) Merge(other AuditContext) AuditContext {
	merged := c
	if other.UserID != "" {
		merged.UserID = other.UserID
	}
	if other.UserEmail != "" {
		merged.UserEmail = other.UserEmail
	}
	if other.UserRole != "" {
		merged.UserRole = other.UserRole
	}
	if other.IP != "" {
		merged.IP = other.IP
	}
	if other.UserAgent != "" {
		merged.UserAgent = other.UserAgent
	}
	if other.SessionID != "" {
		merged.SessionID = other.SessionID
	}
	if other.RequestID != "" {
		merged.RequestID = other.RequestID
	}
	return merged
}

// AuditChanges holds before/after snapshots for state-mutation events.
type AuditChanges struct {
	Before any `json:"before,omitempty"`
	After  any `json:"after,omitempty"`
}

// AuditEntry is one durable event record. Entries are immutable after
// creation; only their position in the flush queue changes. All context
// fields are flattened in at creation time, not referenced.
type AuditEntry struct {
	ID           string         `json:"id"            db:"id"`
	Action       string         `json:"action"        db:"action"`
	Severity     AuditSeverity  `json:"severity"      db:"severity"`
	Resource     string         `json:"resource"      db:"resource"`
	ResourceID   string         `json:"resource_id"   db:"resource_id"`
	Description  string         `json:"description"   db:"description"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Changes      *AuditChanges  `json:"changes,omitempty"`
	Success      bool           `json:"success"       db:"success"`
	ErrorMessage string         `json:"error_message" db:"error_message"`
	Timestamp    time.Time      `json:"timestamp"     db:"timestamp"`

	// Flattened from AuditContext at enqueue time.
	UserID    string `json:"user_id"    db:"user_id"`
	UserEmail string `json:"user_email" db:"user_email"`
	UserRole  string `json:"user_role"  db:"user_role"`
	IP        string `json:"ip"         db:"ip"`
	UserAgent string `json:"user_agent" db:"user_agent"`
	SessionID string `json:"session_id" db:"session_id"`
	RequestID string `json:"request_id" db:"request_id"`
}

// AuditQuery filters stored audit entries. Zero values mean "no filter".
// Results are always ordered by timestamp descending.
type AuditQuery struct {
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Severity   AuditSeverity
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
