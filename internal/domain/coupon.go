package domain

import "time"

// Coupon statuses.
const (
	CouponStatusActive   = "active"
	CouponStatusRedeemed = "redeemed"
	CouponStatusExpired  = "expired"
)

// Coupon is a discount claimed by an employee at a merchant. The claim
// timestamp doubles as the activity record the fraud rules count over.
type Coupon struct {
	ID         string     `json:"id"          db:"id"`
	EmployeeID string     `json:"employee_id" db:"employee_id"`
	MerchantID string     `json:"merchant_id" db:"merchant_id"`
	DiscountID string     `json:"discount_id" db:"discount_id"`
	Code       string     `json:"code"        db:"code"`
	Status     string     `json:"status"      db:"status"`
	ClaimedAt  time.Time  `json:"claimed_at"  db:"claimed_at"`
	RedeemedAt *time.Time `json:"redeemed_at" db:"redeemed_at"`
}

// DecisionSeverity classifies a claim decision for the caller's own UX.
// It is independent of the audit severity used internally.
type DecisionSeverity string

const (
	DecisionInfo    DecisionSeverity = "INFO"
	DecisionWarning DecisionSeverity = "WARNING"
	DecisionBlock   DecisionSeverity = "BLOCK"
)

// ClaimDecision is the outcome of validating a coupon claim. A blocked claim
// is a normal decision, not an error: Reason is the only user-facing text.
type ClaimDecision struct {
	Allowed  bool             `json:"allowed"`
	Reason   string           `json:"reason,omitempty"`
	Severity DecisionSeverity `json:"severity,omitempty"`
}
