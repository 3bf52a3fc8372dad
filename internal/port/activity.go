package port

import (
	"context"
	"time"

	"github.com/lunchperk/lunchperk-backend/internal/domain"
)

// ClaimHistory exposes claim activity counts over arbitrary time windows.
// The fraud rules never read individual claim rows, only counts.
type ClaimHistory interface {
	// CountClaimsByEmployeeSince counts one employee's coupon claims made at
	// or after the given instant.
	CountClaimsByEmployeeSince(ctx context.Context, employeeID string, since time.Time) (int, error)

	// CountClaimsSince counts coupon claims across all employees made at or
	// after the given instant.
	CountClaimsSince(ctx context.Context, since time.Time) (int, error)
}

// EmployeeStore looks up employee records.
type EmployeeStore interface {
	// GetEmployeeByID returns the employee or ErrEmployeeNotFound.
	GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error)
}

// MerchantStore looks up merchant records.
type MerchantStore interface {
	// GetMerchantByID returns the merchant or ErrMerchantNotFound.
	GetMerchantByID(ctx context.Context, id string) (*domain.Merchant, error)
}

// CouponStore exposes the coupon state the claim validator and the merchant
// fraud rules need.
type CouponStore interface {
	// HasActiveCoupon reports whether the employee currently holds an active
	// coupon for the merchant.
	HasActiveCoupon(ctx context.Context, employeeID, merchantID string) (bool, error)

	// CountRedeemedByMerchant counts all coupons ever redeemed at a merchant.
	CountRedeemedByMerchant(ctx context.Context, merchantID string) (int, error)
}
