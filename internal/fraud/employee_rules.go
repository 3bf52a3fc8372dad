package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/lunchperk/lunchperk-backend/internal/port"
)

// Employee rule thresholds.
const (
	excessiveClaimWindow = 24 * time.Hour
	excessiveClaimLimit  = 10

	rapidClaimWindow = 5 * time.Minute
	rapidClaimLimit  = 3
)

// ExcessiveClaimingRule flags employees with more than excessiveClaimLimit
// claims in the trailing 24 hours.
type ExcessiveClaimingRule struct {
	claims port.ClaimHistory
	now    func() time.Time
}

// NewExcessiveClaimingRule creates the rule over the given claim history.
func NewExcessiveClaimingRule(claims port.ClaimHistory, now func() time.Time) *ExcessiveClaimingRule {
	return &ExcessiveClaimingRule{claims: claims, now: now}
}

func (r *ExcessiveClaimingRule) Name() string { return domain.FraudTypeExcessiveClaiming }

func (r *ExcessiveClaimingRule) Evaluate(ctx context.Context, employeeID string) (*domain.FraudAlert, error) {
	count, err := r.claims.CountClaimsByEmployeeSince(ctx, employeeID, r.now().Add(-excessiveClaimWindow))
	if err != nil {
		return nil, fmt.Errorf("count claims in 24h window: %w", err)
	}
	if count <= excessiveClaimLimit {
		return nil, nil
	}
	return &domain.FraudAlert{
		Severity:    domain.FraudSeverityHigh,
		Type:        domain.FraudTypeExcessiveClaiming,
		Description: fmt.Sprintf("Employee claimed %d coupons in the last 24 hours (limit %d)", count, excessiveClaimLimit),
		TargetID:    employeeID,
		TargetType:  domain.FraudTargetEmployee,
		Evidence: map[string]any{
			"claims_24h": count,
			"limit":      excessiveClaimLimit,
		},
		RecommendedAction: "Suspend claiming for this account and review recent activity manually.",
	}, nil
}

// RapidClaimingRule flags employees with more than rapidClaimLimit claims in
// the trailing 5 minutes.
type RapidClaimingRule struct {
	claims port.ClaimHistory
	now    func() time.Time
}

// NewRapidClaimingRule creates the rule over the given claim history.
func NewRapidClaimingRule(claims port.ClaimHistory, now func() time.Time) *RapidClaimingRule {
	return &RapidClaimingRule{claims: claims, now: now}
}

func (r *RapidClaimingRule) Name() string { return domain.FraudTypeRapidClaiming }

func (r *RapidClaimingRule) Evaluate(ctx context.Context, employeeID string) (*domain.FraudAlert, error) {
	count, err := r.claims.CountClaimsByEmployeeSince(ctx, employeeID, r.now().Add(-rapidClaimWindow))
	if err != nil {
		return nil, fmt.Errorf("count claims in 5m window: %w", err)
	}
	if count <= rapidClaimLimit {
		return nil, nil
	}
	return &domain.FraudAlert{
		Severity:    domain.FraudSeverityMedium,
		Type:        domain.FraudTypeRapidClaiming,
		Description: fmt.Sprintf("Employee claimed %d coupons in the last 5 minutes (limit %d)", count, rapidClaimLimit),
		TargetID:    employeeID,
		TargetType:  domain.FraudTargetEmployee,
		Evidence: map[string]any{
			"claims_5m": count,
			"limit":     rapidClaimLimit,
		},
		RecommendedAction: "Rate-limit this account and verify the claims are human-initiated.",
	}, nil
}

// RedemptionWithoutClaimRule is a documented extension point: it should flag
// coupons redeemed at a merchant with no matching claim record. Redemption
// events do not yet carry the originating claim id, so the rule cannot be
// evaluated.
// TODO: implement once redemption events reference the claim they settle.
type RedemptionWithoutClaimRule struct{}

func (RedemptionWithoutClaimRule) Name() string { return domain.FraudTypeRedemptionWithoutClaim }

func (RedemptionWithoutClaimRule) Evaluate(context.Context, string) (*domain.FraudAlert, error) {
	return nil, nil
}

// MultiDeviceSharingRule is a documented extension point: it should flag one
// account claiming from many devices or IPs in a short window. Claims do not
// yet record a device fingerprint, so the rule cannot be evaluated.
// TODO: implement once claims persist device fingerprint and source IP.
type MultiDeviceSharingRule struct{}

func (MultiDeviceSharingRule) Name() string { return domain.FraudTypeMultiDeviceSharing }

func (MultiDeviceSharingRule) Evaluate(context.Context, string) (*domain.FraudAlert, error) {
	return nil, nil
}
