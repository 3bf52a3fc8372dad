package fraud

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/lunchperk/lunchperk-backend/internal/port"
)

// Merchant rule thresholds.
const (
	newMerchantAge     = 7 * 24 * time.Hour
	dormantMerchantAge = 30 * 24 * time.Hour
)

// NewNoWebsiteRule flags merchants younger than a week with no verified
// website.
type NewNoWebsiteRule struct {
	now func() time.Time
}

// NewNewNoWebsiteRule creates the rule.
func NewNewNoWebsiteRule(now func() time.Time) *NewNoWebsiteRule {
	return &NewNoWebsiteRule{now: now}
}

func (r *NewNoWebsiteRule) Name() string { return domain.FraudTypeNewNoWebsite }

func (r *NewNoWebsiteRule) Evaluate(_ context.Context, m *domain.Merchant) (*domain.FraudAlert, error) {
	age := r.now().Sub(m.CreatedAt)
	if age >= newMerchantAge || m.Website != "" {
		return nil, nil
	}
	return &domain.FraudAlert{
		Severity:    domain.FraudSeverityMedium,
		Type:        domain.FraudTypeNewNoWebsite,
		Description: "Merchant account is less than 7 days old and has no verified website",
		TargetID:    m.ID,
		TargetType:  domain.FraudTargetMerchant,
		Evidence: map[string]any{
			"account_age_hours": int(age.Hours()),
			"website":           m.Website,
		},
		RecommendedAction: "Request business verification documents before approving discounts.",
	}, nil
}

// SuspiciousEmailRule flags merchant contact emails containing disposable-
// provider markers. Substring match only; there is no real disposable-domain
// list behind it.
type SuspiciousEmailRule struct{}

func (SuspiciousEmailRule) Name() string { return domain.FraudTypeSuspiciousEmail }

func (SuspiciousEmailRule) Evaluate(_ context.Context, m *domain.Merchant) (*domain.FraudAlert, error) {
	email := strings.ToLower(m.ContactEmail)
	if !strings.Contains(email, "temp") && !strings.Contains(email, "disposable") {
		return nil, nil
	}
	return &domain.FraudAlert{
		Severity:    domain.FraudSeverityHigh,
		Type:        domain.FraudTypeSuspiciousEmail,
		Description: fmt.Sprintf("Merchant contact email %q matches a disposable-provider pattern", m.ContactEmail),
		TargetID:    m.ID,
		TargetType:  domain.FraudTargetMerchant,
		Evidence: map[string]any{
			"contact_email": m.ContactEmail,
		},
		RecommendedAction: "Require a verified business email before activation.",
	}, nil
}

// NoRedemptionsRule flags active merchants older than 30 days with zero
// coupons ever redeemed.
type NoRedemptionsRule struct {
	coupons port.CouponStore
	now     func() time.Time
}

// NewNoRedemptionsRule creates the rule over the given coupon store.
func NewNoRedemptionsRule(coupons port.CouponStore, now func() time.Time) *NoRedemptionsRule {
	return &NoRedemptionsRule{coupons: coupons, now: now}
}

func (r *NoRedemptionsRule) Name() string { return domain.FraudTypeNoRedemptions }

func (r *NoRedemptionsRule) Evaluate(ctx context.Context, m *domain.Merchant) (*domain.FraudAlert, error) {
	if m.Status != domain.MerchantStatusActive {
		return nil, nil
	}
	age := r.now().Sub(m.CreatedAt)
	if age <= dormantMerchantAge {
		return nil, nil
	}
	redeemed, err := r.coupons.CountRedeemedByMerchant(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("count redeemed coupons: %w", err)
	}
	if redeemed > 0 {
		return nil, nil
	}
	return &domain.FraudAlert{
		Severity:    domain.FraudSeverityLow,
		Type:        domain.FraudTypeNoRedemptions,
		Description: "Active merchant has had zero coupon redemptions in over 30 days",
		TargetID:    m.ID,
		TargetType:  domain.FraudTargetMerchant,
		Evidence: map[string]any{
			"account_age_days": int(age.Hours() / 24),
			"redeemed_total":   redeemed,
		},
		RecommendedAction: "Check whether the merchant is still operating before renewing discounts.",
	}, nil
}
