package fraud

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lunchperk/lunchperk-backend/internal/audit"
	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/lunchperk/lunchperk-backend/internal/port"
)

// System-wide anomaly threshold: claims across all employees per hour.
const (
	systemClaimWindow = time.Hour
	systemClaimLimit  = 100
)

// Service orchestrates the registered fraud rules. Rules are independent:
// one failing rule is skipped (logged as an ERROR audit entry) and the rest
// still run.
type Service struct {
	merchants port.MerchantStore
	claims    port.ClaimHistory

	employeeRules []EmployeeRule
	merchantRules []MerchantRule

	auditor *audit.Logger
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a fraud service with the default rule set registered.
func NewService(merchants port.MerchantStore, claims port.ClaimHistory, coupons port.CouponStore, auditor *audit.Logger, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	now := func() time.Time { return time.Now().UTC() }
	s := &Service{
		merchants: merchants,
		claims:    claims,
		auditor:   auditor,
		log:       log,
		now:       now,
	}
	s.RegisterEmployeeRule(
		NewExcessiveClaimingRule(claims, now),
		NewRapidClaimingRule(claims, now),
		RedemptionWithoutClaimRule{},
		MultiDeviceSharingRule{},
	)
	s.RegisterMerchantRule(
		NewNewNoWebsiteRule(now),
		SuspiciousEmailRule{},
		NewNoRedemptionsRule(coupons, now),
	)
	return s
}

// RegisterEmployeeRule appends rules to the employee registry.
func (s *Service) RegisterEmployeeRule(rules ...EmployeeRule) {
	s.employeeRules = append(s.employeeRules, rules...)
}

// RegisterMerchantRule appends rules to the merchant registry.
func (s *Service) RegisterMerchantRule(rules ...MerchantRule) {
	s.merchantRules = append(s.merchantRules, rules...)
}

// DetectEmployeeFraud runs every employee rule against the given employee
// and returns the alerts found. A failing rule is inconclusive: it neither
// raises nor suppresses alerts.
func (s *Service) DetectEmployeeFraud(ctx context.Context, employeeID string) []domain.FraudAlert {
	var alerts []domain.FraudAlert
	for _, rule := range s.employeeRules {
		alert, err := rule.Evaluate(ctx, employeeID)
		if err != nil {
			s.ruleFailed(rule.Name(), domain.FraudTargetEmployee, employeeID, err)
			continue
		}
		if alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

// DetectMerchantFraud runs every merchant rule against the given merchant.
// Returns port.ErrMerchantNotFound if the merchant does not exist.
func (s *Service) DetectMerchantFraud(ctx context.Context, merchantID string) ([]domain.FraudAlert, error) {
	merchant, err := s.merchants.GetMerchantByID(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("load merchant: %w", err)
	}
	var alerts []domain.FraudAlert
	for _, rule := range s.merchantRules {
		alert, evalErr := rule.Evaluate(ctx, merchant)
		if evalErr != nil {
			s.ruleFailed(rule.Name(), domain.FraudTargetMerchant, merchantID, evalErr)
			continue
		}
		if alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts, nil
}

// DetectSystemAnomalies checks platform-wide activity for coordinated abuse.
func (s *Service) DetectSystemAnomalies(ctx context.Context) ([]domain.FraudAlert, error) {
	count, err := s.claims.CountClaimsSince(ctx, s.now().Add(-systemClaimWindow))
	if err != nil {
		return nil, fmt.Errorf("count platform claims: %w", err)
	}
	if count <= systemClaimLimit {
		return nil, nil
	}
	return []domain.FraudAlert{{
		Severity:    domain.FraudSeverityMedium,
		Type:        domain.FraudTypeClaimSpike,
		Description: fmt.Sprintf("%d coupon claims across the platform in the last hour (limit %d)", count, systemClaimLimit),
		TargetID:    "platform",
		TargetType:  domain.FraudTargetCompany,
		Evidence: map[string]any{
			"claims_1h": count,
			"limit":     systemClaimLimit,
		},
		RecommendedAction: "Inspect recent claims for coordinated patterns and consider a temporary rate limit.",
	}}, nil
}

// EmployeeRiskScore computes the current 0-100 risk score for an employee.
func (s *Service) EmployeeRiskScore(ctx context.Context, employeeID string) int {
	return domain.RiskScore(s.DetectEmployeeFraud(ctx, employeeID))
}

// MerchantRiskScore computes the current 0-100 risk score for a merchant.
func (s *Service) MerchantRiskScore(ctx context.Context, merchantID string) (int, error) {
	alerts, err := s.DetectMerchantFraud(ctx, merchantID)
	if err != nil {
		return 0, err
	}
	return domain.RiskScore(alerts), nil
}

func (s *Service) ruleFailed(rule, targetType, targetID string, err error) {
	s.log.Warn("fraud rule skipped", "rule", rule, "target", targetID, "error", err)
	if s.auditor == nil {
		return
	}
	s.auditor.Error(domain.AuditActionFraudRuleError,
		fmt.Sprintf("Fraud rule %s could not be evaluated", rule),
		err,
		map[string]any{
			"rule":        rule,
			"target_type": targetType,
			"target_id":   targetID,
		},
	)
}
