package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lunchperk/lunchperk-backend/internal/audit"
	"github.com/lunchperk/lunchperk-backend/internal/domain"
	"github.com/lunchperk/lunchperk-backend/internal/fraud"
	"github.com/lunchperk/lunchperk-backend/internal/port"
)

// ClaimService gates whether an employee may claim a merchant's coupon.
// It composes the fraud service's advisory output with simple state checks
// and returns a decision, never an exception-style fault, for routine
// "not eligible" outcomes.
type ClaimService struct {
	employees port.EmployeeStore
	coupons   port.CouponStore
	fraud     *fraud.Service
	auditor   *audit.Logger
	metrics   *audit.Metrics
	log       *slog.Logger
}

// NewClaimService creates the claim validator. metrics may be nil.
func NewClaimService(employees port.EmployeeStore, coupons port.CouponStore, fraudSvc *fraud.Service, auditor *audit.Logger, metrics *audit.Metrics, log *slog.Logger) *ClaimService {
	if log == nil {
		log = slog.Default()
	}
	return &ClaimService{
		employees: employees,
		coupons:   coupons,
		fraud:     fraudSvc,
		auditor:   auditor,
		metrics:   metrics,
		log:       log,
	}
}

// ValidateCouponClaim evaluates the blocking conditions in order and
// short-circuits on the first one that applies:
//
//  1. employee already holds an active coupon for this merchant
//  2. employee fraud detection yields a HIGH or CRITICAL alert (also
//     recorded as a CRITICAL audit entry before returning)
//  3. employee record does not exist
//  4. employee status is not active
//
// A returned error means the decision itself could not be made (store
// unreachable); a blocked claim is a normal decision with Allowed false.
func (s *ClaimService) ValidateCouponClaim(ctx context.Context, employeeID, merchantID string) (domain.ClaimDecision, error) {
	hasActive, err := s.coupons.HasActiveCoupon(ctx, employeeID, merchantID)
	if err != nil {
		return domain.ClaimDecision{}, fmt.Errorf("check active coupon: %w", err)
	}
	if hasActive {
		s.metrics.ObserveBlockedClaim("duplicate_coupon")
		return domain.ClaimDecision{
			Allowed:  false,
			Reason:   "You already have an active coupon for this merchant.",
			Severity: domain.DecisionWarning,
		}, nil
	}

	alerts := s.fraud.DetectEmployeeFraud(ctx, employeeID)
	if blocking := blockingAlerts(alerts); len(blocking) > 0 {
		if s.auditor != nil {
			s.auditor.Critical(domain.AuditActionFraudDetected,
				fmt.Sprintf("Coupon claim blocked for employee %s: fraud indicators detected", employeeID),
				map[string]any{
					"employee_id":     employeeID,
					"merchant_id":     merchantID,
					"alerts":          alerts,
					"blocking_alerts": blocking,
					"risk_score":      domain.RiskScore(alerts),
				},
			)
		}
		s.metrics.ObserveBlockedClaim("fraud")
		return domain.ClaimDecision{
			Allowed:  false,
			Reason:   "This claim has been blocked pending review. Please contact support.",
			Severity: domain.DecisionBlock,
		}, nil
	}

	employee, err := s.employees.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, port.ErrEmployeeNotFound) {
			s.metrics.ObserveBlockedClaim("employee_not_found")
			return domain.ClaimDecision{
				Allowed:  false,
				Reason:   "Employee account not found.",
				Severity: domain.DecisionBlock,
			}, nil
		}
		return domain.ClaimDecision{}, fmt.Errorf("load employee: %w", err)
	}

	if employee.Status != domain.EmployeeStatusActive {
		s.metrics.ObserveBlockedClaim("account_inactive")
		return domain.ClaimDecision{
			Allowed:  false,
			Reason:   "Your account is not active. Please contact your company admin.",
			Severity: domain.DecisionWarning,
		}, nil
	}

	return domain.ClaimDecision{Allowed: true, Severity: domain.DecisionInfo}, nil
}

// blockingAlerts filters for the severities that force a block.
func blockingAlerts(alerts []domain.FraudAlert) []domain.FraudAlert {
	var out []domain.FraudAlert
	for _, a := range alerts {
		if a.Severity == domain.FraudSeverityHigh || a.Severity == domain.FraudSeverityCritical {
			out = append(out, a)
		}
	}
	return out
}
