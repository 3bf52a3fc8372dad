// Package fraud runs rule-based heuristics over recent platform activity and
// produces advisory alerts and risk scores. It never blocks or mutates
// domain state itself; its output is a decision input for the claim
// validator and the admin dashboards.
package fraud

import (
	"context"

	"github.com/lunchperk/lunchperk-backend/internal/domain"
)

// EmployeeRule evaluates one heuristic against an employee's recent
// activity. A nil alert means the rule found nothing. An error means the
// rule was inconclusive: the service skips it without failing the overall
// evaluation.
type EmployeeRule interface {
	// Name returns the rule's type identifier (e.g. "EXCESSIVE_CLAIMING").
	Name() string

	// Evaluate checks the rule and returns zero or one alerts.
	Evaluate(ctx context.Context, employeeID string) (*domain.FraudAlert, error)
}

// MerchantRule evaluates one heuristic against a merchant record. Semantics
// mirror EmployeeRule.
type MerchantRule interface {
	Name() string
	Evaluate(ctx context.Context, merchant *domain.Merchant) (*domain.FraudAlert, error)
}
