package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskScoreWeights(t *testing.T) {
	assert.Equal(t, 0, RiskScore(nil))
	assert.Equal(t, 5, RiskScore([]FraudAlert{{Severity: FraudSeverityLow}}))
	assert.Equal(t, 15, RiskScore([]FraudAlert{{Severity: FraudSeverityMedium}}))
	assert.Equal(t, 25, RiskScore([]FraudAlert{{Severity: FraudSeverityHigh}}))
	assert.Equal(t, 40, RiskScore([]FraudAlert{{Severity: FraudSeverityCritical}}))
}

func TestRiskScoreClampedAt100(t *testing.T) {
	alerts := make([]FraudAlert, 10)
	for i := range alerts {
		alerts[i] = FraudAlert{Severity: FraudSeverityCritical}
	}
	assert.Equal(t, 100, RiskScore(alerts), "ten CRITICAL alerts yield 100, not 400")
}

func TestRiskScoreIsMonotonic(t *testing.T) {
	base := []FraudAlert{{Severity: FraudSeverityHigh}, {Severity: FraudSeverityMedium}}
	for _, sev := range []FraudSeverity{FraudSeverityLow, FraudSeverityMedium, FraudSeverityHigh, FraudSeverityCritical} {
		extended := append(append([]FraudAlert{}, base...), FraudAlert{Severity: sev})
		assert.GreaterOrEqual(t, RiskScore(extended), RiskScore(base),
			"adding an alert must never decrease the score")
	}
}
