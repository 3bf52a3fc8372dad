package domain

// FraudSeverity grades a fraud alert. This is a separate scale from
// AuditSeverity: it only weights risk scores and drives blocking decisions.
type FraudSeverity string

const (
	FraudSeverityLow      FraudSeverity = "LOW"
	FraudSeverityMedium   FraudSeverity = "MEDIUM"
	FraudSeverityHigh     FraudSeverity = "HIGH"
	FraudSeverityCritical FraudSeverity = "CRITICAL"
)

// Fraud rule type identifiers.
const (
	FraudTypeExcessiveClaiming      = "EXCESSIVE_CLAIMING"
	FraudTypeRapidClaiming          = "RAPID_CLAIMING"
	FraudTypeRedemptionWithoutClaim = "REDEMPTION_WITHOUT_CLAIM"
	FraudTypeMultiDeviceSharing     = "MULTI_DEVICE_SHARING"
	FraudTypeNewNoWebsite           = "NEW_NO_WEBSITE"
	FraudTypeSuspiciousEmail        = "SUSPICIOUS_EMAIL"
	FraudTypeNoRedemptions          = "NO_REDEMPTIONS"
	FraudTypeClaimSpike             = "SYSTEM_CLAIM_SPIKE"
)

// Fraud target types.
const (
	FraudTargetEmployee = "Employee"
	FraudTargetMerchant = "Merchant"
	FraudTargetCompany  = "Company"
)

// FraudAlert is an advisory finding from a heuristic rule. It is never
// persisted directly; alerts that warrant durability are recorded through
// the audit pipeline and discarded.
type FraudAlert struct {
	Severity          FraudSeverity  `json:"severity"`
	Type              string         `json:"type"`
	Description       string         `json:"description"`
	TargetID          string         `json:"target_id"`
	TargetType        string         `json:"target_type"`
	Evidence          map[string]any `json:"evidence,omitempty"`
	RecommendedAction string         `json:"recommended_action,omitempty"`
}

// riskWeights maps alert severity to its contribution to a risk score.
var riskWeights = map[FraudSeverity]int{
	FraudSeverityCritical: 40,
	FraudSeverityHigh:     25,
	FraudSeverityMedium:   15,
	FraudSeverityLow:      5,
}

// RiskScore sums the weighted severities of the given alerts, capped at 100.
// Zero alerts score exactly 0. The score is ephemeral: it is recomputed on
// demand and never stored.
func RiskScore(alerts []FraudAlert) int {
	score := 0
	for _, a := range alerts {
		score += riskWeights[a.Severity]
	}
	if score > 100 {
		score = 100
	}
	return score
}
