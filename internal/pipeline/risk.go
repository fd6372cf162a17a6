package pipeline

import (
	"finrisk/internal"
	"finrisk/internal/util"
)

// DefaultRiskCoefficient applies when a severity is missing or unrecognized.
const DefaultRiskCoefficient = 0.05

type RiskPolicy struct {
	Coefficients map[internal.Severity]float64
	Default      float64
}

func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		Coefficients: map[internal.Severity]float64{
			internal.SeverityCritical: 0.30,
			internal.SeverityHigh:     0.15,
			internal.SeverityMedium:   0.07,
			internal.SeverityLow:      0.03,
		},
		Default: DefaultRiskCoefficient,
	}
}

func (p RiskPolicy) Coefficient(sev internal.Severity) float64 {
	if c, ok := p.Coefficients[sev]; ok && sev != internal.SeverityUnknown {
		return c
	}
	return p.Default
}

// DeriveFinancialRisk never overrides a supplied risk value. Without a parsed
// amount there is nothing to derive.
func DeriveFinancialRisk(supplied, amount *float64, sev internal.Severity, policy RiskPolicy) *float64 {
	if supplied != nil {
		return supplied
	}
	if amount == nil {
		return nil
	}
	return util.FloatPtr(*amount * policy.Coefficient(sev))
}
