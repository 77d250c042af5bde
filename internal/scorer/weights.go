// Package scorer computes how well a government contracting opportunity fits
// a tenant's company profile and persists the result as a match.
package scorer

import (
	"github.com/shopspring/decimal"
)

// Factor weights. They sum to exactly 1.00.
const (
	WeightNAICS         = 0.20
	WeightCapability    = 0.20
	WeightPastPerf      = 0.15
	WeightGeographic    = 0.10
	WeightCertification = 0.15
	WeightClearance     = 0.10
	WeightContractSize  = 0.10
)

// PWin placeholder factors.
const (
	CompetitionFactor = 0.8
	IncumbentFactor   = 0.7
)

// Factor names used in component maps and log fields.
const (
	FactorNAICS         = "naics"
	FactorCapability    = "capability"
	FactorPastPerf      = "past_performance"
	FactorGeographic    = "geographic"
	FactorCertification = "certification"
	FactorClearance     = "clearance"
	FactorContractSize  = "contract_size"
)

// Weights returns the factor weights keyed by factor name.
func Weights() map[string]float64 {
	return map[string]float64{
		FactorNAICS:         WeightNAICS,
		FactorCapability:    WeightCapability,
		FactorPastPerf:      WeightPastPerf,
		FactorGeographic:    WeightGeographic,
		FactorCertification: WeightCertification,
		FactorClearance:     WeightClearance,
		FactorContractSize:  WeightContractSize,
	}
}

// WeightSum returns the exact decimal sum of the factor weights.
func WeightSum() decimal.Decimal {
	sum := decimal.Zero
	for _, w := range Weights() {
		sum = sum.Add(decimal.NewFromFloat(w))
	}
	return sum
}

// round2 rounds half away from zero to two decimal places. All scores are
// non-negative, so this is round-half-up.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
