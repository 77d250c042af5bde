package scorer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/govcon-cli/internal/model"
)

// Components holds the seven sub-scores, each in [0,100].
type Components struct {
	NAICS         float64 `json:"naics"`
	Capability    float64 `json:"capability"`
	PastPerf      float64 `json:"past_performance"`
	Geographic    float64 `json:"geographic"`
	Certification float64 `json:"certification"`
	Clearance     float64 `json:"clearance"`
	ContractSize  float64 `json:"contract_size"`
}

// Map returns the sub-scores keyed by factor name.
func (c Components) Map() map[string]float64 {
	return map[string]float64{
		FactorNAICS:         c.NAICS,
		FactorCapability:    c.Capability,
		FactorPastPerf:      c.PastPerf,
		FactorGeographic:    c.Geographic,
		FactorCertification: c.Certification,
		FactorClearance:     c.Clearance,
		FactorContractSize:  c.ContractSize,
	}
}

// ComputeComponents evaluates every factor for one opportunity and profile.
func ComputeComponents(opp *model.Opportunity, p *model.CompanyProfile) Components {
	return Components{
		NAICS:         scoreNAICS(opp.NAICSCode, p.PrimaryNAICS, p.SecondaryNAICS),
		Capability:    scoreCapability(p.Capabilities, opp.Description),
		PastPerf:      scorePastPerformance(p.PastPerformance),
		Geographic:    scoreGeographic(opp.PlaceOfPerformanceState, p.HeadquartersState, p.ServiceRegions),
		Certification: scoreCertification(opp.SetAside, p),
		Clearance:     scoreClearance(opp, p),
		ContractSize:  scoreContractSize(contractValue(opp), p.AnnualRevenue),
	}
}

// OverallScore is the weighted sum of the components, rounded half-up to
// two decimals. The sum is taken in decimal so that x.xx5 boundaries round
// the same way on every platform.
func OverallScore(c Components) float64 {
	weights := Weights()
	sum := decimal.Zero
	for name, v := range c.Map() {
		sum = sum.Add(decimal.NewFromFloat(v).Mul(decimal.NewFromFloat(weights[name])))
	}
	f, _ := sum.Round(2).Float64()
	return f
}

// PWin estimates win probability from the overall score.
func PWin(overall float64, hasIncumbent bool) float64 {
	p := decimal.NewFromFloat(overall).Mul(decimal.NewFromFloat(CompetitionFactor))
	if hasIncumbent {
		p = p.Mul(decimal.NewFromFloat(IncumbentFactor))
	}
	f, _ := p.Round(2).Float64()
	return f
}

// Compute scores opp against p and returns a fresh match with status NEW.
func Compute(opp *model.Opportunity, p *model.CompanyProfile, now time.Time) *model.OpportunityMatch {
	c := ComputeComponents(opp, p)
	overall := OverallScore(c)
	tags := BuildTags(opp, p, c)
	reasons, risks := FormatTags(tags)

	return &model.OpportunityMatch{
		TenantID:           p.TenantID,
		OpportunityID:      opp.ID,
		NAICSScore:         round2(c.NAICS),
		CapabilityScore:    round2(c.Capability),
		PastPerfScore:      round2(c.PastPerf),
		GeographicScore:    round2(c.Geographic),
		CertificationScore: round2(c.Certification),
		ClearanceScore:     round2(c.Clearance),
		ContractSizeScore:  round2(c.ContractSize),
		OverallScore:       overall,
		PWin:               PWin(overall, opp.HasIncumbent()),
		Status:             model.MatchNew,
		Reasons:            reasons,
		Risks:              risks,
		Tags:               tags,
		LastCalculatedAt:   now.UTC(),
	}
}

// FormatTags renders tags as the "; "-delimited reasons and risks strings.
func FormatTags(tags []model.MatchTag) (reasons, risks string) {
	var r, k []string
	for _, t := range tags {
		if t.Kind == model.TagRisk {
			k = append(k, t.Text)
		} else {
			r = append(r, t.Text)
		}
	}
	return strings.Join(r, "; "), strings.Join(k, "; ")
}
