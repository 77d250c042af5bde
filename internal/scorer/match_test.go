package scorer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/govcon-cli/internal/model"
)

func TestWeightSum(t *testing.T) {
	assert.True(t, WeightSum().Equal(decimal.NewFromInt(1)), "got %s", WeightSum())
	assert.Len(t, Weights(), 7)
	for name, w := range Weights() {
		assert.Greater(t, w, 0.0, name)
	}
}

func TestOverallScore(t *testing.T) {
	tests := []struct {
		name string
		c    Components
		want float64
	}{
		{"all max", Components{100, 100, 100, 100, 100, 100, 100}, 100},
		{"all zero", Components{}, 0},
		{"mixed", Components{NAICS: 100, Capability: 50, PastPerf: 70, Geographic: 100, Certification: 100, Clearance: 100, ContractSize: 70}, 82.5},
		{"half up at the third decimal", Components{Capability: 0.025}, 0.01},
		{"fractional capability", Components{NAICS: 50, Capability: 66.6666666667, PastPerf: 30, Geographic: 40, Certification: 0, Clearance: 100, ContractSize: 30}, 44.83},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallScore(tt.c))
		})
	}
}

func TestPWin(t *testing.T) {
	assert.Equal(t, 66.8, PWin(83.5, false))
	assert.Equal(t, 46.76, PWin(83.5, true))
	assert.Equal(t, 0.0, PWin(0, true))
	assert.Equal(t, 80.0, PWin(100, false))
	// 41.83 * 0.8 * 0.7 = 23.4248
	assert.Equal(t, 23.42, PWin(41.83, true))
}

func TestRound2_HalfUp(t *testing.T) {
	assert.Equal(t, 1.01, round2(1.005))
	assert.Equal(t, 2.68, round2(2.675))
	assert.Equal(t, 50.0, round2(50))
}

func testProfile() *model.CompanyProfile {
	return &model.CompanyProfile{
		TenantID:          "tenant-1",
		PrimaryNAICS:      []string{"541512"},
		SecondaryNAICS:    []string{"541330"},
		Capabilities:      "cloud migration and cybersecurity modernization",
		PastPerformance:   "Prime on three DHS task orders",
		HeadquartersState: "VA",
		ServiceRegions:    []string{"MD", "DC"},
		SmallBusiness:     true,
		AnnualRevenue:     ptrFloat64(20_000_000),
	}
}

func TestCompute_NAICSExamples(t *testing.T) {
	p := &model.CompanyProfile{TenantID: "t", PrimaryNAICS: []string{"541512"}}
	tests := []struct {
		code string
		want float64
	}{
		{"541512", 100},
		{"541519", 50},
		{"611310", 0},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			m := Compute(&model.Opportunity{ID: "o", NAICSCode: tt.code}, p, time.Now())
			assert.Equal(t, tt.want, m.NAICSScore)
		})
	}
}

func TestCompute_FullMatch(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	opp := &model.Opportunity{
		ID:                      "opp-1",
		NAICSCode:               "541512",
		Description:             "Cloud migration",
		PlaceOfPerformanceState: "VA",
		SetAside:                "SBA",
		EstimatedValueHigh:      ptrFloat64(2_000_000),
	}

	m := Compute(opp, testProfile(), now)
	assert.Equal(t, "tenant-1", m.TenantID)
	assert.Equal(t, "opp-1", m.OpportunityID)
	assert.Equal(t, 100.0, m.NAICSScore)
	assert.Equal(t, 100.0, m.CapabilityScore)
	assert.Equal(t, 70.0, m.PastPerfScore)
	assert.Equal(t, 100.0, m.GeographicScore)
	assert.Equal(t, 100.0, m.CertificationScore)
	assert.Equal(t, 100.0, m.ClearanceScore)
	assert.Equal(t, 100.0, m.ContractSizeScore)
	// 100*0.85 + 70*0.15
	assert.Equal(t, 95.5, m.OverallScore)
	assert.Equal(t, 76.4, m.PWin)
	assert.Equal(t, model.MatchNew, m.Status)
	assert.Equal(t, now, m.LastCalculatedAt)

	assert.Equal(t, "Strong NAICS code alignment; Capabilities match the requirement; Performed in headquarters state; Eligible for SBA set-aside; Contract size fits company revenue", m.Reasons)
	assert.Empty(t, m.Risks)
}

func TestCompute_Risks(t *testing.T) {
	opp := &model.Opportunity{
		ID:                      "opp-2",
		NAICSCode:               "611310",
		Description:             "Flight training",
		PlaceOfPerformanceState: "CA",
		SetAside:                "8A",
		RequiresClearance:       true,
		RequiresITAR:            true,
		AwardAmount:             ptrFloat64(50_000_000),
		IncumbentContractor:     "Acme Corp",
	}
	p := testProfile()
	p.PastPerformance = ""

	m := Compute(opp, p, time.Now())
	assert.Empty(t, m.Reasons)
	assert.Equal(t, "NAICS code outside company profile; Limited capability overlap; No past performance on record; Outside service regions; Not eligible for 8A set-aside; Requires facility clearance; Requires ITAR registration; Contract value exceeds annual revenue; Has incumbent contractor", m.Risks)

	codes := make([]string, 0, len(m.Tags))
	for _, tag := range m.Tags {
		assert.Equal(t, model.TagRisk, tag.Kind)
		codes = append(codes, tag.Code)
	}
	assert.Contains(t, codes, TagIncumbent)
	assert.Contains(t, codes, TagITARGap)

	// Incumbent factor applies.
	assert.Equal(t, PWin(m.OverallScore, true), m.PWin)
}

func TestCompute_IncumbentRiskAlwaysPresent(t *testing.T) {
	opp := &model.Opportunity{ID: "o", NAICSCode: "541512", IncumbentContractor: "Acme"}
	m := Compute(opp, testProfile(), time.Now())
	assert.Contains(t, m.Risks, "Has incumbent contractor")
	assert.Contains(t, m.Reasons, "Strong NAICS code alignment")
}

func TestFormatTags(t *testing.T) {
	reasons, risks := FormatTags(nil)
	assert.Empty(t, reasons)
	assert.Empty(t, risks)

	reasons, risks = FormatTags([]model.MatchTag{
		reason("a", model.SeverityLow, "A"),
		risk("b", model.SeverityHigh, "B"),
		reason("c", model.SeverityLow, "C"),
	})
	assert.Equal(t, "A; C", reasons)
	assert.Equal(t, "B", risks)
}

func TestComponents_Map(t *testing.T) {
	c := Components{NAICS: 1, Capability: 2, PastPerf: 3, Geographic: 4, Certification: 5, Clearance: 6, ContractSize: 7}
	m := c.Map()
	require.Len(t, m, 7)
	assert.Equal(t, 7.0, m[FactorContractSize])
	for name := range m {
		_, ok := Weights()[name]
		assert.True(t, ok, name)
	}
}
