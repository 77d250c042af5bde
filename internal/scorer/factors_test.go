package scorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/govcon-cli/internal/model"
)

func ptrFloat64(v float64) *float64 { return &v }

func TestScoreNAICS(t *testing.T) {
	primary := []string{"541512"}
	secondary := []string{"541330"}
	tests := []struct {
		name string
		code string
		want float64
	}{
		{"primary exact", "541512", 100},
		{"secondary exact", "541330", 80},
		{"four digit prefix of primary", "541519", 50},
		{"four digit prefix of secondary", "541310", 50},
		{"unrelated", "611310", 0},
		{"blank", "", 0},
		{"short code", "54", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreNAICS(tt.code, primary, secondary))
		})
	}
}

func TestScoreNAICS_NoProfileCodes(t *testing.T) {
	assert.Equal(t, 0.0, scoreNAICS("541512", nil, nil))
}

func TestScoreCapability(t *testing.T) {
	tests := []struct {
		name string
		caps string
		desc string
		want float64
	}{
		{"missing capabilities", "", "cloud migration", 50},
		{"missing description", "cloud", "", 50},
		{"punctuation only", "cloud", "--- !!!", 50},
		{"no overlap", "payroll accounting", "bridge construction", 0},
		{"half overlap caps at 100", "cloud migration", "Cloud services", 100},
		{"quarter overlap", "cloud", "cloud bridge road tunnel", 50},
		{"case and punctuation", "ZERO-TRUST networks", "zero trust, networks; audit. review", 100},
		{"one in five", "cloud", "cloud a b c d", 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreCapability(tt.caps, tt.desc), 0.0001)
		})
	}
}

func TestWordSet_Dedupes(t *testing.T) {
	set := wordSet("Cloud cloud CLOUD migration")
	assert.Len(t, set, 2)
	assert.Contains(t, set, "cloud")
}

func TestScorePastPerformance(t *testing.T) {
	assert.Equal(t, 70.0, scorePastPerformance("Ten years of DoD support"))
	assert.Equal(t, 30.0, scorePastPerformance(""))
	assert.Equal(t, 30.0, scorePastPerformance("   "))
}

func TestScoreGeographic(t *testing.T) {
	regions := []string{"MD", "DC"}
	tests := []struct {
		name  string
		state string
		want  float64
	}{
		{"unspecified", "", 100},
		{"headquarters", "VA", 100},
		{"headquarters lower case", "va", 100},
		{"service region", "MD", 80},
		{"elsewhere", "CA", 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreGeographic(tt.state, "VA", regions))
		})
	}
}

func TestScoreCertification(t *testing.T) {
	tests := []struct {
		name     string
		setAside string
		profile  model.CompanyProfile
		want     float64
	}{
		{"no set-aside", "", model.CompanyProfile{}, 100},
		{"NONE literal", "NONE", model.CompanyProfile{}, 100},
		{"small business held", "SBA", model.CompanyProfile{SmallBusiness: true}, 100},
		{"small business via 8(a)", "SBA", model.CompanyProfile{EightA: true}, 90},
		{"small business not held", "SBA", model.CompanyProfile{}, 0},
		{"8a held", "8A", model.CompanyProfile{EightA: true}, 100},
		{"8a missing", "8AN", model.CompanyProfile{SmallBusiness: true}, 0},
		{"hubzone", "HZC", model.CompanyProfile{HUBZone: true}, 100},
		{"sdvosb", "SDVOSBC", model.CompanyProfile{VeteranOwned: true}, 100},
		{"wosb", "EDWOSB", model.CompanyProfile{WomanOwned: true}, 100},
		{"wosb missing", "WOSB", model.CompanyProfile{VeteranOwned: true}, 0},
		{"description text", "Total Small Business Set-Aside (FAR 19.5)", model.CompanyProfile{SmallBusiness: true}, 100},
		{"hubzone description", "HUBZone Set-Aside", model.CompanyProfile{HUBZone: true}, 100},
		{"unknown set-aside", "Indian Economic Enterprise", model.CompanyProfile{SmallBusiness: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreCertification(tt.setAside, &tt.profile))
		})
	}
}

func TestScoreClearance(t *testing.T) {
	tests := []struct {
		name    string
		opp     model.Opportunity
		profile model.CompanyProfile
		want    float64
	}{
		{"nothing required", model.Opportunity{}, model.CompanyProfile{}, 100},
		{"clearance held", model.Opportunity{RequiresClearance: true}, model.CompanyProfile{FacilityClearance: true}, 100},
		{"clearance missing", model.Opportunity{RequiresClearance: true}, model.CompanyProfile{ITARRegistered: true}, 0},
		{"itar only held", model.Opportunity{RequiresITAR: true}, model.CompanyProfile{ITARRegistered: true}, 100},
		{"both, one held", model.Opportunity{RequiresClearance: true, RequiresITAR: true}, model.CompanyProfile{FacilityClearance: true}, 50},
		{"both held", model.Opportunity{RequiresClearance: true, RequiresITAR: true}, model.CompanyProfile{FacilityClearance: true, ITARRegistered: true}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreClearance(&tt.opp, &tt.profile))
		})
	}
}

func TestScoreContractSize(t *testing.T) {
	revenue := ptrFloat64(10_000_000)
	tests := []struct {
		name    string
		value   *float64
		revenue *float64
		want    float64
	}{
		{"no value", nil, revenue, 70},
		{"no revenue", ptrFloat64(1_000_000), nil, 70},
		{"zero revenue", ptrFloat64(1_000_000), ptrFloat64(0), 70},
		{"lower bound", ptrFloat64(500_000), revenue, 100},
		{"upper bound", ptrFloat64(5_000_000), revenue, 100},
		{"just above half", ptrFloat64(5_000_001), revenue, 70},
		{"equal to revenue", ptrFloat64(10_000_000), revenue, 70},
		{"over revenue", ptrFloat64(25_000_000), revenue, 30},
		{"tiny", ptrFloat64(100_000), revenue, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreContractSize(tt.value, tt.revenue))
		})
	}
}

func TestContractValue_Priority(t *testing.T) {
	assert.Nil(t, contractValue(&model.Opportunity{}))
	assert.Equal(t, 5.0, *contractValue(&model.Opportunity{AwardAmount: ptrFloat64(5)}))
	assert.Equal(t, 9.0, *contractValue(&model.Opportunity{AwardAmount: ptrFloat64(5), EstimatedValueHigh: ptrFloat64(9)}))
	assert.Equal(t, 3.0, *contractValue(&model.Opportunity{EstimatedValueLow: ptrFloat64(3)}))
}

func TestScoreBounds(t *testing.T) {
	long := strings.Repeat("cloud security ", 50)
	opps := []model.Opportunity{
		{},
		{NAICSCode: "541512", Description: long, SetAside: "8A", RequiresClearance: true, RequiresITAR: true,
			PlaceOfPerformanceState: "TX", AwardAmount: ptrFloat64(1e12), IncumbentContractor: "Acme"},
		{NAICSCode: "999999", Description: "x", EstimatedValueLow: ptrFloat64(0)},
	}
	profiles := []model.CompanyProfile{
		{},
		{PrimaryNAICS: []string{"541512"}, Capabilities: long, PastPerformance: "yes", HeadquartersState: "TX",
			EightA: true, FacilityClearance: true, ITARRegistered: true, AnnualRevenue: ptrFloat64(1e7)},
	}
	for _, o := range opps {
		for _, p := range profiles {
			c := ComputeComponents(&o, &p)
			for name, v := range c.Map() {
				assert.GreaterOrEqual(t, v, 0.0, name)
				assert.LessOrEqual(t, v, 100.0, name)
			}
			overall := OverallScore(c)
			assert.GreaterOrEqual(t, overall, 0.0)
			assert.LessOrEqual(t, overall, 100.0)
		}
	}
}
