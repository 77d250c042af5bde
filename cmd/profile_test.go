package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfiles_Single(t *testing.T) {
	data := []byte(`
tenant_id: acme
primary_naics: ["541512"]
secondary_naics: ["541519"]
capabilities: Cloud migration and zero trust architecture
headquarters_state: va
service_regions: [VA, MD, DC]
small_business: true
eight_a: true
facility_clearance: true
annual_revenue: 12000000
`)
	profiles, err := parseProfiles(data)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, "acme", p.TenantID)
	assert.Equal(t, []string{"541512"}, p.PrimaryNAICS)
	assert.Equal(t, "VA", p.HeadquartersState)
	assert.True(t, p.EightA)
	assert.False(t, p.HUBZone)
	require.NotNil(t, p.AnnualRevenue)
	assert.InDelta(t, 12_000_000.0, *p.AnnualRevenue, 0.01)
}

func TestParseProfiles_List(t *testing.T) {
	data := []byte(`
profiles:
  - tenant_id: acme
    primary_naics: ["541512"]
  - tenant_id: " globex "
    woman_owned: true
`)
	profiles, err := parseProfiles(data)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "globex", profiles[1].TenantID)
	assert.True(t, profiles[1].WomanOwned)
	assert.Nil(t, profiles[1].AnnualRevenue)
}

func TestParseProfiles_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty", "  \n", "empty file"},
		{"bad yaml", "tenant_id: [unterminated", "parse yaml"},
		{"missing tenant", "primary_naics: [\"541512\"]", "has no tenant_id"},
		{"duplicate tenant", "profiles:\n  - tenant_id: a\n  - tenant_id: a\n", "appears more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProfiles([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
