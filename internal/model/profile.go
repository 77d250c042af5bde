package model

import "time"

// CompanyProfile describes one tenant's capabilities for fit scoring.
type CompanyProfile struct {
	TenantID          string   `json:"tenant_id" yaml:"tenant_id"`
	PrimaryNAICS      []string `json:"primary_naics" yaml:"primary_naics"`
	SecondaryNAICS    []string `json:"secondary_naics" yaml:"secondary_naics"`
	Capabilities      string   `json:"capabilities" yaml:"capabilities"`
	PastPerformance   string   `json:"past_performance" yaml:"past_performance"`
	HeadquartersState string   `json:"headquarters_state" yaml:"headquarters_state"`
	ServiceRegions    []string `json:"service_regions" yaml:"service_regions"`

	SmallBusiness bool `json:"small_business" yaml:"small_business"`
	EightA        bool `json:"eight_a" yaml:"eight_a"`
	HUBZone       bool `json:"hubzone" yaml:"hubzone"`
	VeteranOwned  bool `json:"veteran_owned" yaml:"veteran_owned"`
	WomanOwned    bool `json:"woman_owned" yaml:"woman_owned"`

	FacilityClearance bool     `json:"facility_clearance" yaml:"facility_clearance"`
	ITARRegistered    bool     `json:"itar_registered" yaml:"itar_registered"`
	AnnualRevenue     *float64 `json:"annual_revenue,omitempty" yaml:"annual_revenue"`

	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}
