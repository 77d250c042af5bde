// Package model defines the domain types shared by ingestion, scoring and alerting.
package model

import "time"

// OpportunityStatus is the lifecycle state of an opportunity.
type OpportunityStatus string

const (
	OpportunityActive   OpportunityStatus = "ACTIVE"
	OpportunityClosed   OpportunityStatus = "CLOSED"
	OpportunityArchived OpportunityStatus = "ARCHIVED"
)

// Opportunity is the canonical record of a government contracting opportunity.
// SolicitationNumber is the natural key; there is at most one Opportunity per value.
type Opportunity struct {
	ID                 string            `json:"id"`
	ExternalID         string            `json:"external_id,omitempty"`
	SolicitationNumber string            `json:"solicitation_number"`
	Title              string            `json:"title"`
	Description        string            `json:"description,omitempty"`
	NAICSCode          string            `json:"naics_code,omitempty"`
	Type               string            `json:"type,omitempty"`
	PostedDate         *time.Time        `json:"posted_date,omitempty"`
	ResponseDeadline   *time.Time        `json:"response_deadline,omitempty"`
	URL                string            `json:"url,omitempty"`
	Status             OpportunityStatus `json:"status"`

	Agency                  string   `json:"agency,omitempty"`
	SetAside                string   `json:"set_aside,omitempty"`
	PlaceOfPerformanceState string   `json:"place_of_performance_state,omitempty"`
	AwardAmount             *float64 `json:"award_amount,omitempty"`
	EstimatedValueLow       *float64 `json:"estimated_value_low,omitempty"`
	EstimatedValueHigh      *float64 `json:"estimated_value_high,omitempty"`
	IncumbentContractor     string   `json:"incumbent_contractor,omitempty"`
	RequiresClearance       bool     `json:"requires_clearance"`
	RequiresITAR            bool     `json:"requires_itar"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EstimatedValue returns the high estimate, falling back to the low estimate.
func (o *Opportunity) EstimatedValue() *float64 {
	if o.EstimatedValueHigh != nil {
		return o.EstimatedValueHigh
	}
	return o.EstimatedValueLow
}

// ComparisonValue resolves the dollar value used for range filters:
// award amount, else estimated high, else estimated low, else nil.
func (o *Opportunity) ComparisonValue() *float64 {
	if o.AwardAmount != nil {
		return o.AwardAmount
	}
	return o.EstimatedValue()
}

// HasIncumbent reports whether an incumbent contractor is recorded.
func (o *Opportunity) HasIncumbent() bool {
	return o.IncumbentContractor != ""
}

// RawOpportunity is an upstream record before reconciliation. Dates are
// kept as the source's strings and parsed during upsert.
type RawOpportunity struct {
	ExternalID         string `json:"external_id"`
	Title              string `json:"title"`
	SolicitationNumber string `json:"solicitation_number"`
	PostedDate         string `json:"posted_date"`
	ResponseDeadline   string `json:"response_deadline"`
	NAICSCode          string `json:"naics_code"`
	Type               string `json:"type"`
	URL                string `json:"url"`

	Description             string   `json:"description,omitempty"`
	Agency                  string   `json:"agency,omitempty"`
	SetAside                string   `json:"set_aside,omitempty"`
	PlaceOfPerformanceState string   `json:"place_of_performance_state,omitempty"`
	AwardAmount             *float64 `json:"award_amount,omitempty"`
	Awardee                 string   `json:"awardee,omitempty"`
	RequiresClearance       bool     `json:"requires_clearance,omitempty"`
	RequiresITAR            bool     `json:"requires_itar,omitempty"`
}
