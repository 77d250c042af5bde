package model

import "time"

// MatchStatus tracks a tenant's pursuit decision for a scored opportunity.
type MatchStatus string

const (
	MatchNew          MatchStatus = "NEW"
	MatchReviewing    MatchStatus = "REVIEWING"
	MatchQualified    MatchStatus = "QUALIFIED"
	MatchPursuing     MatchStatus = "PURSUING"
	MatchSubmitted    MatchStatus = "SUBMITTED"
	MatchWon          MatchStatus = "WON"
	MatchLost         MatchStatus = "LOST"
	MatchDisqualified MatchStatus = "DISQUALIFIED"
)

// Valid reports whether s is a known status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchNew, MatchReviewing, MatchQualified, MatchPursuing,
		MatchSubmitted, MatchWon, MatchLost, MatchDisqualified:
		return true
	}
	return false
}

// TagKind separates favourable reasons from risks.
type TagKind string

const (
	TagReason TagKind = "reason"
	TagRisk   TagKind = "risk"
)

// Severity grades how much a tag should weigh in a reviewer's eyes.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// MatchTag is a structured reason or risk produced by the scorer.
type MatchTag struct {
	Code     string   `json:"code"`
	Kind     TagKind  `json:"kind"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// OpportunityMatch is the fit assessment of one opportunity for one tenant.
// (TenantID, OpportunityID) is unique.
type OpportunityMatch struct {
	TenantID      string `json:"tenant_id"`
	OpportunityID string `json:"opportunity_id"`

	NAICSScore         float64 `json:"naics_score"`
	CapabilityScore    float64 `json:"capability_score"`
	PastPerfScore      float64 `json:"past_performance_score"`
	GeographicScore    float64 `json:"geographic_score"`
	CertificationScore float64 `json:"certification_score"`
	ClearanceScore     float64 `json:"clearance_score"`
	ContractSizeScore  float64 `json:"contract_size_score"`
	OverallScore       float64 `json:"overall_score"`
	PWin               float64 `json:"pwin"`

	Status   MatchStatus `json:"status"`
	Reasons  string      `json:"reasons"`
	Risks    string      `json:"risks"`
	Tags     []MatchTag  `json:"tags,omitempty"`
	Rating   *int        `json:"rating,omitempty"`
	Feedback string      `json:"feedback,omitempty"`

	LastCalculatedAt time.Time `json:"last_calculated_at"`
}
