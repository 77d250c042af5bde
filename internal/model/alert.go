package model

import "time"

// OpportunityAlert is a user's saved search. Name is unique per user.
type OpportunityAlert struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	TenantID       string     `json:"tenant_id,omitempty"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	NAICSCodes     []string   `json:"naics_codes,omitempty"`
	Keywords       []string   `json:"keywords,omitempty"`
	MinValue       *float64   `json:"min_value,omitempty"`
	MaxValue       *float64   `json:"max_value,omitempty"`
	Enabled        bool       `json:"enabled"`
	LastCheckedAt  *time.Time `json:"last_checked_at,omitempty"`
	LastMatchCount int        `json:"last_match_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AlertMatch is one (user, alert, opportunity) hit handed to notification consumers.
type AlertMatch struct {
	UserID        string `json:"user_id"`
	AlertID       string `json:"alert_id"`
	AlertName     string `json:"alert_name"`
	OpportunityID string `json:"opportunity_id"`
}
