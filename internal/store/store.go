package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/govcon-cli/internal/model"
)

// ErrNotFound is returned by updates and deletes that match no row.
// Lookups return (nil, nil) for a missing row instead.
var ErrNotFound = eris.New("store: not found")

// ErrConflict is returned by writes that violate a unique constraint.
var ErrConflict = eris.New("store: conflict")

// Page bounds a listing query.
type Page struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

const defaultPageLimit = 100

func (p Page) limit() int {
	if p.Limit <= 0 {
		return defaultPageLimit
	}
	return p.Limit
}

// Next returns the page following p.
func (p Page) Next() Page {
	return Page{Limit: p.limit(), Offset: p.Offset + p.limit()}
}

// OpportunityStore persists opportunities keyed by solicitation number.
type OpportunityStore interface {
	FindBySolicitationNumber(ctx context.Context, solicitationNumber string) (*model.Opportunity, error)
	GetOpportunity(ctx context.Context, id string) (*model.Opportunity, error)
	// SaveOpportunity upserts on solicitation number and returns the stored row.
	SaveOpportunity(ctx context.Context, opp *model.Opportunity) (*model.Opportunity, error)
	FindOpportunitiesByStatus(ctx context.Context, status model.OpportunityStatus, page Page) ([]model.Opportunity, error)
	// CloseExpired marks ACTIVE opportunities whose response deadline is before now as CLOSED.
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// ProfileStore persists one company profile per tenant.
type ProfileStore interface {
	GetProfile(ctx context.Context, tenantID string) (*model.CompanyProfile, error)
	SaveProfile(ctx context.Context, p *model.CompanyProfile) error
}

// MatchStore persists one match per (tenant, opportunity).
type MatchStore interface {
	GetMatch(ctx context.Context, tenantID, opportunityID string) (*model.OpportunityMatch, error)
	SaveMatch(ctx context.Context, m *model.OpportunityMatch) error
	ListMatches(ctx context.Context, tenantID string, page Page) ([]model.OpportunityMatch, error)
}

// AlertStore persists user alert rules.
type AlertStore interface {
	CreateAlert(ctx context.Context, a *model.OpportunityAlert) error
	UpdateAlert(ctx context.Context, a *model.OpportunityAlert) error
	DeleteAlert(ctx context.Context, id string) error
	GetAlert(ctx context.Context, id string) (*model.OpportunityAlert, error)
	FindAlertByName(ctx context.Context, userID, name string) (*model.OpportunityAlert, error)
	ListAlerts(ctx context.Context, userID string) ([]model.OpportunityAlert, error)
	FindEnabledAlerts(ctx context.Context) ([]model.OpportunityAlert, error)
	FindEnabledAlertsByUser(ctx context.Context, userID string) ([]model.OpportunityAlert, error)
	RecordAlertCheck(ctx context.Context, id string, checkedAt time.Time, matchCount int) error
}

// IngestRunStore records ingestion calls.
type IngestRunStore interface {
	CreateIngestRun(ctx context.Context, mode, source string, partitions int) (*model.IngestRun, error)
	CompleteIngestRun(ctx context.Context, run *model.IngestRun) error
	ListIngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error)
}

// Store is the full persistence surface used by the CLI and server.
type Store interface {
	OpportunityStore
	ProfileStore
	MatchStore
	AlertStore
	IngestRunStore

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
