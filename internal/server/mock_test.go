package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/sells-group/govcon-cli/internal/alerts"
	"github.com/sells-group/govcon-cli/internal/ingest"
	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/store"
)

type fakeIngester struct {
	keys  []string
	err   error
	saved int
}

func (f *fakeIngester) RunIngestion(_ context.Context, keys []string) (*ingest.Result, error) {
	f.keys = keys
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Result{NewCount: 2, UpdatedCount: 1, Partitions: len(keys), RunID: "run-1"}, nil
}

func (f *fakeIngester) IngestSourcesSought(_ context.Context, keys []string) (int, error) {
	f.keys = keys
	return f.saved, f.err
}

type fakeScorer struct {
	err      error
	rating   int
	feedback string
	status   model.MatchStatus
}

func (f *fakeScorer) match(tenantID, oppID string) (*model.OpportunityMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.OpportunityMatch{TenantID: tenantID, OpportunityID: oppID, OverallScore: 82.5, Status: model.MatchNew}, nil
}

func (f *fakeScorer) CalculateMatch(_ context.Context, tenantID, oppID string) (*model.OpportunityMatch, error) {
	return f.match(tenantID, oppID)
}

func (f *fakeScorer) RateMatch(_ context.Context, tenantID, oppID string, rating int, feedback string) (*model.OpportunityMatch, error) {
	f.rating, f.feedback = rating, feedback
	return f.match(tenantID, oppID)
}

func (f *fakeScorer) UpdateMatchStatus(_ context.Context, tenantID, oppID string, status model.MatchStatus) (*model.OpportunityMatch, error) {
	f.status = status
	return f.match(tenantID, oppID)
}

type fakeQueue struct {
	tenants []string
	err     error
}

func (f *fakeQueue) Enqueue(tenantID string) error {
	if f.err != nil {
		return f.err
	}
	f.tenants = append(f.tenants, tenantID)
	return nil
}

// fakeAlerts is a map-backed AlertService enforcing per-user name uniqueness.
type fakeAlerts struct {
	mu     sync.Mutex
	alerts map[string]model.OpportunityAlert
	nextID int
}

func newFakeAlerts(seed ...model.OpportunityAlert) *fakeAlerts {
	f := &fakeAlerts{alerts: make(map[string]model.OpportunityAlert)}
	for _, a := range seed {
		f.alerts[a.ID] = a
	}
	return f
}

func (f *fakeAlerts) Create(_ context.Context, a *model.OpportunityAlert) (*model.OpportunityAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.Name == "" {
		return nil, alerts.ErrInvalidAlert
	}
	for _, other := range f.alerts {
		if other.UserID == a.UserID && other.Name == a.Name {
			return nil, alerts.ErrDuplicateName
		}
	}
	f.nextID++
	a.ID = fmt.Sprintf("new-%d", f.nextID)
	f.alerts[a.ID] = *a
	return a, nil
}

func (f *fakeAlerts) Update(_ context.Context, a *model.OpportunityAlert) (*model.OpportunityAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.alerts[a.ID]
	if !ok {
		return nil, alerts.ErrAlertNotFound
	}
	a.UserID = existing.UserID
	f.alerts[a.ID] = *a
	return a, nil
}

func (f *fakeAlerts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.alerts[id]; !ok {
		return alerts.ErrAlertNotFound
	}
	delete(f.alerts, id)
	return nil
}

func (f *fakeAlerts) Toggle(ctx context.Context, id string) (*model.OpportunityAlert, error) {
	a, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Enabled = !a.Enabled
	f.mu.Lock()
	f.alerts[id] = *a
	f.mu.Unlock()
	return a, nil
}

func (f *fakeAlerts) Get(_ context.Context, id string) (*model.OpportunityAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return nil, alerts.ErrAlertNotFound
	}
	return &a, nil
}

func (f *fakeAlerts) List(_ context.Context, userID string) ([]model.OpportunityAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OpportunityAlert
	for _, a := range f.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeEvaluator struct {
	matches []model.AlertMatch
	forUser []model.OpportunityAlert
	userID  string
}

func (f *fakeEvaluator) EvaluateOpportunity(context.Context, *model.Opportunity) ([]model.AlertMatch, error) {
	return f.matches, nil
}

func (f *fakeEvaluator) EvaluateOpportunityForUser(_ context.Context, userID string, _ *model.Opportunity) ([]model.OpportunityAlert, error) {
	f.userID = userID
	return f.forUser, nil
}

type fakeReader struct {
	opps     map[string]model.Opportunity
	profiles []model.CompanyProfile
	matches  []model.OpportunityMatch
	runs     []model.IngestRun
	page     store.Page
	runLimit int
	pingErr  error
}

func (f *fakeReader) GetOpportunity(_ context.Context, id string) (*model.Opportunity, error) {
	o, ok := f.opps[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeReader) SaveProfile(_ context.Context, p *model.CompanyProfile) error {
	f.profiles = append(f.profiles, *p)
	return nil
}

func (f *fakeReader) ListMatches(_ context.Context, _ string, page store.Page) ([]model.OpportunityMatch, error) {
	f.page = page
	return f.matches, nil
}

func (f *fakeReader) ListIngestRuns(_ context.Context, limit int) ([]model.IngestRun, error) {
	f.runLimit = limit
	return f.runs, nil
}

func (f *fakeReader) Ping(context.Context) error { return f.pingErr }
