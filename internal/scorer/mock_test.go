package scorer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/store"
)

// memStore is an in-memory opportunity, profile and match store.
type memStore struct {
	mu       sync.Mutex
	opps     map[string]model.Opportunity
	profiles map[string]model.CompanyProfile
	matches  map[string]model.OpportunityMatch

	pageCalls []store.Page
	listErr   error
	failSave  map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		opps:     make(map[string]model.Opportunity),
		profiles: make(map[string]model.CompanyProfile),
		matches:  make(map[string]model.OpportunityMatch),
		failSave: make(map[string]bool),
	}
}

func matchKey(tenantID, oppID string) string { return tenantID + "/" + oppID }

func (m *memStore) addOpp(o model.Opportunity) {
	if o.Status == "" {
		o.Status = model.OpportunityActive
	}
	m.opps[o.ID] = o
}

func (m *memStore) FindBySolicitationNumber(_ context.Context, key string) (*model.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.opps {
		if o.SolicitationNumber == key {
			return &o, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetOpportunity(_ context.Context, id string) (*model.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.opps[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *memStore) SaveOpportunity(_ context.Context, o *model.Opportunity) (*model.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opps[o.ID] = *o
	return o, nil
}

func (m *memStore) FindOpportunitiesByStatus(_ context.Context, status model.OpportunityStatus, page store.Page) ([]model.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageCalls = append(m.pageCalls, page)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var all []model.Opportunity
	for _, o := range m.opps {
		if o.Status == status {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if page.Offset >= len(all) {
		return nil, nil
	}
	end := min(page.Offset+page.Limit, len(all))
	return all[page.Offset:end], nil
}

func (m *memStore) CloseExpired(context.Context, time.Time) (int, error) { return 0, nil }

func (m *memStore) GetProfile(_ context.Context, tenantID string) (*model.CompanyProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[tenantID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) SaveProfile(_ context.Context, p *model.CompanyProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.TenantID] = *p
	return nil
}

func (m *memStore) GetMatch(_ context.Context, tenantID, oppID string) (*model.OpportunityMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.matches[matchKey(tenantID, oppID)]
	if !ok {
		return nil, nil
	}
	return &mt, nil
}

func (m *memStore) SaveMatch(_ context.Context, mt *model.OpportunityMatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave[mt.OpportunityID] {
		return errors.New("write failed")
	}
	m.matches[matchKey(mt.TenantID, mt.OpportunityID)] = *mt
	return nil
}

func (m *memStore) ListMatches(_ context.Context, tenantID string, _ store.Page) ([]model.OpportunityMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OpportunityMatch
	for _, mt := range m.matches {
		if mt.TenantID == tenantID {
			out = append(out, mt)
		}
	}
	return out, nil
}

func (m *memStore) matchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matches)
}
