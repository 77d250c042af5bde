package alerts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/store"
)

type checkRecord struct {
	at    time.Time
	count int
}

// memAlertStore is an in-memory store.AlertStore.
type memAlertStore struct {
	mu        sync.Mutex
	alerts    map[string]model.OpportunityAlert
	checks    map[string]checkRecord
	nextID    int
	listErr   error
	recordErr error
	// staleNames makes FindAlertByName miss, as if another writer raced the check.
	staleNames bool
}

func newMemAlertStore() *memAlertStore {
	return &memAlertStore{
		alerts: make(map[string]model.OpportunityAlert),
		checks: make(map[string]checkRecord),
	}
}

func (m *memAlertStore) CreateAlert(_ context.Context, a *model.OpportunityAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.alerts {
		if other.UserID == a.UserID && other.Name == a.Name {
			return fmt.Errorf("insert alert: %w", store.ErrConflict)
		}
	}
	if a.ID == "" {
		m.nextID++
		a.ID = fmt.Sprintf("alert-%d", m.nextID)
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.alerts[a.ID] = *a
	return nil
}

func (m *memAlertStore) UpdateAlert(_ context.Context, a *model.OpportunityAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[a.ID]; !ok {
		return store.ErrNotFound
	}
	for id, other := range m.alerts {
		if id != a.ID && other.UserID == a.UserID && other.Name == a.Name {
			return fmt.Errorf("update alert: %w", store.ErrConflict)
		}
	}
	a.UpdatedAt = time.Now()
	m.alerts[a.ID] = *a
	return nil
}

func (m *memAlertStore) DeleteAlert(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.alerts, id)
	return nil
}

func (m *memAlertStore) GetAlert(_ context.Context, id string) (*model.OpportunityAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAlertStore) FindAlertByName(_ context.Context, userID, name string) (*model.OpportunityAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.staleNames {
		return nil, nil
	}
	for _, a := range m.alerts {
		if a.UserID == userID && a.Name == name {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memAlertStore) list(keep func(model.OpportunityAlert) bool) ([]model.OpportunityAlert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.OpportunityAlert
	for _, a := range m.alerts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *memAlertStore) ListAlerts(_ context.Context, userID string) ([]model.OpportunityAlert, error) {
	return m.list(func(a model.OpportunityAlert) bool { return a.UserID == userID })
}

func (m *memAlertStore) FindEnabledAlerts(context.Context) ([]model.OpportunityAlert, error) {
	return m.list(func(a model.OpportunityAlert) bool { return a.Enabled })
}

func (m *memAlertStore) FindEnabledAlertsByUser(_ context.Context, userID string) ([]model.OpportunityAlert, error) {
	return m.list(func(a model.OpportunityAlert) bool { return a.Enabled && a.UserID == userID })
}

func (m *memAlertStore) RecordAlertCheck(_ context.Context, id string, checkedAt time.Time, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.checks[id] = checkRecord{at: checkedAt, count: count}
	return nil
}

// put stores an alert directly, bypassing validation.
func (m *memAlertStore) put(a model.OpportunityAlert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[a.ID] = a
}

// recordingPublisher captures published matches.
type recordingPublisher struct {
	published [][]model.AlertMatch
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, matches []model.AlertMatch) error {
	p.published = append(p.published, matches)
	return p.err
}
