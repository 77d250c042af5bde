package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/store"
)

// fakeSource serves canned records per partition key and mode.
type fakeSource struct {
	mu        sync.Mutex
	records   map[string][]model.RawOpportunity
	alternate map[string][]model.RawOpportunity
	errs      map[string]error
	block     map[string]bool
	panics    map[string]bool
	calls     []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		records:   make(map[string][]model.RawOpportunity),
		alternate: make(map[string][]model.RawOpportunity),
		errs:      make(map[string]error),
		block:     make(map[string]bool),
		panics:    make(map[string]bool),
	}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context, key string) ([]model.RawOpportunity, error) {
	return f.serve(ctx, key, f.records)
}

func (f *fakeSource) FetchAlternate(ctx context.Context, key string) ([]model.RawOpportunity, error) {
	return f.serve(ctx, "alt:"+key, f.alternate)
}

func (f *fakeSource) serve(ctx context.Context, key string, from map[string][]model.RawOpportunity) ([]model.RawOpportunity, error) {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	blocked := f.block[key]
	panics := f.panics[key]
	err := f.errs[key]
	recs := from[trimAlt(key)]
	f.mu.Unlock()

	if panics {
		panic("fake source: malformed page for " + key)
	}
	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func trimAlt(key string) string {
	if len(key) > 4 && key[:4] == "alt:" {
		return key[4:]
	}
	return key
}

// memStore is an in-memory OpportunityStore and IngestRunStore.
type memStore struct {
	mu      sync.Mutex
	opps    map[string]model.Opportunity
	runs    map[string]model.IngestRun
	nextID  int
	saveErr error
	findErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{
		opps: make(map[string]model.Opportunity),
		runs: make(map[string]model.IngestRun),
	}
}

func (m *memStore) FindBySolicitationNumber(_ context.Context, key string) (*model.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	o, ok := m.opps[key]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *memStore) GetOpportunity(_ context.Context, id string) (*model.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.opps {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveOpportunity(_ context.Context, opp *model.Opportunity) (*model.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saves++
	if existing, ok := m.opps[opp.SolicitationNumber]; ok {
		opp.ID = existing.ID
		opp.CreatedAt = existing.CreatedAt
	} else if opp.ID == "" {
		m.nextID++
		opp.ID = fmt.Sprintf("opp-%d", m.nextID)
		opp.CreatedAt = time.Now()
	}
	m.opps[opp.SolicitationNumber] = *opp
	return opp, nil
}

func (m *memStore) FindOpportunitiesByStatus(_ context.Context, status model.OpportunityStatus, _ store.Page) ([]model.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Opportunity
	for _, o := range m.opps {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) CloseExpired(context.Context, time.Time) (int, error) {
	return 0, errors.New("not implemented")
}

func (m *memStore) CreateIngestRun(_ context.Context, mode, src string, partitions int) (*model.IngestRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := model.IngestRun{
		ID:         "run-" + mode,
		Mode:       mode,
		Source:     src,
		Status:     model.IngestRunning,
		Partitions: partitions,
		StartedAt:  time.Now(),
	}
	m.runs[run.ID] = run
	return &run, nil
}

func (m *memStore) CompleteIngestRun(_ context.Context, run *model.IngestRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	run.CompletedAt = &now
	m.runs[run.ID] = *run
	return nil
}

func (m *memStore) ListIngestRuns(context.Context, int) ([]model.IngestRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.IngestRun, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.opps)
}

// recordingHealth captures reported results.
type recordingHealth struct {
	results []*Result
}

func (h *recordingHealth) ReportIngestion(_ context.Context, r *Result) {
	h.results = append(h.results, r)
}
