// Package server exposes ingestion, scoring and alerting over HTTP.
//
// Alert routes act on behalf of the user named in the x-user-id header.
//
// Routes:
//
//	GET    /health
//	POST   /ingest/runs                         run solicitation ingestion
//	POST   /ingest/sources-sought               run sources-sought ingestion
//	GET    /ingest/runs                         recent ingestion runs
//	GET    /opportunities/{id}
//	POST   /opportunities/{id}/alerts/evaluate  evaluate against every enabled alert
//	GET    /opportunities/{id}/alerts           caller's alerts matching the opportunity
//	PUT    /tenants/{tenantID}/profile
//	POST   /tenants/{tenantID}/matches          queue a tenant-wide scoring batch
//	GET    /tenants/{tenantID}/matches
//	POST   /tenants/{tenantID}/matches/{oppID}  score one opportunity
//	PUT    /tenants/{tenantID}/matches/{oppID}/rating
//	PUT    /tenants/{tenantID}/matches/{oppID}/status
//	GET    /alerts
//	POST   /alerts
//	GET    /alerts/{id}
//	PUT    /alerts/{id}
//	DELETE /alerts/{id}
//	POST   /alerts/{id}/toggle
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/govcon-cli/internal/ingest"
	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/scorer"
	"github.com/sells-group/govcon-cli/internal/store"
)

// Ingester runs the two ingestion entry points.
type Ingester interface {
	RunIngestion(ctx context.Context, partitionKeys []string) (*ingest.Result, error)
	IngestSourcesSought(ctx context.Context, partitionKeys []string) (int, error)
}

// Scorer scores single opportunities and records tenant feedback.
type Scorer interface {
	CalculateMatch(ctx context.Context, tenantID, opportunityID string) (*model.OpportunityMatch, error)
	RateMatch(ctx context.Context, tenantID, opportunityID string, rating int, feedback string) (*model.OpportunityMatch, error)
	UpdateMatchStatus(ctx context.Context, tenantID, opportunityID string, status model.MatchStatus) (*model.OpportunityMatch, error)
}

// Enqueuer hands tenant batches to the background scoring queue.
type Enqueuer interface {
	Enqueue(tenantID string) error
}

// AlertService manages alert rules.
type AlertService interface {
	Create(ctx context.Context, a *model.OpportunityAlert) (*model.OpportunityAlert, error)
	Update(ctx context.Context, a *model.OpportunityAlert) (*model.OpportunityAlert, error)
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string) (*model.OpportunityAlert, error)
	Get(ctx context.Context, id string) (*model.OpportunityAlert, error)
	List(ctx context.Context, userID string) ([]model.OpportunityAlert, error)
}

// AlertEvaluator matches opportunities against alerts.
type AlertEvaluator interface {
	EvaluateOpportunity(ctx context.Context, opp *model.Opportunity) ([]model.AlertMatch, error)
	EvaluateOpportunityForUser(ctx context.Context, userID string, opp *model.Opportunity) ([]model.OpportunityAlert, error)
}

// Reader is the read side of the store the API serves directly.
type Reader interface {
	GetOpportunity(ctx context.Context, id string) (*model.Opportunity, error)
	SaveProfile(ctx context.Context, p *model.CompanyProfile) error
	ListMatches(ctx context.Context, tenantID string, page store.Page) ([]model.OpportunityMatch, error)
	ListIngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error)
	Ping(ctx context.Context) error
}

// Deps wires the server to its collaborators.
type Deps struct {
	Ingest         Ingester
	Scorer         Scorer
	Queue          Enqueuer
	Alerts         AlertService
	Evaluator      AlertEvaluator
	Store          Reader
	PartitionKeys  []string
	AllowedOrigins []string
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

// New returns the API router.
func New(deps Deps) http.Handler {
	s := &Server{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", userHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.health)

	r.Route("/ingest", func(r chi.Router) {
		r.Post("/runs", s.runIngestion)
		r.Get("/runs", s.listIngestRuns)
		r.Post("/sources-sought", s.ingestSourcesSought)
	})

	r.Route("/opportunities/{id}", func(r chi.Router) {
		r.Get("/", s.getOpportunity)
		r.Post("/alerts/evaluate", s.evaluateOpportunity)
		r.Get("/alerts", s.evaluateOpportunityForUser)
	})

	r.Route("/tenants/{tenantID}", func(r chi.Router) {
		r.Put("/profile", s.saveProfile)
		r.Post("/matches", s.enqueueTenant)
		r.Get("/matches", s.listMatches)
		r.Post("/matches/{oppID}", s.calculateMatch)
		r.Put("/matches/{oppID}/rating", s.rateMatch)
		r.Put("/matches/{oppID}/status", s.updateMatchStatus)
	})

	r.Route("/alerts", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", s.listAlerts)
		r.Post("/", s.createAlert)
		r.Get("/{id}", s.getAlert)
		r.Put("/{id}", s.updateAlert)
		r.Delete("/{id}", s.deleteAlert)
		r.Post("/{id}/toggle", s.toggleAlert)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		jsonError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	jsonOK(w, map[string]string{"status": "ok"})
}

var _ Enqueuer = (*scorer.Queue)(nil)
