package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/scorer"
	"github.com/sells-group/govcon-cli/internal/store"
)

type ingestRequest struct {
	PartitionKeys []string `json:"partition_keys"`
}

// partitionKeys reads an optional body; no keys means the configured defaults.
func (s *Server) partitionKeys(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if len(req.PartitionKeys) == 0 {
		return s.deps.PartitionKeys, true
	}
	return req.PartitionKeys, true
}

func (s *Server) runIngestion(w http.ResponseWriter, r *http.Request) {
	keys, ok := s.partitionKeys(w, r)
	if !ok {
		return
	}
	res, err := s.deps.Ingest.RunIngestion(r.Context(), keys)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, map[string]any{
		"new_count":         res.NewCount,
		"updated_count":     res.UpdatedCount,
		"duration_ms":       res.Duration.Milliseconds(),
		"partitions":        res.Partitions,
		"failed_partitions": res.FailedPartitions,
		"skipped":           res.Skipped,
		"failed":            res.Failed,
		"run_id":            res.RunID,
	})
}

func (s *Server) ingestSourcesSought(w http.ResponseWriter, r *http.Request) {
	keys, ok := s.partitionKeys(w, r)
	if !ok {
		return
	}
	saved, err := s.deps.Ingest.IngestSourcesSought(r.Context(), keys)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, map[string]int{"saved": saved})
}

func (s *Server) listIngestRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	runs, err := s.deps.Store.ListIngestRuns(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []model.IngestRun{}
	}
	jsonOK(w, runs)
}

// loadOpportunity writes a 404 and returns nil when the id is unknown.
func (s *Server) loadOpportunity(w http.ResponseWriter, r *http.Request) *model.Opportunity {
	opp, err := s.deps.Store.GetOpportunity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return nil
	}
	if opp == nil {
		writeError(w, r, scorer.ErrOpportunityNotFound)
		return nil
	}
	return opp
}

func (s *Server) getOpportunity(w http.ResponseWriter, r *http.Request) {
	if opp := s.loadOpportunity(w, r); opp != nil {
		jsonOK(w, opp)
	}
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	var p model.CompanyProfile
	if !decodeBody(w, r, &p) {
		return
	}
	p.TenantID = chi.URLParam(r, "tenantID")
	if err := s.deps.Store.SaveProfile(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, p)
}

func (s *Server) calculateMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Scorer.CalculateMatch(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "oppID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, m)
}

// enqueueTenant starts a background batch and returns immediately.
func (s *Server) enqueueTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if err := s.deps.Queue.Enqueue(tenantID); err != nil {
		writeError(w, r, err)
		return
	}
	jsonStatus(w, http.StatusAccepted, map[string]string{
		"status":    "accepted",
		"tenant_id": tenantID,
	})
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	matches, err := s.deps.Store.ListMatches(r.Context(), chi.URLParam(r, "tenantID"), store.Page{Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []model.OpportunityMatch{}
	}
	jsonOK(w, matches)
}

func (s *Server) rateMatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rating   int    `json:"rating"`
		Feedback string `json:"feedback"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	m, err := s.deps.Scorer.RateMatch(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "oppID"), body.Rating, body.Feedback)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, m)
}

func (s *Server) updateMatchStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	status := model.MatchStatus(strings.ToUpper(strings.TrimSpace(body.Status)))
	m, err := s.deps.Scorer.UpdateMatchStatus(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "oppID"), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, m)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, eris.Errorf("%s must be a non-negative integer", key)
	}
	return v, nil
}
