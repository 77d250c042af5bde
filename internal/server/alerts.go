package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/govcon-cli/internal/alerts"
	"github.com/sells-group/govcon-cli/internal/model"
)

// ownedAlert loads the alert in the path and hides alerts owned by other users.
func (s *Server) ownedAlert(w http.ResponseWriter, r *http.Request) *model.OpportunityAlert {
	a, err := s.deps.Alerts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return nil
	}
	if a.UserID != r.Header.Get(userHeader) {
		writeError(w, r, alerts.ErrAlertNotFound)
		return nil
	}
	return a
}

func (s *Server) listAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Alerts.List(r.Context(), r.Header.Get(userHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.OpportunityAlert{}
	}
	jsonOK(w, list)
}

func (s *Server) createAlert(w http.ResponseWriter, r *http.Request) {
	var a model.OpportunityAlert
	if !decodeBody(w, r, &a) {
		return
	}
	a.ID = ""
	a.UserID = r.Header.Get(userHeader)
	created, err := s.deps.Alerts.Create(r.Context(), &a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonStatus(w, http.StatusCreated, created)
}

func (s *Server) getAlert(w http.ResponseWriter, r *http.Request) {
	if a := s.ownedAlert(w, r); a != nil {
		jsonOK(w, a)
	}
}

func (s *Server) updateAlert(w http.ResponseWriter, r *http.Request) {
	existing := s.ownedAlert(w, r)
	if existing == nil {
		return
	}
	var a model.OpportunityAlert
	if !decodeBody(w, r, &a) {
		return
	}
	a.ID = existing.ID
	updated, err := s.deps.Alerts.Update(r.Context(), &a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, updated)
}

func (s *Server) deleteAlert(w http.ResponseWriter, r *http.Request) {
	existing := s.ownedAlert(w, r)
	if existing == nil {
		return
	}
	if err := s.deps.Alerts.Delete(r.Context(), existing.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleAlert(w http.ResponseWriter, r *http.Request) {
	existing := s.ownedAlert(w, r)
	if existing == nil {
		return
	}
	toggled, err := s.deps.Alerts.Toggle(r.Context(), existing.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonOK(w, toggled)
}

func (s *Server) evaluateOpportunity(w http.ResponseWriter, r *http.Request) {
	opp := s.loadOpportunity(w, r)
	if opp == nil {
		return
	}
	matches, err := s.deps.Evaluator.EvaluateOpportunity(r.Context(), opp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []model.AlertMatch{}
	}
	jsonOK(w, matches)
}

func (s *Server) evaluateOpportunityForUser(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}
	opp := s.loadOpportunity(w, r)
	if opp == nil {
		return
	}
	list, err := s.deps.Evaluator.EvaluateOpportunityForUser(r.Context(), userID, opp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.OpportunityAlert{}
	}
	jsonOK(w, list)
}
