package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/alerts"
	"github.com/sells-group/govcon-cli/internal/scorer"
)

const userHeader = "x-user-id"

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, http.StatusOK, v)
}

func jsonStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonStatus(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scorer.ErrProfileNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scorer.ErrOpportunityNotFound),
		errors.Is(err, scorer.ErrMatchNotFound),
		errors.Is(err, alerts.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, alerts.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, alerts.ErrInvalidAlert),
		errors.Is(err, scorer.ErrInvalidRating),
		errors.Is(err, scorer.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, scorer.ErrQueueFull),
		errors.Is(err, scorer.ErrQueueClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Internal details are logged, not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("server: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		jsonError(w, "internal error", status)
		return
	}
	jsonError(w, err.Error(), status)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(userHeader) == "" {
			jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
