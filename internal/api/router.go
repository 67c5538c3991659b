package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Meridian-Contracting/Triage/internal/analytics"
	"github.com/Meridian-Contracting/Triage/internal/engine"
	"github.com/Meridian-Contracting/Triage/internal/store"
)

func NewRouter(s store.Store, eng *engine.Engine, agg *analytics.Aggregator, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	evaluations := NewEvaluationsHandler(eng)
	decisions := NewDecisionsHandler(s, eng)
	reports := NewAnalyticsHandler(agg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/evaluations", evaluations.Create)
		r.Post("/evaluations/batch", evaluations.Batch)

		r.Get("/decisions", decisions.List)
		r.Get("/decisions/{id}", decisions.Get)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Post("/decisions/{id}/review", decisions.Review)
			r.Post("/decisions/{id}/outcome", decisions.Outcome)
		})

		r.Get("/analytics/summary", reports.Summary)
		r.Get("/analytics/accuracy", reports.Accuracy)
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// writeError maps store sentinel errors to their HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseFilter reads the shared window/scope query parameters. Timestamps
// accept RFC 3339 or a bare date.
func parseFilter(r *http.Request) store.DecisionFilter {
	q := r.URL.Query()
	filter := store.DecisionFilter{
		Agency:    q.Get("agency"),
		NAICSCode: q.Get("naics"),
	}
	if t, ok := parseTime(q.Get("from")); ok {
		filter.From = t
	}
	if t, ok := parseTime(q.Get("to")); ok {
		filter.To = t
	}
	if rec := q.Get("recommendation"); rec != "" {
		recommendation := store.Recommendation(rec)
		filter.Recommendation = &recommendation
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		filter.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		filter.Offset = n
	}
	return filter
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
