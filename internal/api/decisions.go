package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Meridian-Contracting/Triage/internal/engine"
	"github.com/Meridian-Contracting/Triage/internal/store"
)

type DecisionsHandler struct {
	store  store.Store
	engine *engine.Engine
}

func NewDecisionsHandler(s store.Store, eng *engine.Engine) *DecisionsHandler {
	return &DecisionsHandler{store: s, engine: eng}
}

func (h *DecisionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	decisions, err := h.store.ListDecisions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if decisions == nil {
		decisions = []*store.BidDecisionRecord{}
	}
	writeJSON(w, http.StatusOK, decisions)
}

func (h *DecisionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid decision id"})
		return
	}

	rec, err := h.store.GetDecision(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *DecisionsHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid decision id"})
		return
	}

	var body struct {
		ReviewedBy string `json:"reviewed_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rec, err := h.engine.MarkReviewed(r.Context(), id, body.ReviewedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type OutcomeRequest struct {
	BidSubmitted bool     `json:"bid_submitted"`
	WonContract  *bool    `json:"won_contract,omitempty"`
	ActualCost   *float64 `json:"actual_cost,omitempty"`
	RecordedBy   string   `json:"recorded_by,omitempty"`
}

func (h *DecisionsHandler) Outcome(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid decision id"})
		return
	}

	var body OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rec, err := h.engine.RecordOutcome(r.Context(), id, store.Outcome{
		BidSubmitted: body.BidSubmitted,
		WonContract:  body.WonContract,
		ActualCost:   body.ActualCost,
		RecordedBy:   body.RecordedBy,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
