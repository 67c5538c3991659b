package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/Meridian-Contracting/Triage/internal/engine"
	"github.com/Meridian-Contracting/Triage/internal/opportunity"
)

type EvaluationsHandler struct {
	engine *engine.Engine
}

func NewEvaluationsHandler(eng *engine.Engine) *EvaluationsHandler {
	return &EvaluationsHandler{engine: eng}
}

// EvaluateRequest accepts either a full opportunity payload inline or just
// an opportunity_id to fetch.
type EvaluateRequest struct {
	OpportunityID string                   `json:"opportunity_id,omitempty"`
	TriggerID     string                   `json:"trigger_id,omitempty"`
	DecidedBy     string                   `json:"decided_by,omitempty"`
	Opportunity   *opportunity.Opportunity `json:"opportunity,omitempty"`
}

func (h *EvaluationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.OpportunityID == "" && req.Opportunity == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "opportunity_id or opportunity required"})
		return
	}

	rec, created, err := h.engine.Evaluate(r.Context(), engine.EvaluateRequest{
		OpportunityID: req.OpportunityID,
		TriggerID:     req.TriggerID,
		DecidedBy:     req.DecidedBy,
		Opportunity:   req.Opportunity,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, rec)
}

type BatchRequest struct {
	TriggerID string            `json:"trigger_id,omitempty"`
	DecidedBy string            `json:"decided_by,omitempty"`
	Items     []EvaluateRequest `json:"items"`
}

func (h *EvaluationsHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items required"})
		return
	}

	triggerID := req.TriggerID
	if triggerID == "" {
		triggerID = "batch-" + uuid.NewString()
	}

	requests := make([]engine.EvaluateRequest, 0, len(req.Items))
	for _, item := range req.Items {
		decidedBy := item.DecidedBy
		if decidedBy == "" {
			decidedBy = req.DecidedBy
		}
		requests = append(requests, engine.EvaluateRequest{
			OpportunityID: item.OpportunityID,
			TriggerID:     item.TriggerID,
			DecidedBy:     decidedBy,
			Opportunity:   item.Opportunity,
		})
	}

	result := h.engine.EvaluateBatch(r.Context(), triggerID, requests)
	writeJSON(w, http.StatusOK, result)
}
