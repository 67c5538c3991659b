package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Meridian-Contracting/Triage/internal/analytics"
	"github.com/Meridian-Contracting/Triage/internal/config"
	"github.com/Meridian-Contracting/Triage/internal/engine"
	"github.com/Meridian-Contracting/Triage/internal/opportunity"
	"github.com/Meridian-Contracting/Triage/internal/spending"
	"github.com/Meridian-Contracting/Triage/internal/store"
)

// Mocks

type mockStore struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*store.BidDecisionRecord
	byTrigger map[string]*store.BidDecisionRecord
}

func newMockStore() *mockStore {
	return &mockStore{
		byID:      make(map[uuid.UUID]*store.BidDecisionRecord),
		byTrigger: make(map[string]*store.BidDecisionRecord),
	}
}

func (m *mockStore) CreateDecision(_ context.Context, rec *store.BidDecisionRecord) (*store.BidDecisionRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.OpportunityID + "|" + rec.TriggerID
	if existing, ok := m.byTrigger[key]; ok {
		return existing, false, nil
	}
	rec.CreatedAt = time.Now().UTC()
	m.byID[rec.ID] = rec
	m.byTrigger[key] = rec
	return rec, true, nil
}

func (m *mockStore) GetDecision(_ context.Context, id uuid.UUID) (*store.BidDecisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: decision %s", store.ErrNotFound, id)
	}
	return rec, nil
}

func (m *mockStore) GetDecisionByTrigger(_ context.Context, oppID, triggerID string) (*store.BidDecisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byTrigger[oppID+"|"+triggerID]
	if !ok {
		return nil, fmt.Errorf("%w: no decision for trigger", store.ErrNotFound)
	}
	return rec, nil
}

func (m *mockStore) ListDecisions(_ context.Context, _ store.DecisionFilter) ([]*store.BidDecisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.BidDecisionRecord
	for _, rec := range m.byID {
		out = append(out, rec)
	}
	return out, nil
}

func (m *mockStore) MarkReviewed(_ context.Context, id uuid.UUID, reviewedBy string) (*store.BidDecisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := time.Now()
	rec.ReviewedBy = reviewedBy
	rec.ReviewedAt = &now
	rec.Status = store.StatusReviewed
	return rec, nil
}

func (m *mockStore) AttachOutcome(_ context.Context, id uuid.UUID, outcome *store.Outcome) (*store.BidDecisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if rec.Outcome != nil {
		return nil, fmt.Errorf("%w: outcome already recorded", store.ErrConflict)
	}
	rec.Outcome = outcome
	rec.Status = store.StatusOutcomeRecorded
	return rec, nil
}

func (m *mockStore) CountByRecommendation(_ context.Context, _ store.DecisionFilter) (map[store.Recommendation]int, error) {
	return map[store.Recommendation]int{}, nil
}
func (m *mockStore) GetScoreStats(_ context.Context, _ store.DecisionFilter) (*store.ScoreStats, error) {
	return &store.ScoreStats{}, nil
}
func (m *mockStore) GetAgencyRollups(_ context.Context, _ store.DecisionFilter, _ int) ([]*store.AgencyRollup, error) {
	return nil, nil
}
func (m *mockStore) GetSectorRollups(_ context.Context, _ store.DecisionFilter, _ int) ([]*store.SectorRollup, error) {
	return nil, nil
}
func (m *mockStore) GetMonthlyTrends(_ context.Context, _ store.DecisionFilter) ([]*store.TrendPoint, error) {
	return nil, nil
}
func (m *mockStore) GetWeeklyTrends(_ context.Context, _ store.DecisionFilter) ([]*store.TrendPoint, error) {
	return nil, nil
}
func (m *mockStore) GetOutcomeRows(_ context.Context, _ store.DecisionFilter) ([]*store.OutcomeRow, error) {
	return nil, nil
}
func (m *mockStore) GetCompetitiveRiskScores(_ context.Context, _ store.DecisionFilter) ([]float64, error) {
	return nil, nil
}
func (m *mockStore) Close() error { return nil }

type stubOppClient struct{}

func (stubOppClient) GetOpportunity(_ context.Context, id string) (*opportunity.Opportunity, error) {
	return nil, fmt.Errorf("opportunity %s: 404", id)
}
func (stubOppClient) SearchOpportunities(_ context.Context, _ opportunity.SearchParams) ([]*opportunity.Opportunity, error) {
	return nil, nil
}

type stubSpendClient struct{}

func (stubSpendClient) AgencySectorHistory(_ context.Context, _, _ string) (*spending.History, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, adminToken string) (http.Handler, *mockStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := newMockStore()
	cfg, _ := config.Load("")
	eng, err := engine.New(st, stubOppClient{}, stubSpendClient{}, nil, nil, cfg.Engine, logger)
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	agg := analytics.NewAggregator(st, logger)
	return NewRouter(st, eng, agg, adminToken, logger), st
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func sampleEvaluation(triggerID string) EvaluateRequest {
	value := 5_000_000.0
	return EvaluateRequest{
		TriggerID: triggerID,
		DecidedBy: "analyst",
		Opportunity: &opportunity.Opportunity{
			ID:             "OPP-2001",
			Title:          "Network Operations Support",
			Agency:         "Department of Defense",
			NAICSCode:      "541512",
			SetAside:       "Total Small Business Set-Aside",
			EstimatedValue: &value,
		},
	}
}

// Tests

func TestCreateEvaluation(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rr := doJSON(t, router, http.MethodPost, "/api/v1/evaluations", sampleEvaluation("t-1"), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var rec store.BidDecisionRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.OpportunityID != "OPP-2001" {
		t.Errorf("expected opportunity id preserved, got %q", rec.OpportunityID)
	}
	if len(rec.Factors) != 12 {
		t.Errorf("expected 12 factors in response, got %d", len(rec.Factors))
	}

	// Same trigger again: existing record, 200.
	rr = doJSON(t, router, http.MethodPost, "/api/v1/evaluations", sampleEvaluation("t-1"), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate trigger, got %d", rr.Code)
	}
	var dup store.BidDecisionRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &dup); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dup.ID != rec.ID {
		t.Errorf("expected same decision id on replay, got %s vs %s", dup.ID, rec.ID)
	}
}

func TestCreateEvaluationRejectsEmptyRequest(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rr := doJSON(t, router, http.MethodPost, "/api/v1/evaluations", map[string]string{}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetDecisionNotFound(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rr := doJSON(t, router, http.MethodGet, "/api/v1/decisions/"+uuid.NewString(), nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/decisions/not-a-uuid", nil, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rr.Code)
	}
}

func TestOutcomeConflict(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rr := doJSON(t, router, http.MethodPost, "/api/v1/evaluations", sampleEvaluation("t-out"), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var rec store.BidDecisionRecord
	_ = json.Unmarshal(rr.Body.Bytes(), &rec)

	outcome := OutcomeRequest{BidSubmitted: true, RecordedBy: "capture-lead"}
	rr = doJSON(t, router, http.MethodPost, "/api/v1/decisions/"+rec.ID.String()+"/outcome", outcome, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 recording outcome, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodPost, "/api/v1/decisions/"+rec.ID.String()+"/outcome", outcome, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second outcome, got %d", rr.Code)
	}
}

func TestReviewRequiresAdminToken(t *testing.T) {
	router, _ := newTestRouter(t, "sekrit")

	rr := doJSON(t, router, http.MethodPost, "/api/v1/evaluations", sampleEvaluation("t-rev"), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var rec store.BidDecisionRecord
	_ = json.Unmarshal(rr.Body.Bytes(), &rec)

	body := map[string]string{"reviewed_by": "manager"}
	path := "/api/v1/decisions/" + rec.ID.String() + "/review"

	rr = doJSON(t, router, http.MethodPost, path, body, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodPost, path, body, map[string]string{"Authorization": "Bearer sekrit"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rr.Code, rr.Body.String())
	}
	var reviewed store.BidDecisionRecord
	_ = json.Unmarshal(rr.Body.Bytes(), &reviewed)
	if reviewed.ReviewedBy != "manager" {
		t.Errorf("expected reviewed_by recorded, got %q", reviewed.ReviewedBy)
	}
	if reviewed.Status != store.StatusReviewed {
		t.Errorf("expected status reviewed, got %s", reviewed.Status)
	}
}

func TestBatchEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "")

	value := 2_000_000.0
	batch := BatchRequest{
		TriggerID: "batch-api-1",
		Items: []EvaluateRequest{
			{Opportunity: &opportunity.Opportunity{ID: "OPP-A", Agency: "NASA", NAICSCode: "541511", EstimatedValue: &value}},
			{Opportunity: &opportunity.Opportunity{ID: "OPP-B", Agency: "NASA", NAICSCode: "541511"}},
			{}, // no identity
		},
	}

	rr := doJSON(t, router, http.MethodPost, "/api/v1/evaluations/batch", batch, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result engine.BatchResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode batch result: %v", err)
	}
	if result.Total != 3 || result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("unexpected batch tallies: %+v", result)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rr := doJSON(t, router, http.MethodGet, "/api/v1/analytics/summary?from=2026-01-01&agency=NASA", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from summary, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodGet, "/api/v1/analytics/accuracy", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from accuracy, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := NewMetricsRouter()
	rr := doJSON(t, router, http.MethodGet, "/health", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rr.Code)
	}
}
