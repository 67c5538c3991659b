//go:build integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE bid_decisions CASCADE")
		s.Close()
	})

	return s
}

func testRecord(oppID, triggerID string) *BidDecisionRecord {
	return &BidDecisionRecord{
		ID:               uuid.New(),
		OpportunityID:    oppID,
		TriggerID:        triggerID,
		Title:            "Integration Test Opportunity",
		Agency:           "Department of Defense",
		NAICSCode:        "541511",
		Status:           StatusDecided,
		OverallScore:     72.5,
		Recommendation:   RecommendationBid,
		Rating:           "Good",
		WinProbability:   0.41,
		EstimatedBidCost: 31000,
		Confidence:       0.83,
		Factors: []DecisionFactor{
			{Name: "capability_match", Score: 80, Weight: 0.18, Weighted: 14.4, Available: true},
		},
		Rationale: Rationale{
			Strengths:   []string{"Capability match scored 80"},
			Concerns:    []string{},
			ActionItems: []string{},
		},
		DecidedBy: "integration-test",
	}
}

func TestCreateDecisionIdempotent(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	first, created, err := s.CreateDecision(ctx, testRecord("OPP-INT-1", "trig-1"))
	if err != nil {
		t.Fatalf("CreateDecision failed: %v", err)
	}
	if !created {
		t.Fatal("expected first create to succeed")
	}
	if first.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}

	second, created, err := s.CreateDecision(ctx, testRecord("OPP-INT-1", "trig-1"))
	if err != nil {
		t.Fatalf("duplicate CreateDecision failed: %v", err)
	}
	if created {
		t.Error("expected duplicate (opportunity, trigger) to return existing record")
	}
	if second.ID != first.ID {
		t.Errorf("expected same record id, got %s vs %s", second.ID, first.ID)
	}

	// Same opportunity under a new trigger creates a new record.
	_, created, err = s.CreateDecision(ctx, testRecord("OPP-INT-1", "trig-2"))
	if err != nil {
		t.Fatalf("CreateDecision under new trigger failed: %v", err)
	}
	if !created {
		t.Error("expected new trigger to create a record")
	}
}

func TestGetDecisionRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	rec, _, err := s.CreateDecision(ctx, testRecord("OPP-INT-2", "trig-1"))
	if err != nil {
		t.Fatalf("CreateDecision failed: %v", err)
	}

	got, err := s.GetDecision(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetDecision failed: %v", err)
	}
	if got.OpportunityID != "OPP-INT-2" {
		t.Errorf("expected opportunity id preserved, got %q", got.OpportunityID)
	}
	if len(got.Factors) != 1 || got.Factors[0].Name != "capability_match" {
		t.Errorf("expected factors round-trip, got %+v", got.Factors)
	}
	if got.Rationale.Strengths[0] != "Capability match scored 80" {
		t.Errorf("expected rationale round-trip, got %+v", got.Rationale)
	}

	if _, err := s.GetDecision(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestAttachOutcomeOnce(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	rec, _, err := s.CreateDecision(ctx, testRecord("OPP-INT-3", "trig-1"))
	if err != nil {
		t.Fatalf("CreateDecision failed: %v", err)
	}

	won := true
	updated, err := s.AttachOutcome(ctx, rec.ID, &Outcome{
		BidSubmitted: true,
		WonContract:  &won,
		RecordedBy:   "capture-lead",
	})
	if err != nil {
		t.Fatalf("AttachOutcome failed: %v", err)
	}
	if updated.Outcome == nil || !updated.Outcome.BidSubmitted {
		t.Fatal("expected outcome recorded")
	}
	if updated.Status != StatusOutcomeRecorded {
		t.Errorf("expected status outcome_recorded, got %s", updated.Status)
	}

	_, err = s.AttachOutcome(ctx, rec.ID, &Outcome{BidSubmitted: false})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second outcome, got %v", err)
	}

	// Original outcome untouched.
	got, err := s.GetDecision(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetDecision failed: %v", err)
	}
	if !got.Outcome.BidSubmitted {
		t.Error("expected first outcome preserved after conflicting write")
	}

	_, err = s.AttachOutcome(ctx, uuid.New(), &Outcome{BidSubmitted: true})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown record, got %v", err)
	}
}

func TestMarkReviewed(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	rec, _, err := s.CreateDecision(ctx, testRecord("OPP-INT-4", "trig-1"))
	if err != nil {
		t.Fatalf("CreateDecision failed: %v", err)
	}

	reviewed, err := s.MarkReviewed(ctx, rec.ID, "manager")
	if err != nil {
		t.Fatalf("MarkReviewed failed: %v", err)
	}
	if reviewed.ReviewedBy != "manager" || reviewed.ReviewedAt == nil {
		t.Errorf("expected reviewer recorded, got %+v", reviewed)
	}
	if reviewed.Status != StatusReviewed {
		t.Errorf("expected status reviewed, got %s", reviewed.Status)
	}
}

func TestListDecisionsFilters(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	records := []*BidDecisionRecord{
		testRecord("OPP-L1", "t"),
		testRecord("OPP-L2", "t"),
		testRecord("OPP-L3", "t"),
	}
	records[1].Agency = "NASA"
	records[2].Recommendation = RecommendationNoBid
	for _, rec := range records {
		if _, _, err := s.CreateDecision(ctx, rec); err != nil {
			t.Fatalf("CreateDecision failed: %v", err)
		}
	}

	byAgency, err := s.ListDecisions(ctx, DecisionFilter{Agency: "NASA"})
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(byAgency) != 1 {
		t.Errorf("expected 1 NASA decision, got %d", len(byAgency))
	}

	noBid := RecommendationNoBid
	byRec, err := s.ListDecisions(ctx, DecisionFilter{Recommendation: &noBid})
	if err != nil {
		t.Fatalf("ListDecisions failed: %v", err)
	}
	if len(byRec) != 1 {
		t.Errorf("expected 1 NO_BID decision, got %d", len(byRec))
	}

	counts, err := s.CountByRecommendation(ctx, DecisionFilter{})
	if err != nil {
		t.Fatalf("CountByRecommendation failed: %v", err)
	}
	if counts[RecommendationBid] != 2 || counts[RecommendationNoBid] != 1 {
		t.Errorf("unexpected distribution: %v", counts)
	}
}
