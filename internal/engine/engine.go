package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Meridian-Contracting/Triage/internal/config"
	"github.com/Meridian-Contracting/Triage/internal/enrich"
	"github.com/Meridian-Contracting/Triage/internal/events"
	"github.com/Meridian-Contracting/Triage/internal/metrics"
	"github.com/Meridian-Contracting/Triage/internal/opportunity"
	"github.com/Meridian-Contracting/Triage/internal/spending"
	"github.com/Meridian-Contracting/Triage/internal/store"
)

// Engine evaluates opportunities into bid decision records. Collaborator
// failures (spending history, enrichment, events) degrade the evaluation,
// never fail it; only invalid input and storage errors surface to callers.
type Engine struct {
	store    store.Store
	opps     opportunity.Client
	spend    spending.Client
	enricher *enrich.Chain
	events   events.Client
	weights  WeightSet
	cfg      config.EngineConfig
	logger   *slog.Logger
}

func New(st store.Store, opps opportunity.Client, spend spending.Client, enricher *enrich.Chain, ev events.Client, cfg config.EngineConfig, logger *slog.Logger) (*Engine, error) {
	w := WeightsFromConfig(cfg.Weights)
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	return &Engine{
		store:    st,
		opps:     opps,
		spend:    spend,
		enricher: enricher,
		events:   ev,
		weights:  w,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// WeightsFromConfig converts the yaml-facing weight block into the engine's
// weight set.
func WeightsFromConfig(w config.Weights) WeightSet {
	return WeightSet{
		StrategicAlignment:   w.StrategicAlignment,
		CapabilityMatch:      w.CapabilityMatch,
		MarketPosition:       w.MarketPosition,
		EstimatedValue:       w.EstimatedValue,
		ProfitPotential:      w.ProfitPotential,
		ResourceRequirements: w.ResourceRequirements,
		TechnicalRisk:        w.TechnicalRisk,
		ScheduleRisk:         w.ScheduleRisk,
		CompetitiveRisk:      w.CompetitiveRisk,
		PastPerformance:      w.PastPerformance,
		EligibilityFit:       w.EligibilityFit,
		SubmissionComplexity: w.SubmissionComplexity,
	}
}

// EvaluateRequest describes one evaluation. Opportunity may carry the full
// payload inline; when nil the engine fetches it by OpportunityID.
type EvaluateRequest struct {
	OpportunityID string
	TriggerID     string
	DecidedBy     string
	Opportunity   *opportunity.Opportunity
}

// Evaluate scores one opportunity and persists the decision record. The
// returned bool reports whether a new record was created; a repeated
// (opportunity, trigger) pair returns the existing record unchanged.
func (e *Engine) Evaluate(ctx context.Context, req EvaluateRequest) (*store.BidDecisionRecord, bool, error) {
	start := time.Now()

	opp := req.Opportunity
	if opp == nil {
		if req.OpportunityID == "" {
			return nil, false, fmt.Errorf("%w: opportunity id is required", store.ErrInvalidInput)
		}
		fetched, err := e.opps.GetOpportunity(ctx, req.OpportunityID)
		if err != nil {
			return nil, false, fmt.Errorf("fetch opportunity %s: %w", req.OpportunityID, err)
		}
		opp = fetched
	}
	if opp.ID == "" {
		return nil, false, fmt.Errorf("%w: opportunity id is required", store.ErrInvalidInput)
	}

	triggerID := req.TriggerID
	if triggerID == "" {
		triggerID = "manual-" + uuid.NewString()
	}

	// Short-circuit before collaborator calls when this trigger was already
	// evaluated.
	if existing, err := e.store.GetDecisionByTrigger(ctx, opp.ID, triggerID); err == nil {
		return existing, false, nil
	}

	history := e.lookupHistory(ctx, opp)
	var analysis *enrich.Analysis
	if e.enricher != nil {
		analysis = e.enricher.Enrich(ctx, opp)
	}

	ec := &EvalContext{
		Opportunity: opp,
		History:     history,
		Analysis:    analysis,
		Profile: Profile{
			Capabilities:      e.cfg.Capabilities,
			TargetNAICS:       e.cfg.TargetNAICS,
			PreferredAgencies: e.cfg.PreferredAgencies,
			SetAsidePrograms:  e.cfg.SetAsidePrograms,
		},
		Now: start,
	}
	factors := BuildFactors(ec)

	var overall float64
	for i := range factors {
		factors[i].Weight = e.weights.forFactor(factors[i].Name)
		factors[i].Weighted = factors[i].Score * factors[i].Weight
		overall += factors[i].Weighted
	}
	overall = math.Round(overall*10) / 10

	recommendation, rating := Classify(overall)

	var histWinRate *float64
	if history != nil && history.Awards > 0 {
		histWinRate = &history.WinRate
	}
	var analysisConfidence *float64
	if analysis != nil {
		analysisConfidence = &analysis.Confidence
	}

	rec := &store.BidDecisionRecord{
		ID:                 uuid.New(),
		TriggerID:          triggerID,
		OpportunityID:      opp.ID,
		SolicitationNumber: opp.SolicitationNumber,
		Title:              opp.Title,
		Agency:             opp.Agency,
		NAICSCode:          opp.NAICSCode,
		EstimatedValue:     opp.EstimatedValue,
		Status:             store.StatusDecided,
		Factors:            factors,
		OverallScore:       overall,
		Recommendation:     recommendation,
		Rating:             rating,
		WinProbability:     EstimateWinProbability(factors, histWinRate, e.cfg.GlobalPriorWinRate),
		EstimatedBidCost:   EstimateBidCost(factors, opp.EstimatedValue, e.cfg.BaseBidCost, e.cfg.MinimumBidCost),
		Confidence:         EstimateConfidence(factors, analysisConfidence),
		Rationale:          BuildRationale(factors, analysis),
		DecidedBy:          req.DecidedBy,
	}

	saved, created, err := e.store.CreateDecision(ctx, rec)
	if err != nil {
		return nil, false, fmt.Errorf("persist decision: %w", err)
	}

	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	if !created {
		e.logger.Info("duplicate evaluation trigger, returning existing decision",
			"opportunity_id", opp.ID, "trigger_id", triggerID, "decision_id", saved.ID)
		return saved, false, nil
	}

	metrics.EvaluationsTotal.WithLabelValues(string(saved.Recommendation)).Inc()
	e.logger.Info("decision created",
		"decision_id", saved.ID,
		"opportunity_id", saved.OpportunityID,
		"recommendation", saved.Recommendation,
		"score", saved.OverallScore,
		"win_probability", saved.WinProbability)

	e.publish(events.SubjectDecisionCreated(saved.ID.String()), events.DecisionCreatedEvent{
		DecisionID:     saved.ID.String(),
		OpportunityID:  saved.OpportunityID,
		TriggerID:      saved.TriggerID,
		Recommendation: string(saved.Recommendation),
		Rating:         saved.Rating,
		OverallScore:   saved.OverallScore,
		WinProbability: saved.WinProbability,
		Confidence:     saved.Confidence,
	})
	return saved, true, nil
}

// MarkReviewed records a human sign-off on a decision.
func (e *Engine) MarkReviewed(ctx context.Context, id uuid.UUID, reviewedBy string) (*store.BidDecisionRecord, error) {
	if reviewedBy == "" {
		return nil, fmt.Errorf("%w: reviewed_by is required", store.ErrInvalidInput)
	}
	rec, err := e.store.MarkReviewed(ctx, id, reviewedBy)
	if err != nil {
		return nil, err
	}
	e.publish(events.SubjectDecisionReviewed(id.String()), events.DecisionReviewedEvent{
		DecisionID: id.String(),
		ReviewedBy: reviewedBy,
	})
	return rec, nil
}

// RecordOutcome attaches the real-world result to a decision. A second
// attempt returns store.ErrConflict from the store layer.
func (e *Engine) RecordOutcome(ctx context.Context, id uuid.UUID, outcome store.Outcome) (*store.BidDecisionRecord, error) {
	if !outcome.BidSubmitted && outcome.WonContract != nil {
		return nil, fmt.Errorf("%w: won_contract requires bid_submitted", store.ErrInvalidInput)
	}
	if outcome.RecordedAt.IsZero() {
		outcome.RecordedAt = time.Now().UTC()
	}
	rec, err := e.store.AttachOutcome(ctx, id, &outcome)
	if err != nil {
		return nil, err
	}
	metrics.OutcomesRecorded.Inc()
	e.publish(events.SubjectOutcomeRecorded(id.String()), events.OutcomeRecordedEvent{
		DecisionID:   id.String(),
		BidSubmitted: outcome.BidSubmitted,
		WonContract:  outcome.WonContract,
		ActualCost:   outcome.ActualCost,
	})
	return rec, nil
}

func (e *Engine) lookupHistory(ctx context.Context, opp *opportunity.Opportunity) *spending.History {
	if e.spend == nil || opp.Agency == "" || opp.NAICSCode == "" {
		return nil
	}
	history, err := e.spend.AgencySectorHistory(ctx, opp.Agency, opp.NAICSCode)
	if err != nil {
		e.logger.Warn("spending history lookup failed",
			"agency", opp.Agency, "naics", opp.NAICSCode, "error", err)
		return nil
	}
	return history
}

func (e *Engine) publish(subject string, payload interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(subject, payload); err != nil {
		e.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
