package store

import (
	"time"

	"github.com/google/uuid"
)

type Recommendation string

const (
	RecommendationBid   Recommendation = "BID"
	RecommendationWatch Recommendation = "WATCH"
	RecommendationNoBid Recommendation = "NO_BID"
)

type RecordStatus string

const (
	StatusDraft           RecordStatus = "draft"
	StatusDecided         RecordStatus = "decided"
	StatusReviewed        RecordStatus = "reviewed"
	StatusOutcomeRecorded RecordStatus = "outcome_recorded"
)

// DecisionFactor is one of the twelve weighted inputs to the overall score.
// Score is on the 0-100 scale. Evidence carries the raw values the score was
// derived from; a factor scored from absent input has Available=false and
// Evidence{"status":"missing"}.
type DecisionFactor struct {
	Name      string                 `json:"name"`
	Score     float64                `json:"score"`
	Weight    float64                `json:"weight"`
	Weighted  float64                `json:"weighted"`
	Available bool                   `json:"available"`
	Evidence  map[string]interface{} `json:"evidence,omitempty"`
}

// Rationale is the structured decision explanation. Strengths, concerns and
// action items are computed locally from factor scores; Narrative is optional
// enrichment text and never authoritative.
type Rationale struct {
	Strengths   []string `json:"strengths"`
	Concerns    []string `json:"concerns"`
	ActionItems []string `json:"action_items"`
	Narrative   string   `json:"narrative,omitempty"`
}

// Outcome captures what actually happened after a decision. Attached at most
// once per record; fields are never revised after the first write.
type Outcome struct {
	BidSubmitted bool      `json:"bid_submitted"`
	WonContract  *bool     `json:"won_contract,omitempty"`
	ActualCost   *float64  `json:"actual_cost,omitempty"`
	RecordedBy   string    `json:"recorded_by,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// BidDecisionRecord is one evaluation of one opportunity. Engine-owned fields
// (factors, score, recommendation, estimates) are written exactly once at
// creation; outcome fields are owned by the reviewing collaborator.
type BidDecisionRecord struct {
	ID        uuid.UUID `json:"id"`
	TriggerID string    `json:"trigger_id"`

	// Opportunity identity and context, denormalized for analytics queries.
	OpportunityID      string   `json:"opportunity_id"`
	SolicitationNumber string   `json:"solicitation_number,omitempty"`
	Title              string   `json:"title,omitempty"`
	Agency             string   `json:"agency,omitempty"`
	NAICSCode          string   `json:"naics_code,omitempty"`
	EstimatedValue     *float64 `json:"estimated_value,omitempty"`

	Status           RecordStatus     `json:"status"`
	Factors          []DecisionFactor `json:"factors"`
	OverallScore     float64          `json:"overall_score"`
	Recommendation   Recommendation   `json:"recommendation"`
	Rating           string           `json:"rating"`
	WinProbability   float64          `json:"win_probability"`
	EstimatedBidCost float64          `json:"estimated_bid_cost"`
	Confidence       float64          `json:"confidence"`

	Rationale Rationale `json:"rationale"`

	DecidedBy  string     `json:"decided_by"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	Outcome *Outcome `json:"outcome,omitempty"`
}

// DecisionFilter scopes list and analytics queries. Zero From/To means an
// unbounded window on that side.
type DecisionFilter struct {
	From           time.Time
	To             time.Time
	Agency         string
	NAICSCode      string
	Recommendation *Recommendation
	Limit          int
	Offset         int
}

// --- Analytics read models ---

type ScoreStats struct {
	Decisions      int     `json:"decisions"`
	AvgScore       float64 `json:"avg_score"`
	MaxScore       float64 `json:"max_score"`
	MinScore       float64 `json:"min_score"`
	AvgWinProb     float64 `json:"avg_win_probability"`
	TotalBidCost   float64 `json:"total_estimated_bid_cost"`
	AvgBidCost     float64 `json:"avg_estimated_bid_cost"`
	ExcellentCount int     `json:"excellent_count"`
	GoodCount      int     `json:"good_count"`
	FairCount      int     `json:"fair_count"`
	PoorCount      int     `json:"poor_count"`
}

type AgencyRollup struct {
	Agency       string  `json:"agency"`
	Decisions    int     `json:"decisions"`
	BidCount     int     `json:"bid_count"`
	AvgScore     float64 `json:"avg_score"`
	AvgWinProb   float64 `json:"avg_win_probability"`
	TotalBidCost float64 `json:"total_estimated_bid_cost"`
	Wins         int     `json:"wins"`
	OutcomeBids  int     `json:"outcome_bids"`
}

type SectorRollup struct {
	NAICSCode   string  `json:"naics_code"`
	Decisions   int     `json:"decisions"`
	BidCount    int     `json:"bid_count"`
	AvgScore    float64 `json:"avg_score"`
	AvgWinProb  float64 `json:"avg_win_probability"`
	Wins        int     `json:"wins"`
	OutcomeBids int     `json:"outcome_bids"`
}

// TrendPoint is one bucket of a monthly or weekly trend series.
type TrendPoint struct {
	Period       time.Time `json:"period"`
	Decisions    int       `json:"decisions"`
	BidDecisions int       `json:"bid_decisions"`
	AvgScore     float64   `json:"avg_score"`
	AvgWinProb   float64   `json:"avg_win_probability"`
}

// OutcomeRow is the flat projection the accuracy tracker consumes: one row
// per record with a recorded outcome.
type OutcomeRow struct {
	Recommendation Recommendation `json:"recommendation"`
	OverallScore   float64        `json:"overall_score"`
	WinProbability float64        `json:"win_probability"`
	EstimatedCost  float64        `json:"estimated_bid_cost"`
	BidSubmitted   bool           `json:"bid_submitted"`
	WonContract    *bool          `json:"won_contract,omitempty"`
	ActualCost     *float64       `json:"actual_cost,omitempty"`
}
