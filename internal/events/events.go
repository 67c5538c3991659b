package events

import "time"

type DecisionCreatedEvent struct {
	DecisionID     string  `json:"decision_id"`
	OpportunityID  string  `json:"opportunity_id"`
	TriggerID      string  `json:"trigger_id"`
	Recommendation string  `json:"recommendation"`
	Rating         string  `json:"rating"`
	OverallScore   float64 `json:"overall_score"`
	WinProbability float64 `json:"win_probability"`
	Confidence     float64 `json:"confidence"`
}

type DecisionReviewedEvent struct {
	DecisionID string `json:"decision_id"`
	ReviewedBy string `json:"reviewed_by"`
}

type OutcomeRecordedEvent struct {
	DecisionID   string   `json:"decision_id"`
	BidSubmitted bool     `json:"bid_submitted"`
	WonContract  *bool    `json:"won_contract,omitempty"`
	ActualCost   *float64 `json:"actual_cost,omitempty"`
}

type BatchCompletedEvent struct {
	TriggerID string    `json:"trigger_id"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Duplicate int       `json:"duplicate"`
	Timestamp time.Time `json:"timestamp"`
}
