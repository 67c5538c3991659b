package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput marks an evaluation request missing mandatory identity.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a lookup for a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a second outcome write against the same record.
	ErrConflict = errors.New("conflict")
)

// Store persists bid decision records and serves the analytics read models.
// Implementations enforce the append-only invariants atomically: record
// creation is idempotent on (opportunity_id, trigger_id) and outcome
// attachment succeeds at most once per record.
type Store interface {
	// CreateDecision inserts rec, or returns the existing record for the same
	// (opportunity, trigger) pair. The returned bool is true when a new record
	// was created.
	CreateDecision(ctx context.Context, rec *BidDecisionRecord) (*BidDecisionRecord, bool, error)
	GetDecision(ctx context.Context, id uuid.UUID) (*BidDecisionRecord, error)
	GetDecisionByTrigger(ctx context.Context, opportunityID, triggerID string) (*BidDecisionRecord, error)
	ListDecisions(ctx context.Context, filter DecisionFilter) ([]*BidDecisionRecord, error)

	// MarkReviewed attaches the reviewer identity to a decided record.
	MarkReviewed(ctx context.Context, id uuid.UUID, reviewedBy string) (*BidDecisionRecord, error)

	// AttachOutcome performs a single conditional write; a record that already
	// has an outcome returns ErrConflict with the original outcome preserved.
	AttachOutcome(ctx context.Context, id uuid.UUID, outcome *Outcome) (*BidDecisionRecord, error)

	// Analytics reads. All operate over the filter window and never mutate.
	CountByRecommendation(ctx context.Context, filter DecisionFilter) (map[Recommendation]int, error)
	GetScoreStats(ctx context.Context, filter DecisionFilter) (*ScoreStats, error)
	GetAgencyRollups(ctx context.Context, filter DecisionFilter, limit int) ([]*AgencyRollup, error)
	GetSectorRollups(ctx context.Context, filter DecisionFilter, limit int) ([]*SectorRollup, error)
	GetMonthlyTrends(ctx context.Context, filter DecisionFilter) ([]*TrendPoint, error)
	GetWeeklyTrends(ctx context.Context, filter DecisionFilter) ([]*TrendPoint, error)
	GetOutcomeRows(ctx context.Context, filter DecisionFilter) ([]*OutcomeRow, error)
	GetCompetitiveRiskScores(ctx context.Context, filter DecisionFilter) ([]float64, error)

	Close() error
}
