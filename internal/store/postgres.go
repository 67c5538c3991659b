package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const decisionColumns = `id, opportunity_id, trigger_id, solicitation_number, title, agency, naics_code, estimated_value,
	status, factors, overall_score, recommendation, rating, win_probability, estimated_bid_cost, confidence,
	rationale, decided_by, reviewed_by, reviewed_at, created_at,
	outcome_bid_submitted, outcome_won, outcome_actual_cost, outcome_recorded_by, outcome_recorded_at`

func (s *PostgresStore) CreateDecision(ctx context.Context, rec *BidDecisionRecord) (*BidDecisionRecord, bool, error) {
	if rec.OpportunityID == "" {
		return nil, false, fmt.Errorf("%w: opportunity id required", ErrInvalidInput)
	}
	factorsJSON, _ := json.Marshal(rec.Factors)
	rationaleJSON, _ := json.Marshal(rec.Rationale)

	// Unique (opportunity_id, trigger_id) resolves concurrent duplicate
	// triggers without external locking.
	err := s.pool.QueryRow(ctx, `
		INSERT INTO bid_decisions (opportunity_id, trigger_id, solicitation_number, title, agency, naics_code,
			estimated_value, status, factors, overall_score, recommendation, rating,
			win_probability, estimated_bid_cost, confidence, rationale, decided_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (opportunity_id, trigger_id) DO NOTHING
		RETURNING id, created_at`,
		rec.OpportunityID, rec.TriggerID, rec.SolicitationNumber, rec.Title, rec.Agency, rec.NAICSCode,
		rec.EstimatedValue, rec.Status, factorsJSON, rec.OverallScore, rec.Recommendation, rec.Rating,
		rec.WinProbability, rec.EstimatedBidCost, rec.Confidence, rationaleJSON, rec.DecidedBy,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err == nil {
		return rec, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, err
	}

	// Lost the insert race or re-ran the same trigger: return the winner.
	existing, err := s.GetDecisionByTrigger(ctx, rec.OpportunityID, rec.TriggerID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *PostgresStore) GetDecision(ctx context.Context, id uuid.UUID) (*BidDecisionRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+decisionColumns+` FROM bid_decisions WHERE id = $1`, id)
	rec, err := scanDecision(row)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: decision %s", ErrNotFound, id)
	}
	return rec, nil
}

func (s *PostgresStore) GetDecisionByTrigger(ctx context.Context, opportunityID, triggerID string) (*BidDecisionRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+decisionColumns+`
		FROM bid_decisions WHERE opportunity_id = $1 AND trigger_id = $2`, opportunityID, triggerID)
	rec, err := scanDecision(row)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: no decision for opportunity %s trigger %s", ErrNotFound, opportunityID, triggerID)
	}
	return rec, nil
}

func (s *PostgresStore) ListDecisions(ctx context.Context, filter DecisionFilter) ([]*BidDecisionRecord, error) {
	query := `SELECT ` + decisionColumns + ` FROM bid_decisions WHERE 1=1`
	args := []interface{}{}
	n := 0

	appendCond := func(cond string, val interface{}) {
		n++
		query += fmt.Sprintf(" AND "+cond, n)
		args = append(args, val)
	}
	if !filter.From.IsZero() {
		appendCond("created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		appendCond("created_at < $%d", filter.To)
	}
	if filter.Agency != "" {
		appendCond("agency = $%d", filter.Agency)
	}
	if filter.NAICSCode != "" {
		appendCond("naics_code = $%d", filter.NAICSCode)
	}
	if filter.Recommendation != nil {
		appendCond("recommendation = $%d", string(*filter.Recommendation))
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*BidDecisionRecord
	for rows.Next() {
		rec, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) MarkReviewed(ctx context.Context, id uuid.UUID, reviewedBy string) (*BidDecisionRecord, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE bid_decisions
		SET reviewed_by = $2, reviewed_at = now(),
			status = CASE WHEN status = 'decided' THEN 'reviewed' ELSE status END
		WHERE id = $1`, id, reviewedBy)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetDecision(ctx, id)
}

func (s *PostgresStore) AttachOutcome(ctx context.Context, id uuid.UUID, outcome *Outcome) (*BidDecisionRecord, error) {
	// Conditional write: only a record with no recorded outcome is updated.
	tag, err := s.pool.Exec(ctx, `
		UPDATE bid_decisions
		SET outcome_bid_submitted = $2, outcome_won = $3, outcome_actual_cost = $4,
			outcome_recorded_by = $5, outcome_recorded_at = now(), status = 'outcome_recorded'
		WHERE id = $1 AND outcome_recorded_at IS NULL`,
		id, outcome.BidSubmitted, outcome.WonContract, outcome.ActualCost, outcome.RecordedBy)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing record from an already-recorded outcome.
		if _, err := s.GetDecision(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: outcome already recorded for %s", ErrConflict, id)
	}
	return s.GetDecision(ctx, id)
}

func scanDecision(row pgx.Row) (*BidDecisionRecord, error) {
	rec := &BidDecisionRecord{}
	var factorsJSON, rationaleJSON []byte
	var solicitation, title, agency, naics, reviewedBy, decidedBy sql.NullString
	var outcomeBid, outcomeWon sql.NullBool
	var outcomeCost sql.NullFloat64
	var outcomeBy sql.NullString
	var outcomeAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.OpportunityID, &rec.TriggerID, &solicitation, &title, &agency, &naics, &rec.EstimatedValue,
		&rec.Status, &factorsJSON, &rec.OverallScore, &rec.Recommendation, &rec.Rating,
		&rec.WinProbability, &rec.EstimatedBidCost, &rec.Confidence,
		&rationaleJSON, &decidedBy, &reviewedBy, &rec.ReviewedAt, &rec.CreatedAt,
		&outcomeBid, &outcomeWon, &outcomeCost, &outcomeBy, &outcomeAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.SolicitationNumber = solicitation.String
	rec.Title = title.String
	rec.Agency = agency.String
	rec.NAICSCode = naics.String
	rec.DecidedBy = decidedBy.String
	rec.ReviewedBy = reviewedBy.String
	if factorsJSON != nil {
		_ = json.Unmarshal(factorsJSON, &rec.Factors)
	}
	if rationaleJSON != nil {
		_ = json.Unmarshal(rationaleJSON, &rec.Rationale)
	}
	if outcomeAt.Valid {
		o := &Outcome{
			BidSubmitted: outcomeBid.Bool,
			RecordedBy:   outcomeBy.String,
			RecordedAt:   outcomeAt.Time.UTC(),
		}
		if outcomeWon.Valid {
			won := outcomeWon.Bool
			o.WonContract = &won
		}
		if outcomeCost.Valid {
			cost := outcomeCost.Float64
			o.ActualCost = &cost
		}
		rec.Outcome = o
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

// windowClause builds the shared WHERE fragment for analytics queries.
func windowClause(filter DecisionFilter, startIdx int) (string, []interface{}) {
	clause := ""
	args := []interface{}{}
	n := startIdx - 1
	add := func(cond string, val interface{}) {
		n++
		clause += fmt.Sprintf(" AND "+cond, n)
		args = append(args, val)
	}
	if !filter.From.IsZero() {
		add("created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("created_at < $%d", filter.To)
	}
	if filter.Agency != "" {
		add("agency = $%d", filter.Agency)
	}
	if filter.NAICSCode != "" {
		add("naics_code = $%d", filter.NAICSCode)
	}
	return clause, args
}
