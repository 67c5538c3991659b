package store

import (
	"context"
	"strconv"
)

func (s *PostgresStore) CountByRecommendation(ctx context.Context, filter DecisionFilter) (map[Recommendation]int, error) {
	where, args := windowClause(filter, 1)
	rows, err := s.pool.Query(ctx, `
		SELECT recommendation, COUNT(*)
		FROM bid_decisions WHERE 1=1`+where+`
		GROUP BY recommendation`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[Recommendation]int{
		RecommendationBid:   0,
		RecommendationWatch: 0,
		RecommendationNoBid: 0,
	}
	for rows.Next() {
		var rec Recommendation
		var count int
		if err := rows.Scan(&rec, &count); err != nil {
			return nil, err
		}
		counts[rec] = count
	}
	return counts, rows.Err()
}

func (s *PostgresStore) GetScoreStats(ctx context.Context, filter DecisionFilter) (*ScoreStats, error) {
	where, args := windowClause(filter, 1)
	stats := &ScoreStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(overall_score), 0),
			COALESCE(MAX(overall_score), 0),
			COALESCE(MIN(overall_score), 0),
			COALESCE(AVG(win_probability), 0),
			COALESCE(SUM(estimated_bid_cost), 0),
			COALESCE(AVG(estimated_bid_cost), 0),
			COALESCE(SUM(CASE WHEN overall_score >= 80 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN overall_score >= 70 AND overall_score < 80 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN overall_score >= 50 AND overall_score < 70 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN overall_score < 50 THEN 1 ELSE 0 END), 0)
		FROM bid_decisions WHERE 1=1`+where, args...,
	).Scan(
		&stats.Decisions, &stats.AvgScore, &stats.MaxScore, &stats.MinScore,
		&stats.AvgWinProb, &stats.TotalBidCost, &stats.AvgBidCost,
		&stats.ExcellentCount, &stats.GoodCount, &stats.FairCount, &stats.PoorCount,
	)
	return stats, err
}

func (s *PostgresStore) GetAgencyRollups(ctx context.Context, filter DecisionFilter, limit int) ([]*AgencyRollup, error) {
	if limit <= 0 {
		limit = 10
	}
	where, args := windowClause(filter, 1)
	args = append(args, limit)
	rows, err := s.pool.Query(ctx, `
		SELECT agency, COUNT(*),
			COALESCE(SUM(CASE WHEN recommendation = 'BID' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(overall_score), 0),
			COALESCE(AVG(win_probability), 0),
			COALESCE(SUM(estimated_bid_cost), 0),
			COALESCE(SUM(CASE WHEN outcome_won THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome_bid_submitted THEN 1 ELSE 0 END), 0)
		FROM bid_decisions
		WHERE agency <> ''`+where+`
		GROUP BY agency
		ORDER BY COUNT(*) DESC
		LIMIT $`+itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rollups []*AgencyRollup
	for rows.Next() {
		r := &AgencyRollup{}
		if err := rows.Scan(&r.Agency, &r.Decisions, &r.BidCount, &r.AvgScore,
			&r.AvgWinProb, &r.TotalBidCost, &r.Wins, &r.OutcomeBids); err != nil {
			return nil, err
		}
		rollups = append(rollups, r)
	}
	return rollups, rows.Err()
}

func (s *PostgresStore) GetSectorRollups(ctx context.Context, filter DecisionFilter, limit int) ([]*SectorRollup, error) {
	if limit <= 0 {
		limit = 10
	}
	where, args := windowClause(filter, 1)
	args = append(args, limit)
	rows, err := s.pool.Query(ctx, `
		SELECT naics_code, COUNT(*),
			COALESCE(SUM(CASE WHEN recommendation = 'BID' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(overall_score), 0),
			COALESCE(AVG(win_probability), 0),
			COALESCE(SUM(CASE WHEN outcome_won THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome_bid_submitted THEN 1 ELSE 0 END), 0)
		FROM bid_decisions
		WHERE naics_code <> ''`+where+`
		GROUP BY naics_code
		ORDER BY COUNT(*) DESC
		LIMIT $`+itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rollups []*SectorRollup
	for rows.Next() {
		r := &SectorRollup{}
		if err := rows.Scan(&r.NAICSCode, &r.Decisions, &r.BidCount, &r.AvgScore,
			&r.AvgWinProb, &r.Wins, &r.OutcomeBids); err != nil {
			return nil, err
		}
		rollups = append(rollups, r)
	}
	return rollups, rows.Err()
}

func (s *PostgresStore) GetMonthlyTrends(ctx context.Context, filter DecisionFilter) ([]*TrendPoint, error) {
	return s.trends(ctx, filter, "month")
}

func (s *PostgresStore) GetWeeklyTrends(ctx context.Context, filter DecisionFilter) ([]*TrendPoint, error) {
	return s.trends(ctx, filter, "week")
}

func (s *PostgresStore) trends(ctx context.Context, filter DecisionFilter, bucket string) ([]*TrendPoint, error) {
	where, args := windowClause(filter, 2)
	args = append([]interface{}{bucket}, args...)
	rows, err := s.pool.Query(ctx, `
		SELECT date_trunc($1, created_at) AS period, COUNT(*),
			COALESCE(SUM(CASE WHEN recommendation = 'BID' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(overall_score), 0),
			COALESCE(AVG(win_probability), 0)
		FROM bid_decisions WHERE 1=1`+where+`
		GROUP BY period
		ORDER BY period ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []*TrendPoint
	for rows.Next() {
		p := &TrendPoint{}
		if err := rows.Scan(&p.Period, &p.Decisions, &p.BidDecisions, &p.AvgScore, &p.AvgWinProb); err != nil {
			return nil, err
		}
		p.Period = p.Period.UTC()
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *PostgresStore) GetOutcomeRows(ctx context.Context, filter DecisionFilter) ([]*OutcomeRow, error) {
	where, args := windowClause(filter, 1)
	rows, err := s.pool.Query(ctx, `
		SELECT recommendation, overall_score, win_probability, estimated_bid_cost,
			outcome_bid_submitted, outcome_won, outcome_actual_cost
		FROM bid_decisions
		WHERE outcome_recorded_at IS NOT NULL`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*OutcomeRow
	for rows.Next() {
		r := &OutcomeRow{}
		if err := rows.Scan(&r.Recommendation, &r.OverallScore, &r.WinProbability,
			&r.EstimatedCost, &r.BidSubmitted, &r.WonContract, &r.ActualCost); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetCompetitiveRiskScores returns the competitive_risk factor score of every
// record in the window, feeding the competitive-intensity index.
func (s *PostgresStore) GetCompetitiveRiskScores(ctx context.Context, filter DecisionFilter) ([]float64, error) {
	where, args := windowClause(filter, 1)
	rows, err := s.pool.Query(ctx, `
		SELECT (f->>'score')::float8
		FROM bid_decisions, jsonb_array_elements(factors) AS f
		WHERE f->>'name' = 'competitive_risk'`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		scores = append(scores, v)
	}
	return scores, rows.Err()
}

func itoa(n int) string { return strconv.Itoa(n) }
