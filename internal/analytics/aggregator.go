// Package analytics aggregates persisted decision records into portfolio
// summaries and accuracy reports. All reads are filter-scoped and the
// aggregator never mutates stored records.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Meridian-Contracting/Triage/internal/store"
)

// DefaultRollupLimit caps agency and sector breakdowns in a summary.
const DefaultRollupLimit = 10

// Summary is the portfolio-level analytics snapshot for one filter window.
type Summary struct {
	Distribution map[store.Recommendation]int `json:"distribution"`
	BidRate      float64                      `json:"bid_rate"`
	Stats        *store.ScoreStats            `json:"stats"`
	Agencies     []*store.AgencyRollup        `json:"agencies"`
	Sectors      []*store.SectorRollup        `json:"sectors"`
	Monthly      []*store.TrendPoint          `json:"monthly_trends"`
	Weekly       []*store.TrendPoint          `json:"weekly_trends"`
	Competitive  *CompetitiveIntensity        `json:"competitive_intensity,omitempty"`
}

// CompetitiveIntensity summarizes the competitive-risk factor distribution
// across the window. Scores are inverse: a low mean means a crowded market.
type CompetitiveIntensity struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	// Index rescales the mean to [0,1] where 1 is the most contested.
	Index float64 `json:"index"`
}

// Aggregator serves analytics reads over the decision store.
type Aggregator struct {
	store  store.Store
	logger *slog.Logger
}

func NewAggregator(st store.Store, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: st, logger: logger}
}

// Summarize builds the full portfolio summary for the filter window.
func (a *Aggregator) Summarize(ctx context.Context, filter store.DecisionFilter) (*Summary, error) {
	distribution, err := a.store.CountByRecommendation(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count by recommendation: %w", err)
	}
	stats, err := a.store.GetScoreStats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("score stats: %w", err)
	}
	agencies, err := a.store.GetAgencyRollups(ctx, filter, DefaultRollupLimit)
	if err != nil {
		return nil, fmt.Errorf("agency rollups: %w", err)
	}
	sectors, err := a.store.GetSectorRollups(ctx, filter, DefaultRollupLimit)
	if err != nil {
		return nil, fmt.Errorf("sector rollups: %w", err)
	}
	monthly, err := a.store.GetMonthlyTrends(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("monthly trends: %w", err)
	}
	weekly, err := a.store.GetWeeklyTrends(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("weekly trends: %w", err)
	}

	s := &Summary{
		Distribution: distribution,
		BidRate:      bidRate(distribution),
		Stats:        stats,
		Agencies:     agencies,
		Sectors:      sectors,
		Monthly:      monthly,
		Weekly:       weekly,
	}

	// Competitive intensity is best-effort; a failure degrades the summary
	// rather than failing it.
	scores, err := a.store.GetCompetitiveRiskScores(ctx, filter)
	if err != nil {
		a.logger.Warn("competitive risk scores unavailable", "error", err)
		return s, nil
	}
	s.Competitive = competitiveIntensity(scores)
	return s, nil
}

func bidRate(distribution map[store.Recommendation]int) float64 {
	total := 0
	for _, n := range distribution {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(distribution[store.RecommendationBid]) / float64(total)
}

func competitiveIntensity(scores []float64) *CompetitiveIntensity {
	if len(scores) == 0 {
		return nil
	}
	mean := stat.Mean(scores, nil)
	var sd float64
	if len(scores) > 1 {
		sd = math.Sqrt(stat.Variance(scores, nil))
	}
	return &CompetitiveIntensity{
		Samples: len(scores),
		Mean:    mean,
		StdDev:  sd,
		// Competitive-risk scores are inverse: invert so higher index means
		// a more contested pipeline.
		Index: math.Min(math.Max((100-mean)/100, 0), 1),
	}
}
