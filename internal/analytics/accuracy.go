package analytics

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Meridian-Contracting/Triage/internal/store"
)

// AccuracyReport measures how well past decisions predicted reality, built
// only from records with a recorded outcome.
type AccuracyReport struct {
	Outcomes int `json:"outcomes"`

	// AgreementRate is the share of decisions where the team followed the
	// recommendation: bid on BID, passed on NO_BID. WATCH decisions count
	// either way and are excluded.
	AgreementRate   float64 `json:"agreement_rate"`
	AgreementSample int     `json:"agreement_sample"`

	// Win-probability calibration over submitted bids with a known result.
	WinRate            float64             `json:"win_rate"`
	PredictedWinRate   float64             `json:"predicted_win_rate"`
	CalibrationError   float64             `json:"calibration_error"`
	CalibrationDeciles []CalibrationBucket `json:"calibration_deciles"`

	// Score differentiation: a healthy model scores eventual winners higher
	// than eventual losers.
	WinnerAvgScore  float64 `json:"winner_avg_score"`
	LoserAvgScore   float64 `json:"loser_avg_score"`
	ScoreSeparation float64 `json:"score_separation"`
	DecidedOutcomes int     `json:"decided_outcomes"`

	// Cost accuracy over bids with a recorded actual cost.
	CostSample       int     `json:"cost_sample"`
	MeanCostErrorPct float64 `json:"mean_cost_error_pct"`
}

// CalibrationBucket is one win-probability decile with its realized win rate.
type CalibrationBucket struct {
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
	Bids      int     `json:"bids"`
	Predicted float64 `json:"predicted"`
	Actual    float64 `json:"actual"`
}

// Accuracy builds the accuracy report for the filter window.
func (a *Aggregator) Accuracy(ctx context.Context, filter store.DecisionFilter) (*AccuracyReport, error) {
	rows, err := a.store.GetOutcomeRows(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("outcome rows: %w", err)
	}

	report := &AccuracyReport{Outcomes: len(rows)}
	if len(rows) == 0 {
		return report, nil
	}

	agreed := 0
	for _, row := range rows {
		switch row.Recommendation {
		case store.RecommendationBid:
			report.AgreementSample++
			if row.BidSubmitted {
				agreed++
			}
		case store.RecommendationNoBid:
			report.AgreementSample++
			if !row.BidSubmitted {
				agreed++
			}
		}
	}
	if report.AgreementSample > 0 {
		report.AgreementRate = float64(agreed) / float64(report.AgreementSample)
	}

	a.calibrate(report, rows)
	a.separateScores(report, rows)
	a.costAccuracy(report, rows)
	return report, nil
}

func (a *Aggregator) calibrate(report *AccuracyReport, rows []*store.OutcomeRow) {
	var predicted, actual []float64
	buckets := make([]CalibrationBucket, 10)
	for i := range buckets {
		buckets[i].Low = float64(i) / 10
		buckets[i].High = float64(i+1) / 10
	}
	bucketPredicted := make([]float64, 10)
	bucketWins := make([]int, 10)

	for _, row := range rows {
		if !row.BidSubmitted || row.WonContract == nil {
			continue
		}
		won := 0.0
		if *row.WonContract {
			won = 1
		}
		predicted = append(predicted, row.WinProbability)
		actual = append(actual, won)

		idx := int(row.WinProbability * 10)
		if idx > 9 {
			idx = 9
		}
		buckets[idx].Bids++
		bucketPredicted[idx] += row.WinProbability
		bucketWins[idx] += int(won)
	}
	if len(predicted) == 0 {
		return
	}

	report.PredictedWinRate = stat.Mean(predicted, nil)
	report.WinRate = stat.Mean(actual, nil)
	report.CalibrationError = math.Abs(report.PredictedWinRate - report.WinRate)
	for i := range buckets {
		if buckets[i].Bids == 0 {
			continue
		}
		buckets[i].Predicted = bucketPredicted[i] / float64(buckets[i].Bids)
		buckets[i].Actual = float64(bucketWins[i]) / float64(buckets[i].Bids)
		report.CalibrationDeciles = append(report.CalibrationDeciles, buckets[i])
	}
}

func (a *Aggregator) separateScores(report *AccuracyReport, rows []*store.OutcomeRow) {
	var winners, losers []float64
	for _, row := range rows {
		if !row.BidSubmitted || row.WonContract == nil {
			continue
		}
		if *row.WonContract {
			winners = append(winners, row.OverallScore)
		} else {
			losers = append(losers, row.OverallScore)
		}
	}
	report.DecidedOutcomes = len(winners) + len(losers)
	if len(winners) > 0 {
		report.WinnerAvgScore = stat.Mean(winners, nil)
	}
	if len(losers) > 0 {
		report.LoserAvgScore = stat.Mean(losers, nil)
	}
	if len(winners) > 0 && len(losers) > 0 {
		report.ScoreSeparation = report.WinnerAvgScore - report.LoserAvgScore
	}
}

func (a *Aggregator) costAccuracy(report *AccuracyReport, rows []*store.OutcomeRow) {
	var errors []float64
	for _, row := range rows {
		if row.ActualCost == nil || *row.ActualCost <= 0 || row.EstimatedCost <= 0 {
			continue
		}
		actual := *row.ActualCost
		errors = append(errors, math.Abs(row.EstimatedCost-actual)/actual*100)
	}
	report.CostSample = len(errors)
	if len(errors) > 0 {
		report.MeanCostErrorPct = stat.Mean(errors, nil)
	}
}
