package engine

import (
	"fmt"
	"math"
)

// WeightSet defines the relative importance of each decision factor.
// All twelve weights must sum to 1.0 (±1e-6). The three supplemental
// factors (past performance, eligibility fit, submission complexity)
// default to zero weight: they feed confidence, rationale, and the
// estimators but not the overall score.
type WeightSet struct {
	StrategicAlignment   float64
	CapabilityMatch      float64
	MarketPosition       float64
	EstimatedValue       float64
	ProfitPotential      float64
	ResourceRequirements float64
	TechnicalRisk        float64
	ScheduleRisk         float64
	CompetitiveRisk      float64
	PastPerformance      float64
	EligibilityFit       float64
	SubmissionComplexity float64
}

// DefaultWeights returns the standard weight distribution.
func DefaultWeights() WeightSet {
	return WeightSet{
		StrategicAlignment:   0.20,
		CapabilityMatch:      0.18,
		MarketPosition:       0.12,
		EstimatedValue:       0.15,
		ProfitPotential:      0.10,
		ResourceRequirements: 0.05,
		TechnicalRisk:        0.08,
		ScheduleRisk:         0.05,
		CompetitiveRisk:      0.07,
		PastPerformance:      0.00,
		EligibilityFit:       0.00,
		SubmissionComplexity: 0.00,
	}
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	var total float64
	for _, v := range w.asList() {
		total += v
	}
	return total
}

// Validate checks that weights sum to 1.0 and none are negative.
// A failing weight set is a fatal startup error, never a per-request one.
func (w WeightSet) Validate() error {
	if math.Abs(w.Sum()-1.0) > 1e-6 {
		return fmt.Errorf("weights sum to %.6f, must sum to 1.0", w.Sum())
	}
	for i, v := range w.asList() {
		if v < 0 {
			return fmt.Errorf("negative weight for %s: %f", FactorNames[i], v)
		}
	}
	return nil
}

func (w WeightSet) asList() []float64 {
	return []float64{
		w.StrategicAlignment, w.CapabilityMatch, w.MarketPosition,
		w.EstimatedValue, w.ProfitPotential, w.ResourceRequirements,
		w.TechnicalRisk, w.ScheduleRisk, w.CompetitiveRisk,
		w.PastPerformance, w.EligibilityFit, w.SubmissionComplexity,
	}
}

// forFactor returns the weight for a factor name; ordering matches FactorNames.
func (w WeightSet) forFactor(name string) float64 {
	for i, n := range FactorNames {
		if n == name {
			return w.asList()[i]
		}
	}
	return 0
}
