package engine

import (
	"testing"

	"github.com/Meridian-Contracting/Triage/internal/store"
)

func factorsWith(scores map[string]float64) []store.DecisionFactor {
	factors := make([]store.DecisionFactor, 0, len(FactorNames))
	for _, name := range FactorNames {
		score, ok := scores[name]
		if !ok {
			score = 50
		}
		factors = append(factors, store.DecisionFactor{Name: name, Score: score, Available: ok})
	}
	return factors
}

func TestWinProbabilityBounds(t *testing.T) {
	// Everything terrible: clipped at the floor, never zero.
	low := EstimateWinProbability(factorsWith(map[string]float64{
		"capability_match": 0, "market_position": 0, "competitive_risk": 0,
	}), floatPtr(0), 0.30)
	if low != winProbFloor {
		t.Errorf("expected floor %f, got %f", winProbFloor, low)
	}

	// Everything perfect: clipped at the ceiling, never certainty.
	high := EstimateWinProbability(factorsWith(map[string]float64{
		"capability_match": 100, "market_position": 100, "competitive_risk": 100,
	}), floatPtr(1.0), 0.30)
	if high > winProbCeiling {
		t.Errorf("expected at most %f, got %f", winProbCeiling, high)
	}
	if high <= low {
		t.Errorf("expected monotonic probability, got low=%f high=%f", low, high)
	}
}

func TestWinProbabilityUsesGlobalPriorWithoutHistory(t *testing.T) {
	factors := factorsWith(map[string]float64{
		"capability_match": 60, "market_position": 60, "competitive_risk": 60,
	})
	withPrior := EstimateWinProbability(factors, nil, 0.30)
	withHistory := EstimateWinProbability(factors, floatPtr(0.30), 0.10)
	if withPrior != withHistory {
		t.Errorf("expected prior 0.30 to substitute for history: %f vs %f", withPrior, withHistory)
	}
}

func TestBidCostFloorAndRounding(t *testing.T) {
	easy := factorsWith(map[string]float64{
		"submission_complexity": 100, "resource_requirements": 100,
	})
	cost := EstimateBidCost(easy, nil, 25000, 5000)
	if cost < 5000 {
		t.Errorf("expected cost at least the minimum, got %f", cost)
	}
	if int64(cost)%1000 != 0 {
		t.Errorf("expected cost rounded to nearest thousand, got %f", cost)
	}

	hard := factorsWith(map[string]float64{
		"submission_complexity": 10, "resource_requirements": 10,
	})
	hardCost := EstimateBidCost(hard, floatPtr(50_000_000), 25000, 5000)
	if hardCost <= cost {
		t.Errorf("expected complexity and value to raise cost: easy=%f hard=%f", cost, hardCost)
	}
}

func TestBidCostAlwaysPositive(t *testing.T) {
	cost := EstimateBidCost(factorsWith(nil), nil, 25000, 5000)
	if cost <= 0 {
		t.Errorf("expected positive cost, got %f", cost)
	}
}

func TestBidCostFloorHoldsAfterRounding(t *testing.T) {
	easy := factorsWith(map[string]float64{
		"submission_complexity": 100, "resource_requirements": 100,
	})

	// A tiny base rounds down past a mid-thousand minimum; the floor must
	// still hold.
	cost := EstimateBidCost(easy, nil, 1000, 5400)
	if cost < 5400 {
		t.Errorf("expected cost at least the minimum 5400, got %f", cost)
	}
	if int64(cost)%1000 != 0 {
		t.Errorf("expected cost rounded to nearest thousand, got %f", cost)
	}

	// A sub-500 minimum must never round the cost to zero.
	if got := EstimateBidCost(easy, nil, 100, 400); got <= 0 {
		t.Errorf("expected positive cost with a sub-thousand minimum, got %f", got)
	}
}

func TestConfidenceCompleteness(t *testing.T) {
	full := factorsWith(map[string]float64{})
	for i := range full {
		full[i].Available = true
	}
	if got := EstimateConfidence(full, nil); got != 1.0 {
		t.Errorf("expected confidence 1.0 with all factors available, got %f", got)
	}

	half := factorsWith(map[string]float64{})
	for i := 0; i < 6; i++ {
		half[i].Available = true
	}
	if got := EstimateConfidence(half, nil); got != 0.5 {
		t.Errorf("expected confidence 0.5 with half available, got %f", got)
	}

	// Analysis confidence blends in at a quarter weight.
	analysisConf := 1.0
	blended := EstimateConfidence(half, &analysisConf)
	if blended <= 0.5 {
		t.Errorf("expected analysis confidence to raise the blend, got %f", blended)
	}
	if blended > 1.0 {
		t.Errorf("confidence must stay within [0,1], got %f", blended)
	}
}
