package engine

import (
	"math"

	"github.com/Meridian-Contracting/Triage/internal/store"
)

// Win probability bounds. Never promise certainty in either direction.
const (
	winProbFloor   = 0.02
	winProbCeiling = 0.95
)

// EstimateWinProbability blends capability fit, market position, and the
// competitive landscape with the historical win rate for this agency/sector.
// When no history exists the global prior substitutes for it.
func EstimateWinProbability(factors []store.DecisionFactor, histWinRate *float64, globalPrior float64) float64 {
	capability := factorScore(factors, "capability_match")
	market := factorScore(factors, "market_position")
	competitive := factorScore(factors, "competitive_risk")

	history := globalPrior
	if histWinRate != nil {
		history = *histWinRate
	}

	p := 0.35*capability/100 + 0.15*market/100 + 0.20*competitive/100 + 0.30*history
	return clamp(p, winProbFloor, winProbCeiling)
}

// EstimateBidCost projects proposal preparation cost from a base figure,
// scaled up by submission complexity, resource burden, and contract size.
// The result is rounded to the nearest thousand dollars and never falls
// below the configured minimum.
func EstimateBidCost(factors []store.DecisionFactor, estimatedValue *float64, base, minimum float64) float64 {
	// Inverse factors: a low score means a hard submission, so the burden
	// multiplier grows as the score falls.
	complexity := (100 - factorScore(factors, "submission_complexity")) / 100
	resource := (100 - factorScore(factors, "resource_requirements")) / 100

	cost := base * (1 + 1.5*complexity) * (1 + 0.75*resource)
	if estimatedValue != nil && *estimatedValue > 0 {
		cost *= 1 + 0.25*math.Log1p(*estimatedValue/1_000_000)
	}
	cost = math.Round(cost/1000) * 1000
	if cost < minimum {
		// Rounding must not undercut the floor; round the floor itself up.
		cost = math.Ceil(minimum/1000) * 1000
	}
	return cost
}

// EstimateConfidence reports how much of the evaluation rested on real data.
// Completeness is the fraction of factors scored from available input; the
// analysis provider's own confidence, when present, contributes a quarter.
func EstimateConfidence(factors []store.DecisionFactor, analysisConfidence *float64) float64 {
	available := 0
	for _, f := range factors {
		if f.Available {
			available++
		}
	}
	completeness := float64(available) / float64(len(factors))
	if analysisConfidence == nil {
		return clamp(completeness, 0, 1)
	}
	return clamp(0.75*completeness+0.25**analysisConfidence, 0, 1)
}

func factorScore(factors []store.DecisionFactor, name string) float64 {
	for _, f := range factors {
		if f.Name == name {
			return f.Score
		}
	}
	return 50
}
