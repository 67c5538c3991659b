package engine

import (
	"fmt"

	"github.com/Meridian-Contracting/Triage/internal/enrich"
	"github.com/Meridian-Contracting/Triage/internal/store"
)

const (
	strengthThreshold = 75.0
	concernThreshold  = 40.0
)

var factorLabels = map[string]string{
	"strategic_alignment":   "Strategic alignment",
	"capability_match":      "Capability match",
	"market_position":       "Market position",
	"estimated_value":       "Contract value",
	"profit_potential":      "Profit potential",
	"resource_requirements": "Resource requirements",
	"technical_risk":        "Technical risk",
	"schedule_risk":         "Schedule risk",
	"competitive_risk":      "Competitive landscape",
	"past_performance":      "Past performance",
	"eligibility_fit":       "Eligibility fit",
	"submission_complexity": "Submission complexity",
}

// actionItems maps a low-scoring factor to the concrete follow-up it calls
// for. Only factors with a mapped action produce one.
var actionItems = map[string]string{
	"capability_match":      "Identify teaming partners to close capability gaps",
	"resource_requirements": "Confirm staffing availability before committing",
	"technical_risk":        "Schedule a technical deep-dive on flagged risk areas",
	"schedule_risk":         "Verify the proposal timeline is achievable",
	"competitive_risk":      "Research incumbent and likely competitors",
	"past_performance":      "Gather relevant past performance references",
	"eligibility_fit":       "Verify set-aside eligibility before investing effort",
	"submission_complexity": "Build a compliance matrix early",
}

// BuildRationale assembles the structured explanation from factor scores.
// The analysis narrative, when present, is attached verbatim; structured
// fields never depend on it.
func BuildRationale(factors []store.DecisionFactor, analysis *enrich.Analysis) store.Rationale {
	r := store.Rationale{
		Strengths:   []string{},
		Concerns:    []string{},
		ActionItems: []string{},
	}
	for _, f := range factors {
		if !f.Available {
			continue
		}
		label := factorLabels[f.Name]
		if f.Score >= strengthThreshold {
			r.Strengths = append(r.Strengths, fmt.Sprintf("%s scored %.0f", label, f.Score))
		}
		if f.Score <= concernThreshold {
			r.Concerns = append(r.Concerns, fmt.Sprintf("%s scored %.0f", label, f.Score))
			if action, ok := actionItems[f.Name]; ok {
				r.ActionItems = append(r.ActionItems, action)
			}
		}
	}
	if analysis != nil {
		r.Narrative = analysis.Narrative
	}
	return r
}
