package engine

import "github.com/Meridian-Contracting/Triage/internal/store"

// Score band boundaries. Closed-open intervals, the higher band wins on a
// boundary: 80.0 is Excellent, 70.0 is Good, 50.0 is Fair.
const (
	bidThreshold       = 70.0
	watchThreshold     = 50.0
	excellentThreshold = 80.0
)

// Classify maps an overall score to a recommendation and a rating label.
func Classify(score float64) (store.Recommendation, string) {
	switch {
	case score >= excellentThreshold:
		return store.RecommendationBid, "Excellent"
	case score >= bidThreshold:
		return store.RecommendationBid, "Good"
	case score >= watchThreshold:
		return store.RecommendationWatch, "Fair"
	default:
		return store.RecommendationNoBid, "Poor"
	}
}
