package engine

import (
	"math"
	"testing"

	"github.com/Meridian-Contracting/Triage/internal/store"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score  float64
		want   store.Recommendation
		rating string
	}{
		{100.0, store.RecommendationBid, "Excellent"},
		{80.0, store.RecommendationBid, "Excellent"},
		{79.9, store.RecommendationBid, "Good"},
		{70.0, store.RecommendationBid, "Good"},
		{69.9, store.RecommendationWatch, "Fair"},
		{50.0, store.RecommendationWatch, "Fair"},
		{49.9, store.RecommendationNoBid, "Poor"},
		{0.0, store.RecommendationNoBid, "Poor"},
	}
	for _, tc := range cases {
		rec, rating := Classify(tc.score)
		if rec != tc.want {
			t.Errorf("Classify(%.1f) = %s, want %s", tc.score, rec, tc.want)
		}
		if rating != tc.rating {
			t.Errorf("Classify(%.1f) rating = %s, want %s", tc.score, rating, tc.rating)
		}
	}
}

// Uniform factor vectors through the whole scoring path: with the default
// weights summing to 1.0, an across-the-board score of s lands at exactly s.
func TestUniformFactorScenarios(t *testing.T) {
	cases := []struct {
		name          string
		score         float64
		wantOverall   float64
		wantRec       store.Recommendation
		wantRating    string
		wantStrengths int
		wantConcerns  int
	}{
		{"strong across the board", 90, 90.0, store.RecommendationBid, "Excellent", 12, 0},
		{"weak across the board", 30, 30.0, store.RecommendationNoBid, "Poor", 0, 12},
	}

	weights := DefaultWeights()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			factors := make([]store.DecisionFactor, 0, len(FactorNames))
			for _, name := range FactorNames {
				factors = append(factors, store.DecisionFactor{Name: name, Score: tc.score, Available: true})
			}

			var overall float64
			for i := range factors {
				factors[i].Weight = weights.forFactor(factors[i].Name)
				factors[i].Weighted = factors[i].Score * factors[i].Weight
				overall += factors[i].Weighted
			}
			overall = math.Round(overall*10) / 10

			if overall != tc.wantOverall {
				t.Errorf("expected overall %.1f, got %.1f", tc.wantOverall, overall)
			}
			rec, rating := Classify(overall)
			if rec != tc.wantRec || rating != tc.wantRating {
				t.Errorf("expected %s/%s, got %s/%s", tc.wantRec, tc.wantRating, rec, rating)
			}

			r := BuildRationale(factors, nil)
			if len(r.Strengths) != tc.wantStrengths {
				t.Errorf("expected %d strengths, got %d: %v", tc.wantStrengths, len(r.Strengths), r.Strengths)
			}
			if len(r.Concerns) != tc.wantConcerns {
				t.Errorf("expected %d concerns, got %d: %v", tc.wantConcerns, len(r.Concerns), r.Concerns)
			}
		})
	}
}
