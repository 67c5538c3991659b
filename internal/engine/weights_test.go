package engine

import (
	"math"
	"testing"
)

func TestDefaultWeightsSum(t *testing.T) {
	w := DefaultWeights()
	if err := w.Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
	if math.Abs(w.Sum()-1.0) > 1e-6 {
		t.Fatalf("expected sum 1.0, got %f", w.Sum())
	}
}

func TestWeightsValidateBadSum(t *testing.T) {
	w := DefaultWeights()
	w.StrategicAlignment = 0.5
	if err := w.Validate(); err == nil {
		t.Fatal("expected validation error for bad sum")
	}
}

func TestWeightsValidateNegative(t *testing.T) {
	w := DefaultWeights()
	w.ScheduleRisk = -0.05
	w.TechnicalRisk += 0.10
	if err := w.Validate(); err == nil {
		t.Fatal("expected validation error for negative weight")
	}
}

func TestForFactorMatchesOrdering(t *testing.T) {
	w := DefaultWeights()
	list := w.asList()
	if len(list) != len(FactorNames) {
		t.Fatalf("weight list length %d does not match factor names %d", len(list), len(FactorNames))
	}
	for i, name := range FactorNames {
		if got := w.forFactor(name); got != list[i] {
			t.Errorf("forFactor(%s) = %f, want %f", name, got, list[i])
		}
	}
	if w.forFactor("unknown") != 0 {
		t.Error("expected zero weight for unknown factor")
	}
}
