package train

import (
	"math"
	"testing"
)

func TestConvergenceTracker_BasicConvergence(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{
		Enabled:   true,
		Patience:  3,
		Threshold: 0.01,
	})

	if tracker.Best() != math.Inf(1) {
		t.Errorf("Expected initial best loss to be Inf, got %v", tracker.Best())
	}

	if tracker.Update(1.0) {
		t.Error("Should not converge on first update")
	}
	if tracker.Update(0.8) {
		t.Error("Should not converge after improvement")
	}
	if tracker.StaleCount() != 0 {
		t.Errorf("Expected stale count 0 after improvement, got %v", tracker.StaleCount())
	}

	// Below 1% of the last significant loss 0.8.
	for i, loss := range []float64{0.795, 0.796} {
		if tracker.Update(loss) {
			t.Errorf("Should not converge yet (%d/3)", i+1)
		}
	}
	if !tracker.Update(0.797) {
		t.Error("Should converge after patience exceeded (3/3)")
	}
	if tracker.Best() != 0.795 {
		t.Errorf("Expected best loss 0.795, got %v", tracker.Best())
	}
}

func TestConvergenceTracker_ImprovementResets(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.1})

	tracker.Update(10)
	tracker.Update(9.9)
	if tracker.StaleCount() != 1 {
		t.Fatalf("Expected stale count 1, got %d", tracker.StaleCount())
	}
	tracker.Update(5)
	if tracker.StaleCount() != 0 {
		t.Errorf("Expected stale count reset, got %d", tracker.StaleCount())
	}
}

func TestConvergenceTracker_ZeroAndNegativeLoss(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.01})

	tracker.Update(0)
	if tracker.Update(-1) {
		t.Error("Drop below zero should count as improvement")
	}
	if tracker.StaleCount() != 0 {
		t.Errorf("Expected stale count 0, got %d", tracker.StaleCount())
	}

	// -1 to -1.5 is a 50% improvement relative to |-1|.
	tracker.Update(-1.5)
	if tracker.StaleCount() != 0 {
		t.Errorf("Expected stale count 0 for negative improvement, got %d", tracker.StaleCount())
	}
}

func TestConvergenceTracker_Disabled(t *testing.T) {
	tracker := NewConvergenceTracker(DisabledConvergenceConfig())

	for i := 0; i < 100; i++ {
		if tracker.Update(1.0) {
			t.Fatal("Disabled tracker should never converge")
		}
	}
	if len(tracker.History()) != 100 {
		t.Errorf("Expected 100 history entries, got %d", len(tracker.History()))
	}
}

func TestConvergenceTracker_HistoryAndReset(t *testing.T) {
	tracker := NewConvergenceTracker(DefaultConvergenceConfig())

	for _, loss := range []float64{3, 2, 1} {
		tracker.Update(loss)
	}

	h := tracker.History()
	h[0] = 99
	if tracker.History()[0] != 3 {
		t.Error("History must return a copy")
	}

	tracker.Reset()
	if len(tracker.History()) != 0 || tracker.Best() != math.Inf(1) || tracker.StaleCount() != 0 {
		t.Error("Reset did not clear state")
	}
}
