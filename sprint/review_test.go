package sprint

import (
	"testing"
)

func TestComputeInsightsNegativeMarking(t *testing.T) {
	// 6 questions: 3 correct, 2 wrong (30s and 50s), 1 skipped.
	outcomes := []ReviewOutcome{
		{Order: 1, Status: OutcomeCorrect, TimeMs: 10000},
		{Order: 2, Status: OutcomeIncorrect, TimeMs: 30000},
		{Order: 3, Status: OutcomeCorrect, TimeMs: 15000},
		{Order: 4, Status: OutcomeIncorrect, TimeMs: 50000},
		{Order: 5, Status: OutcomeSkipped, TimeMs: 5000},
		{Order: 6, Status: OutcomeCorrect, TimeMs: 12000},
	}

	insights := ComputeInsights(outcomes)
	nm := insights.NegativeMarking

	// 3*2 - 2*0.5 = 5 out of 12.
	if nm.ActualMarks != 5 || nm.MaxMarks != 12 {
		t.Errorf("actual/max = %v/%v, want 5/12", nm.ActualMarks, nm.MaxMarks)
	}
	// Skipping the slowest wrong answer (50s) saves its time and its penalty.
	if nm.SkipCount != 1 || nm.SavedTimeMs != 50000 {
		t.Errorf("skip count/saved = %d/%dms, want 1/50000", nm.SkipCount, nm.SavedTimeMs)
	}
	if nm.OptimizedMarks != 5.5 || nm.OptimizedMax != 10 {
		t.Errorf("optimized = %v/%v, want 5.5/10", nm.OptimizedMarks, nm.OptimizedMax)
	}
}

func TestComputeInsightsTimeDistribution(t *testing.T) {
	outcomes := []ReviewOutcome{
		{Order: 1, Status: OutcomeCorrect, TimeMs: 8000},
		{Order: 2, Status: OutcomeIncorrect, TimeMs: 25000},
		{Order: 3, Status: OutcomeCorrect, TimeMs: 39999},
		{Order: 4, Status: OutcomeCorrect, TimeMs: 45000},
		{Order: 5, Status: OutcomeIncorrect, TimeMs: 90000},
	}

	dist := ComputeInsights(outcomes).TimeDistribution
	if dist.Under20.Count != 1 || dist.Under20.Correct != 1 {
		t.Errorf("under_20 = %+v", dist.Under20)
	}
	if dist.From20.Count != 2 || dist.From20.Correct != 1 {
		t.Errorf("btn_20_40 = %+v", dist.From20)
	}
	if dist.From40.Count != 1 || dist.From40.Correct != 1 {
		t.Errorf("btn_40_60 = %+v", dist.From40)
	}
	if dist.Over60.Count != 1 || dist.Over60.Correct != 0 {
		t.Errorf("over_60 = %+v", dist.Over60)
	}
}

func TestComputeInsightsFatigue(t *testing.T) {
	// Strong first half, weak second half.
	outcomes := []ReviewOutcome{
		{Order: 1, Status: OutcomeCorrect},
		{Order: 2, Status: OutcomeCorrect},
		{Order: 3, Status: OutcomeCorrect},
		{Order: 4, Status: OutcomeIncorrect},
		{Order: 5, Status: OutcomeIncorrect},
		{Order: 6, Status: OutcomeCorrect},
	}

	fatigue := ComputeInsights(outcomes).Fatigue
	if fatigue == nil {
		t.Fatal("fatigue not computed for 6 questions")
	}
	if !fatigue.Detected {
		t.Errorf("drop %v not flagged", fatigue.DropPercent)
	}
	if fatigue.FirstHalfAccuracy != 1.0 {
		t.Errorf("first half accuracy = %v", fatigue.FirstHalfAccuracy)
	}

	// Order matters, not slice position: reversed input, same halves.
	reversed := make([]ReviewOutcome, 0, len(outcomes))
	for i := len(outcomes) - 1; i >= 0; i-- {
		reversed = append(reversed, outcomes[i])
	}
	if got := ComputeInsights(reversed).Fatigue; got.FirstHalfAccuracy != 1.0 {
		t.Errorf("reversed input changed halves: %+v", got)
	}
}

func TestComputeInsightsFatigueSkippedForShortSprints(t *testing.T) {
	outcomes := []ReviewOutcome{
		{Order: 1, Status: OutcomeCorrect},
		{Order: 2, Status: OutcomeIncorrect},
	}
	if ComputeInsights(outcomes).Fatigue != nil {
		t.Error("fatigue computed for a 2-question sprint")
	}
}
