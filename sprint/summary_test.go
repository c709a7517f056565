package sprint

import (
	"testing"
)

func TestComputeStats(t *testing.T) {
	records := []Record{
		{QuestionID: 1, SelectedOption: "opt_1", IsCorrect: true, TimeMs: 10000, Topic: "Percentages"},
		{QuestionID: 2, SelectedOption: "opt_2", IsCorrect: false, TimeMs: 20000, Topic: "Percentages"},
		{QuestionID: 3, SelectedOption: Skipped, IsCorrect: false, TimeMs: 5000, Topic: "Ratios"},
		{QuestionID: 4, SelectedOption: "opt_3", IsCorrect: true, TimeMs: 25000, Topic: "Ratios"},
	}

	stats := ComputeStats(records, 6)

	if stats.Attempted != 3 {
		t.Errorf("attempted = %d, want 3 (skips excluded)", stats.Attempted)
	}
	if stats.Correct != 2 || stats.Incorrect != 1 || stats.Skipped != 1 {
		t.Errorf("correct/incorrect/skipped = %d/%d/%d", stats.Correct, stats.Incorrect, stats.Skipped)
	}
	if stats.NotAttempted != 2 {
		t.Errorf("not attempted = %d, want 2", stats.NotAttempted)
	}
	// 2 correct over 4 interactions.
	if stats.Accuracy != 50 {
		t.Errorf("accuracy = %d, want 50", stats.Accuracy)
	}
	if stats.TotalTimeMs != 60000 || stats.AvgTimeMs != 15000 {
		t.Errorf("total/avg time = %d/%d", stats.TotalTimeMs, stats.AvgTimeMs)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, 5)
	if stats.NotAttempted != 5 || stats.Accuracy != 0 || stats.AvgTimeMs != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestComputeTopicPerformance(t *testing.T) {
	records := []Record{
		{QuestionID: 1, SelectedOption: "opt_1", IsCorrect: true, TimeMs: 10000, Topic: "Ratios"},
		{QuestionID: 2, SelectedOption: "opt_1", IsCorrect: true, TimeMs: 14000, Topic: "Percentages"},
		{QuestionID: 3, SelectedOption: "opt_2", IsCorrect: false, TimeMs: 30000, Topic: "Percentages"},
		{QuestionID: 4, SelectedOption: Skipped, IsCorrect: false, TimeMs: 4000, Topic: "Percentages"},
		{QuestionID: 5, SelectedOption: "opt_4", IsCorrect: false, TimeMs: 0, Topic: ""},
	}

	perf := ComputeTopicPerformance(records)
	if len(perf) != 3 {
		t.Fatalf("topics = %d, want 3", len(perf))
	}

	// Sorted by interaction count, so Percentages first.
	top := perf[0]
	if top.Topic != "Percentages" || top.Total != 3 {
		t.Fatalf("top topic = %s (%d)", top.Topic, top.Total)
	}
	if top.Correct != 1 || top.Incorrect != 1 || top.Skipped != 1 {
		t.Errorf("percentages breakdown = %d/%d/%d", top.Correct, top.Incorrect, top.Skipped)
	}
	if top.Accuracy < 33.3 || top.Accuracy > 33.4 {
		t.Errorf("percentages accuracy = %f", top.Accuracy)
	}
	if top.AvgTimeMs != 16000 {
		t.Errorf("percentages avg time = %d", top.AvgTimeMs)
	}

	// Blank topics land in the Unknown bucket.
	var foundUnknown bool
	for _, tp := range perf {
		if tp.Topic == "Unknown" {
			foundUnknown = true
		}
	}
	if !foundUnknown {
		t.Error("blank topic not grouped as Unknown")
	}
}

func TestAnalyzeTime(t *testing.T) {
	tests := []struct {
		name       string
		avgMs      int64
		difficulty Difficulty
		want       string
	}{
		{"well under target", 15000, DifficultyMedium, PaceSlowDown},
		{"on pace", 28000, DifficultyMedium, PaceGood},
		{"over target", 45000, DifficultyMedium, PaceSpeedUp},
		{"hard on pace", 24000, DifficultyHard, PaceGood},
		{"easy under target", 20000, DifficultyEasy, PaceSlowDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := AnalyzeTime(Stats{AvgTimeMs: tt.avgMs}, tt.difficulty)
			if ta.Recommendation != tt.want {
				t.Errorf("recommendation = %s, want %s", ta.Recommendation, tt.want)
			}
		})
	}

	ta := AnalyzeTime(Stats{AvgTimeMs: 15000}, DifficultyMedium)
	if ta.SpeedMultiplier != 2.0 {
		t.Errorf("speed multiplier = %f, want 2.0", ta.SpeedMultiplier)
	}
	if ta.TargetTimePerQuestionMs != 30000 {
		t.Errorf("target = %d, want 30000", ta.TargetTimePerQuestionMs)
	}
}
