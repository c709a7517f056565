// sprint/summary.go - Post-sprint scoring and analytics math
package sprint

import (
	"math"
	"sort"
)

// Stats is the aggregate scorecard for one sprint. Attempted counts answered
// questions only; skips are tracked separately and questions without a record
// are not attempted.
type Stats struct {
	TotalQuestions int   `json:"total_questions"`
	Attempted      int   `json:"attempted"`
	Correct        int   `json:"correct"`
	Incorrect      int   `json:"incorrect"`
	Skipped        int   `json:"skipped"`
	NotAttempted   int   `json:"not_attempted"`
	Accuracy       int   `json:"accuracy"`
	AvgTimeMs      int64 `json:"avg_time_ms"`
	TotalTimeMs    int64 `json:"total_time_ms"`
}

// TopicPerformance is the per-topic breakdown shown on the summary screen.
type TopicPerformance struct {
	Topic     string  `json:"topic"`
	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Skipped   int     `json:"skipped"`
	Accuracy  float64 `json:"accuracy"`
	AvgTimeMs int64   `json:"avg_time_ms"`
}

// Pace recommendations for the time-analysis card.
const (
	PaceGood     = "GOOD_PACE"
	PaceSlowDown = "SLOW_DOWN"
	PaceSpeedUp  = "SPEED_UP"
)

// TimeAnalysis compares average answer time against the difficulty's target.
type TimeAnalysis struct {
	AvgTimePerQuestionMs    int64   `json:"avg_time_per_question"`
	TargetTimePerQuestionMs int64   `json:"target_time_per_question"`
	SpeedMultiplier         float64 `json:"speed_multiplier"`
	Recommendation          string  `json:"recommendation"`
}

// ComputeStats aggregates the per-question records of one sprint.
// Accuracy is correct over total interactions (skips included), rounded to a
// whole percentage.
func ComputeStats(records []Record, totalQuestions int) Stats {
	s := Stats{TotalQuestions: totalQuestions}

	for _, rec := range records {
		s.TotalTimeMs += rec.TimeMs
		if rec.Skipped() {
			s.Skipped++
			continue
		}
		s.Attempted++
		if rec.IsCorrect {
			s.Correct++
		}
	}

	s.Incorrect = s.Attempted - s.Correct
	s.NotAttempted = totalQuestions - len(records)
	if s.NotAttempted < 0 {
		s.NotAttempted = 0
	}

	if interactions := len(records); interactions > 0 {
		s.Accuracy = int(math.Round(float64(s.Correct) / float64(interactions) * 100))
		s.AvgTimeMs = int64(math.Round(float64(s.TotalTimeMs) / float64(interactions)))
	}
	return s
}

// ComputeTopicPerformance groups records by topic. The result is sorted by
// interaction count (descending), topic name as tie-breaker, so the summary
// ordering is stable.
func ComputeTopicPerformance(records []Record) []TopicPerformance {
	byTopic := make(map[string]*TopicPerformance)
	timeByTopic := make(map[string]int64)

	for _, rec := range records {
		topic := rec.Topic
		if topic == "" {
			topic = "Unknown"
		}
		tp, ok := byTopic[topic]
		if !ok {
			tp = &TopicPerformance{Topic: topic}
			byTopic[topic] = tp
		}
		tp.Total++
		timeByTopic[topic] += rec.TimeMs
		if rec.Skipped() {
			tp.Skipped++
		} else if rec.IsCorrect {
			tp.Correct++
		} else {
			tp.Incorrect++
		}
	}

	out := make([]TopicPerformance, 0, len(byTopic))
	for topic, tp := range byTopic {
		if tp.Total > 0 {
			tp.Accuracy = float64(tp.Correct) / float64(tp.Total) * 100
			tp.AvgTimeMs = int64(math.Round(float64(timeByTopic[topic]) / float64(tp.Total)))
		}
		out = append(out, *tp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

// AnalyzeTime produces the pacing recommendation. Answering well under the
// target suggests taking more care (SLOW_DOWN); well over suggests the
// opposite.
func AnalyzeTime(stats Stats, difficulty Difficulty) TimeAnalysis {
	target := difficulty.TimePerQuestion().Milliseconds()
	avg := stats.AvgTimeMs

	ta := TimeAnalysis{
		AvgTimePerQuestionMs:    avg,
		TargetTimePerQuestionMs: target,
		Recommendation:          PaceGood,
	}
	if avg > 0 {
		ta.SpeedMultiplier = math.Round(float64(target)/float64(avg)*100) / 100
	}
	if avg < int64(float64(target)*0.7) {
		ta.Recommendation = PaceSlowDown
	} else if avg > int64(float64(target)*1.3) {
		ta.Recommendation = PaceSpeedUp
	}
	return ta
}
