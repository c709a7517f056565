// sprint/review.go - Post-sprint per-question review insights
package sprint

import "sort"

// Per-question review outcomes. These are the statuses the session tracks
// for every question in its frozen order.
const (
	OutcomeCorrect      = "CORRECT"
	OutcomeIncorrect    = "INCORRECT"
	OutcomeSkipped      = "SKIPPED"
	OutcomeNotAttempted = "NOT_ATTEMPTED"
)

// Exam marking scheme used for the what-if analysis.
const (
	marksPerCorrect  = 2.0
	wrongMarkPenalty = 0.5
)

// ReviewOutcome is one question's result as seen on the review screen.
type ReviewOutcome struct {
	Order  int
	Status string
	TimeMs int64
}

// NegativeMarking compares the actual exam score against a what-if run where
// the slower half of the wrong answers had been skipped instead.
type NegativeMarking struct {
	ActualMarks    float64 `json:"actual_marks"`
	MaxMarks       float64 `json:"max_marks"`
	OptimizedMarks float64 `json:"optimized_marks"`
	OptimizedMax   float64 `json:"optimized_max"`
	SkipCount      int     `json:"skip_count"`
	SavedTimeMs    int64   `json:"saved_time_ms"`
}

type TimeBucket struct {
	Count   int `json:"count"`
	Correct int `json:"correct"`
}

// TimeDistribution is a histogram of per-question answer time.
type TimeDistribution struct {
	Under20 TimeBucket `json:"under_20"`
	From20  TimeBucket `json:"btn_20_40"`
	From40  TimeBucket `json:"btn_40_60"`
	Over60  TimeBucket `json:"over_60"`
}

// Fatigue flags an accuracy drop between the first and second half of the
// sprint. Only computed with six or more questions; fewer is noise.
type Fatigue struct {
	Detected           bool    `json:"detected"`
	FirstHalfAccuracy  float64 `json:"first_half_accuracy"`
	SecondHalfAccuracy float64 `json:"second_half_accuracy"`
	DropPercent        float64 `json:"drop_percent"`
}

// Insights is the single-sprint analysis block of the review screen.
type Insights struct {
	NegativeMarking  NegativeMarking  `json:"negative_marking"`
	TimeDistribution TimeDistribution `json:"time_distribution"`
	Fatigue          *Fatigue         `json:"fatigue,omitempty"`
}

const fatigueMinQuestions = 6
const fatigueDropThreshold = 0.15

// ComputeInsights derives the review analytics from the per-question
// outcomes of one sprint.
func ComputeInsights(outcomes []ReviewOutcome) Insights {
	var insights Insights

	correct, wrong := 0, 0
	var wrongTimes []int64
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeCorrect:
			correct++
		case OutcomeIncorrect:
			wrong++
			wrongTimes = append(wrongTimes, o.TimeMs)
		}
	}

	total := len(outcomes)
	insights.NegativeMarking.ActualMarks = float64(correct)*marksPerCorrect - float64(wrong)*wrongMarkPenalty
	insights.NegativeMarking.MaxMarks = float64(total) * marksPerCorrect

	// What if the slowest half of the wrong answers had been skipped: no
	// penalty on those, and their time freed up.
	skipCount := (wrong + 1) / 2
	sort.Slice(wrongTimes, func(i, j int) bool { return wrongTimes[i] > wrongTimes[j] })
	var savedTime int64
	for i := 0; i < skipCount; i++ {
		savedTime += wrongTimes[i]
	}
	insights.NegativeMarking.SkipCount = skipCount
	insights.NegativeMarking.SavedTimeMs = savedTime
	insights.NegativeMarking.OptimizedMarks = float64(correct)*marksPerCorrect - float64(wrong-skipCount)*wrongMarkPenalty
	insights.NegativeMarking.OptimizedMax = float64(total-skipCount) * marksPerCorrect

	for _, o := range outcomes {
		bucket := &insights.TimeDistribution.Over60
		switch {
		case o.TimeMs < 20000:
			bucket = &insights.TimeDistribution.Under20
		case o.TimeMs < 40000:
			bucket = &insights.TimeDistribution.From20
		case o.TimeMs < 60000:
			bucket = &insights.TimeDistribution.From40
		}
		bucket.Count++
		if o.Status == OutcomeCorrect {
			bucket.Correct++
		}
	}

	if total >= fatigueMinQuestions {
		ordered := make([]ReviewOutcome, len(outcomes))
		copy(ordered, outcomes)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

		mid := len(ordered) / 2
		firstAcc := halfAccuracy(ordered[:mid])
		secondAcc := halfAccuracy(ordered[mid:])
		drop := firstAcc - secondAcc
		insights.Fatigue = &Fatigue{
			Detected:           drop >= fatigueDropThreshold,
			FirstHalfAccuracy:  firstAcc,
			SecondHalfAccuracy: secondAcc,
			DropPercent:        drop,
		}
	}

	return insights
}

func halfAccuracy(outcomes []ReviewOutcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	correct := 0
	for _, o := range outcomes {
		if o.Status == OutcomeCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(outcomes))
}
