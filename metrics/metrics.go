// metrics/metrics.go - Prometheus instrumentation
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sprintsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sprintprep_sprints_started_total",
			Help: "Total number of sprint sessions created",
		},
	)

	sprintsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sprintprep_sprints_finished_total",
			Help: "Total number of sprint sessions finished by terminal status",
		},
		[]string{"status"}, // COMPLETED, TIMED_OUT, ABANDONED
	)

	attemptsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sprintprep_attempts_total",
			Help: "Total number of per-question interactions recorded",
		},
		[]string{"result"}, // correct, incorrect, skipped
	)

	questionTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sprintprep_question_time_seconds",
			Help:    "Time spent per question before answer or skip",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s to ~2min
		},
	)
)

// RecordSprintStarted counts a newly created session.
func RecordSprintStarted() {
	sprintsStarted.Inc()
}

// RecordSprintFinished counts a terminal transition.
func RecordSprintFinished(status string) {
	sprintsFinished.WithLabelValues(status).Inc()
}

// RecordAttempt counts one interaction and observes its duration.
func RecordAttempt(result string, timeMs int64) {
	attemptsRecorded.WithLabelValues(result).Inc()
	if timeMs > 0 {
		questionTime.Observe(float64(timeMs) / 1000)
	}
}
