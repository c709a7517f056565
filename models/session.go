// models/session.go - Sprint session persistence
package models

import (
	"encoding/json"
	"time"

	"sprintprep/sprint"
)

// Per-question status values tracked inside a session, shared with the
// review analytics.
const (
	QuestionNotAttempted = sprint.OutcomeNotAttempted
	QuestionCorrect      = sprint.OutcomeCorrect
	QuestionIncorrect    = sprint.OutcomeIncorrect
	QuestionSkipped      = sprint.OutcomeSkipped
)

// SprintSession stores the run state of one sprint. Ordered question ids,
// per-question status and precomputed summary data are kept as JSON text
// columns; StartedAt is written once at creation and never updated, so any
// client can reconstruct the countdown from it.
type SprintSession struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	UserID uint   `json:"user_id" gorm:"not null;index"`
	User   *User  `json:"user,omitempty" gorm:"foreignKey:UserID"`

	// Config (fixed at creation)
	Subject       string `json:"subject" gorm:"not null;size:20;index"`
	TopicsJSON    string `json:"-" gorm:"column:topics;type:text"`
	Difficulty    string `json:"difficulty" gorm:"not null;size:20"`
	QuestionCount int    `json:"question_count" gorm:"default:0"`
	TimeLimitMs   int64  `json:"time_limit_ms" gorm:"default:0"`

	// Run state
	QuestionIDsJSON    string `json:"-" gorm:"column:question_ids;type:text"`
	QuestionStatusJSON string `json:"-" gorm:"column:question_status;type:text"`
	CurrentIndex       int    `json:"current_index" gorm:"default:0"`
	CorrectCount       int    `json:"correct_count" gorm:"default:0"`
	TotalTimeMs        int64  `json:"total_time_ms" gorm:"default:0"`
	Status             string `json:"status" gorm:"default:'ACTIVE';size:20;index"`

	// Precomputed on completion
	StatsJSON            string `json:"-" gorm:"column:stats;type:text"`
	TopicPerformanceJSON string `json:"-" gorm:"column:topic_performance;type:text"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (SprintSession) TableName() string {
	return "sprint_sessions"
}

// QuestionStatus is one entry of the per-question tracking list. Order is
// 1-based and fixed at creation; the list is never reshuffled mid-run.
type QuestionStatus struct {
	QuestionID uint   `json:"question_id"`
	Status     string `json:"status"`
	TimeMs     int64  `json:"time_ms"`
	Order      int    `json:"order"`
}

// IsTerminal reports whether the session accepts no further mutation.
func (s *SprintSession) IsTerminal() bool {
	return sprint.Status(s.Status).Terminal()
}

// Config rebuilds the immutable sprint configuration.
func (s *SprintSession) Config() sprint.Config {
	topics, _ := s.GetTopics()
	return sprint.Config{
		Subject:       sprint.Subject(s.Subject),
		Topics:        topics,
		Difficulty:    sprint.Difficulty(s.Difficulty),
		QuestionCount: s.QuestionCount,
		TimeLimitMs:   s.TimeLimitMs,
	}
}

// JSON column helpers

func (s *SprintSession) GetTopics() ([]string, error) {
	var topics []string
	if s.TopicsJSON == "" {
		return topics, nil
	}
	err := json.Unmarshal([]byte(s.TopicsJSON), &topics)
	return topics, err
}

func (s *SprintSession) SetTopics(topics []string) error {
	data, err := json.Marshal(topics)
	if err != nil {
		return err
	}
	s.TopicsJSON = string(data)
	return nil
}

func (s *SprintSession) GetQuestionIDs() ([]uint, error) {
	var ids []uint
	if s.QuestionIDsJSON == "" {
		return ids, nil
	}
	err := json.Unmarshal([]byte(s.QuestionIDsJSON), &ids)
	return ids, err
}

func (s *SprintSession) SetQuestionIDs(ids []uint) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	s.QuestionIDsJSON = string(data)
	return nil
}

func (s *SprintSession) GetQuestionStatus() ([]QuestionStatus, error) {
	var entries []QuestionStatus
	if s.QuestionStatusJSON == "" {
		return entries, nil
	}
	err := json.Unmarshal([]byte(s.QuestionStatusJSON), &entries)
	return entries, err
}

func (s *SprintSession) SetQuestionStatus(entries []QuestionStatus) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	s.QuestionStatusJSON = string(data)
	return nil
}

// MarkQuestion updates the tracking entry for one question id. Unknown ids
// are ignored; a second write for the same id overwrites the first, matching
// the last-write-wins rule for retried attempts.
func (s *SprintSession) MarkQuestion(questionID uint, status string, timeMs int64) error {
	entries, err := s.GetQuestionStatus()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].QuestionID == questionID {
			entries[i].Status = status
			entries[i].TimeMs = timeMs
			break
		}
	}
	return s.SetQuestionStatus(entries)
}

// AttemptStatus maps one attempt row to its tracking status.
func AttemptStatus(a Attempt) string {
	if a.SelectedOption == sprint.Skipped {
		return QuestionSkipped
	}
	if a.IsCorrect {
		return QuestionCorrect
	}
	return QuestionIncorrect
}

// RebuildQuestionStatus derives the per-question tracking list and the
// progress counters from the attempts table. The attempts rows are the source
// of truth (unique per question, upserted), so recomputing from them instead
// of patching the JSON in place makes concurrent writers converge: whatever
// write lands last was built from a full read, never from a stale single-entry
// patch.
func (s *SprintSession) RebuildQuestionStatus(attempts []Attempt) error {
	ids, err := s.GetQuestionIDs()
	if err != nil {
		return err
	}

	byQuestion := make(map[uint]Attempt, len(attempts))
	for _, a := range attempts {
		byQuestion[a.QuestionID] = a
	}

	entries := make([]QuestionStatus, len(ids))
	currentIndex := 0
	correct := 0
	var totalTime int64
	for i, id := range ids {
		entry := QuestionStatus{QuestionID: id, Status: QuestionNotAttempted, Order: i + 1}
		if a, ok := byQuestion[id]; ok {
			entry.Status = AttemptStatus(a)
			entry.TimeMs = a.TimeMs
			if entry.Order > currentIndex {
				currentIndex = entry.Order
			}
			if a.IsCorrect {
				correct++
			}
			totalTime += a.TimeMs
		}
		entries[i] = entry
	}

	if currentIndex > s.CurrentIndex {
		s.CurrentIndex = currentIndex
	}
	s.CorrectCount = correct
	s.TotalTimeMs = totalTime
	return s.SetQuestionStatus(entries)
}

func (s *SprintSession) GetStats() (sprint.Stats, error) {
	var stats sprint.Stats
	if s.StatsJSON == "" {
		return stats, nil
	}
	err := json.Unmarshal([]byte(s.StatsJSON), &stats)
	return stats, err
}

func (s *SprintSession) SetStats(stats sprint.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	s.StatsJSON = string(data)
	return nil
}

func (s *SprintSession) GetTopicPerformance() ([]sprint.TopicPerformance, error) {
	var perf []sprint.TopicPerformance
	if s.TopicPerformanceJSON == "" {
		return perf, nil
	}
	err := json.Unmarshal([]byte(s.TopicPerformanceJSON), &perf)
	return perf, err
}

func (s *SprintSession) SetTopicPerformance(perf []sprint.TopicPerformance) error {
	data, err := json.Marshal(perf)
	if err != nil {
		return err
	}
	s.TopicPerformanceJSON = string(data)
	return nil
}

// Snapshot builds the controller's view of this session. The questions slice
// must already be in the session's authoritative order; attempts restore the
// per-question records.
func (s *SprintSession) Snapshot(questions []sprint.Question, attempts []Attempt) sprint.Snapshot {
	records := make([]sprint.Record, 0, len(attempts))
	for _, a := range attempts {
		records = append(records, sprint.Record{
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
			IsCorrect:      a.IsCorrect,
			TimeMs:         a.TimeMs,
			Topic:          a.TopicName,
			Difficulty:     sprint.Difficulty(a.Difficulty),
		})
	}
	return sprint.Snapshot{
		ID:           s.ID,
		Config:       s.Config(),
		Questions:    questions,
		StartedAt:    s.StartedAt,
		CurrentIndex: s.CurrentIndex,
		Status:       sprint.Status(s.Status),
		Records:      records,
	}
}
