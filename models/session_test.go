package models

import (
	"testing"
	"time"

	"sprintprep/sprint"
)

func TestMarkQuestionOverwrites(t *testing.T) {
	s := &SprintSession{}
	err := s.SetQuestionStatus([]QuestionStatus{
		{QuestionID: 7, Status: QuestionNotAttempted, Order: 1},
		{QuestionID: 8, Status: QuestionNotAttempted, Order: 2},
	})
	if err != nil {
		t.Fatalf("set status: %v", err)
	}

	if err := s.MarkQuestion(7, QuestionIncorrect, 12000); err != nil {
		t.Fatalf("mark: %v", err)
	}
	// Retried write for the same question replaces, never duplicates.
	if err := s.MarkQuestion(7, QuestionCorrect, 13000); err != nil {
		t.Fatalf("mark again: %v", err)
	}

	entries, err := s.GetQuestionStatus()
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Status != QuestionCorrect || entries[0].TimeMs != 13000 {
		t.Errorf("entry = %+v, want CORRECT/13000", entries[0])
	}
	if entries[1].Status != QuestionNotAttempted {
		t.Errorf("untouched entry mutated: %+v", entries[1])
	}
}

func TestSnapshotRebuildsControllerView(t *testing.T) {
	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := &SprintSession{
		ID:           "sess-9",
		Subject:      string(sprint.SubjectQuant),
		Difficulty:   string(sprint.DifficultyHard),
		CurrentIndex: 1,
		Status:       string(sprint.StatusActive),
		StartedAt:    started,
		TimeLimitMs:  50000,
	}
	if err := s.SetTopics([]string{"Ratios"}); err != nil {
		t.Fatalf("set topics: %v", err)
	}

	questions := []sprint.Question{
		{ID: 1, CorrectOption: "opt_1", Topic: "Ratios", Difficulty: sprint.DifficultyHard},
		{ID: 2, CorrectOption: "opt_3", Topic: "Ratios", Difficulty: sprint.DifficultyHard},
	}
	attempts := []Attempt{
		{SessionID: "sess-9", QuestionID: 1, SelectedOption: "opt_1", IsCorrect: true, TimeMs: 9000, TopicName: "Ratios", Difficulty: "HARD"},
	}

	snap := s.Snapshot(questions, attempts)
	if snap.ID != "sess-9" || snap.CurrentIndex != 1 || snap.StartedAt != started {
		t.Fatalf("snapshot identity = %+v", snap)
	}
	if snap.Config.TimeLimit() != 50*time.Second {
		t.Errorf("time limit = %v", snap.Config.TimeLimit())
	}
	if len(snap.Records) != 1 || !snap.Records[0].IsCorrect {
		t.Fatalf("records = %+v", snap.Records)
	}

	// The snapshot must be enough to resume a live controller.
	clock := sprint.SystemClock()
	c := sprint.New(snap, clock, nil)
	if c.Status() != sprint.StatusActive && c.Status() != sprint.StatusTimedOut {
		t.Fatalf("unexpected resumed status %s", c.Status())
	}
}

func TestRebuildQuestionStatusKeepsEveryMark(t *testing.T) {
	s := &SprintSession{}
	if err := s.SetQuestionIDs([]uint{4, 5, 6}); err != nil {
		t.Fatalf("set ids: %v", err)
	}

	attempts := []Attempt{
		{QuestionID: 4, SelectedOption: "opt_1", IsCorrect: true, TimeMs: 9000},
		{QuestionID: 5, SelectedOption: sprint.Skipped, TimeMs: 3000},
	}

	// Two writers that each saw only their own attempt would have produced
	// a list missing the other's mark; rebuilding from the full attempts
	// set must carry both regardless of which write lands last.
	if err := s.RebuildQuestionStatus(attempts[:1]); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if err := s.RebuildQuestionStatus(attempts); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	entries, err := s.GetQuestionStatus()
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Status != QuestionCorrect || entries[0].TimeMs != 9000 {
		t.Errorf("q4 = %+v, want CORRECT/9000", entries[0])
	}
	if entries[1].Status != QuestionSkipped || entries[1].TimeMs != 3000 {
		t.Errorf("q5 = %+v, want SKIPPED/3000", entries[1])
	}
	if entries[2].Status != QuestionNotAttempted {
		t.Errorf("q6 = %+v, want NOT_ATTEMPTED", entries[2])
	}

	if s.CurrentIndex != 2 {
		t.Errorf("current index = %d, want 2", s.CurrentIndex)
	}
	if s.CorrectCount != 1 || s.TotalTimeMs != 12000 {
		t.Errorf("counters = %d correct, %dms", s.CorrectCount, s.TotalTimeMs)
	}
}

func TestRebuildQuestionStatusOrderIndependent(t *testing.T) {
	build := func(attempts []Attempt) string {
		s := &SprintSession{}
		if err := s.SetQuestionIDs([]uint{1, 2, 3}); err != nil {
			t.Fatalf("set ids: %v", err)
		}
		if err := s.RebuildQuestionStatus(attempts); err != nil {
			t.Fatalf("rebuild: %v", err)
		}
		return s.QuestionStatusJSON
	}

	attempts := []Attempt{
		{QuestionID: 1, SelectedOption: "opt_2", IsCorrect: false, TimeMs: 11000},
		{QuestionID: 2, SelectedOption: "opt_1", IsCorrect: true, TimeMs: 7000},
		{QuestionID: 3, SelectedOption: sprint.Skipped, TimeMs: 2000},
	}
	reversed := []Attempt{attempts[2], attempts[1], attempts[0]}

	if build(attempts) != build(reversed) {
		t.Fatal("rebuilt status depends on attempt row order")
	}
}

func TestQuestionOptionsRoundTrip(t *testing.T) {
	q := &Question{}
	err := q.SetOptions([]Option{
		{ID: "opt_1", Text: "12"},
		{ID: "opt_2", Text: "14"},
	})
	if err != nil {
		t.Fatalf("set options: %v", err)
	}

	options, err := q.GetOptions()
	if err != nil {
		t.Fatalf("get options: %v", err)
	}
	if len(options) != 2 || options[1].ID != "opt_2" {
		t.Fatalf("options = %+v", options)
	}
}
