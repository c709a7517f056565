package sprint

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

type recordingSink struct {
	attempts  []Record
	skips     []Record
	finalized Status
	finals    int
	records   []Record
}

func (s *recordingSink) RecordAttempt(sessionID string, rec Record, order int) {
	s.attempts = append(s.attempts, rec)
}

func (s *recordingSink) RecordSkip(sessionID string, rec Record, order int) {
	s.skips = append(s.skips, rec)
}

func (s *recordingSink) Finalize(sessionID string, status Status, records []Record) {
	s.finalized = status
	s.finals++
	s.records = records
}

func newTestSnapshot(n int) Snapshot {
	questions := make([]Question, n)
	for i := 0; i < n; i++ {
		questions[i] = Question{
			ID:            uint(i + 1),
			CorrectOption: "opt_1",
			Topic:         "Percentages",
			Difficulty:    DifficultyMedium,
		}
	}
	cfg := Config{
		Subject:    SubjectQuant,
		Topics:     []string{AllTopics},
		Difficulty: DifficultyMedium,
	}
	cfg.DeriveTimeLimit(n)
	return Snapshot{
		ID:        "sess-1",
		Config:    cfg,
		Questions: questions,
		StartedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		Status:    StatusActive,
	}
}

func answer(t *testing.T, c *Controller, option string) Record {
	t.Helper()
	if err := c.Select(option); err != nil {
		t.Fatalf("select: %v", err)
	}
	rec, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return rec
}

func TestRemainingDerivedFromStartTimestamp(t *testing.T) {
	snap := newTestSnapshot(5) // 5 x 30s = 150s budget
	clock := &fakeClock{now: snap.StartedAt}
	c := New(snap, clock, nil)

	if got := c.RemainingSec(); got != 150 {
		t.Fatalf("remaining at start = %d, want 150", got)
	}

	clock.advance(42 * time.Second)
	if got := c.RemainingSec(); got != 108 {
		t.Fatalf("remaining after 42s = %d, want 108", got)
	}

	// A delayed tick does not drift: the value is recomputed from the
	// absolute start time, not decremented.
	clock.advance(33 * time.Second)
	if got := c.Tick().RemainingSec; got != 75 {
		t.Fatalf("remaining after 75s = %d, want 75", got)
	}
}

func TestReloadReconstructsCountdown(t *testing.T) {
	snap := newTestSnapshot(5)
	clock := &fakeClock{now: snap.StartedAt}
	c := New(snap, clock, nil)

	clock.advance(40 * time.Second)
	before := c.RemainingSec()

	// Simulate a reload: a fresh controller from the same persisted
	// snapshot must land on the same countdown.
	reloaded := New(snap, clock, nil)
	after := reloaded.RemainingSec()

	if diff := before - after; diff < -1 || diff > 1 {
		t.Fatalf("reloaded remaining %d differs from live %d by more than 1s", after, before)
	}
}

func TestResumePastDeadlineTimesOut(t *testing.T) {
	snap := newTestSnapshot(5)
	clock := &fakeClock{now: snap.StartedAt.Add(151 * time.Second)}
	c := New(snap, clock, nil)

	if c.Status() != StatusTimedOut {
		t.Fatalf("status = %s, want TIMED_OUT", c.Status())
	}
}

func TestSubmitAdvancesIndexByOne(t *testing.T) {
	snap := newTestSnapshot(3)
	clock := &fakeClock{now: snap.StartedAt}
	c := New(snap, clock, nil)

	for i := 0; i < 3; i++ {
		if got := c.CurrentIndex(); got != i {
			t.Fatalf("index before submit %d = %d", i, got)
		}
		answer(t, c, "opt_1")
	}

	if got := c.CurrentIndex(); got != 3 {
		t.Fatalf("final index = %d, want 3", got)
	}
	if c.Status() != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", c.Status())
	}

	// Index never exceeds the question count.
	if _, err := c.Submit(); err != ErrNotActive {
		t.Fatalf("submit after completion: err = %v, want ErrNotActive", err)
	}
	if got := c.CurrentIndex(); got != 3 {
		t.Fatalf("index mutated after completion: %d", got)
	}
}

func TestSubmitWithoutSelectionRejected(t *testing.T) {
	snap := newTestSnapshot(2)
	clock := &fakeClock{now: snap.StartedAt}
	c := New(snap, clock, nil)

	if _, err := c.Submit(); err != ErrNoSelection {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
	if c.CurrentIndex() != 0 || len(c.Records()) != 0 {
		t.Fatal("state mutated by rejected submit")
	}
}

func TestSelectionClearsOnAdvance(t *testing.T) {
	snap := newTestSnapshot(2)
	clock := &fakeClock{now: snap.StartedAt}
	c := New(snap, clock, nil)

	answer(t, c, "opt_2")
	if c.Selected() != "" {
		t.Fatalf("selection carried over to next question: %q", c.Selected())
	}
}

func TestPerQuestionTimeIndependentOfCountdown(t *testing.T) {
	snap := newTestSnapshot(3)
	clock := &fakeClock{now: snap.StartedAt}
	c := New(snap, clock, nil)

	clock.advance(10 * time.Second)
	rec := answer(t, c, "opt_1")
	if rec.TimeMs != 10000 {
		t.Fatalf("q1 time = %dms, want 10000", rec.TimeMs)
	}

	// Marker resets on advance: 15s more on question 2.
	clock.advance(15 * time.Second)
	rec = answer(t, c, "opt_1")
	if rec.TimeMs != 15000 {
		t.Fatalf("q2 time = %dms, want 15000", rec.TimeMs)
	}

	if got := c.QuestionElapsed(); got != 0 {
		t.Fatalf("marker not reset, elapsed = %v", got)
	}
}

func TestFiveQuestionScenario(t *testing.T) {
	// 5 questions, 150s budget. Correct answers at t=10,25,40, skip at
	// t=50, wrong answer at t=70.
	snap := newTestSnapshot(5)
	clock := &fakeClock{now: snap.StartedAt}
	sink := &recordingSink{}
	c := New(snap, clock, sink)

	clock.advance(10 * time.Second)
	answer(t, c, "opt_1")
	clock.advance(15 * time.Second)
	answer(t, c, "opt_1")
	clock.advance(15 * time.Second)
	answer(t, c, "opt_1")

	clock.advance(10 * time.Second)
	if _, err := c.Skip(); err != nil {
		t.Fatalf("skip: %v", err)
	}

	clock.advance(20 * time.Second)
	answer(t, c, "opt_3") // wrong

	if c.Status() != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", c.Status())
	}
	records := c.Records()
	if len(records) != 5 {
		t.Fatalf("records = %d, want 5", len(records))
	}

	stats := ComputeStats(records, 5)
	if stats.Correct != 3 {
		t.Fatalf("correct = %d, want 3", stats.Correct)
	}
	if stats.Skipped != 1 || !records[3].Skipped() {
		t.Fatal("expected exactly Q4 to be skipped")
	}
	for i, rec := range records[:3] {
		if rec.Skipped() {
			t.Fatalf("record %d unexpectedly skipped", i)
		}
	}
	if sink.finalized != StatusCompleted {
		t.Fatalf("sink finalized with %s", sink.finalized)
	}
	if len(sink.attempts) != 4 || len(sink.skips) != 1 {
		t.Fatalf("sink saw %d attempts, %d skips", len(sink.attempts), len(sink.skips))
	}
}

func TestTimeoutFreezesSession(t *testing.T) {
	snap := newTestSnapshot(5)
	clock := &fakeClock{now: snap.StartedAt}
	sink := &recordingSink{}
	c := New(snap, clock, sink)

	clock.advance(20 * time.Second)
	answer(t, c, "opt_1")
	clock.advance(25 * time.Second)
	answer(t, c, "opt_2")

	// Clock runs out with three questions unanswered.
	clock.advance(105 * time.Second)
	state := c.Tick()

	if state.Status != StatusTimedOut {
		t.Fatalf("status = %s, want TIMED_OUT", state.Status)
	}
	if state.RemainingSec != 0 {
		t.Fatalf("remaining = %d, want 0", state.RemainingSec)
	}
	if got := c.CurrentIndex(); got != 2 {
		t.Fatalf("index after timeout = %d, want frozen at 2", got)
	}
	if got := len(c.Records()); got != 2 {
		t.Fatalf("records after timeout = %d, want 2", got)
	}

	// Timeout is one-shot; later ticks and mutations are no-ops.
	clock.advance(time.Second)
	c.Tick()
	if sink.finals != 1 {
		t.Fatalf("finalize fired %d times", sink.finals)
	}
	if err := c.Select("opt_1"); err != ErrNotActive {
		t.Fatalf("select after timeout: %v", err)
	}
	if _, err := c.Skip(); err != ErrNotActive {
		t.Fatalf("skip after timeout: %v", err)
	}
}

func TestSubmitAfterTimeoutIsRejectedNoOp(t *testing.T) {
	snap := newTestSnapshot(2)
	clock := &fakeClock{now: snap.StartedAt}
	c := New(snap, clock, nil)

	if err := c.Select("opt_1"); err != nil {
		t.Fatalf("select: %v", err)
	}

	// The clock reaches zero in the same second the user submits; the tick
	// is processed first, so the submit loses the race.
	clock.advance(60 * time.Second)
	c.Tick()

	if _, err := c.Submit(); err != ErrNotActive {
		t.Fatalf("err = %v, want ErrNotActive", err)
	}
	if len(c.Records()) != 0 {
		t.Fatal("record created after timeout")
	}
}

func TestEndEarlyNeedsConfirmation(t *testing.T) {
	snap := newTestSnapshot(5)
	clock := &fakeClock{now: snap.StartedAt}
	sink := &recordingSink{}
	c := New(snap, clock, sink)

	clock.advance(30 * time.Second)
	answer(t, c, "opt_1")
	clock.advance(30 * time.Second)
	answer(t, c, "opt_2")

	// A confirm without a request does nothing.
	if err := c.ConfirmEnd(); err != ErrEndNotRequested {
		t.Fatalf("confirm without request: %v", err)
	}

	if err := c.RequestEnd(); err != nil {
		t.Fatalf("request end: %v", err)
	}
	if !c.EndPending() {
		t.Fatal("end not pending after request")
	}
	if c.Status() != StatusActive {
		t.Fatal("request alone must not end the session")
	}

	if err := c.CancelEnd(); err != nil || c.EndPending() {
		t.Fatalf("cancel end: err=%v pending=%v", err, c.EndPending())
	}

	if err := c.RequestEnd(); err != nil {
		t.Fatalf("request end: %v", err)
	}
	if err := c.ConfirmEnd(); err != nil {
		t.Fatalf("confirm end: %v", err)
	}

	if c.Status() != StatusAbandoned {
		t.Fatalf("status = %s, want ABANDONED", c.Status())
	}
	if len(c.Records()) != 2 {
		t.Fatalf("records = %d, want 2", len(c.Records()))
	}
	if sink.finalized != StatusAbandoned {
		t.Fatalf("sink finalized with %s", sink.finalized)
	}

	// No further ticks mutate state.
	clock.advance(200 * time.Second)
	state := c.Tick()
	if state.Status != StatusAbandoned || sink.finals != 1 {
		t.Fatal("terminal state mutated by later tick")
	}
}

func TestDuplicateRecordLastWriteWins(t *testing.T) {
	snap := newTestSnapshot(3)
	clock := &fakeClock{now: snap.StartedAt}

	// A snapshot replay carrying two entries for the same question must
	// collapse to one record with the later value.
	snap.Records = []Record{
		{QuestionID: 1, SelectedOption: "opt_2", IsCorrect: false, TimeMs: 4000},
		{QuestionID: 1, SelectedOption: "opt_1", IsCorrect: true, TimeMs: 5000},
	}
	snap.CurrentIndex = 1
	c := New(snap, clock, nil)

	records := c.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if !records[0].IsCorrect || records[0].TimeMs != 5000 {
		t.Fatalf("last write did not win: %+v", records[0])
	}
}

func TestResumeNormalizesConsumedSnapshot(t *testing.T) {
	snap := newTestSnapshot(2)
	snap.CurrentIndex = 2 // everything consumed, terminal transition lost
	clock := &fakeClock{now: snap.StartedAt.Add(10 * time.Second)}
	c := New(snap, clock, nil)

	if c.Status() != StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", c.Status())
	}
}

func TestStateReportsProgress(t *testing.T) {
	snap := newTestSnapshot(4)
	clock := &fakeClock{now: snap.StartedAt}
	c := New(snap, clock, nil)

	clock.advance(12 * time.Second)
	answer(t, c, "opt_1")
	clock.advance(3 * time.Second)
	if err := c.Select("opt_4"); err != nil {
		t.Fatalf("select: %v", err)
	}

	state := c.State()
	if state.CurrentIndex != 1 || state.TotalQuestions != 4 {
		t.Fatalf("progress = %d/%d", state.CurrentIndex, state.TotalQuestions)
	}
	if state.ElapsedSec != 15 || state.RemainingSec != 105 {
		t.Fatalf("elapsed=%d remaining=%d", state.ElapsedSec, state.RemainingSec)
	}
	if state.QuestionElapsedSec != 3 {
		t.Fatalf("question elapsed = %d, want 3", state.QuestionElapsedSec)
	}
	if state.SelectedOption != "opt_4" || state.Answered != 1 {
		t.Fatalf("selected=%q answered=%d", state.SelectedOption, state.Answered)
	}
}
