// sprint/controller.go - Sprint session state machine
//
// The controller drives one sprint from ACTIVE to a terminal status. It owns
// the countdown (derived from the immutable start timestamp on every read),
// the current-question pointer, the per-question elapsed marker and the
// pending option selection. Persistence is delegated to a Sink and must never
// block a transition.
package sprint

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a sprint session.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusTimedOut  Status = "TIMED_OUT"
	StatusAbandoned Status = "ABANDONED"
)

// Terminal reports whether no further mutation is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusTimedOut || s == StatusAbandoned
}

var (
	ErrNotActive       = errors.New("sprint: session is not active")
	ErrNoSelection     = errors.New("sprint: no option selected")
	ErrNoQuestion      = errors.New("sprint: no current question")
	ErrEndNotRequested = errors.New("sprint: end was not requested")
)

// Question is the controller's view of a catalog question. Only the fields
// needed for scoring and analytics are carried here.
type Question struct {
	ID            uint       `json:"id"`
	CorrectOption string     `json:"correct_option"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
}

// Record is one per-question result. A session holds at most one record per
// question id; a retried write for the same id replaces the previous entry.
type Record struct {
	QuestionID     uint       `json:"question_id"`
	SelectedOption string     `json:"selected_option"`
	IsCorrect      bool       `json:"is_correct"`
	TimeMs         int64      `json:"time_ms"`
	Topic          string     `json:"topic"`
	Difficulty     Difficulty `json:"difficulty"`
}

// Skipped reports whether this record was a skip rather than an answer.
func (r Record) Skipped() bool { return r.SelectedOption == Skipped }

// Snapshot is the persisted view of a session used to build or resume a
// controller. StartedAt is captured once at creation and never changes, so a
// controller rebuilt from the same snapshot reconstructs the same countdown.
type Snapshot struct {
	ID           string
	Config       Config
	Questions    []Question
	StartedAt    time.Time
	CurrentIndex int
	Status       Status
	Records      []Record
}

// Sink receives persistence side effects. Implementations must not block:
// the controller calls these inline on its single logical thread, and a slow
// store must never stall the countdown or the user's next answer.
type Sink interface {
	RecordAttempt(sessionID string, rec Record, order int)
	RecordSkip(sessionID string, rec Record, order int)
	Finalize(sessionID string, status Status, records []Record)
}

// State is the controller's presentation snapshot, recomputed on every tick.
type State struct {
	SessionID          string `json:"session_id"`
	Status             Status `json:"status"`
	CurrentIndex       int    `json:"current_index"`
	TotalQuestions     int    `json:"total_questions"`
	ElapsedSec         int    `json:"elapsed_sec"`
	RemainingSec       int    `json:"remaining_sec"`
	QuestionElapsedSec int    `json:"question_elapsed_sec"`
	SelectedOption     string `json:"selected_option,omitempty"`
	EndPending         bool   `json:"end_pending,omitempty"`
	Answered           int    `json:"answered"`
}

// Controller drives one sprint session. It is not safe for concurrent use;
// all mutation happens on a single logical thread (one tick source per
// session), so no locking is needed.
type Controller struct {
	clock Clock
	sink  Sink

	id        string
	config    Config
	questions []Question
	startedAt time.Time

	current  int
	status   Status
	records  []Record
	recorded map[uint]int // question id -> index into records

	selected      string
	questionStart time.Time
	endPending    bool
}

// New builds a controller from a snapshot. A nil clock means the system
// clock; a nil sink means no persistence side effects (tests).
//
// Resuming is the same operation as starting: remaining time is derived from
// now - StartedAt, so a page reload or process restart lands on the correct
// countdown. If the budget is already exhausted on resume the controller
// transitions straight to TIMED_OUT.
func New(snap Snapshot, clock Clock, sink Sink) *Controller {
	if clock == nil {
		clock = SystemClock()
	}

	c := &Controller{
		clock:     clock,
		sink:      sink,
		id:        snap.ID,
		config:    snap.Config,
		questions: snap.Questions,
		startedAt: snap.StartedAt,
		current:   snap.CurrentIndex,
		status:    snap.Status,
		recorded:  make(map[uint]int),
	}

	if c.status == "" {
		c.status = StatusActive
	}
	if c.current < 0 {
		c.current = 0
	}
	if c.current > len(c.questions) {
		c.current = len(c.questions)
	}

	for _, rec := range snap.Records {
		c.append(rec)
	}

	// The per-question marker restarts on resume; time spent before the
	// reload is already captured in the persisted records.
	c.questionStart = clock.Now()

	if c.status == StatusActive {
		if c.current >= len(c.questions) {
			// Snapshot says every question was consumed but the terminal
			// transition never landed. Normalize instead of ticking forever.
			c.status = StatusCompleted
		} else if c.RemainingSec() <= 0 {
			c.status = StatusTimedOut
		}
	}

	return c
}

func (c *Controller) ID() string           { return c.id }
func (c *Controller) Config() Config       { return c.config }
func (c *Controller) Status() Status       { return c.status }
func (c *Controller) StartedAt() time.Time { return c.startedAt }
func (c *Controller) CurrentIndex() int    { return c.current }
func (c *Controller) Selected() string     { return c.selected }
func (c *Controller) EndPending() bool     { return c.endPending }

// Records returns a copy of the per-question results recorded so far.
func (c *Controller) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Current returns the question under the pointer, if any.
func (c *Controller) Current() (Question, bool) {
	if c.current < 0 || c.current >= len(c.questions) {
		return Question{}, false
	}
	return c.questions[c.current], true
}

// ElapsedSec is whole seconds since the session started.
func (c *Controller) ElapsedSec() int {
	return int(c.clock.Now().Sub(c.startedAt) / time.Second)
}

// RemainingSec is the countdown value: max(0, budget - elapsed). It is
// recomputed from absolute time on every call, so delayed ticks, background
// throttling or a remount self-correct on the next read.
func (c *Controller) RemainingSec() int {
	total := int(c.config.TimeLimit() / time.Second)
	rem := total - c.ElapsedSec()
	if rem < 0 {
		rem = 0
	}
	return rem
}

// QuestionElapsed is time spent on the current question, measured from its
// own marker, independent of the global countdown.
func (c *Controller) QuestionElapsed() time.Duration {
	return c.clock.Now().Sub(c.questionStart)
}

// Select stages an option for the current question. Nothing is committed
// until Submit.
func (c *Controller) Select(optionID string) error {
	if c.status != StatusActive {
		return ErrNotActive
	}
	if _, ok := c.Current(); !ok {
		return ErrNoQuestion
	}
	c.selected = optionID
	return nil
}

// Submit commits the staged selection for the current question, advances the
// pointer and reports the record. Rejected with ErrNoSelection when no option
// is staged; rejected with ErrNotActive once the session is terminal, which
// also resolves the submit-vs-timeout race in favor of whichever transition
// landed first.
func (c *Controller) Submit() (Record, error) {
	if c.status != StatusActive {
		return Record{}, ErrNotActive
	}
	q, ok := c.Current()
	if !ok {
		return Record{}, ErrNoQuestion
	}
	if c.selected == "" {
		return Record{}, ErrNoSelection
	}

	rec := Record{
		QuestionID:     q.ID,
		SelectedOption: c.selected,
		IsCorrect:      c.selected == q.CorrectOption,
		TimeMs:         c.QuestionElapsed().Milliseconds(),
		Topic:          q.Topic,
		Difficulty:     q.Difficulty,
	}
	order := c.current + 1
	c.append(rec)
	c.advance()

	if c.sink != nil {
		c.sink.RecordAttempt(c.id, rec, order)
	}
	return rec, nil
}

// Skip records the current question as skipped and advances identically to
// Submit. No staged selection is required.
func (c *Controller) Skip() (Record, error) {
	if c.status != StatusActive {
		return Record{}, ErrNotActive
	}
	q, ok := c.Current()
	if !ok {
		return Record{}, ErrNoQuestion
	}

	rec := Record{
		QuestionID:     q.ID,
		SelectedOption: Skipped,
		IsCorrect:      false,
		TimeMs:         c.QuestionElapsed().Milliseconds(),
		Topic:          q.Topic,
		Difficulty:     q.Difficulty,
	}
	order := c.current + 1
	c.append(rec)
	c.advance()

	if c.sink != nil {
		c.sink.RecordSkip(c.id, rec, order)
	}
	return rec, nil
}

// Tick recomputes the countdown and fires the one-shot timeout transition
// when the budget is exhausted. Callers run this once per second; a late or
// coalesced tick still lands on the correct value because nothing is
// decremented. The returned state is what the presentation layer renders.
func (c *Controller) Tick() State {
	if c.status == StatusActive && c.RemainingSec() <= 0 {
		c.terminate(StatusTimedOut)
	}
	return c.State()
}

// RequestEnd marks the user's intent to end the sprint early. The session
// stays ACTIVE until ConfirmEnd; the pending flag is what the confirmation
// dialog renders.
func (c *Controller) RequestEnd() error {
	if c.status != StatusActive {
		return ErrNotActive
	}
	c.endPending = true
	return nil
}

// CancelEnd withdraws a pending end request.
func (c *Controller) CancelEnd() error {
	if c.status != StatusActive {
		return ErrNotActive
	}
	c.endPending = false
	return nil
}

// ConfirmEnd abandons the sprint. Requires a prior RequestEnd so a stray
// confirm frame can never end a session on its own.
func (c *Controller) ConfirmEnd() error {
	if c.status != StatusActive {
		return ErrNotActive
	}
	if !c.endPending {
		return ErrEndNotRequested
	}
	c.terminate(StatusAbandoned)
	return nil
}

// State builds the presentation snapshot from current wall-clock reads.
func (c *Controller) State() State {
	return State{
		SessionID:          c.id,
		Status:             c.status,
		CurrentIndex:       c.current,
		TotalQuestions:     len(c.questions),
		ElapsedSec:         c.ElapsedSec(),
		RemainingSec:       c.RemainingSec(),
		QuestionElapsedSec: int(c.QuestionElapsed() / time.Second),
		SelectedOption:     c.selected,
		EndPending:         c.endPending,
		Answered:           len(c.records),
	}
}

// append stores a record, replacing any previous entry for the same question
// id (last-write-wins keeps retried persistence idempotent).
func (c *Controller) append(rec Record) {
	if i, ok := c.recorded[rec.QuestionID]; ok {
		c.records[i] = rec
		return
	}
	c.recorded[rec.QuestionID] = len(c.records)
	c.records = append(c.records, rec)
}

// advance moves the pointer forward. Sprint mode never decrements it; the
// untimed practice mode that allows back-navigation lives outside this
// package. Consuming the last question completes the session.
func (c *Controller) advance() {
	c.current++
	c.selected = ""
	if c.current >= len(c.questions) {
		c.terminate(StatusCompleted)
		return
	}
	c.questionStart = c.clock.Now()
}

// terminate performs the one-shot transition out of ACTIVE. Unanswered
// questions are left without records; the scoring layer treats them as
// not attempted.
func (c *Controller) terminate(status Status) {
	if c.status.Terminal() {
		return
	}
	c.status = status
	c.selected = ""
	c.endPending = false
	if c.sink != nil {
		c.sink.Finalize(c.id, c.status, c.Records())
	}
}
