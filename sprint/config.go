// sprint/config.go - Sprint configuration and difficulty timing
package sprint

import (
	"errors"
	"time"
)

// Subject is the exam section a sprint draws questions from.
type Subject string

const (
	SubjectQuant     Subject = "QUANT"
	SubjectReasoning Subject = "REASONING"
)

func (s Subject) Valid() bool {
	return s == SubjectQuant || s == SubjectReasoning
}

// Difficulty controls the per-question time budget.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
	DifficultyMixed  Difficulty = "MIXED"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		return true
	}
	return false
}

// TimePerQuestion returns the time allotted for a single question at this
// difficulty. Unknown difficulties fall back to the MIXED budget.
func (d Difficulty) TimePerQuestion() time.Duration {
	switch d {
	case DifficultyEasy:
		return 40 * time.Second
	case DifficultyHard:
		return 25 * time.Second
	default: // MEDIUM, MIXED
		return 30 * time.Second
	}
}

// AllTopics is the topic sentinel meaning "no topic filter".
const AllTopics = "ALL"

// Skipped is the selected-option sentinel recorded when a question is skipped.
const Skipped = "SKIPPED"

var (
	ErrInvalidSubject    = errors.New("sprint: invalid subject")
	ErrInvalidDifficulty = errors.New("sprint: invalid difficulty")
	ErrNoTopics          = errors.New("sprint: at least one topic is required")
	ErrInvalidCount      = errors.New("sprint: question count must be positive")
)

// Config describes what a sprint covers. It is fixed at session creation.
type Config struct {
	Subject       Subject    `json:"subject"`
	Topics        []string   `json:"topics"`
	Difficulty    Difficulty `json:"difficulty"`
	QuestionCount int        `json:"question_count"`
	TimeLimitMs   int64      `json:"time_limit_ms"`
}

// Validate rejects configurations the controller could never run.
func (c Config) Validate() error {
	if !c.Subject.Valid() {
		return ErrInvalidSubject
	}
	if !c.Difficulty.Valid() {
		return ErrInvalidDifficulty
	}
	if len(c.Topics) == 0 {
		return ErrNoTopics
	}
	if c.QuestionCount <= 0 {
		return ErrInvalidCount
	}
	return nil
}

// CoversAllTopics reports whether the config carries the ALL sentinel.
func (c Config) CoversAllTopics() bool {
	for _, t := range c.Topics {
		if t == AllTopics {
			return true
		}
	}
	return false
}

// DeriveTimeLimit fixes the total budget from the actual number of questions
// served. Called once at session creation, before the clock starts.
func (c *Config) DeriveTimeLimit(questionCount int) {
	c.QuestionCount = questionCount
	c.TimeLimitMs = int64(questionCount) * c.Difficulty.TimePerQuestion().Milliseconds()
}

// TimeLimit returns the total wall-clock budget for the sprint.
func (c Config) TimeLimit() time.Duration {
	if c.TimeLimitMs > 0 {
		return time.Duration(c.TimeLimitMs) * time.Millisecond
	}
	return time.Duration(c.QuestionCount) * c.Difficulty.TimePerQuestion()
}
