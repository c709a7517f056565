package sprint

import (
	"testing"
	"time"
)

func TestTimePerQuestion(t *testing.T) {
	tests := []struct {
		difficulty Difficulty
		want       time.Duration
	}{
		{DifficultyEasy, 40 * time.Second},
		{DifficultyMedium, 30 * time.Second},
		{DifficultyHard, 25 * time.Second},
		{DifficultyMixed, 30 * time.Second},
		{Difficulty("BOGUS"), 30 * time.Second}, // falls back to mixed
	}
	for _, tt := range tests {
		if got := tt.difficulty.TimePerQuestion(); got != tt.want {
			t.Errorf("%s: time per question = %v, want %v", tt.difficulty, got, tt.want)
		}
	}
}

func TestDeriveTimeLimit(t *testing.T) {
	cfg := Config{Subject: SubjectQuant, Topics: []string{AllTopics}, Difficulty: DifficultyHard}
	cfg.DeriveTimeLimit(10)

	if cfg.TimeLimitMs != 250000 {
		t.Errorf("time limit = %dms, want 250000", cfg.TimeLimitMs)
	}
	if cfg.TimeLimit() != 250*time.Second {
		t.Errorf("time limit = %v, want 250s", cfg.TimeLimit())
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Subject:       SubjectReasoning,
		Topics:        []string{"Syllogisms"},
		Difficulty:    DifficultyEasy,
		QuestionCount: 10,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"bad subject", func(c *Config) { c.Subject = "HISTORY" }, ErrInvalidSubject},
		{"bad difficulty", func(c *Config) { c.Difficulty = "IMPOSSIBLE" }, ErrInvalidDifficulty},
		{"no topics", func(c *Config) { c.Topics = nil }, ErrNoTopics},
		{"zero questions", func(c *Config) { c.QuestionCount = 0 }, ErrInvalidCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err != tt.want {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCoversAllTopics(t *testing.T) {
	cfg := Config{Topics: []string{"Ratios", AllTopics}}
	if !cfg.CoversAllTopics() {
		t.Error("ALL sentinel not detected")
	}
	cfg.Topics = []string{"Ratios"}
	if cfg.CoversAllTopics() {
		t.Error("false positive without sentinel")
	}
}
