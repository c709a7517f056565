// models/models.go - Question catalog models
package models

import (
	"encoding/json"
	"time"
)

// Topic represents a question topic (pattern) within a subject.
type Topic struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:100;uniqueIndex:idx_topic_subject"`
	Code      string    `json:"code" gorm:"size:20"`
	Subject   string    `json:"subject" gorm:"not null;size:20;index;uniqueIndex:idx_topic_subject"`
	CreatedAt time.Time `json:"created_at"`
}

// Question represents one multiple-choice question in the catalog.
type Question struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Subject       string    `json:"subject" gorm:"not null;size:20;index"`
	TopicID       uint      `json:"topic_id" gorm:"index"`
	Topic         *Topic    `json:"topic,omitempty" gorm:"foreignKey:TopicID"`
	TopicName     string    `json:"topic_name" gorm:"size:100;index"`
	Text          string    `json:"text" gorm:"not null;type:text"`
	OptionsJSON   string    `json:"-" gorm:"column:options;not null;type:text"`
	CorrectOption string    `json:"correct_option" gorm:"not null;size:20"`
	Difficulty    string    `json:"difficulty" gorm:"default:'MEDIUM';size:20;index"`
	IsLive        bool      `json:"is_live" gorm:"default:true;index"`
	CreatedAt     time.Time `json:"created_at"`
}

// Option is one answer choice. IDs follow the "opt_N" convention.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (q *Question) GetOptions() ([]Option, error) {
	var options []Option
	if q.OptionsJSON == "" {
		return options, nil
	}
	err := json.Unmarshal([]byte(q.OptionsJSON), &options)
	return options, err
}

func (q *Question) SetOptions(options []Option) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	q.OptionsJSON = string(data)
	return nil
}

// Attempt is one recorded interaction with a question inside a sprint
// session. SelectedOption is the "SKIPPED" sentinel for skips. The unique
// (session_id, question_id) index makes retried writes idempotent.
type Attempt struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"not null;index"`
	SessionID      string    `json:"session_id" gorm:"not null;size:36;uniqueIndex:idx_session_question"`
	QuestionID     uint      `json:"question_id" gorm:"not null;uniqueIndex:idx_session_question"`
	QuestionOrder  int       `json:"question_order" gorm:"default:0"`
	SelectedOption string    `json:"selected_option" gorm:"not null;size:100"`
	IsCorrect      bool      `json:"is_correct" gorm:"default:false"`
	TimeMs         int64     `json:"time_ms" gorm:"default:0"`
	Subject        string    `json:"subject" gorm:"size:20"`
	TopicName      string    `json:"topic_name" gorm:"size:100;index"`
	Difficulty     string    `json:"difficulty" gorm:"size:20"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Topic) TableName() string {
	return "topics"
}

func (Question) TableName() string {
	return "questions"
}

func (Attempt) TableName() string {
	return "attempts"
}
