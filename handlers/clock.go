// handlers/clock.go - Live sprint clock over WebSocket
//
// One connection drives one sprint session. The server owns the countdown:
// it ticks once per second, recomputes remaining time from the immutable
// start timestamp and pushes a state frame. The client sends action frames
// (select, submit, skip, end-early handshake) and renders whatever state
// comes back.
package handlers

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm/clause"

	"sprintprep/database"
	"sprintprep/metrics"
	"sprintprep/models"
	"sprintprep/services"
	"sprintprep/sprint"
)

type clockMessage struct {
	Action   string `json:"action"`
	OptionID string `json:"option_id,omitempty"`
}

type clockFrame struct {
	Type  string        `json:"type"`
	State *sprint.State `json:"state,omitempty"`
	Error string        `json:"error,omitempty"`

	// Set on answer/skip result frames
	QuestionID    uint   `json:"question_id,omitempty"`
	IsCorrect     bool   `json:"is_correct,omitempty"`
	CorrectOption string `json:"correct_option,omitempty"`
}

// SprintClockUpgrade rejects plain HTTP requests on the clock endpoint.
func SprintClockUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// SprintClock is the upgraded WebSocket handler.
var SprintClock = websocket.New(handleSprintClock)

func handleSprintClock(conn *websocket.Conn) {
	defer conn.Close()

	userID, ok := wsUserID(conn)
	if !ok {
		conn.WriteJSON(clockFrame{Type: "error", Error: "Unauthorized"})
		return
	}

	sessionID := conn.Params("id")
	db := database.GetDB()
	if db == nil {
		conn.WriteJSON(clockFrame{Type: "error", Error: "Database not available"})
		return
	}

	var session models.SprintSession
	if err := db.First(&session, "id = ? AND user_id = ?", sessionID, userID).Error; err != nil {
		conn.WriteJSON(clockFrame{Type: "error", Error: "Session not found"})
		return
	}

	questions, err := loadSessionQuestions(db, &session)
	if err != nil {
		conn.WriteJSON(clockFrame{Type: "error", Error: "Failed to load session"})
		return
	}
	ctrlQuestions := make([]sprint.Question, len(questions))
	for i, q := range questions {
		ctrlQuestions[i] = sprint.Question{
			ID:            q.ID,
			CorrectOption: q.CorrectOption,
			Topic:         q.TopicName,
			Difficulty:    sprint.Difficulty(q.Difficulty),
		}
	}

	var attempts []models.Attempt
	db.Where("session_id = ?", sessionID).Order("question_order").Find(&attempts)

	sink := &storeSink{userID: userID}
	ctrl := sprint.New(session.Snapshot(ctrlQuestions, attempts), nil, sink)

	// Resume may have normalized the status (budget already spent, or every
	// question consumed without a recorded transition).
	if ctrl.Status().Terminal() && !session.IsTerminal() {
		sink.Finalize(sessionID, ctrl.Status(), ctrl.Records())
	}

	log.Printf("🔌 Clock connected for sprint %s (user %d)", sessionID, userID)

	// done unblocks the reader when the tick loop returns first; closing the
	// connection (deferred above) unblocks its pending ReadJSON.
	messages := make(chan clockMessage)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(messages)
		for {
			var msg clockMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case messages <- msg:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	state := ctrl.Tick()
	if err := conn.WriteJSON(clockFrame{Type: "state", State: &state}); err != nil {
		return
	}
	if state.Status.Terminal() {
		return
	}

	for {
		select {
		case <-ticker.C:
			state := ctrl.Tick()
			if err := conn.WriteJSON(clockFrame{Type: "state", State: &state}); err != nil {
				return
			}
			if state.Status.Terminal() {
				return
			}

		case msg, ok := <-messages:
			if !ok {
				return
			}
			if terminal := applyClockAction(conn, ctrl, msg); terminal {
				return
			}
		}
	}
}

// applyClockAction handles one client frame. Returns true when the session
// reached a terminal status and the loop should stop.
func applyClockAction(conn *websocket.Conn, ctrl *sprint.Controller, msg clockMessage) bool {
	var actionErr error

	switch msg.Action {
	case "select":
		actionErr = ctrl.Select(msg.OptionID)

	case "submit":
		rec, err := ctrl.Submit()
		actionErr = err
		if err == nil {
			correct := ""
			if q := findQuestion(rec.QuestionID); q != nil {
				correct = q.CorrectOption
			}
			conn.WriteJSON(clockFrame{
				Type:          "result",
				QuestionID:    rec.QuestionID,
				IsCorrect:     rec.IsCorrect,
				CorrectOption: correct,
			})
		}

	case "skip":
		rec, err := ctrl.Skip()
		actionErr = err
		if err == nil {
			conn.WriteJSON(clockFrame{Type: "result", QuestionID: rec.QuestionID})
		}

	case "request_end":
		actionErr = ctrl.RequestEnd()
	case "cancel_end":
		actionErr = ctrl.CancelEnd()
	case "confirm_end":
		actionErr = ctrl.ConfirmEnd()

	default:
		conn.WriteJSON(clockFrame{Type: "error", Error: "Unknown action"})
		return false
	}

	if actionErr != nil {
		conn.WriteJSON(clockFrame{Type: "error", Error: actionErr.Error()})
	}

	state := ctrl.State()
	if err := conn.WriteJSON(clockFrame{Type: "state", State: &state}); err != nil {
		return true
	}
	return state.Status.Terminal()
}

// findQuestion resolves a question by id from the catalog; the controller
// only exposes the one under its pointer.
func findQuestion(questionID uint) *sprint.Question {
	db := database.GetDB()
	if db == nil {
		return nil
	}
	var q models.Question
	if err := db.First(&q, questionID).Error; err != nil {
		return nil
	}
	return &sprint.Question{
		ID:            q.ID,
		CorrectOption: q.CorrectOption,
		Topic:         q.TopicName,
		Difficulty:    sprint.Difficulty(q.Difficulty),
	}
}

// storeSink persists controller side effects. Writes run on their own
// goroutine so a slow store never stalls the tick loop; the mutex serializes
// them per session so a fast answer after a slow skip cannot interleave the
// read-rebuild-write sequence.
type storeSink struct {
	userID uint
	mu     sync.Mutex
}

func (s *storeSink) RecordAttempt(sessionID string, rec sprint.Record, order int) {
	go s.persist(sessionID, rec, order)
}

func (s *storeSink) RecordSkip(sessionID string, rec sprint.Record, order int) {
	go s.persist(sessionID, rec, order)
}

func (s *storeSink) Finalize(sessionID string, status sprint.Status, records []sprint.Record) {
	go func() {
		if err := services.FinalizeSession(sessionID, status); err != nil && err != services.ErrAlreadyFinished {
			log.Printf("Error finalizing session %s from clock: %v", sessionID, err)
		}
	}()
}

func (s *storeSink) persist(sessionID string, rec sprint.Record, order int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := database.GetDB()
	if db == nil {
		return
	}

	var session models.SprintSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		return
	}

	attempt := models.Attempt{
		UserID:         s.userID,
		SessionID:      sessionID,
		QuestionID:     rec.QuestionID,
		QuestionOrder:  order,
		SelectedOption: rec.SelectedOption,
		IsCorrect:      rec.IsCorrect,
		TimeMs:         rec.TimeMs,
		Subject:        session.Subject,
		TopicName:      rec.Topic,
		Difficulty:     string(rec.Difficulty),
		CreatedAt:      time.Now(),
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_option", "is_correct", "time_ms", "created_at",
		}),
	}).Create(&attempt).Error; err != nil {
		log.Printf("Error persisting attempt for session %s: %v", sessionID, err)
		return
	}

	// Rebuild the tracking list from the attempts table instead of patching
	// one entry, so the write carries every recorded mark even if another
	// writer touched the session in between.
	var attempts []models.Attempt
	if err := db.Where("session_id = ?", sessionID).Find(&attempts).Error; err != nil {
		return
	}
	if err := session.RebuildQuestionStatus(attempts); err != nil {
		return
	}

	db.Model(&models.SprintSession{}).
		Where("id = ? AND status = ?", sessionID, string(sprint.StatusActive)).
		Updates(map[string]interface{}{
			"question_status": session.QuestionStatusJSON,
			"current_index":   session.CurrentIndex,
			"correct_count":   session.CorrectCount,
			"total_time_ms":   session.TotalTimeMs,
		})

	result := "incorrect"
	if rec.Skipped() {
		result = "skipped"
	} else if rec.IsCorrect {
		result = "correct"
	}
	metrics.RecordAttempt(result, rec.TimeMs)
}

func wsUserID(conn *websocket.Conn) (uint, bool) {
	switch id := conn.Locals("userId").(type) {
	case float64:
		return uint(id), true
	case uint:
		return id, true
	default:
		return 0, false
	}
}
