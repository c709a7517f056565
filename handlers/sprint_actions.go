// handlers/sprint_actions.go - In-run mutations: attempts, skips, terminal transitions
package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"

	"sprintprep/database"
	"sprintprep/metrics"
	"sprintprep/middleware"
	"sprintprep/models"
	"sprintprep/services"
	"sprintprep/sprint"
)

type AttemptRequest struct {
	QuestionID     uint   `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	TimeMs         int64  `json:"time_ms"`
}

type SkipRequest struct {
	QuestionID uint  `json:"question_id"`
	TimeMs     int64 `json:"time_ms"`
}

// RecordAttempt grades and stores one answer. Retrying the same question
// overwrites the earlier row instead of creating a duplicate, so flaky
// clients can resend safely.
func RecordAttempt(c *fiber.Ctx) error {
	var req AttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if req.SelectedOption == "" || req.SelectedOption == sprint.Skipped {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "An answer option is required"})
	}
	return recordInteraction(c, req.QuestionID, req.SelectedOption, req.TimeMs)
}

// RecordSkip stores an explicit skip for one question.
func RecordSkip(c *fiber.Ctx) error {
	var req SkipRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	return recordInteraction(c, req.QuestionID, sprint.Skipped, req.TimeMs)
}

func recordInteraction(c *fiber.Ctx, questionID uint, selectedOption string, timeMs int64) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Database not available"})
	}

	session, err := loadOwnedSession(db, c.Params("id"), userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Session not found"})
	}
	if session.IsTerminal() {
		return c.Status(409).JSON(fiber.Map{"success": false, "error": "Session is no longer active"})
	}

	ids, err := session.GetQuestionIDs()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load session"})
	}
	order := 0
	for i, id := range ids {
		if id == questionID {
			order = i + 1
			break
		}
	}
	if order == 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Question does not belong to this session"})
	}

	var question models.Question
	if err := db.First(&question, questionID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Question not found"})
	}

	skipped := selectedOption == sprint.Skipped
	isCorrect := !skipped && selectedOption == question.CorrectOption
	if timeMs < 0 {
		timeMs = 0
	}

	attempt := models.Attempt{
		UserID:         userID,
		SessionID:      session.ID,
		QuestionID:     questionID,
		QuestionOrder:  order,
		SelectedOption: selectedOption,
		IsCorrect:      isCorrect,
		TimeMs:         timeMs,
		Subject:        question.Subject,
		TopicName:      question.TopicName,
		Difficulty:     question.Difficulty,
		CreatedAt:      time.Now(),
	}

	// Last write wins on (session_id, question_id)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_option", "is_correct", "time_ms", "created_at",
		}),
	}).Create(&attempt).Error; err != nil {
		log.Printf("Error recording attempt for session %s: %v", session.ID, err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to record attempt"})
	}

	// Tracking list and counters are recomputed from the attempts table
	// rather than patched in place, so a retried or concurrent write cannot
	// drop another question's mark or double-count.
	var attempts []models.Attempt
	if err := db.Where("session_id = ?", session.ID).Find(&attempts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to update session"})
	}
	if err := session.RebuildQuestionStatus(attempts); err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to update session"})
	}

	if err := db.Model(&models.SprintSession{}).
		Where("id = ? AND status = ?", session.ID, string(sprint.StatusActive)).
		Updates(map[string]interface{}{
			"question_status": session.QuestionStatusJSON,
			"current_index":   session.CurrentIndex,
			"correct_count":   session.CorrectCount,
			"total_time_ms":   session.TotalTimeMs,
		}).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to update session"})
	}

	result := "skipped"
	if !skipped {
		if isCorrect {
			result = "correct"
		} else {
			result = "incorrect"
		}
	}
	metrics.RecordAttempt(result, timeMs)

	return c.JSON(fiber.Map{
		"success":        true,
		"is_correct":     isCorrect,
		"correct_option": question.CorrectOption,
		"current_index":  session.CurrentIndex,
		"correct_count":  session.CorrectCount,
	})
}

// CompleteSprint finalizes a session the user answered to the end.
func CompleteSprint(c *fiber.Ctx) error {
	return finishSprint(c, sprint.StatusCompleted)
}

// AbandonSprint finalizes a session the user ended early.
func AbandonSprint(c *fiber.Ctx) error {
	return finishSprint(c, sprint.StatusAbandoned)
}

// TimeoutSprint finalizes a session whose clock ran out. The cleanup sweep
// will also catch it eventually; the client call just makes it immediate.
func TimeoutSprint(c *fiber.Ctx) error {
	return finishSprint(c, sprint.StatusTimedOut)
}

func finishSprint(c *fiber.Ctx, status sprint.Status) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	db := database.GetDB()
	session, err := loadOwnedSession(db, c.Params("id"), userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Session not found"})
	}

	if err := services.FinalizeSession(session.ID, status); err != nil {
		if err == services.ErrAlreadyFinished {
			// Whichever transition landed first stands; report it.
			db.First(session, "id = ?", session.ID)
			return c.JSON(fiber.Map{"success": true, "status": session.Status, "already_finished": true})
		}
		log.Printf("Error finalizing session %s: %v", session.ID, err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to finish session"})
	}

	db.First(session, "id = ?", session.ID)
	stats, _ := session.GetStats()

	return c.JSON(fiber.Map{
		"success": true,
		"status":  session.Status,
		"stats":   stats,
	})
}
