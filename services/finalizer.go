// services/finalizer.go - Terminal transition for sprint sessions
package services

import (
	"fmt"
	"log"
	"time"

	"sprintprep/database"
	"sprintprep/metrics"
	"sprintprep/models"
	"sprintprep/sprint"
)

// ErrAlreadyFinished is returned when a terminal transition is requested for
// a session that already left ACTIVE. Callers treat it as a no-op, not a
// failure: whichever transition landed first is authoritative.
var ErrAlreadyFinished = fmt.Errorf("session already finished")

// FinalizeSession moves a session to a terminal status and precomputes its
// summary from the recorded attempts. Safe to call from the REST handlers,
// the live clock and the cleanup sweeper; only the first caller wins.
func FinalizeSession(sessionID string, status sprint.Status) error {
	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database not available")
	}

	var session models.SprintSession
	if err := db.First(&session, "id = ?", sessionID).Error; err != nil {
		return err
	}
	if session.IsTerminal() {
		return ErrAlreadyFinished
	}

	var attempts []models.Attempt
	if err := db.Where("session_id = ?", sessionID).Order("question_order").Find(&attempts).Error; err != nil {
		return err
	}

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

	stats := sprint.ComputeStats(records, session.QuestionCount)
	perf := sprint.ComputeTopicPerformance(records)

	now := time.Now()
	session.Status = string(status)
	session.CompletedAt = &now
	session.CorrectCount = stats.Correct
	session.TotalTimeMs = stats.TotalTimeMs
	if err := session.SetStats(stats); err != nil {
		return err
	}
	if err := session.SetTopicPerformance(perf); err != nil {
		return err
	}

	// Guard on status so two racing finalizers cannot both win.
	result := db.Model(&models.SprintSession{}).
		Where("id = ? AND status = ?", sessionID, string(sprint.StatusActive)).
		Updates(map[string]interface{}{
			"status":            session.Status,
			"completed_at":      session.CompletedAt,
			"correct_count":     session.CorrectCount,
			"total_time_ms":     session.TotalTimeMs,
			"stats":             session.StatsJSON,
			"topic_performance": session.TopicPerformanceJSON,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyFinished
	}

	metrics.RecordSprintFinished(string(status))
	updateUserSprintStats(session.UserID, status, stats)

	log.Printf("🏁 Sprint %s finalized as %s (%d/%d correct)",
		sessionID, status, stats.Correct, stats.TotalQuestions)
	return nil
}

// updateUserSprintStats refreshes the denormalized dashboard counters.
func updateUserSprintStats(userID uint, status sprint.Status, stats sprint.Stats) {
	db := database.GetDB()
	if db == nil {
		return
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return
	}

	user.TotalSprints++
	if status == sprint.StatusCompleted {
		user.CurrentStreak++
		if user.CurrentStreak > user.BestStreak {
			user.BestStreak = user.CurrentStreak
		}
	} else {
		user.CurrentStreak = 0
	}
	if stats.Accuracy > user.BestAccuracy {
		user.BestAccuracy = stats.Accuracy
	}

	if err := db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"total_sprints":  user.TotalSprints,
		"best_accuracy":  user.BestAccuracy,
		"current_streak": user.CurrentStreak,
		"best_streak":    user.BestStreak,
	}).Error; err != nil {
		log.Printf("Failed to update stats for user %d: %v", userID, err)
	}
}
