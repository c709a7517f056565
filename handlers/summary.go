// handlers/summary.go - Post-sprint summary and sprint history
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"sprintprep/database"
	"sprintprep/middleware"
	"sprintprep/models"
	"sprintprep/sprint"
)

// GetSummary returns the scorecard of a finished sprint: aggregate stats,
// topic breakdown and the pacing analysis. Active sessions have no summary
// yet.
func GetSummary(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	db := database.GetDB()
	session, err := loadOwnedSession(db, c.Params("id"), userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Session not found"})
	}
	if !session.IsTerminal() {
		return c.Status(409).JSON(fiber.Map{"success": false, "error": "Session is still active"})
	}

	stats, err := session.GetStats()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load summary"})
	}
	perf, err := session.GetTopicPerformance()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load summary"})
	}

	timeAnalysis := sprint.AnalyzeTime(stats, sprint.Difficulty(session.Difficulty))
	topics, _ := session.GetTopics()

	return c.JSON(fiber.Map{
		"success": true,
		"session": fiber.Map{
			"id":             session.ID,
			"subject":        session.Subject,
			"topics":         topics,
			"difficulty":     session.Difficulty,
			"question_count": session.QuestionCount,
			"status":         session.Status,
			"started_at":     session.StartedAt,
			"completed_at":   session.CompletedAt,
		},
		"stats":             stats,
		"topic_performance": perf,
		"time_analysis":     timeAnalysis,
	})
}

// GetHistory lists the user's finished sprints, newest first, with overall
// aggregates. Supports ?subject= filtering and limit/offset paging.
func GetHistory(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	db := database.GetDB()
	query := db.Model(&models.SprintSession{}).
		Where("user_id = ? AND status <> ?", userID, string(sprint.StatusActive))
	if subject := c.Query("subject"); subject != "" {
		if !sprint.Subject(subject).Valid() {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid subject"})
		}
		query = query.Where("subject = ?", subject)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load history"})
	}

	var sessions []models.SprintSession
	if err := query.Order("started_at DESC").Limit(limit).Offset(offset).Find(&sessions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load history"})
	}

	entries := make([]fiber.Map, 0, len(sessions))
	totalCorrect, totalQuestions := 0, 0
	for _, s := range sessions {
		stats, _ := s.GetStats()
		totalCorrect += stats.Correct
		totalQuestions += s.QuestionCount
		entries = append(entries, fiber.Map{
			"id":             s.ID,
			"subject":        s.Subject,
			"difficulty":     s.Difficulty,
			"question_count": s.QuestionCount,
			"status":         s.Status,
			"accuracy":       stats.Accuracy,
			"correct":        stats.Correct,
			"total_time_ms":  s.TotalTimeMs,
			"started_at":     s.StartedAt,
			"completed_at":   s.CompletedAt,
		})
	}

	overallAccuracy := 0
	if totalQuestions > 0 {
		overallAccuracy = totalCorrect * 100 / totalQuestions
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"sessions": entries,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"aggregates": fiber.Map{
			"total_correct":    totalCorrect,
			"total_questions":  totalQuestions,
			"overall_accuracy": overallAccuracy,
		},
	})
}
