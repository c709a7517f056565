// handlers/stats.go - User dashboard statistics
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"sprintprep/database"
	"sprintprep/middleware"
	"sprintprep/models"
	"sprintprep/sprint"
)

// GetUserStats aggregates the signed-in user's sprint record for the
// dashboard: lifetime totals, streaks and per-subject accuracy.
func GetUserStats(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Database not available"})
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "User not found"})
	}

	type subjectRow struct {
		Subject string
		Total   int64
		Correct int64
	}
	var rows []subjectRow
	db.Model(&models.Attempt{}).
		Select("subject, COUNT(*) as total, SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) as correct").
		Where("user_id = ? AND selected_option <> ?", userID, sprint.Skipped).
		Group("subject").
		Scan(&rows)

	subjects := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		accuracy := 0
		if row.Total > 0 {
			accuracy = int(row.Correct * 100 / row.Total)
		}
		subjects = append(subjects, fiber.Map{
			"subject":  row.Subject,
			"answered": row.Total,
			"correct":  row.Correct,
			"accuracy": accuracy,
		})
	}

	var activeSessions int64
	db.Model(&models.SprintSession{}).
		Where("user_id = ? AND status = ?", userID, string(sprint.StatusActive)).
		Count(&activeSessions)

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"total_sprints":   user.TotalSprints,
			"best_accuracy":   user.BestAccuracy,
			"current_streak":  user.CurrentStreak,
			"best_streak":     user.BestStreak,
			"active_sessions": activeSessions,
			"subjects":        subjects,
			"last_activity":   user.LastActivity,
		},
	})
}
