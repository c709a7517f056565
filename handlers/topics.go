// handlers/topics.go - Topic listing for the sprint setup screen
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"sprintprep/database"
	"sprintprep/models"
	"sprintprep/sprint"
)

// GetSprintTopics lists the topics of a subject with live question counts,
// so the setup screen only offers topics that can actually fill a sprint.
func GetSprintTopics(c *fiber.Ctx) error {
	subject := c.Query("subject")
	if !sprint.Subject(subject).Valid() {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Valid subject query parameter required"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Database not available"})
	}

	var counts []struct {
		TopicName string `json:"topic_name"`
		Count     int64  `json:"count"`
	}
	if err := db.Model(&models.Question{}).
		Select("topic_name, COUNT(*) as count").
		Where("subject = ? AND is_live = ?", subject, true).
		Group("topic_name").
		Order("topic_name").
		Scan(&counts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load topics"})
	}

	var topics []models.Topic
	if err := db.Where("subject = ?", subject).Order("name").Find(&topics).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load topics"})
	}
	codeByName := make(map[string]string, len(topics))
	for _, t := range topics {
		codeByName[t.Name] = t.Code
	}

	entries := make([]fiber.Map, 0, len(counts))
	totalQuestions := int64(0)
	for _, row := range counts {
		totalQuestions += row.Count
		entries = append(entries, fiber.Map{
			"name":           row.TopicName,
			"code":           codeByName[row.TopicName],
			"question_count": row.Count,
		})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"subject":         subject,
		"topics":          entries,
		"total_questions": totalQuestions,
	})
}
