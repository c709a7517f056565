// handlers/practice.go - Untimed practice question selection
package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"sprintprep/database"
	"sprintprep/models"
	"sprintprep/sprint"
)

// GetPracticeQuestions returns a random batch of live questions without a
// session or a clock. Same filters as a sprint; no state is created.
func GetPracticeQuestions(c *fiber.Ctx) error {
	subject := c.Query("subject")
	if !sprint.Subject(subject).Valid() {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Valid subject query parameter required"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Database not available"})
	}

	query := db.Where("is_live = ? AND subject = ?", true, subject)
	if topic := c.Query("topic"); topic != "" && topic != sprint.AllTopics {
		query = query.Where("topic_name = ?", topic)
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		d := sprint.Difficulty(difficulty)
		if !d.Valid() {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid difficulty"})
		}
		if d != sprint.DifficultyMixed {
			query = query.Where("difficulty = ?", difficulty)
		}
	}

	var questions []models.Question
	if err := query.Order("RANDOM()").Limit(limit).Find(&questions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load questions"})
	}

	payloads := make([]fiber.Map, 0, len(questions))
	for _, q := range questions {
		options, err := q.GetOptions()
		if err != nil {
			continue
		}
		// Practice mode grades client-side, so the answer ships with the question
		payloads = append(payloads, fiber.Map{
			"id":             q.ID,
			"text":           q.Text,
			"options":        options,
			"correct_option": q.CorrectOption,
			"topic_name":     q.TopicName,
			"difficulty":     q.Difficulty,
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"questions": payloads,
		"count":     len(payloads),
	})
}
