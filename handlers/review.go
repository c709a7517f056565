// handlers/review.go - Per-question post-sprint review
package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"sprintprep/database"
	"sprintprep/middleware"
	"sprintprep/models"
	"sprintprep/sprint"
)

// ReviewQuestion is one question of the review screen: full catalog content
// (the answer included, the run is over) merged with the user's outcome.
type ReviewQuestion struct {
	QuestionID     uint            `json:"question_id"`
	Order          int             `json:"order"`
	Text           string          `json:"text"`
	Options        []models.Option `json:"options"`
	CorrectOption  string          `json:"correct_option"`
	TopicName      string          `json:"topic_name"`
	Difficulty     string          `json:"difficulty"`
	Status         string          `json:"status"`
	SelectedOption string          `json:"selected_option,omitempty"`
	TimeMs         int64           `json:"time_ms"`
}

func validReviewFilter(filter string) bool {
	switch filter {
	case "ALL", sprint.OutcomeCorrect, sprint.OutcomeIncorrect,
		sprint.OutcomeSkipped, sprint.OutcomeNotAttempted:
		return true
	}
	return false
}

// GetReview returns the question-by-question breakdown of a sprint with
// single-sprint insights. Supports ?filter=CORRECT|INCORRECT|SKIPPED|
// NOT_ATTEMPTED to narrow the list; insights always cover the whole run.
func GetReview(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	filter := strings.ToUpper(c.Query("filter", "ALL"))
	if !validReviewFilter(filter) {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid filter"})
	}

	db := database.GetDB()
	session, err := loadOwnedSession(db, c.Params("id"), userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Session not found"})
	}

	questions, err := loadSessionQuestions(db, session)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load questions"})
	}
	questionsByID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		questionsByID[q.ID] = q
	}

	var attempts []models.Attempt
	if err := db.Where("session_id = ?", session.ID).Find(&attempts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load attempts"})
	}
	selectedByQuestion := make(map[uint]string, len(attempts))
	for _, a := range attempts {
		selectedByQuestion[a.QuestionID] = a.SelectedOption
	}

	entries, err := session.GetQuestionStatus()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load session"})
	}

	review := make([]ReviewQuestion, 0, len(entries))
	outcomes := make([]sprint.ReviewOutcome, 0, len(entries))
	for _, e := range entries {
		q, ok := questionsByID[e.QuestionID]
		if !ok {
			continue
		}
		options, oerr := q.GetOptions()
		if oerr != nil {
			continue
		}
		outcomes = append(outcomes, sprint.ReviewOutcome{
			Order:  e.Order,
			Status: e.Status,
			TimeMs: e.TimeMs,
		})
		review = append(review, ReviewQuestion{
			QuestionID:     q.ID,
			Order:          e.Order,
			Text:           q.Text,
			Options:        options,
			CorrectOption:  q.CorrectOption,
			TopicName:      q.TopicName,
			Difficulty:     q.Difficulty,
			Status:         e.Status,
			SelectedOption: selectedByQuestion[e.QuestionID],
			TimeMs:         e.TimeMs,
		})
	}

	insights := sprint.ComputeInsights(outcomes)

	if filter != "ALL" {
		filtered := review[:0]
		for _, rq := range review {
			if rq.Status == filter {
				filtered = append(filtered, rq)
			}
		}
		review = filtered
	}

	stats, _ := session.GetStats()
	perf, _ := session.GetTopicPerformance()
	topics, _ := session.GetTopics()

	return c.JSON(fiber.Map{
		"success": true,
		"review": fiber.Map{
			"session_id":      session.ID,
			"total_questions": len(review),
			"config": fiber.Map{
				"subject":        session.Subject,
				"topics":         topics,
				"difficulty":     session.Difficulty,
				"question_count": session.QuestionCount,
			},
			"status":            session.Status,
			"stats":             stats,
			"topic_performance": perf,
			"insights":          insights,
			"questions":         review,
		},
	})
}
