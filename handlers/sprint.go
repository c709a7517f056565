// handlers/sprint.go - Sprint session creation and retrieval
package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"sprintprep/database"
	"sprintprep/metrics"
	"sprintprep/middleware"
	"sprintprep/models"
	"sprintprep/sprint"
)

type CreateSprintRequest struct {
	Subject       string   `json:"subject"`
	Topics        []string `json:"topics"`
	Difficulty    string   `json:"difficulty"`
	QuestionCount int      `json:"question_count"`
}

// QuestionPayload is a question as sent to the client. The correct option is
// never included; grading happens server-side.
type QuestionPayload struct {
	ID         uint            `json:"id"`
	Order      int             `json:"order"`
	Text       string          `json:"text"`
	Options    []models.Option `json:"options"`
	TopicName  string          `json:"topic_name"`
	Difficulty string          `json:"difficulty"`
}

func questionPayload(q models.Question, order int) (QuestionPayload, error) {
	options, err := q.GetOptions()
	if err != nil {
		return QuestionPayload{}, err
	}
	return QuestionPayload{
		ID:         q.ID,
		Order:      order,
		Text:       q.Text,
		Options:    options,
		TopicName:  q.TopicName,
		Difficulty: q.Difficulty,
	}, nil
}

// CreateSprint starts a new sprint session: picks random live questions
// matching the config, freezes their order, and starts the clock.
func CreateSprint(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	var req CreateSprintRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	config := sprint.Config{
		Subject:       sprint.Subject(req.Subject),
		Topics:        req.Topics,
		Difficulty:    sprint.Difficulty(req.Difficulty),
		QuestionCount: req.QuestionCount,
	}
	if err := config.Validate(); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Database not available"})
	}

	questions, err := pickQuestions(db, config)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to select questions"})
	}
	if len(questions) == 0 {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "No questions available for this selection"})
	}

	// Fewer matches than requested shrinks the sprint, and the time budget
	// shrinks with it.
	config.DeriveTimeLimit(len(questions))

	return startSession(c, userID, config, questions)
}

// RetrySprint starts a fresh session re-running a previous sprint: same
// config, same question set in the same order, new clock.
func RetrySprint(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
	}

	db := database.GetDB()
	original, err := loadOwnedSession(db, c.Params("id"), userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "Session not found"})
	}

	questions, err := loadSessionQuestions(db, original)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load questions"})
	}
	if len(questions) == 0 {
		return c.Status(404).JSON(fiber.Map{"success": false, "error": "No questions found in original sprint"})
	}

	config := original.Config()
	config.DeriveTimeLimit(len(questions))

	return startSession(c, userID, config, questions)
}

// startSession persists a new ACTIVE session over the given questions and
// returns the creation payload.
func startSession(c *fiber.Ctx, userID uint, config sprint.Config, questions []models.Question) error {
	db := database.GetDB()

	session := models.SprintSession{
		ID:            uuid.New().String(),
		UserID:        userID,
		Subject:       string(config.Subject),
		Difficulty:    string(config.Difficulty),
		QuestionCount: config.QuestionCount,
		TimeLimitMs:   config.TimeLimitMs,
		Status:        string(sprint.StatusActive),
		StartedAt:     time.Now(),
		CreatedAt:     time.Now(),
	}
	if err := session.SetTopics(config.Topics); err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to create session"})
	}

	ids := make([]uint, len(questions))
	statuses := make([]models.QuestionStatus, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
		statuses[i] = models.QuestionStatus{
			QuestionID: q.ID,
			Status:     models.QuestionNotAttempted,
			Order:      i + 1,
		}
	}
	if err := session.SetQuestionIDs(ids); err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to create session"})
	}
	if err := session.SetQuestionStatus(statuses); err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to create session"})
	}

	if err := db.Create(&session).Error; err != nil {
		log.Printf("Error creating sprint session: %v", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to create session"})
	}

	payloads := make([]QuestionPayload, 0, len(questions))
	for i, q := range questions {
		p, err := questionPayload(q, i+1)
		if err != nil {
			continue
		}
		payloads = append(payloads, p)
	}

	metrics.RecordSprintStarted()
	log.Printf("🏃 Sprint %s started: %s/%s, %d questions, %ds budget",
		session.ID, session.Subject, session.Difficulty,
		session.QuestionCount, session.TimeLimitMs/1000)

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"session": fiber.Map{
			"id":                 session.ID,
			"subject":            session.Subject,
			"topics":             config.Topics,
			"difficulty":         session.Difficulty,
			"question_count":     session.QuestionCount,
			"total_time_allowed": session.TimeLimitMs,
			"started_at":         session.StartedAt,
			"status":             session.Status,
		},
		"questions": payloads,
	})
}

// pickQuestions randomly selects live questions matching the config.
func pickQuestions(db *gorm.DB, config sprint.Config) ([]models.Question, error) {
	query := db.Where("is_live = ? AND subject = ?", true, string(config.Subject))
	if !config.CoversAllTopics() {
		query = query.Where("topic_name IN ?", config.Topics)
	}
	if config.Difficulty != sprint.DifficultyMixed {
		query = query.Where("difficulty = ?", string(config.Difficulty))
	}

	var questions []models.Question
	err := query.Order("RANDOM()").Limit(config.QuestionCount).Find(&questions).Error
	return questions, err
}

// GetSprint returns a session with its ordered questions and recorded
// attempts, enough for a reconnecting client to rebuild the run.
func GetSprint(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
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

	var attempts []models.Attempt
	if err := db.Where("session_id = ?", session.ID).Order("question_order").Find(&attempts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Failed to load attempts"})
	}

	payloads := make([]QuestionPayload, 0, len(questions))
	for i, q := range questions {
		p, perr := questionPayload(q, i+1)
		if perr != nil {
			continue
		}
		payloads = append(payloads, p)
	}

	statuses, _ := session.GetQuestionStatus()
	topics, _ := session.GetTopics()

	elapsed := time.Since(session.StartedAt).Milliseconds()
	remaining := session.TimeLimitMs - elapsed
	if remaining < 0 || session.IsTerminal() {
		remaining = 0
	}

	return c.JSON(fiber.Map{
		"success": true,
		"session": fiber.Map{
			"id":                 session.ID,
			"subject":            session.Subject,
			"topics":             topics,
			"difficulty":         session.Difficulty,
			"question_count":     session.QuestionCount,
			"total_time_allowed": session.TimeLimitMs,
			"remaining_ms":       remaining,
			"current_index":      session.CurrentIndex,
			"correct_count":      session.CorrectCount,
			"status":             session.Status,
			"started_at":         session.StartedAt,
			"completed_at":       session.CompletedAt,
			"question_status":    statuses,
		},
		"questions": payloads,
		"attempts":  attempts,
	})
}

// loadOwnedSession fetches a session and enforces ownership.
func loadOwnedSession(db *gorm.DB, sessionID string, userID uint) (*models.SprintSession, error) {
	var session models.SprintSession
	if err := db.First(&session, "id = ? AND user_id = ?", sessionID, userID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// loadSessionQuestions returns the session's questions in their frozen order.
func loadSessionQuestions(db *gorm.DB, session *models.SprintSession) ([]models.Question, error) {
	ids, err := session.GetQuestionIDs()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []models.Question
	if err := db.Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}
