package admin

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"sprintprep/database"
	"sprintprep/models"
	"sprintprep/sprint"
)

// GetQuestions returns catalog questions with pagination and filters.
func GetQuestions(c *fiber.Ctx) error {
	db := database.GetDB()

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := db.Model(&models.Question{})
	if subject := c.Query("subject"); subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if topic := c.Query("topic"); topic != "" {
		query = query.Where("topic_name = ?", topic)
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if live := c.Query("is_live"); live != "" {
		query = query.Where("is_live = ?", live == "true")
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("text LIKE ?", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var questions []models.Question
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&questions).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch questions"})
	}

	return c.JSON(fiber.Map{
		"questions": questions,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

type QuestionRequest struct {
	Subject       string   `json:"subject"`
	Topic         string   `json:"topic"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"` // 1-based index
	Difficulty    string   `json:"difficulty"`
	IsLive        *bool    `json:"is_live"`
}

func (r *QuestionRequest) validate() error {
	if !sprint.Subject(r.Subject).Valid() {
		return fmt.Errorf("invalid subject")
	}
	if r.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if r.Text == "" {
		return fmt.Errorf("question text is required")
	}
	if len(r.Options) < 2 {
		return fmt.Errorf("at least two options are required")
	}
	if r.CorrectOption < 1 || r.CorrectOption > len(r.Options) {
		return fmt.Errorf("correct_option out of range")
	}
	d := sprint.Difficulty(r.Difficulty)
	if !d.Valid() || d == sprint.DifficultyMixed {
		return fmt.Errorf("invalid difficulty")
	}
	return nil
}

// CreateQuestion adds a catalog question, creating its topic on first use.
func CreateQuestion(c *fiber.Ctx) error {
	db := database.GetDB()

	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.validate(); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	topic := models.Topic{Name: req.Topic, Subject: req.Subject}
	if err := db.Where("name = ? AND subject = ?", req.Topic, req.Subject).
		FirstOrCreate(&topic).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to resolve topic"})
	}

	question := models.Question{
		Subject:       req.Subject,
		TopicID:       topic.ID,
		TopicName:     topic.Name,
		Text:          req.Text,
		CorrectOption: fmt.Sprintf("opt_%d", req.CorrectOption),
		Difficulty:    req.Difficulty,
		IsLive:        true,
	}
	if req.IsLive != nil {
		question.IsLive = *req.IsLive
	}

	options := make([]models.Option, len(req.Options))
	for i, text := range req.Options {
		options[i] = models.Option{ID: fmt.Sprintf("opt_%d", i+1), Text: text}
	}
	if err := question.SetOptions(options); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to encode options"})
	}

	if err := db.Create(&question).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create question"})
	}

	return c.Status(201).JSON(question)
}

// UpdateQuestion replaces an existing question's content.
func UpdateQuestion(c *fiber.Ctx) error {
	db := database.GetDB()

	var question models.Question
	if err := db.First(&question, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Question not found"})
	}

	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := req.validate(); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	topic := models.Topic{Name: req.Topic, Subject: req.Subject}
	if err := db.Where("name = ? AND subject = ?", req.Topic, req.Subject).
		FirstOrCreate(&topic).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to resolve topic"})
	}

	question.Subject = req.Subject
	question.TopicID = topic.ID
	question.TopicName = topic.Name
	question.Text = req.Text
	question.CorrectOption = fmt.Sprintf("opt_%d", req.CorrectOption)
	question.Difficulty = req.Difficulty
	if req.IsLive != nil {
		question.IsLive = *req.IsLive
	}

	options := make([]models.Option, len(req.Options))
	for i, text := range req.Options {
		options[i] = models.Option{ID: fmt.Sprintf("opt_%d", i+1), Text: text}
	}
	if err := question.SetOptions(options); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to encode options"})
	}

	if err := db.Save(&question).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update question"})
	}

	return c.JSON(question)
}

// SetQuestionLive toggles whether a question is eligible for sprints.
// Retiring beats deleting: past attempts keep their foreign key.
func SetQuestionLive(c *fiber.Ctx) error {
	db := database.GetDB()

	var question models.Question
	if err := db.First(&question, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Question not found"})
	}

	var req struct {
		IsLive bool `json:"is_live"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := db.Model(&question).Update("is_live", req.IsLive).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update question"})
	}

	return c.JSON(fiber.Map{"success": true, "is_live": req.IsLive})
}

// DeleteQuestion removes a question that has never been attempted.
func DeleteQuestion(c *fiber.Ctx) error {
	db := database.GetDB()

	var question models.Question
	if err := db.First(&question, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Question not found"})
	}

	var attemptCount int64
	db.Model(&models.Attempt{}).Where("question_id = ?", question.ID).Count(&attemptCount)
	if attemptCount > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "Question has recorded attempts; retire it instead"})
	}

	if err := db.Delete(&question).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete question"})
	}

	return c.JSON(fiber.Map{"success": true})
}
