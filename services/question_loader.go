// services/question_loader.go - Startup sync of question bank files
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sprintprep/database"
	"sprintprep/models"
	"sprintprep/sprint"
)

const QuestionsDirectory = "./questions"

// QuestionFile is one JSON bank: a topic within a subject plus its questions.
type QuestionFile struct {
	Subject   string         `json:"subject"`
	Topic     string         `json:"topic"`
	TopicCode string         `json:"topic_code"`
	Questions []FileQuestion `json:"questions"`
}

type FileQuestion struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"` // 1-based index into options
	Difficulty    string   `json:"difficulty"`
}

// LoadQuestionsFromFiles syncs ./questions/*.json into the catalog. Existing
// questions (same subject + text) are left untouched so re-running the sync
// is harmless.
func LoadQuestionsFromFiles() {
	db := database.GetDB()
	if db == nil {
		log.Println("Question loader skipped: database not available")
		return
	}

	entries, err := os.ReadDir(QuestionsDirectory)
	if err != nil {
		log.Printf("Question loader: cannot read %s: %v", QuestionsDirectory, err)
		return
	}

	loaded, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(QuestionsDirectory, entry.Name())
		added, dupes, err := loadQuestionFile(path)
		if err != nil {
			log.Printf("Question loader: %s: %v", entry.Name(), err)
			continue
		}
		loaded += added
		skipped += dupes
	}

	log.Printf("✅ Question bank sync: %d added, %d already present", loaded, skipped)
}

func loadQuestionFile(path string) (added, skipped int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	var file QuestionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, 0, fmt.Errorf("invalid JSON: %w", err)
	}

	if !sprint.Subject(file.Subject).Valid() {
		return 0, 0, fmt.Errorf("unknown subject %q", file.Subject)
	}
	if file.Topic == "" {
		return 0, 0, fmt.Errorf("missing topic")
	}

	db := database.GetDB()

	topic := models.Topic{
		Name:      file.Topic,
		Code:      file.TopicCode,
		Subject:   file.Subject,
		CreatedAt: time.Now(),
	}
	if err := db.Where("name = ? AND subject = ?", file.Topic, file.Subject).
		FirstOrCreate(&topic).Error; err != nil {
		return 0, 0, err
	}

	for _, fq := range file.Questions {
		if fq.Text == "" || len(fq.Options) < 2 {
			continue
		}
		if fq.CorrectOption < 1 || fq.CorrectOption > len(fq.Options) {
			continue
		}

		var count int64
		db.Model(&models.Question{}).
			Where("subject = ? AND text = ?", file.Subject, fq.Text).
			Count(&count)
		if count > 0 {
			skipped++
			continue
		}

		difficulty := strings.ToUpper(fq.Difficulty)
		if !sprint.Difficulty(difficulty).Valid() || difficulty == string(sprint.DifficultyMixed) {
			difficulty = string(sprint.DifficultyMedium)
		}

		question := models.Question{
			Subject:       file.Subject,
			TopicID:       topic.ID,
			TopicName:     topic.Name,
			Text:          fq.Text,
			CorrectOption: fmt.Sprintf("opt_%d", fq.CorrectOption),
			Difficulty:    difficulty,
			IsLive:        true,
			CreatedAt:     time.Now(),
		}

		options := make([]models.Option, len(fq.Options))
		for i, text := range fq.Options {
			options[i] = models.Option{ID: fmt.Sprintf("opt_%d", i+1), Text: text}
		}
		if err := question.SetOptions(options); err != nil {
			continue
		}

		if err := db.Create(&question).Error; err != nil {
			log.Printf("Question loader: insert failed: %v", err)
			continue
		}
		added++
	}

	return added, skipped, nil
}
