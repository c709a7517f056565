// cmd/question-importer/main.go - Bulk question import from spreadsheets
//
// Reads an Excel workbook or CSV file and loads its rows into the question
// catalog. Expected columns:
//
//	A subject  B topic  C question text  D-G options 1-4
//	H correct option (1-4)  I difficulty
//
// Usage:
//
//	question-importer -file questions.xlsx [-sheet Sheet1] [-dry-run]
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"

	"sprintprep/database"
	"sprintprep/models"
	"sprintprep/sprint"
)

type importResult struct {
	TotalProcessed int
	TopicsCreated  int
	Created        int
	Skipped        int
	Errors         []string
}

func main() {
	filePath := flag.String("file", "", "Path to the .xlsx or .csv file to import")
	sheetName := flag.String("sheet", "Sheet1", "Worksheet name (Excel only)")
	dryRun := flag.Bool("dry-run", false, "Parse and validate without writing to the database")
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	database.InitDB()

	var (
		result *importResult
		err    error
	)
	if strings.ToLower(filepath.Ext(*filePath)) == ".csv" {
		result, err = importFromCSV(*filePath, *dryRun)
	} else {
		result, err = importFromExcel(*filePath, *sheetName, *dryRun)
	}
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("✅ Import finished: %d processed, %d created, %d topics created, %d skipped",
		result.TotalProcessed, result.Created, result.TopicsCreated, result.Skipped)
	for _, msg := range result.Errors {
		log.Printf("⚠️  %s", msg)
	}
	if *dryRun {
		log.Println("Dry run: nothing was written")
	}
}

func importFromExcel(path, sheet string, dryRun bool) (*importResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &importResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		result.TotalProcessed++
		if err := processRow(row, dryRun, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

func importFromCSV(path string, dryRun bool) (*importResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &importResult{Errors: make([]string, 0)}
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %v", err)
		}
		line++
		if line == 1 {
			continue // header
		}
		result.TotalProcessed++
		if err := processRow(row, dryRun, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", line, err))
		}
	}
	return result, nil
}

func processRow(row []string, dryRun bool, result *importResult) error {
	if len(row) < 9 {
		return fmt.Errorf("expected 9 columns, got %d", len(row))
	}

	subject := strings.ToUpper(strings.TrimSpace(row[0]))
	topicName := strings.TrimSpace(row[1])
	text := strings.TrimSpace(row[2])
	optionTexts := []string{
		strings.TrimSpace(row[3]),
		strings.TrimSpace(row[4]),
		strings.TrimSpace(row[5]),
		strings.TrimSpace(row[6]),
	}
	correctRaw := strings.TrimSpace(row[7])
	difficulty := strings.ToUpper(strings.TrimSpace(row[8]))

	if !sprint.Subject(subject).Valid() {
		return fmt.Errorf("unknown subject %q", subject)
	}
	if topicName == "" || text == "" {
		return fmt.Errorf("topic and question text are required")
	}
	for i, opt := range optionTexts {
		if opt == "" {
			return fmt.Errorf("option %d is empty", i+1)
		}
	}
	correct, err := strconv.Atoi(correctRaw)
	if err != nil || correct < 1 || correct > len(optionTexts) {
		return fmt.Errorf("correct option must be 1-%d, got %q", len(optionTexts), correctRaw)
	}
	d := sprint.Difficulty(difficulty)
	if !d.Valid() || d == sprint.DifficultyMixed {
		return fmt.Errorf("invalid difficulty %q", difficulty)
	}

	if dryRun {
		result.Created++
		return nil
	}

	db := database.GetDB()

	topic := models.Topic{Name: topicName, Subject: subject, CreatedAt: time.Now()}
	lookup := db.Where("name = ? AND subject = ?", topicName, subject).FirstOrCreate(&topic)
	if lookup.Error != nil {
		return lookup.Error
	}
	if lookup.RowsAffected > 0 {
		result.TopicsCreated++
	}

	var count int64
	db.Model(&models.Question{}).
		Where("subject = ? AND text = ?", subject, text).
		Count(&count)
	if count > 0 {
		result.Skipped++
		return nil
	}

	question := models.Question{
		Subject:       subject,
		TopicID:       topic.ID,
		TopicName:     topic.Name,
		Text:          text,
		CorrectOption: fmt.Sprintf("opt_%d", correct),
		Difficulty:    difficulty,
		IsLive:        true,
		CreatedAt:     time.Now(),
	}
	options := make([]models.Option, len(optionTexts))
	for i, t := range optionTexts {
		options[i] = models.Option{ID: fmt.Sprintf("opt_%d", i+1), Text: t}
	}
	if err := question.SetOptions(options); err != nil {
		return err
	}
	if err := db.Create(&question).Error; err != nil {
		return err
	}

	result.Created++
	return nil
}
