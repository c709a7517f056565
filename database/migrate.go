// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"sprintprep/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Question{},
		&models.SprintSession{},
		&models.Attempt{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("✅ All migrations completed successfully")
}

// createIndexes creates the query-path indexes AutoMigrate does not cover.
func createIndexes() {
	db := GetDB()

	// Sprint history is read newest-first per user.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_user_created ON sprint_sessions(user_id, created_at DESC)")
	// The cleanup sweeper scans for stale active sessions.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_sessions_status_started ON sprint_sessions(status, started_at)")
	// Session creation samples live questions by subject/difficulty.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_questions_pick ON questions(subject, difficulty, is_live)")
	// Attempts are replayed per session in question order.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_attempts_session_order ON attempts(session_id, question_order)")

	log.Println("✅ Indexes created successfully")
}
