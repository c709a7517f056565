// services/cleanup.go - Background expiry of stale sprint sessions
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"sprintprep/database"
	"sprintprep/models"
	"sprintprep/sprint"
)

// Grace period past the budget before the server forces the timeout. Covers
// the final client tick plus network slack.
const timeoutGrace = 15 * time.Second

// CleanupService times out ACTIVE sessions whose wall-clock budget has
// expired. The client fires its own timeout transition, but a closed tab
// never does; this sweep is the server-side authority.
type CleanupService struct {
	scheduler *gocron.Scheduler
}

var cleanupService *CleanupService

// InitCleanupService initializes the singleton cleanup service.
func InitCleanupService() {
	cleanupService = &CleanupService{
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// GetCleanupService returns the initialized cleanup service.
func GetCleanupService() *CleanupService {
	return cleanupService
}

// Start begins the periodic sweep.
func (s *CleanupService) Start() {
	if _, err := s.scheduler.Every(1).Minute().Do(s.ExpireStaleSessions); err != nil {
		log.Printf("Failed to schedule session expiry: %v", err)
		return
	}
	s.scheduler.StartAsync()
	log.Println("🧹 Session expiry sweep scheduled (every minute)")
}

// Stop terminates the scheduler.
func (s *CleanupService) Stop() {
	s.scheduler.Stop()
}

// ExpireStaleSessions finds ACTIVE sessions past their deadline and
// finalizes them as TIMED_OUT. Unanswered questions keep no records; the
// scoring layer counts them as not attempted.
func (s *CleanupService) ExpireStaleSessions() {
	db := database.GetDB()
	if db == nil {
		return
	}

	var sessions []models.SprintSession
	if err := db.Where("status = ?", string(sprint.StatusActive)).Find(&sessions).Error; err != nil {
		log.Printf("Error scanning for stale sessions: %v", err)
		return
	}

	now := time.Now()
	expired := 0
	for _, session := range sessions {
		deadline := session.StartedAt.
			Add(time.Duration(session.TimeLimitMs) * time.Millisecond).
			Add(timeoutGrace)
		if now.Before(deadline) {
			continue
		}
		if err := FinalizeSession(session.ID, sprint.StatusTimedOut); err != nil {
			if err != ErrAlreadyFinished {
				log.Printf("Error expiring session %s: %v", session.ID, err)
			}
			continue
		}
		expired++
	}

	if expired > 0 {
		log.Printf("✅ Timed out %d stale sprint session(s)", expired)
	}
}
