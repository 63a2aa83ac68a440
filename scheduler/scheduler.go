package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"

	"github.com/mechaitanya/MarketPulse/models"
	"github.com/mechaitanya/MarketPulse/services"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron       *gocron.Scheduler
	db         *gorm.DB
	dispatcher *Dispatcher
	holidays   *services.HolidayService
}

// NewScheduler creates a new scheduler instance
func NewScheduler(db *gorm.DB, dispatcher *Dispatcher, holidays *services.HolidayService) *Scheduler {
	return &Scheduler{
		cron:       gocron.NewScheduler(time.UTC),
		db:         db,
		dispatcher: dispatcher,
		holidays:   holidays,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Evaluate and dispatch due tweets every minute
	s.cron.Every(1).Minute().Do(func() {
		s.dispatcher.RunTick(context.Background(), time.Now())
	})

	// Keep the holiday cache within its TTL
	s.cron.Every(1).Minute().Do(func() {
		s.holidays.EnsureFresh()
	})

	// Cleanup old tweet logs weekly on Sunday at 01:00
	s.cron.Every(1).Week().Sunday().At("01:00").Do(func() {
		s.cleanupOldTweetLogs()
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// cleanupOldTweetLogs deletes dispatch log rows older than 90 days
func (s *Scheduler) cleanupOldTweetLogs() {
	cutoff := time.Now().UTC().AddDate(0, 0, -90)
	result := s.db.Where("sent_at < ?", cutoff).Delete(&models.TweetLog{})
	if result.Error != nil {
		log.Printf("Failed to cleanup tweet logs: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d old tweet log entries", result.RowsAffected)
	}
}
