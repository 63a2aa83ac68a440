package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mechaitanya/MarketPulse/models"
)

// ScheduleService reads schedules, instrument-tweet links and templates.
// Reads are always fresh; operators edit these rows from the web platform
// and expect the next tick to pick changes up.
type ScheduleService struct {
	db *gorm.DB
}

// NewScheduleService creates a new schedule service
func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// ListActiveSchedules returns all schedules with the active flag set
func (s *ScheduleService) ListActiveSchedules() ([]models.TweetSchedule, error) {
	var schedules []models.TweetSchedule
	if err := s.db.Where("is_active = ?", true).Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	return schedules, nil
}

// ListInstrumentTweets returns all instrument/tweet-type template links
func (s *ScheduleService) ListInstrumentTweets() ([]models.InstrumentTweet, error) {
	var links []models.InstrumentTweet
	if err := s.db.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to load instrument tweets: %w", err)
	}
	return links, nil
}

// GetTemplate returns one template by id
func (s *ScheduleService) GetTemplate(templateID int) (*models.TweetTemplate, error) {
	var template models.TweetTemplate
	if err := s.db.Where("template_id = ?", templateID).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

// GetSchedule returns one schedule by id
func (s *ScheduleService) GetSchedule(scheduleID int) (*models.TweetSchedule, error) {
	var schedule models.TweetSchedule
	if err := s.db.Where("schedule_id = ?", scheduleID).First(&schedule).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}

// GetUserTokens returns the posting account credentials for an instrument
func (s *ScheduleService) GetUserTokens(instrumentID int) (*models.User, error) {
	var user models.User
	if err := s.db.Where("instrument_id = ?", instrumentID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LogTweet records the outcome of a dispatch attempt
func (s *ScheduleService) LogTweet(entry *models.TweetLog) error {
	return s.db.Create(entry).Error
}
