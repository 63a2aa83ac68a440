package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mechaitanya/MarketPulse/scheduler"
	"github.com/mechaitanya/MarketPulse/services"
)

// ScheduleController exposes read-only scheduling state
type ScheduleController struct {
	schedules *services.ScheduleService
	holidays  *services.HolidayService
}

// NewScheduleController creates a new schedule controller
func NewScheduleController(schedules *services.ScheduleService, holidays *services.HolidayService) *ScheduleController {
	return &ScheduleController{
		schedules: schedules,
		holidays:  holidays,
	}
}

type scheduleView struct {
	ScheduleID         int    `json:"schedule_id"`
	InstrumentID       int    `json:"instrument_id"`
	TweetDays          string `json:"tweet_days"`
	TweetTime          string `json:"tweet_time"`
	TweetFrequencyType string `json:"tweet_frequency_type"`
	TweetFrequencyVal  int    `json:"tweet_frequency_value"`
	TemplateID         int    `json:"template_id"`
	DueNow             bool   `json:"due_now"`
}

// GetSchedules lists active schedules with their live due-ness
func (sc *ScheduleController) GetSchedules(c *gin.Context) {
	schedules, err := sc.schedules.ListActiveSchedules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal",
			"message": "Failed to load schedules",
		})
		return
	}

	now := time.Now()
	views := make([]scheduleView, 0, len(schedules))
	for _, s := range schedules {
		views = append(views, scheduleView{
			ScheduleID:         s.ScheduleID,
			InstrumentID:       s.InstrumentID,
			TweetDays:          s.TweetDays,
			TweetTime:          s.TweetTime,
			TweetFrequencyType: s.TweetFrequencyType,
			TweetFrequencyVal:  s.TweetFrequencyValue,
			TemplateID:         s.TemplateID,
			DueNow:             scheduler.IsDue(s, now),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(views),
		"schedules": views,
	})
}

// GetHolidayStatus reports the holiday cache state
func (sc *ScheduleController) GetHolidayStatus(c *gin.Context) {
	c.JSON(http.StatusOK, sc.holidays.Status())
}
