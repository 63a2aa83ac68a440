package admin

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mechaitanya/MarketPulse/scheduler"
	"github.com/mechaitanya/MarketPulse/services"
)

// AdminController handles privileged dispatch operations
type AdminController struct {
	dispatcher *scheduler.Dispatcher
	holidays   *services.HolidayService
}

// NewAdminController creates a new admin controller
func NewAdminController(dispatcher *scheduler.Dispatcher, holidays *services.HolidayService) *AdminController {
	return &AdminController{
		dispatcher: dispatcher,
		holidays:   holidays,
	}
}

// DispatchSchedule fires one schedule immediately, ignoring its timetable
func (ac *AdminController) DispatchSchedule(c *gin.Context) {
	scheduleID, err := strconv.Atoi(c.Param("scheduleId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "scheduleId must be an integer",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	if err := ac.dispatcher.DispatchSchedule(ctx, scheduleID); err != nil {
		log.Printf("Force dispatch of schedule %d failed: %v", scheduleID, err)
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Schedule not found or dispatch failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "dispatched",
		"schedule_id": scheduleID,
	})
}

// RefreshHolidays forces a holiday cache reload
func (ac *AdminController) RefreshHolidays(c *gin.Context) {
	if err := ac.holidays.ForceRefresh(); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "refresh_failed",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, ac.holidays.Status())
}
