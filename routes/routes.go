package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/mechaitanya/MarketPulse/admin"
	"github.com/mechaitanya/MarketPulse/controllers"
	"github.com/mechaitanya/MarketPulse/middleware"
	"github.com/mechaitanya/MarketPulse/scheduler"
	"github.com/mechaitanya/MarketPulse/services"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, dispatcher *scheduler.Dispatcher,
	schedules *services.ScheduleService, holidays *services.HolidayService) {

	scheduleController := controllers.NewScheduleController(schedules, holidays)
	authController := admin.NewAuthController()
	adminController := admin.NewAdminController(dispatcher, holidays)

	api := router.Group("/api")
	{
		api.GET("/schedules", scheduleController.GetSchedules)
		api.GET("/holidays/status", scheduleController.GetHolidayStatus)

		api.POST("/admin/login", authController.Login)

		protected := api.Group("/admin", middleware.JWTAuthMiddleware())
		{
			protected.POST("/dispatch/:scheduleId", adminController.DispatchSchedule)
			protected.POST("/holidays/refresh", adminController.RefreshHolidays)
		}
	}
}
