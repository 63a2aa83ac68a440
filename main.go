package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mechaitanya/MarketPulse/config"
	"github.com/mechaitanya/MarketPulse/models"
	"github.com/mechaitanya/MarketPulse/routes"
	"github.com/mechaitanya/MarketPulse/scheduler"
	"github.com/mechaitanya/MarketPulse/services"
	"github.com/mechaitanya/MarketPulse/services/chart"
	"github.com/mechaitanya/MarketPulse/services/marketdata"
	"github.com/mechaitanya/MarketPulse/services/twitter"
)

// dbInitialized tracks whether database has been successfully initialized.
// Guarded by dbInitMutex so the /ready endpoint can check it from request
// goroutines while the background init is still running.
var dbInitialized bool
var dbInitMutex sync.RWMutex

func main() {
	log.Println("==============================================")
	log.Println("  MarketPulse Dispatch Worker - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	// Setup health check endpoints FIRST so the platform can detect the
	// service is up. Database is initialized in background.
	setupHealthEndpoints(router)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Start server immediately so the platform knows we're listening
	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize database, services and the dispatch loop in background
	var jobScheduler *scheduler.Scheduler
	go func() {
		db, err := config.InitDB()
		if err != nil {
			log.Printf("ERROR: Database connection failed: %v", err)
			log.Println("Service will continue in limited mode (health check only)")
			return
		}

		log.Println("Running database migrations...")
		if err := models.MigrateTweetModels(db); err != nil {
			log.Printf("ERROR: Migration failed: %v", err)
		} else {
			log.Println("Database migrations completed successfully")
		}

		// Realtime feed (quotes and weekly aggregates)
		feed := marketdata.NewMongoClient(cfg.MongoURI)

		// Wire services
		scheduleService := services.NewScheduleService(db)
		holidayService := services.NewHolidayService(services.NewGormHolidaySource(db))
		timezoneService := services.NewTimezoneService(services.NewGormTimezoneSource(db))
		dataService := marketdata.NewService(db, feed)
		emailService := services.NewEmailService(cfg.MailAPIURL, cfg.MailAPIKey, cfg.FromEmail, cfg.SupportEmail)
		sender := twitter.NewSender(cfg.TwitterAPIURL, cfg.ConsumerKey, cfg.ConsumerSecret, scheduleService, emailService)
		chartService := chart.NewService(dataService, cfg.HTMLRenderURL, cfg.ServerFilePath)

		dispatcher := scheduler.NewDispatcher(
			scheduleService, dataService, holidayService, timezoneService, sender, chartService)

		// Prime the holiday cache before the first tick
		if err := holidayService.Refresh(); err != nil {
			log.Printf("Warning: Initial holiday cache load failed: %v", err)
		}

		dbInitMutex.Lock()
		dbInitialized = true
		dbInitMutex.Unlock()

		routes.SetupRoutes(router, dispatcher, scheduleService, holidayService)

		jobScheduler = scheduler.NewScheduler(db, dispatcher, holidayService)
		go jobScheduler.Start()

		log.Println("Application fully initialized with database")
	}()

	gracefulShutdown(server, &jobScheduler)
}

// setupHealthEndpoints sets up liveness and readiness probes
func setupHealthEndpoints(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "MarketPulse Dispatch Worker",
			"version": "1.0.0",
		})
	})

	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - checks if service is ready to receive traffic
	router.GET("/ready", func(c *gin.Context) {
		dbInitMutex.RLock()
		isDBReady := dbInitialized
		dbInitMutex.RUnlock()

		if !isDBReady {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database not connected",
			})
			return
		}

		sqlDB, err := config.DB.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database connection error",
			})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database ping failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server, jobScheduler **scheduler.Scheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	// Stop scheduler first so no new ticks start mid-shutdown
	if jobScheduler != nil && *jobScheduler != nil {
		(*jobScheduler).Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if config.DB != nil {
		sqlDB, err := config.DB.DB()
		if err == nil {
			sqlDB.Close()
			log.Println("Database connection closed")
		}
	}

	log.Println("Server shutdown completed")
}
