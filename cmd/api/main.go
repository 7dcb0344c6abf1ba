package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"

	"github.com/prendasoft/prenda-api/internal/config"
	"github.com/prendasoft/prenda-api/internal/database"
	"github.com/prendasoft/prenda-api/internal/handlers"
	"github.com/prendasoft/prenda-api/internal/jobs"
	"github.com/prendasoft/prenda-api/internal/middleware"
	"github.com/prendasoft/prenda-api/internal/repository"
	"github.com/prendasoft/prenda-api/internal/services"
	"github.com/prendasoft/prenda-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// Branch management
				admin.POST("/branches", h.Branch.Create)
				admin.PUT("/branches/:branch_id", h.Branch.Update)

				// Charge configuration (versioned; new values never
				// rewrite history)
				admin.POST("/config/entries", h.Config.CreateEntry)
				admin.POST("/config/brackets", h.Config.CreateBracket)

				// Audit trail and worker status
				admin.GET("/audits", h.Audit.Index)
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Counter staff routes
			staff := protected.Group("")
			staff.Use(middleware.RequireRole("admin", "cashier", "appraiser"))
			{
				// Loan lifecycle
				staff.POST("/loans", h.Loan.Create)
				staff.GET("/loans", h.Loan.Index)
				staff.GET("/loans/:tracking_number", h.Loan.Chain)
				staff.GET("/loans/:tracking_number/items", h.Loan.Items)
				staff.GET("/loans/:tracking_number/charges", h.Loan.Charges)
				staff.POST("/loans/:tracking_number/additional", h.Loan.Additional)
				staff.POST("/loans/:tracking_number/payments", h.Loan.Pay)
				staff.POST("/loans/:tracking_number/renew", h.Loan.Renew)
				staff.POST("/loans/:tracking_number/redeem", h.Loan.Redeem)
				staff.GET("/tickets/:ticket_number", h.Loan.ShowByTicket)

				// Auction sales of forfeited collateral
				staff.POST("/items/:item_id/sell", h.Auction.Sell)

				// Pawner registry
				staff.GET("/pawners", h.Pawner.Index)
				staff.GET("/pawners/:pawner_id", h.Pawner.Show)
				staff.POST("/pawners", h.Pawner.Create)
				staff.PUT("/pawners/:pawner_id", h.Pawner.Update)

				// Branch and config viewing
				staff.GET("/branches", h.Branch.Index)
				staff.GET("/branches/:branch_id", h.Branch.Show)
				staff.GET("/config", h.Config.Show)
				staff.GET("/config/brackets", h.Config.Brackets)
				staff.GET("/config/entries/:key", h.Config.History)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	interval := time.Duration(cfg.SweepIntervalMinutes) * time.Minute

	// Advance time-based loan statuses (matured, expired) and forfeit
	// collateral on expired chains
	worker.ScheduleEveryImmediate(interval, func(ctx context.Context) error {
		logger.Info("[Job] Sweeping loan statuses...")
		return svcs.Loan.SweepStatuses(ctx)
	})

	logger.Info("Scheduled recurring jobs", "sweep_interval", interval)
}
