package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"expedientes_app_go/config"
	"expedientes_app_go/db"
	"expedientes_app_go/handlers"
	"expedientes_app_go/middleware"
	"expedientes_app_go/services"
	"expedientes_app_go/services/credential"
	"expedientes_app_go/services/jobs"
	"expedientes_app_go/services/portal"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Portal session, shared by sync and search
	session := portal.NewSessionManager(cfg.PortalBaseURL, portal.TimingsFromConfig(cfg.Portal),
		portal.ChromeLauncher(portal.LaunchOptions{ChromePath: cfg.ChromePath}))
	defer session.Close()

	store := services.NewGormCaseStore(db.DB)
	creds := func() portal.Credentials {
		user, pass := credential.ResolvePortal(cfg.PortalUser, cfg.PortalPass)
		return portal.Credentials{Username: user, Password: pass}
	}
	sync := jobs.NewPortalSync(session, store, creds, services.InitializeStorage(cfg), services.NewEmailNotifier(cfg))
	gate := &jobs.Gate{}
	portalHandler := handlers.NewPortalHandler(sync, gate, portal.NewSearcher(session), session, store)

	if cfg.SyncSchedule != "" {
		scheduler, err := jobs.StartScheduler(cfg.SyncSchedule, cfg.SyncTimezone, gate, sync)
		if err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	searchLimiter := middleware.NewSearchRateLimiter(cfg.SearchRateLimit)
	defer searchLimiter.Close()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	api := e.Group("/api")
	{
		api.POST("/portal/sync", portalHandler.SyncHandler)
		api.GET("/portal/status", portalHandler.StatusHandler)
		api.POST("/portal/session/close", portalHandler.CloseSessionHandler)
		api.GET("/portal/search", portalHandler.SearchHandler, searchLimiter.Middleware())

		api.GET("/cases", handlers.ListCasesHandler)
		api.GET("/cases/detail", handlers.GetCaseDetailHandler)
		api.PUT("/cases/sheet", handlers.UpdateCaseSheetHandler)
		api.POST("/cases/movements", handlers.CreateMovementHandler)
		api.POST("/cases/tasks", handlers.CreateTaskHandler)
		api.POST("/cases/notes", handlers.CreateNoteHandler)
		api.PUT("/tasks/:id/completed", handlers.UpdateTaskCompletedHandler)
		api.GET("/dashboard", handlers.DashboardHandler)
	}

	// Start server
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
