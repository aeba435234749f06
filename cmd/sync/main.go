package main

import (
	"context"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"expedientes_app_go/config"
	"expedientes_app_go/db"
	"expedientes_app_go/models"
	"expedientes_app_go/services"
	"expedientes_app_go/services/credential"
	"expedientes_app_go/services/jobs"
	"expedientes_app_go/services/portal"
)

// One-shot sync, for cron jobs outside the server process
func main() {
	cfg := config.Load()

	if err := db.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	session := portal.NewSessionManager(cfg.PortalBaseURL, portal.TimingsFromConfig(cfg.Portal),
		portal.ChromeLauncher(portal.LaunchOptions{ChromePath: cfg.ChromePath}))

	creds := func() portal.Credentials {
		user, pass := credential.ResolvePortal(cfg.PortalUser, cfg.PortalPass)
		return portal.Credentials{Username: user, Password: pass}
	}
	sync := jobs.NewPortalSync(session, services.NewGormCaseStore(db.DB), creds,
		services.InitializeStorage(cfg), services.NewEmailNotifier(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	run, err := sync.Run(ctx)
	cancel()

	// A one-shot process owns its browser; close it either way
	if closeErr := session.Close(); closeErr != nil {
		log.Printf("Failed to close browser: %v", closeErr)
	}

	if err != nil {
		log.Printf("Sync failed: %s", failureReason(run, err))
		db.Close()
		os.Exit(1)
	}
	log.Printf("Sync completed: %d cases, %d new, %d updated", run.Extracted, run.Inserted, run.Updated)
}

// failureReason prefers the operator message and falls back to the error,
// e.g. when only the bookkeeping after a successful reconcile failed
func failureReason(run *models.SyncRun, err error) string {
	if run != nil && run.Message != "" {
		return run.Message
	}
	return err.Error()
}
