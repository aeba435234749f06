package db

import (
	"fmt"
	"log"

	"expedientes_app_go/config"
	"expedientes_app_go/models"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the case database: a remote Turso database when
// TURSO_DATABASE_URL is set, otherwise a local SQLite file in WAL mode
func Initialize(cfg *config.Config) error {
	// Determine log level based on environment
	logLevel := logger.Info
	if cfg.Environment == "production" {
		logLevel = logger.Warn
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var err error
	if cfg.TursoDatabaseURL != "" {
		dsn := cfg.TursoDatabaseURL
		if cfg.TursoAuthToken != "" {
			dsn += "?authToken=" + cfg.TursoAuthToken
		}
		DB, err = gorm.Open(sqlite.New(sqlite.Config{DriverName: "libsql", DSN: dsn}), gormCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to Turso database: %w", err)
		}
		log.Println("Database connection established (Turso)")
		return nil
	}

	// Enable WAL mode for better concurrency support
	DB, err = gorm.Open(sqlite.Open(cfg.DBPath+"?_journal_mode=WAL"), gormCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established (WAL mode enabled)")
	return nil
}

// AutoMigrate creates or updates the case tables
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(&models.Expediente{}, &models.Movement{}, &models.Task{}, &models.Note{}, &models.SyncRun{})
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
