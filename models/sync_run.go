package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sync run status constants
const (
	SyncStatusSuccess = "SUCCESS"
	SyncStatusFailed  = "FAILED"
)

// SyncRun records one portal synchronization attempt
type SyncRun struct {
	ID         string    `gorm:"type:uuid;primarykey" json:"id"`
	StartedAt  time.Time `gorm:"not null" json:"started_at"`
	FinishedAt time.Time `gorm:"index" json:"finished_at"`
	Status     string    `gorm:"size:10;not null;index" json:"status"`

	// Failure details, empty on success
	FailureKind string `gorm:"size:32" json:"failure_kind,omitempty"`
	Message     string `gorm:"type:text" json:"message,omitempty"`
	SnapshotURL   string `json:"snapshot_url,omitempty"`
	ScreenshotURL string `json:"screenshot_url,omitempty"`

	// Counters
	Extracted int `json:"extracted"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// BeforeCreate hook to generate UUID
func (s *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (SyncRun) TableName() string {
	return "sync_runs"
}

// Succeeded reports whether the run completed reconciliation
func (s SyncRun) Succeeded() bool {
	return s.Status == SyncStatusSuccess
}
