package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task priority constants
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Movement is a manually recorded docket entry for a case
type Movement struct {
	ID          string    `gorm:"type:uuid;primarykey" json:"id"`
	CaseNumber  string    `gorm:"size:64;not null;index" json:"case_number"`
	Date        time.Time `gorm:"not null" json:"date"`
	Description string    `gorm:"type:text;not null" json:"description"`
}

// Task is a user-managed to-do attached to a case
type Task struct {
	ID          string     `gorm:"type:uuid;primarykey" json:"id"`
	CaseNumber  string     `gorm:"size:64;not null;index" json:"case_number"`
	Description string     `gorm:"type:text;not null" json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    string     `gorm:"size:10;not null;default:medium" json:"priority"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
}

// Note is free text attached to a case
type Note struct {
	ID         string    `gorm:"type:uuid;primarykey" json:"id"`
	CaseNumber string    `gorm:"size:64;not null;index" json:"case_number"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsValidPriority checks a task priority value
func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// BeforeCreate hook to generate UUID
func (m *Movement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// BeforeCreate hook to generate UUID
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// BeforeCreate hook to generate UUID
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Movement) TableName() string {
	return "movements"
}

func (Task) TableName() string {
	return "tasks"
}

func (Note) TableName() string {
	return "notes"
}
