package services

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"expedientes_app_go/models"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	ErrCaseNotFound = errors.New("case not found")
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidInput = errors.New("invalid input")
)

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from user-entered free text, keeping it as plain text
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// CaseFilter narrows the case list
type CaseFilter struct {
	Court   string // exact court name
	Keyword string // substring of title or case number
}

// ListCases returns cases ordered by case number
func ListCases(db *gorm.DB, filter CaseFilter) ([]models.Expediente, error) {
	query := db.Model(&models.Expediente{})
	if filter.Court != "" {
		query = query.Where("court_name = ?", filter.Court)
	}
	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		query = query.Where(db.Where("title LIKE ?", keyword).Or("case_number LIKE ?", keyword))
	}

	var cases []models.Expediente
	if err := query.Order("case_number ASC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

// GetCaseDetail loads a case with its movements, tasks and notes
func GetCaseDetail(db *gorm.DB, caseNumber string) (*models.Expediente, error) {
	var c models.Expediente
	err := db.
		Preload("Movements", func(tx *gorm.DB) *gorm.DB { return tx.Order("date DESC") }).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB { return tx.Order("completed ASC, due_date ASC") }).
		Preload("Notes", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at DESC") }).
		First(&c, "case_number = ?", caseNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	return &c, nil
}

// CaseSheet holds the manually maintained fields of a case
type CaseSheet struct {
	CourtName                  *string `json:"court_name"`
	DivisionName               *string `json:"division_name"`
	PrecautionaryMeasureStatus *string `json:"precautionary_measure_status"`
	Observations               *string `json:"observations"`
}

// UpdateCaseSheet writes the user-sourced fields; portal fields are never touched
func UpdateCaseSheet(db *gorm.DB, caseNumber string, sheet CaseSheet) (*models.Expediente, error) {
	if sheet.PrecautionaryMeasureStatus != nil && *sheet.PrecautionaryMeasureStatus != "" &&
		!models.IsValidPrecautionaryStatus(*sheet.PrecautionaryMeasureStatus) {
		return nil, fmt.Errorf("%w: unknown precautionary measure status %q", ErrInvalidInput, *sheet.PrecautionaryMeasureStatus)
	}
	if err := ensureCase(db, caseNumber); err != nil {
		return nil, err
	}

	var status *string
	if sheet.PrecautionaryMeasureStatus != nil && *sheet.PrecautionaryMeasureStatus != "" {
		status = sheet.PrecautionaryMeasureStatus
	}

	// Map form so explicit NULLs are written
	updates := map[string]interface{}{
		"court_name":                   optionalText(sheet.CourtName),
		"division_name":                optionalText(sheet.DivisionName),
		"precautionary_measure_status": status,
		"observations":                 optionalText(sheet.Observations),
	}
	if err := db.Model(&models.Expediente{CaseNumber: caseNumber}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update case sheet: %w", err)
	}
	return GetCaseDetail(db, caseNumber)
}

// AddMovement appends a manual docket entry
func AddMovement(db *gorm.DB, caseNumber string, date time.Time, description string) (*models.Movement, error) {
	description = sanitizeText(description)
	if description == "" || date.IsZero() {
		return nil, fmt.Errorf("%w: movement needs a date and a description", ErrInvalidInput)
	}
	if err := ensureCase(db, caseNumber); err != nil {
		return nil, err
	}

	m := &models.Movement{CaseNumber: caseNumber, Date: date, Description: description}
	if err := db.Create(m).Error; err != nil {
		return nil, fmt.Errorf("failed to create movement: %w", err)
	}
	return m, nil
}

// AddTask appends a pending task
func AddTask(db *gorm.DB, caseNumber, description string, dueDate *time.Time, priority string) (*models.Task, error) {
	description = sanitizeText(description)
	if description == "" {
		return nil, fmt.Errorf("%w: task needs a description", ErrInvalidInput)
	}
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.IsValidPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, priority)
	}
	if err := ensureCase(db, caseNumber); err != nil {
		return nil, err
	}

	task := &models.Task{CaseNumber: caseNumber, Description: description, DueDate: dueDate, Priority: priority}
	if err := db.Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// SetTaskCompleted marks a task done or reopens it
func SetTaskCompleted(db *gorm.DB, taskID string, completed bool) (*models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	if err := db.Model(&task).Update("completed", completed).Error; err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &task, nil
}

// AddNote appends a note to a case
func AddNote(db *gorm.DB, caseNumber, content string) (*models.Note, error) {
	content = sanitizeText(content)
	if content == "" {
		return nil, fmt.Errorf("%w: note content is empty", ErrInvalidInput)
	}
	if err := ensureCase(db, caseNumber); err != nil {
		return nil, err
	}

	note := &models.Note{CaseNumber: caseNumber, Content: content}
	if err := db.Create(note).Error; err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func ensureCase(db *gorm.DB, caseNumber string) error {
	var count int64
	if err := db.Model(&models.Expediente{}).Where("case_number = ?", caseNumber).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up case: %w", err)
	}
	if count == 0 {
		return ErrCaseNotFound
	}
	return nil
}

// DashboardStats summarizes the caseload for the landing view
type DashboardStats struct {
	Cases        int64 `json:"cases"`
	PendingTasks int64 `json:"pending_tasks"`
	DueThisWeek  int64 `json:"due_this_week"`
	Overdue      int64 `json:"overdue"`
}

// GetDashboardStats counts pending work relative to now
func GetDashboardStats(db *gorm.DB, now time.Time) (*DashboardStats, error) {
	var stats DashboardStats
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekEnd := today.AddDate(0, 0, 8)

	pending := func() *gorm.DB {
		return db.Model(&models.Task{}).Where("completed = ?", false)
	}

	if err := db.Model(&models.Expediente{}).Count(&stats.Cases).Error; err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}
	if err := pending().Count(&stats.PendingTasks).Error; err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	if err := pending().Where("due_date >= ? AND due_date < ?", today, weekEnd).Count(&stats.DueThisWeek).Error; err != nil {
		return nil, fmt.Errorf("failed to count due tasks: %w", err)
	}
	if err := pending().Where("due_date < ?", today).Count(&stats.Overdue).Error; err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}
	return &stats, nil
}
